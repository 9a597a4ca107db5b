package service

import (
	"context"
	"sync"
	"time"

	"github.com/and161185/discokeeper/internal/errs"
	"github.com/and161185/discokeeper/internal/limiter"
	"github.com/and161185/discokeeper/internal/model"
	"github.com/and161185/discokeeper/internal/repository"
	"github.com/gofrs/uuid/v5"
)

type fakeSettings struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*model.Settings

	setServerErr error
	savePidErr   error

	setServerCalls int
	savePidCalls   int
}

var _ repository.SettingsRepository = (*fakeSettings)(nil)

func newFakeSettings(seed ...model.Settings) *fakeSettings {
	f := &fakeSettings{accounts: map[uuid.UUID]*model.Settings{}}
	for _, s := range seed {
		cpy := s
		cpy.Pids = append([]model.Pid(nil), s.Pids...)
		f.accounts[s.ID] = &cpy
	}
	return f
}

func (f *fakeSettings) UpsertAccount(_ context.Context, acc model.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.accounts[acc.ID]; ok {
		s.Account = acc
		return nil
	}
	f.accounts[acc.ID] = &model.Settings{Account: acc}
	return nil
}

func (f *fakeSettings) GetSettings(_ context.Context, id uuid.UUID) (*model.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.accounts[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cpy := *s
	cpy.Pids = append([]model.Pid(nil), s.Pids...)
	return &cpy, nil
}

func (f *fakeSettings) SetIdentityServer(_ context.Context, id uuid.UUID, server string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setServerCalls++
	if f.setServerErr != nil {
		return f.setServerErr
	}
	s, ok := f.accounts[id]
	if !ok {
		return errs.ErrNotFound
	}
	s.IdentityServer = server
	return nil
}

func (f *fakeSettings) SavePid(_ context.Context, id uuid.UUID, pid model.Pid) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.savePidCalls++
	if f.savePidErr != nil {
		return f.savePidErr
	}
	s, ok := f.accounts[id]
	if !ok {
		return errs.ErrNotFound
	}
	for i := range s.Pids {
		if s.Pids[i].Key() == pid.Key() {
			s.Pids[i] = pid
			return nil
		}
	}
	s.Pids = append(s.Pids, pid)
	return nil
}

func (f *fakeSettings) DeletePid(_ context.Context, id uuid.UUID, key model.PidKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.accounts[id]
	if !ok {
		return errs.ErrNotFound
	}
	for i := range s.Pids {
		if s.Pids[i].Key() == key {
			s.Pids = append(s.Pids[:i], s.Pids[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound
}

func (f *fakeSettings) stored(id uuid.UUID) model.Settings {
	s, _ := f.GetSettings(context.Background(), id)
	return *s
}

type fakeTermsRepo struct {
	mu       sync.Mutex
	accepted map[string][]string
}

var _ repository.TermsRepository = (*fakeTermsRepo)(nil)

func (f *fakeTermsRepo) AcceptedTerms(_ context.Context, _ uuid.UUID, server string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.accepted[server]...), nil
}

func (f *fakeTermsRepo) AcceptTerms(_ context.Context, _ uuid.UUID, server string, urls []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.accepted == nil {
		f.accepted = map[string][]string{}
	}
	f.accepted[server] = append(f.accepted[server], urls...)
	return nil
}

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	allowCalls  int
	recordCalls int
	resetCalls  int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, uuid.UUID, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, time.Minute, l.allowErr
}

func (l *fakeLimiter) Record(context.Context, uuid.UUID, []byte) (bool, time.Duration, error) {
	l.recordCalls++
	return false, 0, nil
}

func (l *fakeLimiter) Reset(context.Context, uuid.UUID, []byte) error {
	l.resetCalls++
	return nil
}
