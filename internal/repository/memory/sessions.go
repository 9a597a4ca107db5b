// Package memory provides an in-process SessionStore for single-instance deployments and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/and161185/discokeeper/internal/errs"
	"github.com/and161185/discokeeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

type sessionKey struct {
	account uuid.UUID
	pid     model.PidKey
}

type entry struct {
	s         model.BindSession
	expiresAt time.Time
}

// sweepEvery bounds how often Put scans for expired sessions.
const sweepEvery = time.Minute

// Sessions is a mutex-guarded map of bind sessions. Expired entries are dropped on read
// and by a sweep that Put runs at most once per sweepEvery.
type Sessions struct {
	mu        sync.Mutex
	m         map[sessionKey]entry
	now       func() time.Time
	nextSweep time.Time
}

// NewSessions constructs an empty store.
func NewSessions() *Sessions {
	return &Sessions{m: map[sessionKey]entry{}, now: time.Now}
}

// Put stores s until ttl elapses. A non-positive ttl keeps it forever.
func (st *Sessions) Put(_ context.Context, accountID uuid.UUID, key model.PidKey, s model.BindSession, ttl time.Duration) error {
	now := st.now()
	e := entry{s: s}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if !now.Before(st.nextSweep) {
		st.sweepLocked(now)
		st.nextSweep = now.Add(sweepEvery)
	}
	st.m[sessionKey{accountID, key}] = e
	return nil
}

func (st *Sessions) sweepLocked(now time.Time) {
	for k, e := range st.m {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(st.m, k)
		}
	}
}

// Len returns the number of stored sessions, expired ones included until swept.
func (st *Sessions) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.m)
}

// Get returns the session or errs.ErrNotFound.
func (st *Sessions) Get(_ context.Context, accountID uuid.UUID, key model.PidKey) (model.BindSession, error) {
	k := sessionKey{accountID, key}
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.m[k]
	if !ok {
		return model.BindSession{}, errs.ErrNotFound
	}
	if !e.expiresAt.IsZero() && !st.now().Before(e.expiresAt) {
		delete(st.m, k)
		return model.BindSession{}, errs.ErrNotFound
	}
	return e.s, nil
}

// Delete removes the session; missing sessions are not an error.
func (st *Sessions) Delete(_ context.Context, accountID uuid.UUID, key model.PidKey) error {
	st.mu.Lock()
	delete(st.m, sessionKey{accountID, key})
	st.mu.Unlock()
	return nil
}
