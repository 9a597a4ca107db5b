package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/discokeeper/internal/crypto"
	"github.com/and161185/discokeeper/internal/errs"
	"github.com/and161185/discokeeper/internal/matrix"
	"github.com/and161185/discokeeper/internal/model"
	"github.com/and161185/discokeeper/internal/repository"
	"github.com/and161185/discokeeper/internal/terms"
)

// Matrix is the Factory backed by real identity servers and homeservers.
type Matrix struct {
	client     *matrix.Client
	accepted   repository.TermsRepository
	sessions   repository.SessionStore
	sessionTTL time.Duration
	log        *zap.Logger
	now        func() time.Time
}

var _ Factory = (*Matrix)(nil)

// NewMatrix constructs the factory. Validation sessions live for sessionTTL.
func NewMatrix(client *matrix.Client, accepted repository.TermsRepository, sessions repository.SessionStore, sessionTTL time.Duration, log *zap.Logger) *Matrix {
	if log == nil {
		log = zap.NewNop()
	}
	return &Matrix{
		client:     client,
		accepted:   accepted,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		log:        log,
		now:        time.Now,
	}
}

// Terms returns a terms.Service for acc.
func (m *Matrix) Terms(acc model.Account) terms.Service {
	return &termsSource{m: m, acc: acc}
}

// Binder returns a BindService acting on behalf of acc.
func (m *Matrix) Binder(acc model.Account) BindService {
	return &binder{m: m, acc: acc}
}

type termsSource struct {
	m   *Matrix
	acc model.Account
}

func (s *termsSource) GetTerms(ctx context.Context, serviceType model.ServiceType, baseURL string) (*model.TermsResponse, error) {
	policies, err := s.m.client.Terms(ctx, baseURL, serviceType)
	if err != nil {
		return nil, err
	}
	accepted, err := s.m.accepted.AcceptedTerms(ctx, s.acc.ID, baseURL)
	if err != nil {
		return nil, fmt.Errorf("load accepted terms: %w", err)
	}
	return &model.TermsResponse{Policies: policies, AlreadyAccepted: accepted}, nil
}

type binder struct {
	m   *Matrix
	acc model.Account
}

// SubmitBind starts or resends a validation session. A session already open on the
// same server is reused with an incremented send_attempt so the server resends the token.
func (b *binder) SubmitBind(ctx context.Context, server string, pid model.Pid) (model.BindStatus, error) {
	sess, err := b.m.sessions.Get(ctx, b.acc.ID, pid.Key())
	switch {
	case err == nil && sess.Server == server:
		sess.SendAttempt++
	case err == nil || errors.Is(err, errs.ErrNotFound):
		secret, err := crypto.NewClientSecret()
		if err != nil {
			return model.BindPending, fmt.Errorf("client secret: %w", err)
		}
		sess = model.BindSession{ClientSecret: secret, SendAttempt: 1, Server: server, CreatedAt: b.m.now()}
	default:
		return model.BindPending, fmt.Errorf("load session: %w", err)
	}

	sid, err := b.m.client.RequestToken(ctx, server, pid.Medium, sess.ClientSecret, pid.Address, sess.SendAttempt)
	if err != nil {
		return model.BindPending, err
	}
	sess.Sid = sid
	if err := b.m.sessions.Put(ctx, b.acc.ID, pid.Key(), sess, b.m.sessionTTL); err != nil {
		return model.BindPending, fmt.Errorf("store session: %w", err)
	}
	b.m.log.Debug("validation token requested",
		zap.String("account_id", b.acc.ID.String()),
		zap.String("medium", string(pid.Medium)),
		zap.String("address", crypto.Redact(pid.Address)),
		zap.Int("send_attempt", sess.SendAttempt),
	)
	return model.BindPending, nil
}

// SubmitUnbind removes the binding through the homeserver. Unbinding needs no
// out-of-band verification, so success is always BindConfirmed.
func (b *binder) SubmitUnbind(ctx context.Context, server string, pid model.Pid) (model.BindStatus, error) {
	if err := b.m.client.Unbind(ctx, b.acc.Homeserver, b.acc.AccessToken, server, pid.Key()); err != nil {
		return model.BindPending, err
	}
	if err := b.m.sessions.Delete(ctx, b.acc.ID, pid.Key()); err != nil {
		b.m.log.Warn("drop validation session", zap.Error(err))
	}
	return model.BindConfirmed, nil
}

// CheckBind tries to complete a pending bind. M_SESSION_NOT_VALIDATED means the user
// has not followed the link or entered the code yet.
func (b *binder) CheckBind(ctx context.Context, server string, pid model.Pid, bind bool) (model.BindStatus, error) {
	if !bind {
		return b.SubmitUnbind(ctx, server, pid)
	}
	sess, err := b.session(ctx, server, pid)
	if err != nil {
		return model.BindPending, err
	}
	err = b.m.client.Bind(ctx, b.acc.Homeserver, b.acc.AccessToken, server, sess.Sid, sess.ClientSecret)
	if matrix.HasCode(err, matrix.ErrCodeSessionNotValidated) {
		return model.BindPending, nil
	}
	if err != nil {
		return model.BindPending, err
	}
	if err := b.m.sessions.Delete(ctx, b.acc.ID, pid.Key()); err != nil {
		b.m.log.Warn("drop validation session", zap.Error(err))
	}
	return model.BindConfirmed, nil
}

// SubmitPhoneToken validates the SMS code and then completes the bind.
func (b *binder) SubmitPhoneToken(ctx context.Context, server string, pid model.Pid, code string, bind bool) (model.BindStatus, error) {
	if !bind {
		return b.SubmitUnbind(ctx, server, pid)
	}
	sess, err := b.session(ctx, server, pid)
	if err != nil {
		return model.BindPending, err
	}
	if err := b.m.client.SubmitToken(ctx, server, pid.Medium, sess.Sid, sess.ClientSecret, code); err != nil {
		return model.BindPending, err
	}
	return b.CheckBind(ctx, server, pid, true)
}

func (b *binder) session(ctx context.Context, server string, pid model.Pid) (model.BindSession, error) {
	sess, err := b.m.sessions.Get(ctx, b.acc.ID, pid.Key())
	if err != nil {
		return model.BindSession{}, fmt.Errorf("validation session: %w", err)
	}
	if sess.Server != server {
		return model.BindSession{}, fmt.Errorf("validation session opened on %s: %w", sess.Server, errs.ErrInvalidState)
	}
	return sess, nil
}
