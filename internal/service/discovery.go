package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/discokeeper/internal/crypto"
	"github.com/and161185/discokeeper/internal/errs"
	"github.com/and161185/discokeeper/internal/gateway"
	"github.com/and161185/discokeeper/internal/limiter"
	"github.com/and161185/discokeeper/internal/metrics"
	"github.com/and161185/discokeeper/internal/model"
	"github.com/and161185/discokeeper/internal/registry"
	"github.com/and161185/discokeeper/internal/repository"
)

// ControllerDeps are the collaborators of a DiscoverySettingsController.
// Limiter, Metrics and Log are optional.
type ControllerDeps struct {
	Binds    gateway.BindService
	Checker  TermsChecker
	Settings repository.SettingsRepository
	Terms    repository.TermsRepository
	Limiter  limiter.Limiter
	Language string
	Metrics  *metrics.Metrics
	Log      *zap.Logger
}

// DiscoverySettingsController owns the discovery configuration of one account. It binds
// identifiers against the configured identity server and refuses to switch servers while
// identifiers are Shared unless the caller confirms.
//
// Every mutation is persisted before the in-memory state changes.
type DiscoverySettingsController struct {
	id       uuid.UUID
	account  model.Account
	binds    gateway.BindService
	settings repository.SettingsRepository
	terms    repository.TermsRepository
	lim      limiter.Limiter
	metrics  *metrics.Metrics
	log      *zap.Logger
	change   *IdentityServerChangeController

	// opMu serializes remote identifier operations and guards binds; mu guards account,
	// server and reg.
	opMu      sync.Mutex
	mu        sync.Mutex
	server    string
	reg       *registry.Registry
	listening atomic.Bool
}

// NewDiscoverySettingsController builds a controller from persisted settings.
func NewDiscoverySettingsController(s model.Settings, d ControllerDeps) *DiscoverySettingsController {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("account_id", s.ID.String()))
	return &DiscoverySettingsController{
		id:       s.ID,
		account:  s.Account,
		binds:    d.Binds,
		settings: d.Settings,
		terms:    d.Terms,
		lim:      d.Limiter,
		metrics:  d.Metrics,
		log:      log,
		change: NewIdentityServerChangeController(d.Checker, s.IdentityServer, d.Language,
			WithChangeLogger(log), WithChangeMetrics(d.Metrics)),
		server: s.IdentityServer,
		reg:    registry.New(s.Pids...),
	}
}

// AccountID returns the owning account.
func (c *DiscoverySettingsController) AccountID() uuid.UUID { return c.id }

// Relink replaces the homeserver credentials and the binder built from them. It waits for
// any identifier operation in flight, so the registry is never rebuilt from storage and a
// bind that completes concurrently is not lost.
func (c *DiscoverySettingsController) Relink(acc model.Account, binds gateway.BindService) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.account.Homeserver = acc.Homeserver
	c.account.AccessToken = acc.AccessToken
	c.binds = binds
}

// Change exposes the identity server change controller for candidate input.
func (c *DiscoverySettingsController) Change() *IdentityServerChangeController { return c.change }

// IdentityServer returns the configured identity server ("" when none).
func (c *DiscoverySettingsController) IdentityServer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.server
}

// View returns a snapshot for rendering.
func (c *DiscoverySettingsController) View() model.DiscoveryView {
	c.mu.Lock()
	s := model.Settings{Account: c.account, IdentityServer: c.server, Pids: c.reg.List()}
	c.mu.Unlock()
	return model.DiscoveryView{Settings: s, Change: c.change.State(), Listening: c.listening.Load()}
}

// AddIdentifier attaches a new NotShared identifier to the account.
func (c *DiscoverySettingsController) AddIdentifier(ctx context.Context, medium model.Medium, address string) (model.Pid, error) {
	pid := model.Pid{Medium: medium, Address: strings.TrimSpace(address), State: model.NotShared}
	if !pid.Medium.Valid() || pid.Address == "" {
		return model.Pid{}, errs.ErrInvalidIdentifier
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.reg.Get(pid.Key()); ok {
		return model.Pid{}, errs.ErrAlreadyExists
	}
	if err := c.settings.SavePid(ctx, c.id, pid); err != nil {
		return model.Pid{}, fmt.Errorf("persist identifier: %w", err)
	}
	return c.reg.Add(pid)
}

// RemoveIdentifier detaches an identifier. Any binding it has on the identity server is
// left as is.
func (c *DiscoverySettingsController) RemoveIdentifier(ctx context.Context, key model.PidKey) (model.Pid, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pid, ok := c.reg.Get(key)
	if !ok {
		return model.Pid{}, errs.ErrNotFound
	}
	if err := c.settings.DeletePid(ctx, c.id, key); err != nil && !errors.Is(err, errs.ErrNotFound) {
		return model.Pid{}, fmt.Errorf("delete identifier: %w", err)
	}
	c.reg.Remove(key)
	return pid, nil
}

// RequestChangeIdentityServer replaces the configured identity server, or clears it when
// newServer is nil or blank. While any identifier is Shared and confirmed is false, it
// returns a ConfirmationRequired result and changes nothing. Pid states are never touched.
func (c *DiscoverySettingsController) RequestChangeIdentityServer(ctx context.Context, newServer *string, confirmed bool) (model.ChangeResult, error) {
	target := ""
	if newServer != nil {
		if t := strings.TrimSpace(*newServer); t != "" {
			target = SanitizeBaseURL(t)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.server
	if !confirmed && c.reg.HasBound() {
		c.metrics.ServerChanged("confirmation_required")
		c.log.Info("identity server change needs confirmation",
			zap.String("current", current),
			zap.String("candidate", target),
		)
		return model.ChangeResult{
			Confirmation: &model.ConfirmationRequired{CurrentServer: current, CandidateServer: target},
			Server:       current,
		}, nil
	}

	if err := c.settings.SetIdentityServer(ctx, c.id, target); err != nil {
		c.metrics.ServerChanged("error")
		return model.ChangeResult{}, fmt.Errorf("persist identity server: %w", err)
	}
	c.server = target
	c.change.SetExisting(target)

	result := "applied"
	if target == "" {
		result = "disconnected"
	}
	c.metrics.ServerChanged(result)
	c.log.Info("identity server changed",
		zap.String("from", current),
		zap.String("to", target),
		zap.Bool("confirmed", confirmed),
	)
	return model.ChangeResult{Applied: true, Server: target}, nil
}

// RequestDisconnectIdentityServer is RequestChangeIdentityServer with no target.
func (c *DiscoverySettingsController) RequestDisconnectIdentityServer(ctx context.Context, confirmed bool) (model.ChangeResult, error) {
	return c.RequestChangeIdentityServer(ctx, nil, confirmed)
}

// SubmitIdentityServer runs the full change flow for the stored candidate: confirmation
// gate, terms check, then apply. PromptShowTerms leaves the server unchanged; the caller
// accepts the listed terms and submits again.
func (c *DiscoverySettingsController) SubmitIdentityServer(ctx context.Context, confirmed bool) (model.ChangeResult, error) {
	candidate := strings.TrimSpace(c.change.State().Candidate)
	if candidate == "" {
		// Records the error on the change state without a network call.
		_, err := c.change.Submit(ctx)
		return model.ChangeResult{}, err
	}

	c.mu.Lock()
	bound := c.reg.HasBound()
	current := c.server
	c.mu.Unlock()
	if bound && !confirmed {
		c.metrics.ServerChanged("confirmation_required")
		return model.ChangeResult{
			Confirmation: &model.ConfirmationRequired{CurrentServer: current, CandidateServer: SanitizeBaseURL(candidate)},
			Server:       current,
		}, nil
	}

	nav, err := c.change.Submit(ctx)
	if err != nil {
		return model.ChangeResult{}, err
	}
	if nav.Kind == model.PromptShowTerms {
		return model.ChangeResult{Navigation: &nav, Server: current}, nil
	}

	res, err := c.RequestChangeIdentityServer(ctx, &nav.Server, confirmed)
	if err != nil {
		return model.ChangeResult{}, err
	}
	res.Navigation = &nav
	return res, nil
}

// AcceptTerms records urls as accepted by the account on server.
func (c *DiscoverySettingsController) AcceptTerms(ctx context.Context, server string, urls []string) error {
	server = strings.TrimSpace(server)
	if server == "" {
		return errs.ErrEmptyServer
	}
	if len(urls) == 0 {
		return nil
	}
	if err := c.terms.AcceptTerms(ctx, c.id, SanitizeBaseURL(server), urls); err != nil {
		return fmt.Errorf("accept terms: %w", err)
	}
	c.log.Info("terms accepted", zap.String("server", SanitizeBaseURL(server)), zap.Int("documents", len(urls)))
	return nil
}

// ShareIdentifier submits a bind for a NotShared identifier, or resends the verification
// for one already waiting. The result is Shared when the server binds immediately and
// NotVerifiedForBind when the user has to confirm ownership first.
func (c *DiscoverySettingsController) ShareIdentifier(ctx context.Context, key model.PidKey) (model.Pid, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	pid, server, err := c.lookup(key)
	if err != nil {
		return model.Pid{}, err
	}
	if pid.State != model.NotShared && pid.State != model.NotVerifiedForBind {
		return pid, fmt.Errorf("share %s: %w", pid.State, errs.ErrInvalidState)
	}

	fp := crypto.Fingerprint(string(pid.Medium), pid.Address)
	if c.lim != nil {
		ok, retry, err := c.lim.Allow(ctx, c.id, fp)
		if err != nil {
			return pid, fmt.Errorf("limiter: %w", err)
		}
		if !ok {
			c.metrics.BindOperation("share", "rate_limited")
			return pid, fmt.Errorf("retry in %s: %w", retry.Round(time.Second), errs.ErrRateLimited)
		}
	}

	status, err := c.binds.SubmitBind(ctx, server, pid)
	if err != nil {
		return pid, c.bindFailed("share", pid, err)
	}
	if c.lim != nil {
		if _, _, err := c.lim.Record(ctx, c.id, fp); err != nil {
			c.log.Warn("record verification send", zap.Error(err))
		}
	}

	next := model.NotVerifiedForBind
	if status == model.BindConfirmed {
		next = model.Shared
	}
	c.metrics.BindOperation("share", status.String())
	return c.transition(ctx, key, next)
}

// RevokeIdentifier submits an unbind for a Shared identifier, or retries one waiting for
// unbind verification.
func (c *DiscoverySettingsController) RevokeIdentifier(ctx context.Context, key model.PidKey) (model.Pid, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	pid, server, err := c.lookup(key)
	if err != nil {
		return model.Pid{}, err
	}
	if pid.State != model.Shared && pid.State != model.NotVerifiedForUnbind {
		return pid, fmt.Errorf("revoke %s: %w", pid.State, errs.ErrInvalidState)
	}

	status, err := c.binds.SubmitUnbind(ctx, server, pid)
	if err != nil {
		return pid, c.bindFailed("revoke", pid, err)
	}
	next := model.NotVerifiedForUnbind
	if status == model.BindConfirmed {
		next = model.NotShared
	}
	c.metrics.BindOperation("revoke", status.String())
	return c.transition(ctx, key, next)
}

// CheckVerification re-checks a pending identifier. bind selects the direction and must
// match the pending state. A still-pending result returns the Pid unchanged.
func (c *DiscoverySettingsController) CheckVerification(ctx context.Context, key model.PidKey, bind bool) (model.Pid, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.verify(ctx, key, bind, "check", func(server string, pid model.Pid) (model.BindStatus, error) {
		return c.binds.CheckBind(ctx, server, pid, bind)
	})
}

// SubmitPhoneToken completes a pending phone verification with the received SMS code.
func (c *DiscoverySettingsController) SubmitPhoneToken(ctx context.Context, msisdn, code string, bind bool) (model.Pid, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return model.Pid{}, fmt.Errorf("empty code: %w", errs.ErrInvalidIdentifier)
	}
	key := model.PidKey{Medium: model.MediumPhone, Address: strings.TrimSpace(msisdn)}

	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.verify(ctx, key, bind, "phone_token", func(server string, pid model.Pid) (model.BindStatus, error) {
		return c.binds.SubmitPhoneToken(ctx, server, pid, code, bind)
	})
}

// ReconcilePendingOnResume re-checks every pending identifier in the direction of its state.
// Failures are reported per identifier and never abort the loop.
func (c *DiscoverySettingsController) ReconcilePendingOnResume(ctx context.Context) []model.ReconcileResult {
	c.mu.Lock()
	pending := c.reg.Pending()
	c.mu.Unlock()

	out := make([]model.ReconcileResult, 0, len(pending))
	for _, p := range pending {
		got, err := c.CheckVerification(ctx, p.Key(), p.State == model.NotVerifiedForBind)
		if err != nil {
			c.log.Warn("pending identifier re-check failed",
				zap.String("medium", string(p.Medium)),
				zap.String("address", crypto.Redact(p.Address)),
				zap.Error(err),
			)
			if got.State == "" {
				got = p
			}
		}
		out = append(out, model.ReconcileResult{Pid: got, Err: err})
	}
	return out
}

// StartListening enables delivery of pushed verification events.
func (c *DiscoverySettingsController) StartListening() { c.listening.Store(true) }

// StopListening disables delivery; events arriving afterwards are dropped.
func (c *DiscoverySettingsController) StopListening() { c.listening.Store(false) }

// Listening reports whether pushed events are delivered.
func (c *DiscoverySettingsController) Listening() bool { return c.listening.Load() }

// HandleVerificationEvent re-checks the identifier named by ev. It reports false without
// doing anything when the controller is not listening or the identifier is not pending in
// the event's direction.
func (c *DiscoverySettingsController) HandleVerificationEvent(ctx context.Context, ev model.VerificationEvent) (bool, error) {
	if !c.listening.Load() {
		return false, nil
	}
	key, ok := model.NormalizeKey(string(ev.Medium), ev.Address)
	if !ok {
		return false, errs.ErrInvalidIdentifier
	}
	want := model.NotVerifiedForUnbind
	if ev.Bind {
		want = model.NotVerifiedForBind
	}

	c.mu.Lock()
	pid, ok := c.reg.Get(key)
	c.mu.Unlock()
	if !ok || pid.State != want {
		return false, nil
	}
	_, err := c.CheckVerification(ctx, key, ev.Bind)
	return true, err
}

func (c *DiscoverySettingsController) verify(
	ctx context.Context, key model.PidKey, bind bool, op string,
	call func(server string, pid model.Pid) (model.BindStatus, error),
) (model.Pid, error) {
	pid, server, err := c.lookup(key)
	if err != nil {
		return model.Pid{}, err
	}
	want, done := model.NotVerifiedForUnbind, model.NotShared
	if bind {
		want, done = model.NotVerifiedForBind, model.Shared
	}
	if pid.State != want {
		return pid, fmt.Errorf("%s %s: %w", op, pid.State, errs.ErrInvalidState)
	}

	status, err := call(server, pid)
	if err != nil {
		return pid, c.bindFailed(op, pid, err)
	}
	c.metrics.BindOperation(op, status.String())
	if status != model.BindConfirmed {
		return pid, nil
	}
	if bind && c.lim != nil {
		if err := c.lim.Reset(ctx, c.id, crypto.Fingerprint(string(pid.Medium), pid.Address)); err != nil {
			c.log.Warn("reset verification limiter", zap.Error(err))
		}
	}
	return c.transition(ctx, key, done)
}

// lookup returns the Pid together with the identity server it is bound against.
func (c *DiscoverySettingsController) lookup(key model.PidKey) (model.Pid, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pid, ok := c.reg.Get(key)
	if !ok {
		return model.Pid{}, "", errs.ErrNotFound
	}
	if c.server == "" {
		return pid, "", errs.ErrNoIdentityServer
	}
	return pid, c.server, nil
}

// transition persists and applies a new state. The Pid may have been removed while the
// remote call was in flight; that is reported as ErrNotFound.
func (c *DiscoverySettingsController) transition(ctx context.Context, key model.PidKey, next model.SharedState) (model.Pid, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pid, ok := c.reg.Get(key)
	if !ok {
		return model.Pid{}, errs.ErrNotFound
	}
	prev := pid.State
	pid.State = next
	if err := c.settings.SavePid(ctx, c.id, pid); err != nil {
		return model.Pid{}, fmt.Errorf("persist identifier state: %w", err)
	}
	if _, err := c.reg.SetState(key, next); err != nil {
		return model.Pid{}, err
	}
	c.log.Info("identifier state changed",
		zap.String("medium", string(pid.Medium)),
		zap.String("address", crypto.Redact(pid.Address)),
		zap.String("from", string(prev)),
		zap.String("to", string(next)),
	)
	return pid, nil
}

func (c *DiscoverySettingsController) bindFailed(op string, pid model.Pid, err error) error {
	c.metrics.BindOperation(op, "error")
	c.log.Warn("bind operation failed",
		zap.String("op", op),
		zap.String("medium", string(pid.Medium)),
		zap.String("address", crypto.Redact(pid.Address)),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %v", errs.ErrBindOperation, err)
}
