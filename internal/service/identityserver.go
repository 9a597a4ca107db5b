package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/discokeeper/internal/errs"
	"github.com/and161185/discokeeper/internal/metrics"
	"github.com/and161185/discokeeper/internal/model"
	"github.com/and161185/discokeeper/internal/terms"
)

// TermsChecker is implemented by *terms.Verifier.
type TermsChecker interface {
	Check(ctx context.Context, serviceType model.ServiceType, baseURL, language string) (model.TermsOutcome, error)
}

// SanitizeBaseURL prepends https:// unless s already starts with http:// or https://.
// No other validation is done; malformed hosts are left to the network layer.
func SanitizeBaseURL(s string) string {
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return s
	}
	return "https://" + s
}

// IdentityServerChangeController validates a candidate identity server and decides where the
// user goes next. Each Submit opens a verification session; only the latest session may
// update state, earlier ones are discarded when they resolve.
type IdentityServerChangeController struct {
	checker  TermsChecker
	language string
	log      *zap.Logger
	metrics  *metrics.Metrics
	listener func(model.ChangeServerState)

	mu      sync.Mutex
	state   model.ChangeServerState
	session uint64
	seq     uint64

	notifyMu  sync.Mutex
	delivered uint64
}

// ChangeOption configures an IdentityServerChangeController.
type ChangeOption func(*IdentityServerChangeController)

// WithStateListener registers fn to receive every new state snapshot.
// fn runs outside the state lock, one call at a time; a snapshot older than one already
// delivered is skipped. fn must not call back into the controller.
func WithStateListener(fn func(model.ChangeServerState)) ChangeOption {
	return func(c *IdentityServerChangeController) { c.listener = fn }
}

// WithChangeLogger sets the logger.
func WithChangeLogger(log *zap.Logger) ChangeOption {
	return func(c *IdentityServerChangeController) {
		if log != nil {
			c.log = log
		}
	}
}

// WithChangeMetrics sets the metrics sink.
func WithChangeMetrics(m *metrics.Metrics) ChangeOption {
	return func(c *IdentityServerChangeController) { c.metrics = m }
}

// NewIdentityServerChangeController constructs a controller for an account whose current
// identity server is existing ("" when none). language selects localized policies.
func NewIdentityServerChangeController(checker TermsChecker, existing, language string, opts ...ChangeOption) *IdentityServerChangeController {
	c := &IdentityServerChangeController{
		checker:  checker,
		language: language,
		log:      zap.NewNop(),
		state:    model.ChangeServerState{ExistingServer: existing},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// State returns the current snapshot.
func (c *IdentityServerChangeController) State() model.ChangeServerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetCandidate stores raw user input and clears the previous error. No validation happens here.
func (c *IdentityServerChangeController) SetCandidate(server string) model.ChangeServerState {
	return c.update(func(s model.ChangeServerState) model.ChangeServerState {
		s.Candidate = server
		s.Err = nil
		return s
	})
}

// SetExisting records the identity server now configured for the account.
func (c *IdentityServerChangeController) SetExisting(server string) model.ChangeServerState {
	return c.update(func(s model.ChangeServerState) model.ChangeServerState {
		s.ExistingServer = server
		return s
	})
}

// Submit verifies the stored candidate and returns the navigation decision.
//
// A blank candidate fails with errs.ErrEmptyServer without any network call. Every remote
// failure is reported as errs.ErrServerValidation. If another Submit started while this one
// was waiting, the result is dropped and errs.ErrSuperseded is returned.
func (c *IdentityServerChangeController) Submit(ctx context.Context) (model.NavigationOutcome, error) {
	c.mu.Lock()
	c.session++
	token := c.session
	raw := strings.TrimSpace(c.state.Candidate)
	if raw == "" {
		st, seq := c.setLocked(func(s model.ChangeServerState) model.ChangeServerState {
			s.Err = errs.ErrEmptyServer
			s.IsVerifying = false
			return s
		})
		c.mu.Unlock()
		c.notify(st, seq)
		return model.NavigationOutcome{}, errs.ErrEmptyServer
	}
	baseURL := SanitizeBaseURL(raw)
	st, seq := c.setLocked(func(s model.ChangeServerState) model.ChangeServerState {
		s.Err = nil
		s.IsVerifying = true
		return s
	})
	c.mu.Unlock()
	c.notify(st, seq)

	outcome, err := c.checker.Check(ctx, model.ServiceIdentity, baseURL, c.language)

	c.mu.Lock()
	if token != c.session {
		c.mu.Unlock()
		c.log.Debug("discarding superseded terms check",
			zap.Uint64("session", token),
			zap.String("server", baseURL),
		)
		return model.NavigationOutcome{}, errs.ErrSuperseded
	}
	if err != nil {
		st, seq = c.setLocked(func(s model.ChangeServerState) model.ChangeServerState {
			s.Err = errs.ErrServerValidation
			s.IsVerifying = false
			return s
		})
		c.mu.Unlock()

		kind := terms.Classify(err)
		c.metrics.TermsFailed(string(kind))
		c.log.Warn("identity server validation failed",
			zap.String("server", baseURL),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		c.notify(st, seq)
		return model.NavigationOutcome{}, errs.ErrServerValidation
	}
	st, seq = c.setLocked(func(s model.ChangeServerState) model.ChangeServerState {
		s.IsVerifying = false
		return s
	})
	c.mu.Unlock()
	c.notify(st, seq)

	nav := navigationFor(outcome, baseURL)
	c.metrics.TermsChecked(nav.Kind.String())
	c.log.Info("identity server verified",
		zap.String("server", baseURL),
		zap.Stringer("outcome", nav.Kind),
	)
	return nav, nil
}

func navigationFor(o model.TermsOutcome, server string) model.NavigationOutcome {
	switch {
	case o.Kind == model.TermsNotDefined:
		return model.NavigationOutcome{Kind: model.ProceedNoTerms, Server: server}
	case o.Kind == model.TermsNeedAcceptance && len(o.PendingURLs) > 0:
		urls := append([]string(nil), o.PendingURLs...)
		return model.NavigationOutcome{Kind: model.PromptShowTerms, Server: server, PendingURLs: urls}
	default:
		return model.NavigationOutcome{Kind: model.ProceedTermsAccepted, Server: server}
	}
}

func (c *IdentityServerChangeController) update(fn func(model.ChangeServerState) model.ChangeServerState) model.ChangeServerState {
	c.mu.Lock()
	st, seq := c.setLocked(fn)
	c.mu.Unlock()
	c.notify(st, seq)
	return st
}

// setLocked replaces the snapshot with fn(old) and returns it with its sequence number;
// c.mu must be held.
func (c *IdentityServerChangeController) setLocked(fn func(model.ChangeServerState) model.ChangeServerState) (model.ChangeServerState, uint64) {
	c.state = fn(c.state)
	c.seq++
	return c.state, c.seq
}

// notify hands st to the listener unless a newer snapshot was already delivered, so the
// listener sees snapshots in the order they were made.
func (c *IdentityServerChangeController) notify(st model.ChangeServerState, seq uint64) {
	if c.listener == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if seq <= c.delivered {
		return
	}
	c.delivered = seq
	c.listener(st)
}
