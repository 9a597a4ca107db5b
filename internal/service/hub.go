package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/discokeeper/internal/errs"
	"github.com/and161185/discokeeper/internal/gateway"
	"github.com/and161185/discokeeper/internal/limiter"
	"github.com/and161185/discokeeper/internal/metrics"
	"github.com/and161185/discokeeper/internal/model"
	"github.com/and161185/discokeeper/internal/repository"
	"github.com/and161185/discokeeper/internal/terms"
)

// DiscoveryService is the per-account discovery API used by the transports.
type DiscoveryService interface {
	// Overview returns the current settings, change state and listening flag.
	Overview(ctx context.Context, accountID uuid.UUID) (model.DiscoveryView, error)
	// LinkAccount registers or refreshes the homeserver credentials of an account.
	LinkAccount(ctx context.Context, acc model.Account) error
	AddIdentifier(ctx context.Context, accountID uuid.UUID, medium model.Medium, address string) (model.Pid, error)
	RemoveIdentifier(ctx context.Context, accountID uuid.UUID, key model.PidKey) (model.Pid, error)
	// SetCandidate stores raw identity server input without validating it.
	SetCandidate(ctx context.Context, accountID uuid.UUID, server string) (model.ChangeServerState, error)
	SubmitIdentityServer(ctx context.Context, accountID uuid.UUID, confirmed bool) (model.ChangeResult, error)
	DisconnectIdentityServer(ctx context.Context, accountID uuid.UUID, confirmed bool) (model.ChangeResult, error)
	AcceptTerms(ctx context.Context, accountID uuid.UUID, server string, urls []string) error
	ShareIdentifier(ctx context.Context, accountID uuid.UUID, key model.PidKey) (model.Pid, error)
	RevokeIdentifier(ctx context.Context, accountID uuid.UUID, key model.PidKey) (model.Pid, error)
	CheckVerification(ctx context.Context, accountID uuid.UUID, key model.PidKey, bind bool) (model.Pid, error)
	SubmitPhoneToken(ctx context.Context, accountID uuid.UUID, msisdn, code string, bind bool) (model.Pid, error)
	// Resume starts event delivery and re-checks pending identifiers.
	Resume(ctx context.Context, accountID uuid.UUID) ([]model.ReconcileResult, error)
	// Pause stops event delivery.
	Pause(ctx context.Context, accountID uuid.UUID) error
	// DeliverEvent forwards a pushed verification event to a listening account.
	DeliverEvent(ctx context.Context, ev model.VerificationEvent) (bool, error)
}

// Deps are the collaborators of DiscoveryServiceImpl.
type Deps struct {
	Settings repository.SettingsRepository
	Terms    repository.TermsRepository
	Gateways gateway.Factory
	Limiter  limiter.Limiter
	Language string
	Metrics  *metrics.Metrics
	Log      *zap.Logger
}

// DiscoveryServiceImpl keeps one DiscoverySettingsController per account, loaded on first use.
type DiscoveryServiceImpl struct {
	d Deps

	mu    sync.Mutex
	ctrls map[uuid.UUID]*DiscoverySettingsController
}

var _ DiscoveryService = (*DiscoveryServiceImpl)(nil)

// NewDiscoveryService constructs the service.
func NewDiscoveryService(d Deps) *DiscoveryServiceImpl {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Language == "" {
		d.Language = terms.DefaultLanguage
	}
	return &DiscoveryServiceImpl{d: d, ctrls: map[uuid.UUID]*DiscoverySettingsController{}}
}

func (s *DiscoveryServiceImpl) build(st model.Settings) *DiscoverySettingsController {
	return NewDiscoverySettingsController(st, ControllerDeps{
		Binds:    s.d.Gateways.Binder(st.Account),
		Checker:  terms.NewVerifier(s.d.Gateways.Terms(st.Account)),
		Settings: s.d.Settings,
		Terms:    s.d.Terms,
		Limiter:  s.d.Limiter,
		Language: s.d.Language,
		Metrics:  s.d.Metrics,
		Log:      s.d.Log,
	})
}

// controller returns the cached controller or loads it from storage.
func (s *DiscoveryServiceImpl) controller(ctx context.Context, accountID uuid.UUID) (*DiscoverySettingsController, error) {
	if accountID == uuid.Nil {
		return nil, fmt.Errorf("empty account id: %w", errs.ErrUnauthorized)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.ctrls[accountID]; ok {
		return c, nil
	}
	st, err := s.d.Settings.GetSettings(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	c := s.build(*st)
	s.ctrls[accountID] = c
	return c, nil
}

// LinkAccount stores the account credentials. A loaded controller is relinked in place
// and keeps its identifiers, listening flag and any operation in flight.
func (s *DiscoveryServiceImpl) LinkAccount(ctx context.Context, acc model.Account) error {
	if acc.ID == uuid.Nil {
		return fmt.Errorf("empty account id: %w", errs.ErrInvalidArgument)
	}
	acc.Homeserver = strings.TrimSpace(acc.Homeserver)
	acc.AccessToken = strings.TrimSpace(acc.AccessToken)
	if acc.Homeserver == "" || acc.AccessToken == "" {
		return fmt.Errorf("homeserver and access token are required: %w", errs.ErrInvalidArgument)
	}
	acc.Homeserver = SanitizeBaseURL(acc.Homeserver)
	if err := s.d.Settings.UpsertAccount(ctx, acc); err != nil {
		return fmt.Errorf("link account: %w", err)
	}

	// controller holds s.mu while loading, so a load that read the old row is cached by now.
	s.mu.Lock()
	c := s.ctrls[acc.ID]
	s.mu.Unlock()
	if c != nil {
		c.Relink(acc, s.d.Gateways.Binder(acc))
	}

	s.d.Log.Info("account linked", zap.String("account_id", acc.ID.String()), zap.String("homeserver", acc.Homeserver))
	return nil
}

func (s *DiscoveryServiceImpl) Overview(ctx context.Context, accountID uuid.UUID) (model.DiscoveryView, error) {
	c, err := s.controller(ctx, accountID)
	if err != nil {
		return model.DiscoveryView{}, err
	}
	return c.View(), nil
}

func (s *DiscoveryServiceImpl) AddIdentifier(ctx context.Context, accountID uuid.UUID, medium model.Medium, address string) (model.Pid, error) {
	c, err := s.controller(ctx, accountID)
	if err != nil {
		return model.Pid{}, err
	}
	return c.AddIdentifier(ctx, medium, address)
}

func (s *DiscoveryServiceImpl) RemoveIdentifier(ctx context.Context, accountID uuid.UUID, key model.PidKey) (model.Pid, error) {
	c, err := s.controller(ctx, accountID)
	if err != nil {
		return model.Pid{}, err
	}
	return c.RemoveIdentifier(ctx, key)
}

func (s *DiscoveryServiceImpl) SetCandidate(ctx context.Context, accountID uuid.UUID, server string) (model.ChangeServerState, error) {
	c, err := s.controller(ctx, accountID)
	if err != nil {
		return model.ChangeServerState{}, err
	}
	return c.Change().SetCandidate(server), nil
}

func (s *DiscoveryServiceImpl) SubmitIdentityServer(ctx context.Context, accountID uuid.UUID, confirmed bool) (model.ChangeResult, error) {
	c, err := s.controller(ctx, accountID)
	if err != nil {
		return model.ChangeResult{}, err
	}
	return c.SubmitIdentityServer(ctx, confirmed)
}

func (s *DiscoveryServiceImpl) DisconnectIdentityServer(ctx context.Context, accountID uuid.UUID, confirmed bool) (model.ChangeResult, error) {
	c, err := s.controller(ctx, accountID)
	if err != nil {
		return model.ChangeResult{}, err
	}
	return c.RequestDisconnectIdentityServer(ctx, confirmed)
}

func (s *DiscoveryServiceImpl) AcceptTerms(ctx context.Context, accountID uuid.UUID, server string, urls []string) error {
	c, err := s.controller(ctx, accountID)
	if err != nil {
		return err
	}
	return c.AcceptTerms(ctx, server, urls)
}

func (s *DiscoveryServiceImpl) ShareIdentifier(ctx context.Context, accountID uuid.UUID, key model.PidKey) (model.Pid, error) {
	c, err := s.controller(ctx, accountID)
	if err != nil {
		return model.Pid{}, err
	}
	return c.ShareIdentifier(ctx, key)
}

func (s *DiscoveryServiceImpl) RevokeIdentifier(ctx context.Context, accountID uuid.UUID, key model.PidKey) (model.Pid, error) {
	c, err := s.controller(ctx, accountID)
	if err != nil {
		return model.Pid{}, err
	}
	return c.RevokeIdentifier(ctx, key)
}

func (s *DiscoveryServiceImpl) CheckVerification(ctx context.Context, accountID uuid.UUID, key model.PidKey, bind bool) (model.Pid, error) {
	c, err := s.controller(ctx, accountID)
	if err != nil {
		return model.Pid{}, err
	}
	return c.CheckVerification(ctx, key, bind)
}

func (s *DiscoveryServiceImpl) SubmitPhoneToken(ctx context.Context, accountID uuid.UUID, msisdn, code string, bind bool) (model.Pid, error) {
	c, err := s.controller(ctx, accountID)
	if err != nil {
		return model.Pid{}, err
	}
	return c.SubmitPhoneToken(ctx, msisdn, code, bind)
}

func (s *DiscoveryServiceImpl) Resume(ctx context.Context, accountID uuid.UUID) ([]model.ReconcileResult, error) {
	c, err := s.controller(ctx, accountID)
	if err != nil {
		return nil, err
	}
	c.StartListening()
	return c.ReconcilePendingOnResume(ctx), nil
}

func (s *DiscoveryServiceImpl) Pause(ctx context.Context, accountID uuid.UUID) error {
	c, err := s.controller(ctx, accountID)
	if err != nil {
		return err
	}
	c.StopListening()
	return nil
}

// DeliverEvent never loads an account: only controllers that are cached and listening
// receive events. Everything else is dropped without buffering.
func (s *DiscoveryServiceImpl) DeliverEvent(ctx context.Context, ev model.VerificationEvent) (bool, error) {
	key, ok := model.NormalizeKey(string(ev.Medium), ev.Address)
	if !ok {
		return false, errs.ErrInvalidIdentifier
	}
	ev.Medium, ev.Address = key.Medium, key.Address
	s.mu.Lock()
	c := s.ctrls[ev.AccountID]
	s.mu.Unlock()
	if c == nil {
		s.d.Metrics.EventDelivered("dropped")
		return false, nil
	}

	delivered, err := c.HandleVerificationEvent(ctx, ev)
	switch {
	case err != nil:
		s.d.Metrics.EventDelivered("error")
	case delivered:
		s.d.Metrics.EventDelivered("delivered")
	default:
		s.d.Metrics.EventDelivered("dropped")
	}
	return delivered, err
}
