// Package grpcserver exposes the discovery gRPC API handlers.
package grpcserver

import (
	"context"
	"errors"
	"strings"

	"github.com/gofrs/uuid/v5"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apiv1 "github.com/and161185/discokeeper/api/discovery/v1"
	"github.com/and161185/discokeeper/internal/convert"
	"github.com/and161185/discokeeper/internal/errs"
	"github.com/and161185/discokeeper/internal/model"
	"github.com/and161185/discokeeper/internal/service"
)

// Server wires the discovery service into gRPC handlers. Requests must pass AuthUnary first.
type Server struct {
	apiv1.UnimplementedDiscoveryServer
	svc service.DiscoveryService
}

var _ apiv1.DiscoveryServer = (*Server)(nil)

// New constructs a gRPC server with the injected service.
func New(svc service.DiscoveryService) *Server {
	return &Server{svc: svc}
}

// toStatus maps service errors onto gRPC codes.
func toStatus(op string, err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, errs.ErrEmptyServer),
		errors.Is(err, errs.ErrInvalidIdentifier),
		errors.Is(err, errs.ErrInvalidArgument):
		code = codes.InvalidArgument
	case errors.Is(err, errs.ErrServerValidation),
		errors.Is(err, errs.ErrNoIdentityServer),
		errors.Is(err, errs.ErrInvalidState):
		code = codes.FailedPrecondition
	case errors.Is(err, errs.ErrSuperseded):
		code = codes.Aborted
	case errors.Is(err, errs.ErrBindOperation):
		code = codes.Unavailable
	case errors.Is(err, errs.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, errs.ErrAlreadyExists):
		code = codes.AlreadyExists
	case errors.Is(err, errs.ErrRateLimited):
		code = codes.ResourceExhausted
	case errors.Is(err, errs.ErrUnauthorized):
		code = codes.Unauthenticated
	default:
		return status.Errorf(codes.Internal, "%s: internal error", op)
	}
	return status.Errorf(code, "%s: %v", op, err)
}

func (s *Server) account(ctx context.Context) (uuid.UUID, error) {
	id, ok := AccountIDFromCtx(ctx)
	if !ok {
		return uuid.Nil, status.Error(codes.Unauthenticated, "no auth")
	}
	return id, nil
}

func (s *Server) settings(ctx context.Context, id uuid.UUID) (apiv1.Settings, error) {
	v, err := s.svc.Overview(ctx, id)
	if err != nil {
		return apiv1.Settings{}, toStatus("get settings", err)
	}
	return convert.ToAPISettings(v), nil
}

// --- Settings ---

// GetSettings returns the discovery configuration of the caller.
func (s *Server) GetSettings(ctx context.Context, _ *apiv1.GetSettingsRequest) (*apiv1.GetSettingsResponse, error) {
	id, err := s.account(ctx)
	if err != nil {
		return nil, err
	}
	st, err := s.settings(ctx, id)
	if err != nil {
		return nil, err
	}
	return &apiv1.GetSettingsResponse{Settings: st}, nil
}

// LinkAccount stores the homeserver credentials of the caller.
func (s *Server) LinkAccount(ctx context.Context, req *apiv1.LinkAccountRequest) (*apiv1.LinkAccountResponse, error) {
	id, err := s.account(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Homeserver) == "" || strings.TrimSpace(req.AccessToken) == "" {
		return nil, status.Error(codes.InvalidArgument, "empty homeserver/access_token")
	}
	acc := model.Account{ID: id, Homeserver: req.Homeserver, AccessToken: req.AccessToken}
	if err := s.svc.LinkAccount(ctx, acc); err != nil {
		return nil, toStatus("link account", err)
	}
	st, err := s.settings(ctx, id)
	if err != nil {
		return nil, err
	}
	return &apiv1.LinkAccountResponse{Settings: st}, nil
}

// --- Identifiers ---

// AddIdentifier attaches an email address or phone number.
func (s *Server) AddIdentifier(ctx context.Context, req *apiv1.IdentifierRequest) (*apiv1.IdentifierResponse, error) {
	return s.identifierOp(ctx, "add identifier", req, func(id uuid.UUID, k model.PidKey) (model.Pid, error) {
		return s.svc.AddIdentifier(ctx, id, k.Medium, k.Address)
	})
}

// RemoveIdentifier detaches an identifier.
func (s *Server) RemoveIdentifier(ctx context.Context, req *apiv1.IdentifierRequest) (*apiv1.IdentifierResponse, error) {
	return s.identifierOp(ctx, "remove identifier", req, func(id uuid.UUID, k model.PidKey) (model.Pid, error) {
		return s.svc.RemoveIdentifier(ctx, id, k)
	})
}

// ShareIdentifier binds an identifier to the configured identity server.
func (s *Server) ShareIdentifier(ctx context.Context, req *apiv1.IdentifierRequest) (*apiv1.IdentifierResponse, error) {
	return s.identifierOp(ctx, "share identifier", req, func(id uuid.UUID, k model.PidKey) (model.Pid, error) {
		return s.svc.ShareIdentifier(ctx, id, k)
	})
}

// RevokeIdentifier unbinds an identifier.
func (s *Server) RevokeIdentifier(ctx context.Context, req *apiv1.IdentifierRequest) (*apiv1.IdentifierResponse, error) {
	return s.identifierOp(ctx, "revoke identifier", req, func(id uuid.UUID, k model.PidKey) (model.Pid, error) {
		return s.svc.RevokeIdentifier(ctx, id, k)
	})
}

// CheckVerification re-checks a pending identifier.
func (s *Server) CheckVerification(ctx context.Context, req *apiv1.CheckVerificationRequest) (*apiv1.IdentifierResponse, error) {
	ir := &apiv1.IdentifierRequest{Medium: req.Medium, Address: req.Address}
	return s.identifierOp(ctx, "check verification", ir, func(id uuid.UUID, k model.PidKey) (model.Pid, error) {
		return s.svc.CheckVerification(ctx, id, k, req.Bind)
	})
}

// SubmitPhoneToken completes a phone verification with the SMS code.
func (s *Server) SubmitPhoneToken(ctx context.Context, req *apiv1.SubmitPhoneTokenRequest) (*apiv1.IdentifierResponse, error) {
	id, err := s.account(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msisdn == "" || req.Code == "" {
		return nil, status.Error(codes.InvalidArgument, "empty msisdn/code")
	}
	p, err := s.svc.SubmitPhoneToken(ctx, id, req.Msisdn, req.Code, req.Bind)
	if err != nil {
		return nil, toStatus("submit phone token", err)
	}
	return &apiv1.IdentifierResponse{Pid: convert.ToAPIPid(p)}, nil
}

func (s *Server) identifierOp(
	ctx context.Context, op string, req *apiv1.IdentifierRequest,
	call func(uuid.UUID, model.PidKey) (model.Pid, error),
) (*apiv1.IdentifierResponse, error) {
	id, err := s.account(ctx)
	if err != nil {
		return nil, err
	}
	key, err := convert.FromAPIIdentifier(req.Medium, req.Address)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "bad identifier: %v", err)
	}
	p, err := call(id, key)
	if err != nil {
		return nil, toStatus(op, err)
	}
	return &apiv1.IdentifierResponse{Pid: convert.ToAPIPid(p)}, nil
}

// --- Identity server ---

// SetCandidate stores the raw identity server input.
func (s *Server) SetCandidate(ctx context.Context, req *apiv1.SetCandidateRequest) (*apiv1.SetCandidateResponse, error) {
	id, err := s.account(ctx)
	if err != nil {
		return nil, err
	}
	st, err := s.svc.SetCandidate(ctx, id, req.Server)
	if err != nil {
		return nil, toStatus("set candidate", err)
	}
	return &apiv1.SetCandidateResponse{Change: convert.ToAPIChangeState(st)}, nil
}

// SubmitIdentityServer validates the candidate and applies it when allowed.
func (s *Server) SubmitIdentityServer(ctx context.Context, req *apiv1.SubmitIdentityServerRequest) (*apiv1.ChangeResponse, error) {
	id, err := s.account(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.svc.SubmitIdentityServer(ctx, id, req.Confirmed)
	if err != nil {
		return nil, toStatus("submit identity server", err)
	}
	return convert.ToAPIChangeResponse(res), nil
}

// DisconnectIdentityServer clears the configured identity server.
func (s *Server) DisconnectIdentityServer(ctx context.Context, req *apiv1.DisconnectIdentityServerRequest) (*apiv1.ChangeResponse, error) {
	id, err := s.account(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.svc.DisconnectIdentityServer(ctx, id, req.Confirmed)
	if err != nil {
		return nil, toStatus("disconnect identity server", err)
	}
	return convert.ToAPIChangeResponse(res), nil
}

// AcceptTerms records accepted policy documents.
func (s *Server) AcceptTerms(ctx context.Context, req *apiv1.AcceptTermsRequest) (*apiv1.AcceptTermsResponse, error) {
	id, err := s.account(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.svc.AcceptTerms(ctx, id, req.Server, req.URLs); err != nil {
		return nil, toStatus("accept terms", err)
	}
	return &apiv1.AcceptTermsResponse{}, nil
}

// --- Lifecycle ---

// Resume starts event delivery and re-checks pending identifiers.
func (s *Server) Resume(ctx context.Context, _ *apiv1.ResumeRequest) (*apiv1.ResumeResponse, error) {
	id, err := s.account(ctx)
	if err != nil {
		return nil, err
	}
	rs, err := s.svc.Resume(ctx, id)
	if err != nil {
		return nil, toStatus("resume", err)
	}
	return &apiv1.ResumeResponse{Results: convert.ToAPIResults(rs)}, nil
}

// Pause stops event delivery.
func (s *Server) Pause(ctx context.Context, _ *apiv1.PauseRequest) (*apiv1.PauseResponse, error) {
	id, err := s.account(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.svc.Pause(ctx, id); err != nil {
		return nil, toStatus("pause", err)
	}
	return &apiv1.PauseResponse{}, nil
}
