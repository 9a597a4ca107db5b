// Package gateway binds the discovery controllers to Matrix servers and local stores.
package gateway

import (
	"context"

	"github.com/and161185/discokeeper/internal/model"
	"github.com/and161185/discokeeper/internal/terms"
)

//go:generate mockgen -source=gateway.go -destination=mocks/mock_gateway.go -package=mocks BindService,Factory

// BindService submits and verifies 3pid bind/unbind requests against an identity server.
// Implementations return model.BindPending while the user still has to verify ownership.
type BindService interface {
	SubmitBind(ctx context.Context, server string, pid model.Pid) (model.BindStatus, error)
	SubmitUnbind(ctx context.Context, server string, pid model.Pid) (model.BindStatus, error)
	CheckBind(ctx context.Context, server string, pid model.Pid, bind bool) (model.BindStatus, error)
	SubmitPhoneToken(ctx context.Context, server string, pid model.Pid, code string, bind bool) (model.BindStatus, error)
}

// Factory builds per-account collaborators.
type Factory interface {
	Terms(acc model.Account) terms.Service
	Binder(acc model.Account) BindService
}
