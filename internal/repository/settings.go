// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/discokeeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

// SettingsRepository persists the discovery configuration of accounts.
type SettingsRepository interface {
	// UpsertAccount creates the account or updates its homeserver credentials.
	UpsertAccount(ctx context.Context, acc model.Account) error
	// GetSettings loads the account, its identity server and all of its Pids.
	GetSettings(ctx context.Context, accountID uuid.UUID) (*model.Settings, error)
	// SetIdentityServer stores the configured identity server; "" disconnects.
	SetIdentityServer(ctx context.Context, accountID uuid.UUID, server string) error
	// SavePid inserts the Pid or updates its state.
	SavePid(ctx context.Context, accountID uuid.UUID, pid model.Pid) error
	// DeletePid removes a Pid from the account.
	DeletePid(ctx context.Context, accountID uuid.UUID, key model.PidKey) error
}
