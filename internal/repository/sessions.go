package repository

import (
	"context"
	"time"

	"github.com/and161185/discokeeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

// SessionStore keeps the identity server validation session behind a pending bind.
// Get returns errs.ErrNotFound for a missing or expired session.
type SessionStore interface {
	Put(ctx context.Context, accountID uuid.UUID, key model.PidKey, s model.BindSession, ttl time.Duration) error
	Get(ctx context.Context, accountID uuid.UUID, key model.PidKey) (model.BindSession, error)
	Delete(ctx context.Context, accountID uuid.UUID, key model.PidKey) error
}
