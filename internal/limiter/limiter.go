// Package limiter throttles verification messages sent to a single third-party identifier.
package limiter

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Limiter counts verification sends per (account, identifier) and places temporary blocks.
// addrHash is a fingerprint of the identifier; raw addresses are never stored.
type Limiter interface {
	// Allow reports whether another send is currently allowed and an optional retry-after.
	Allow(ctx context.Context, accountID uuid.UUID, addrHash []byte) (bool, time.Duration, error)
	// Record counts one send; reports whether the identifier is now blocked.
	Record(ctx context.Context, accountID uuid.UUID, addrHash []byte) (bool, time.Duration, error)
	// Reset clears counters once the identifier has been verified.
	Reset(ctx context.Context, accountID uuid.UUID, addrHash []byte) error
}
