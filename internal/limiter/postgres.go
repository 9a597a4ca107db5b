package limiter

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PG is a PostgreSQL-backed limiter with a sliding send window and a temporary block.
type PG struct {
	pool     Querier
	window   time.Duration
	maxSends int
	blockFor time.Duration
}

// Querier is the part of a pgx pool the limiter needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPG constructs a PostgreSQL-backed limiter over a pool or pgxmock.
func NewPG(q Querier, window time.Duration, maxSends int, blockFor time.Duration) *PG {
	return &PG{pool: q, window: window, maxSends: maxSends, blockFor: blockFor}
}

// Allow reports whether a send is currently allowed and a retry-after duration.
func (l *PG) Allow(ctx context.Context, accountID uuid.UUID, addrHash []byte) (bool, time.Duration, error) {
	const q = `SELECT blocked_until FROM verification_limiter WHERE account_id=$1 AND address_hash=$2`
	var blockedUntil time.Time
	err := l.pool.QueryRow(ctx, q, accountID, addrHash).Scan(&blockedUntil)
	switch {
	case err == nil:
		if blockedUntil.After(time.Now()) {
			return false, time.Until(blockedUntil), nil
		}
		return true, 0, nil
	case errors.Is(err, pgx.ErrNoRows):
		return true, 0, nil
	default:
		return false, 0, err
	}
}

// Record counts a send; blocks the identifier once maxSends is reached within the window.
func (l *PG) Record(ctx context.Context, accountID uuid.UUID, addrHash []byte) (bool, time.Duration, error) {
	const q = `
INSERT INTO verification_limiter (account_id, address_hash, send_count, blocked_until, updated_at)
VALUES ($1,$2,1,'epoch',now())
ON CONFLICT (account_id, address_hash) DO UPDATE
SET
  send_count = CASE WHEN EXCLUDED.updated_at - verification_limiter.updated_at > $3::interval THEN 1 ELSE verification_limiter.send_count + 1 END,
  updated_at = now()
RETURNING send_count`
	var sends int
	if err := l.pool.QueryRow(ctx, q, accountID, addrHash, l.window).Scan(&sends); err != nil {
		return false, 0, err
	}
	if sends < l.maxSends {
		return false, 0, nil
	}
	blockUntil := time.Now().Add(l.blockFor)
	const upd = `UPDATE verification_limiter SET blocked_until=$3 WHERE account_id=$1 AND address_hash=$2`
	if _, err := l.pool.Exec(ctx, upd, accountID, addrHash, blockUntil); err != nil {
		return false, 0, err
	}
	return true, l.blockFor, nil
}

// Reset clears counters for (account, identifier).
func (l *PG) Reset(ctx context.Context, accountID uuid.UUID, addrHash []byte) error {
	const q = `DELETE FROM verification_limiter WHERE account_id=$1 AND address_hash=$2`
	_, err := l.pool.Exec(ctx, q, accountID, addrHash)
	return err
}
