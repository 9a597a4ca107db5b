package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/discokeeper/internal/errs"
	"github.com/and161185/discokeeper/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// SettingsRepo implements SettingsRepository using PostgreSQL.
type SettingsRepo struct{ db *DB }

// NewSettingsRepo constructs a settings repository.
func NewSettingsRepo(db *DB) *SettingsRepo { return &SettingsRepo{db: db} }

// UpsertAccount inserts the account or refreshes its homeserver credentials.
// The configured identity server is left untouched.
func (r *SettingsRepo) UpsertAccount(ctx context.Context, acc model.Account) error {
	const q = `
INSERT INTO discovery_accounts (account_id, homeserver_url, hs_access_token, updated_at)
VALUES ($1,$2,$3,now())
ON CONFLICT (account_id)
DO UPDATE SET homeserver_url=EXCLUDED.homeserver_url, hs_access_token=EXCLUDED.hs_access_token, updated_at=now()`
	_, err := r.db.Pool.Exec(ctx, q, acc.ID, acc.Homeserver, acc.AccessToken)
	return err
}

// GetSettings loads the account row and its Pids in one read-only transaction.
func (r *SettingsRepo) GetSettings(ctx context.Context, accountID uuid.UUID) (s *model.Settings, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, err
	}
	defer finishTx(ctx, tx, &err)

	const acc = `
SELECT homeserver_url, hs_access_token, COALESCE(identity_server,'')
FROM discovery_accounts WHERE account_id=$1`
	out := &model.Settings{Account: model.Account{ID: accountID}}
	err = tx.QueryRow(ctx, acc, accountID).Scan(&out.Homeserver, &out.AccessToken, &out.IdentityServer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = errs.ErrNotFound
		}
		return nil, err
	}

	const pids = `
SELECT medium, address, shared_state
FROM third_party_ids
WHERE account_id=$1
ORDER BY medium, address`
	rows, err := tx.Query(ctx, pids, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var medium, address, state string
		if err = rows.Scan(&medium, &address, &state); err != nil {
			return nil, err
		}
		p := model.Pid{Medium: model.Medium(medium), Address: address, State: model.SharedState(state)}
		if !p.State.Valid() {
			err = fmt.Errorf("pid %s/%s: unknown state %q", medium, address, state)
			return nil, err
		}
		out.Pids = append(out.Pids, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SetIdentityServer stores server; "" is stored as NULL.
func (r *SettingsRepo) SetIdentityServer(ctx context.Context, accountID uuid.UUID, server string) error {
	const q = `UPDATE discovery_accounts SET identity_server=NULLIF($2,''), updated_at=now() WHERE account_id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, accountID, server)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SavePid inserts the Pid or updates its shared state.
func (r *SettingsRepo) SavePid(ctx context.Context, accountID uuid.UUID, pid model.Pid) error {
	const q = `
INSERT INTO third_party_ids (account_id, medium, address, shared_state, updated_at)
VALUES ($1,$2,$3,$4,now())
ON CONFLICT (account_id, medium, address)
DO UPDATE SET shared_state=EXCLUDED.shared_state, updated_at=now()`
	_, err := r.db.Pool.Exec(ctx, q, accountID, string(pid.Medium), pid.Address, string(pid.State))
	if isForeignKeyViolation(err) {
		return errs.ErrNotFound
	}
	return err
}

// DeletePid removes a Pid.
func (r *SettingsRepo) DeletePid(ctx context.Context, accountID uuid.UUID, key model.PidKey) error {
	const q = `DELETE FROM third_party_ids WHERE account_id=$1 AND medium=$2 AND address=$3`
	tag, err := r.db.Pool.Exec(ctx, q, accountID, string(key.Medium), key.Address)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
