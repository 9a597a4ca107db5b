package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"
)

// TermsRepo implements TermsRepository using PostgreSQL.
type TermsRepo struct{ db *DB }

// NewTermsRepo constructs a terms repository.
func NewTermsRepo(db *DB) *TermsRepo { return &TermsRepo{db: db} }

// AcceptedTerms returns accepted document URLs for (account, server) in URL order.
func (r *TermsRepo) AcceptedTerms(ctx context.Context, accountID uuid.UUID, server string) ([]string, error) {
	const q = `SELECT url FROM accepted_terms WHERE account_id=$1 AND server=$2 ORDER BY url`
	rows, err := r.db.Pool.Query(ctx, q, accountID, server)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// AcceptTerms records urls as accepted; duplicates are ignored.
func (r *TermsRepo) AcceptTerms(ctx context.Context, accountID uuid.UUID, server string, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	const q = `
INSERT INTO accepted_terms (account_id, server, url, accepted_at)
SELECT $1, $2, u, now() FROM unnest($3::text[]) AS u
ON CONFLICT (account_id, server, url) DO NOTHING`
	_, err := r.db.Pool.Exec(ctx, q, accountID, server, urls)
	return err
}
