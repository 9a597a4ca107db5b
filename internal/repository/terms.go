package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"
)

// TermsRepository records which policy documents an account accepted on which server.
type TermsRepository interface {
	// AcceptedTerms returns the document URLs accepted on server.
	AcceptedTerms(ctx context.Context, accountID uuid.UUID, server string) ([]string, error)
	// AcceptTerms records urls as accepted on server. Already accepted URLs are ignored.
	AcceptTerms(ctx context.Context, accountID uuid.UUID, server string, urls []string) error
}
