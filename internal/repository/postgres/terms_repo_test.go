package postgres

import (
	"context"
	"testing"

	"github.com/gofrs/uuid/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func TestTermsRepo_AcceptedTerms(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTermsRepo(db)
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`SELECT url FROM accepted_terms WHERE account_id=\$1 AND server=\$2`).
		WithArgs(id, "https://id.example.org").
		WillReturnRows(pgxmock.NewRows([]string{"url"}).
			AddRow("https://id.example.org/privacy").
			AddRow("https://id.example.org/tos"))

	urls, err := r.AcceptedTerms(context.Background(), id, "https://id.example.org")
	require.NoError(t, err)
	require.Equal(t, []string{"https://id.example.org/privacy", "https://id.example.org/tos"}, urls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTermsRepo_AcceptTerms(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTermsRepo(db)
	id := uuid.Must(uuid.NewV4())
	urls := []string{"https://id.example.org/tos"}

	mock.ExpectExec(`INSERT INTO accepted_terms .* unnest\(\$3::text\[\]\)`).
		WithArgs(id, "https://id.example.org", urls).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.AcceptTerms(context.Background(), id, "https://id.example.org", urls))

	// nothing to record, no query
	require.NoError(t, r.AcceptTerms(context.Background(), id, "https://id.example.org", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}
