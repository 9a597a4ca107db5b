package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestFS_ContainsOrderedMigrations(t *testing.T) {
	t.Parallel()

	names, err := fs.Glob(FS, "*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(names) != 3 {
		t.Fatalf("want 3 migrations, got %v", names)
	}
	for _, n := range names {
		b, err := fs.ReadFile(FS, n)
		if err != nil {
			t.Fatalf("read %s: %v", n, err)
		}
		s := string(b)
		if !strings.Contains(s, "-- +goose Up") || !strings.Contains(s, "-- +goose Down") {
			t.Fatalf("%s lacks goose annotations", n)
		}
	}

	all := ""
	for _, n := range names {
		b, _ := fs.ReadFile(FS, n)
		all += string(b)
	}
	for _, table := range []string{"discovery_accounts", "third_party_ids", "accepted_terms", "verification_limiter"} {
		if !strings.Contains(all, "CREATE TABLE "+table) {
			t.Fatalf("missing table %s", table)
		}
	}
}
