package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	u "github.com/gofrs/uuid/v5"

	apiv1 "github.com/and161185/discokeeper/api/discovery/v1"
	"github.com/and161185/discokeeper/internal/service"
)

func withTmpConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return filepath.Join(dir, "discokeeper")
}

func Test_cfgDir_And_Paths(t *testing.T) {
	_ = withTmpConfig(t)
	got := cfgDir()
	base := os.Getenv("XDG_CONFIG_HOME") + "/discokeeper"
	if got != base {
		t.Fatalf("cfgDir=%q, want %q", got, base)
	}
	if !strings.HasPrefix(tokenPath(), base) || !strings.HasSuffix(tokenPath(), "token.json") {
		t.Fatalf("tokenPath unexpected: %s", tokenPath())
	}
}

func Test_token_SaveLoad(t *testing.T) {
	_ = withTmpConfig(t)

	if _, err := loadToken(); err == nil {
		t.Fatalf("expected error when token file missing")
	}
	now := time.Now().Add(1 * time.Minute)
	if err := saveToken("tok", now); err != nil {
		t.Fatalf("saveToken: %v", err)
	}
	tok, err := loadToken()
	if err != nil || tok != "tok" {
		t.Fatalf("loadToken: tok=%q err=%v", tok, err)
	}
	st, err := os.Stat(tokenPath())
	if err != nil || st.Mode().Perm() != 0o600 {
		t.Fatalf("token file mode: %v %v", st, err)
	}
	if err := saveToken("tok2", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("saveToken expired: %v", err)
	}
	if _, err := loadToken(); err == nil {
		t.Fatalf("want error for expired token")
	}
}

func Test_issueToken(t *testing.T) {
	t.Parallel()

	if _, _, _, err := issueToken("", "", time.Hour); err == nil {
		t.Fatalf("empty key must fail")
	}
	if _, _, _, err := issueToken("k", "not-a-uuid", time.Hour); err == nil {
		t.Fatalf("bad account must fail")
	}

	tok, id, exp, err := issueToken("k", "", time.Hour)
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}
	if id == u.Nil || time.Until(exp) < 59*time.Minute {
		t.Fatalf("unexpected id/exp: %s %v", id, exp)
	}
	got, err := service.NewTokenService([]byte("k"), time.Hour).Verify(tok)
	if err != nil || got != id {
		t.Fatalf("server side verify: %s %v", got, err)
	}

	want := u.Must(u.NewV4())
	_, id, _, err = issueToken("k", want.String(), time.Hour)
	if err != nil || id != want {
		t.Fatalf("explicit account: %s %v", id, err)
	}
}

func Test_urlList(t *testing.T) {
	t.Parallel()

	var l urlList
	if err := l.Set(" https://a.example/tos "); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := l.Set("https://b.example/privacy"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := l.Set("  "); err == nil {
		t.Fatalf("blank url accepted")
	}
	if l.String() != "https://a.example/tos,https://b.example/privacy" {
		t.Fatalf("urlList=%q", l.String())
	}
}

func Test_describeChange(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   *apiv1.ChangeResponse
		want string
	}{
		{"applied", &apiv1.ChangeResponse{Applied: true, Server: "https://id.example.org"}, "set to https://id.example.org"},
		{"disconnected", &apiv1.ChangeResponse{Applied: true}, "disconnected"},
		{"confirm change", &apiv1.ChangeResponse{Confirmation: &apiv1.Confirmation{
			CurrentServer: "https://old.example.org", CandidateServer: "https://id.example.org",
		}}, "switch to https://id.example.org"},
		{"confirm disconnect", &apiv1.ChangeResponse{Confirmation: &apiv1.Confirmation{
			CurrentServer: "https://old.example.org",
		}}, "-yes to disconnect"},
		{"terms", &apiv1.ChangeResponse{Navigation: &apiv1.Navigation{
			Kind: "show_terms", Server: "https://id.example.org", PendingURLs: []string{"https://id.example.org/tos"},
		}}, "requires accepting terms: https://id.example.org/tos"},
		{"nothing", &apiv1.ChangeResponse{}, "no change"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := describeChange(tc.in); !strings.Contains(got, tc.want) {
				t.Fatalf("describeChange=%q, want substring %q", got, tc.want)
			}
		})
	}
}

func Test_printJSON_WritesPretty(t *testing.T) {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	defer func() { os.Stdout = old }()

	printJSON(map[string]any{"a": 1})
	_ = w.Close()
	out, _ := io.ReadAll(r)

	var m map[string]any
	if json.Unmarshal(out, &m) != nil || m["a"] != float64(1) {
		t.Fatalf("printJSON produced invalid json: %s", string(out))
	}
	if !bytes.Contains(out, []byte("\n")) {
		t.Fatalf("printJSON should indent")
	}
}

func Test_bearerCreds_Metadata(t *testing.T) {
	t.Parallel()

	b := bearerCreds{token: "T"}
	md, err := b.GetRequestMetadata(context.Background())
	if err != nil {
		t.Fatalf("GetRequestMetadata: %v", err)
	}
	if md["authorization"] != "Bearer T" {
		t.Fatalf("auth header mismatch: %v", md)
	}
	if !b.RequireTransportSecurity() {
		t.Fatalf("bearerCreds must require TLS")
	}
	if (bearerCreds{token: "T", plaintext: true}).RequireTransportSecurity() {
		t.Fatalf("plaintext bearer must not require TLS")
	}
}

func Test_loadTLS_Variants(t *testing.T) {
	t.Parallel()

	// insecure
	creds, err := loadTLS("", true)
	if err != nil || creds == nil {
		t.Fatalf("insecure: %v %v", creds, err)
	}

	// system default (no caPath)
	creds, err = loadTLS("", false)
	if err != nil || creds == nil {
		t.Fatalf("default tls: %v %v", creds, err)
	}

	// bad CA file
	tmp := filepath.Join(t.TempDir(), "bad.pem")
	_ = os.WriteFile(tmp, []byte("not pem"), 0o600)
	creds, err = loadTLS(tmp, false)
	if err == nil || creds != nil {
		t.Fatalf("bad CA should error, got creds=%v err=%v", creds, err)
	}

	// missing CA file
	if _, err := loadTLS(filepath.Join(t.TempDir(), "nope.pem"), false); err == nil {
		t.Fatalf("missing CA should error")
	}
}
