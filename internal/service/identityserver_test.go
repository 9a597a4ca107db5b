package service

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/and161185/discokeeper/internal/errs"
	"github.com/and161185/discokeeper/internal/model"
	"go.uber.org/zap/zaptest"
)

type checkFunc func(ctx context.Context, serviceType model.ServiceType, baseURL, language string) (model.TermsOutcome, error)

type fakeChecker struct {
	fn    checkFunc
	calls atomic.Int32

	mu   sync.Mutex
	urls []string
}

var _ TermsChecker = (*fakeChecker)(nil)

func (f *fakeChecker) Check(ctx context.Context, st model.ServiceType, baseURL, lang string) (model.TermsOutcome, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.urls = append(f.urls, baseURL)
	f.mu.Unlock()
	if f.fn == nil {
		return model.TermsOutcome{Kind: model.TermsNotDefined}, nil
	}
	return f.fn(ctx, st, baseURL, lang)
}

func returning(o model.TermsOutcome, err error) *fakeChecker {
	return &fakeChecker{fn: func(context.Context, model.ServiceType, string, string) (model.TermsOutcome, error) {
		return o, err
	}}
}

func TestSanitizeBaseURL(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"id.example.org":         "https://id.example.org",
		"https://id.example.org": "https://id.example.org",
		"http://localhost:8090":  "http://localhost:8090",
		"vector.im/identity":     "https://vector.im/identity",
		"ftp://weird":            "https://ftp://weird",
	}
	for in, want := range cases {
		got := SanitizeBaseURL(in)
		if got != want {
			t.Fatalf("SanitizeBaseURL(%q)=%q want %q", in, got, want)
		}
		if again := SanitizeBaseURL(got); again != got {
			t.Fatalf("not idempotent: %q -> %q", got, again)
		}
	}
}

func TestChange_Submit_EmptyCandidate(t *testing.T) {
	t.Parallel()
	chk := &fakeChecker{}
	c := NewIdentityServerChangeController(chk, "https://old.example.org", "en")

	for _, in := range []string{"", "   ", "\t\n"} {
		c.SetCandidate(in)
		if _, err := c.Submit(context.Background()); !errors.Is(err, errs.ErrEmptyServer) {
			t.Fatalf("want ErrEmptyServer for %q, got %v", in, err)
		}
		st := c.State()
		if !errors.Is(st.Err, errs.ErrEmptyServer) || st.IsVerifying {
			t.Fatalf("bad state after empty submit: %+v", st)
		}
		if st.ExistingServer != "https://old.example.org" {
			t.Fatalf("existing server changed: %q", st.ExistingServer)
		}
	}
	if n := chk.calls.Load(); n != 0 {
		t.Fatalf("want no terms calls, got %d", n)
	}
}

func TestChange_Submit_Outcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		outcome  model.TermsOutcome
		wantKind model.NavigationKind
		wantURLs []string
	}{
		{"no terms", model.TermsOutcome{Kind: model.TermsNotDefined}, model.ProceedNoTerms, nil},
		{
			"needs acceptance",
			model.TermsOutcome{Kind: model.TermsNeedAcceptance, PendingURLs: []string{"https://id.example.org/tos"}},
			model.PromptShowTerms,
			[]string{"https://id.example.org/tos"},
		},
		{"needs acceptance without urls", model.TermsOutcome{Kind: model.TermsNeedAcceptance}, model.ProceedTermsAccepted, nil},
		{"already accepted", model.TermsOutcome{Kind: model.TermsAlreadyAccepted}, model.ProceedTermsAccepted, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			chk := returning(tc.outcome, nil)
			c := NewIdentityServerChangeController(chk, "", "en", WithChangeLogger(zaptest.NewLogger(t)))
			c.SetCandidate("  id.example.org ")

			nav, err := c.Submit(context.Background())
			if err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if nav.Kind != tc.wantKind {
				t.Fatalf("kind=%v want %v", nav.Kind, tc.wantKind)
			}
			if nav.Server != "https://id.example.org" {
				t.Fatalf("server=%q", nav.Server)
			}
			if len(nav.PendingURLs) != len(tc.wantURLs) {
				t.Fatalf("urls=%v want %v", nav.PendingURLs, tc.wantURLs)
			}
			if chk.urls[0] != "https://id.example.org" {
				t.Fatalf("checked %q", chk.urls[0])
			}
			if st := c.State(); st.IsVerifying || st.Err != nil {
				t.Fatalf("bad final state: %+v", st)
			}
		})
	}
}

func TestChange_Submit_FailuresCollapse(t *testing.T) {
	t.Parallel()

	failures := map[string]error{
		"network":    &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")},
		"protocol":   &codedErr{code: "M_UNRECOGNIZED"},
		"unexpected": errors.New("decode: invalid character"),
	}
	for name, cause := range failures {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c := NewIdentityServerChangeController(returning(model.TermsOutcome{}, cause), "https://old.example.org", "en",
				WithChangeLogger(zaptest.NewLogger(t)))
			c.SetCandidate("id.example.org")

			_, err := c.Submit(context.Background())
			if !errors.Is(err, errs.ErrServerValidation) {
				t.Fatalf("want ErrServerValidation, got %v", err)
			}
			if errors.Is(err, cause) {
				t.Fatalf("underlying cause must not leak: %v", err)
			}
			st := c.State()
			if st.IsVerifying || !errors.Is(st.Err, errs.ErrServerValidation) {
				t.Fatalf("bad state: %+v", st)
			}
			if st.ExistingServer != "https://old.example.org" {
				t.Fatalf("existing server changed: %q", st.ExistingServer)
			}
		})
	}
}

type codedErr struct{ code string }

func (e *codedErr) Error() string   { return "matrix error " + e.code }
func (e *codedErr) ErrCode() string { return e.code }

func TestChange_SetCandidateClearsError(t *testing.T) {
	t.Parallel()
	c := NewIdentityServerChangeController(&fakeChecker{}, "", "en")
	_, _ = c.Submit(context.Background())
	if c.State().Err == nil {
		t.Fatalf("want error after empty submit")
	}
	st := c.SetCandidate("id.example.org")
	if st.Err != nil || st.Candidate != "id.example.org" {
		t.Fatalf("bad state: %+v", st)
	}
}

func TestChange_Submit_SupersededResultDiscarded(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{}, 2)
	chk := &fakeChecker{fn: func(_ context.Context, _ model.ServiceType, baseURL, _ string) (model.TermsOutcome, error) {
		started <- struct{}{}
		if baseURL == "https://slow.example.org" {
			<-release
			return model.TermsOutcome{}, errors.New("late failure")
		}
		return model.TermsOutcome{Kind: model.TermsNotDefined}, nil
	}}

	var states []model.ChangeServerState
	var mu sync.Mutex
	c := NewIdentityServerChangeController(chk, "", "en", WithStateListener(func(s model.ChangeServerState) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	}))

	c.SetCandidate("slow.example.org")
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		firstErr <- err
	}()
	<-started

	c.SetCandidate("fast.example.org")
	nav, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if nav.Kind != model.ProceedNoTerms || nav.Server != "https://fast.example.org" {
		t.Fatalf("bad nav: %+v", nav)
	}

	close(release)
	select {
	case err := <-firstErr:
		if !errors.Is(err, errs.ErrSuperseded) {
			t.Fatalf("want ErrSuperseded from stale session, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("stale submit did not return")
	}

	st := c.State()
	if st.Err != nil || st.IsVerifying || st.Candidate != "fast.example.org" {
		t.Fatalf("stale session touched state: %+v", st)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(states) == 0 || states[len(states)-1].IsVerifying {
		t.Fatalf("listener did not see final state: %+v", states)
	}
}

func TestChange_SetExisting(t *testing.T) {
	t.Parallel()
	c := NewIdentityServerChangeController(&fakeChecker{}, "", "en")
	if st := c.SetExisting("https://id.example.org"); st.ExistingServer != "https://id.example.org" {
		t.Fatalf("bad state: %+v", st)
	}
}

func TestChange_ListenerSeesLatestSnapshotLast(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		last model.ChangeServerState
		n    int
	)
	c := NewIdentityServerChangeController(&fakeChecker{}, "", "en", WithStateListener(func(s model.ChangeServerState) {
		mu.Lock()
		last = s
		n++
		mu.Unlock()
	}))

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.SetCandidate(string(rune('a'+i%26)) + ".example.org")
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if n == 0 || n > 64 {
		t.Fatalf("unexpected delivery count %d", n)
	}
	if final := c.State(); last != final {
		t.Fatalf("listener ended on %+v, controller holds %+v", last, final)
	}
}
