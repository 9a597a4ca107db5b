package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/discokeeper/internal/errs"
	"github.com/and161185/discokeeper/internal/matrix"
	"github.com/and161185/discokeeper/internal/model"
	"github.com/and161185/discokeeper/internal/repository"
	"github.com/and161185/discokeeper/internal/repository/memory"
)

type fakeAccepted struct {
	urls []string
	err  error
}

var _ repository.TermsRepository = (*fakeAccepted)(nil)

func (f *fakeAccepted) AcceptedTerms(context.Context, uuid.UUID, string) ([]string, error) {
	return f.urls, f.err
}

func (f *fakeAccepted) AcceptTerms(_ context.Context, _ uuid.UUID, _ string, urls []string) error {
	f.urls = append(f.urls, urls...)
	return nil
}

// fakeMatrix plays both the identity server and the homeserver.
type fakeMatrix struct {
	mu        sync.Mutex
	validated map[string]bool // sid -> validated
	attempts  []float64
	secrets   []string
	unbinds   int
}

func (f *fakeMatrix) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.Body != nil {
			raw, _ := io.ReadAll(r.Body)
			_ = jsoniter.Unmarshal(raw, &body)
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.URL.Path {
		case "/_matrix/identity/v2/terms":
			_, _ = io.WriteString(w, `{"policies":{"tos":{"version":"1","en":{"url":"https://is/tos"}}}}`)
		case "/_matrix/identity/v2/validate/email/requestToken", "/_matrix/identity/v2/validate/msisdn/requestToken":
			f.attempts = append(f.attempts, body["send_attempt"].(float64))
			f.secrets = append(f.secrets, body["client_secret"].(string))
			_, _ = io.WriteString(w, `{"sid":"sid-1"}`)
		case "/_matrix/identity/v2/validate/msisdn/submitToken":
			if body["token"] == "4242" {
				f.validated[body["sid"].(string)] = true
				_, _ = io.WriteString(w, `{"success":true}`)
				return
			}
			_, _ = io.WriteString(w, `{"success":false}`)
		case "/_matrix/client/v3/account/3pid/bind":
			if !f.validated[body["sid"].(string)] {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, `{"errcode":"M_SESSION_NOT_VALIDATED"}`)
				return
			}
			_, _ = io.WriteString(w, `{}`)
		case "/_matrix/client/v3/account/3pid/unbind":
			f.unbinds++
			_, _ = io.WriteString(w, `{"id_server_unbind_result":"success"}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func setup(t *testing.T) (*Matrix, *fakeMatrix, *fakeAccepted, model.Account, string) {
	t.Helper()
	fm := &fakeMatrix{validated: map[string]bool{}}
	srv := httptest.NewServer(fm.handler(t))
	t.Cleanup(srv.Close)

	acc := model.Account{ID: uuid.Must(uuid.NewV4()), Homeserver: srv.URL, AccessToken: "syt"}
	accepted := &fakeAccepted{}
	m := NewMatrix(matrix.New(time.Second), accepted, memory.NewSessions(), time.Hour, zaptest.NewLogger(t))
	return m, fm, accepted, acc, srv.URL
}

func TestMatrix_Terms(t *testing.T) {
	t.Parallel()
	m, _, accepted, acc, is := setup(t)
	accepted.urls = []string{"https://is/tos"}

	resp, err := m.Terms(acc).GetTerms(context.Background(), model.ServiceIdentity, is)
	require.NoError(t, err)
	require.Contains(t, resp.Policies, "tos")
	require.Equal(t, []string{"https://is/tos"}, resp.AlreadyAccepted)

	accepted.err = errs.ErrNotFound
	_, err = m.Terms(acc).GetTerms(context.Background(), model.ServiceIdentity, is)
	require.ErrorContains(t, err, "load accepted terms")
}

func TestMatrix_EmailBindFlow(t *testing.T) {
	t.Parallel()
	m, fm, _, acc, is := setup(t)
	b := m.Binder(acc)
	ctx := context.Background()
	pid := model.Pid{Medium: model.MediumEmail, Address: "alice@example.org", State: model.NotShared}

	st, err := b.SubmitBind(ctx, is, pid)
	require.NoError(t, err)
	require.Equal(t, model.BindPending, st)

	// resend reuses the secret with the next send_attempt
	_, err = b.SubmitBind(ctx, is, pid)
	require.NoError(t, err)
	fm.mu.Lock()
	require.Equal(t, []float64{1, 2}, fm.attempts)
	require.Equal(t, fm.secrets[0], fm.secrets[1])
	fm.mu.Unlock()

	st, err = b.CheckBind(ctx, is, pid, true)
	require.NoError(t, err)
	require.Equal(t, model.BindPending, st, "not validated yet")

	fm.mu.Lock()
	fm.validated["sid-1"] = true
	fm.mu.Unlock()

	st, err = b.CheckBind(ctx, is, pid, true)
	require.NoError(t, err)
	require.Equal(t, model.BindConfirmed, st)

	// session consumed
	_, err = b.CheckBind(ctx, is, pid, true)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestMatrix_PhoneTokenFlow(t *testing.T) {
	t.Parallel()
	m, _, _, acc, is := setup(t)
	b := m.Binder(acc)
	ctx := context.Background()
	pid := model.Pid{Medium: model.MediumPhone, Address: "447700900123"}

	_, err := b.SubmitBind(ctx, is, pid)
	require.NoError(t, err)

	_, err = b.SubmitPhoneToken(ctx, is, pid, "0000", true)
	require.True(t, matrix.HasCode(err, matrix.ErrCodeInvalidToken))

	st, err := b.SubmitPhoneToken(ctx, is, pid, "4242", true)
	require.NoError(t, err)
	require.Equal(t, model.BindConfirmed, st)
}

func TestMatrix_SessionOnOtherServer(t *testing.T) {
	t.Parallel()
	m, _, _, acc, is := setup(t)
	b := m.Binder(acc)
	pid := model.Pid{Medium: model.MediumEmail, Address: "alice@example.org"}

	_, err := b.SubmitBind(context.Background(), is, pid)
	require.NoError(t, err)
	_, err = b.CheckBind(context.Background(), "https://other.example.org", pid, true)
	require.ErrorIs(t, err, errs.ErrInvalidState)
}

func TestMatrix_Unbind(t *testing.T) {
	t.Parallel()
	m, fm, _, acc, is := setup(t)
	b := m.Binder(acc)
	pid := model.Pid{Medium: model.MediumEmail, Address: "alice@example.org", State: model.Shared}

	st, err := b.SubmitUnbind(context.Background(), is, pid)
	require.NoError(t, err)
	require.Equal(t, model.BindConfirmed, st)

	st, err = b.CheckBind(context.Background(), is, pid, false)
	require.NoError(t, err)
	require.Equal(t, model.BindConfirmed, st)
	fm.mu.Lock()
	defer fm.mu.Unlock()
	require.Equal(t, 2, fm.unbinds)
}
