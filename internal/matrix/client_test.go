package matrix

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/and161185/discokeeper/internal/metrics"
	"github.com/and161185/discokeeper/internal/model"
)

func newServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestClient_Terms(t *testing.T) {
	t.Parallel()
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/_matrix/identity/v2/terms", r.URL.Path)
		_, _ = io.WriteString(w, `{"policies":{"privacy_policy":{"version":"1.2",
			"en":{"name":"Privacy Policy","url":"https://id.example.org/en/privacy"},
			"fr":{"name":"Politique","url":"https://id.example.org/fr/privacy"}}}}`)
	})

	reg := prometheus.NewRegistry()
	c := New(time.Second, WithMetrics(metrics.New(reg)))
	policies, err := c.Terms(context.Background(), srv.URL+"/", model.ServiceIdentity)
	require.NoError(t, err)

	p := policies["privacy_policy"]
	require.Equal(t, "1.2", p.Version)
	require.Len(t, p.Localized, 2)
	require.Equal(t, "https://id.example.org/fr/privacy", p.Localized["fr"].URL)
	n, err := testutil.GatherAndCount(reg, "discokeeper_matrix_request_duration_ms")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestClient_Terms_Integration(t *testing.T) {
	t.Parallel()
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/_matrix/integrations/v1/terms", r.URL.Path)
		_, _ = io.WriteString(w, `{"policies":{}}`)
	})
	policies, err := New(time.Second).Terms(context.Background(), srv.URL, model.ServiceIntegration)
	require.NoError(t, err)
	require.Empty(t, policies)
}

func TestClient_ErrorChannels(t *testing.T) {
	t.Parallel()

	protocol := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"errcode":"M_UNRECOGNIZED","error":"Unrecognized request"}`)
	})
	_, err := New(time.Second).Terms(context.Background(), protocol.URL, model.ServiceIdentity)
	var me *Error
	require.ErrorAs(t, err, &me)
	require.Equal(t, http.StatusNotFound, me.StatusCode)
	require.Equal(t, "M_UNRECOGNIZED", me.ErrCode())

	plain := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})
	_, err = New(time.Second).Terms(context.Background(), plain.URL, model.ServiceIdentity)
	require.True(t, HasCode(err, "M_UNKNOWN"))

	garbage := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `<html>`)
	})
	_, err = New(time.Second).Terms(context.Background(), garbage.URL, model.ServiceIdentity)
	require.ErrorContains(t, err, "decode response")
	require.False(t, errors.As(err, &me))

	// Closed port: transport failure surfaces as a net.Error.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	_, err = New(time.Second).Terms(context.Background(), "http://"+addr, model.ServiceIdentity)
	var ne net.Error
	require.ErrorAs(t, err, &ne)
}

func TestClient_RequestToken(t *testing.T) {
	t.Parallel()
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		switch r.URL.Path {
		case "/_matrix/identity/v2/validate/email/requestToken":
			assert.Equal(t, "alice@example.org", body["email"])
			assert.Equal(t, float64(1), body["send_attempt"])
			_, _ = io.WriteString(w, `{"sid":"email-sid"}`)
		case "/_matrix/identity/v2/validate/msisdn/requestToken":
			assert.Equal(t, "+447700900123", body["phone_number"])
			assert.Equal(t, "s3cret", body["client_secret"])
			_, _ = io.WriteString(w, `{"sid":"msisdn-sid"}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	c := New(time.Second)

	sid, err := c.RequestToken(context.Background(), srv.URL, model.MediumEmail, "s3cret", "alice@example.org", 1)
	require.NoError(t, err)
	require.Equal(t, "email-sid", sid)

	sid, err = c.RequestToken(context.Background(), srv.URL, model.MediumPhone, "s3cret", "447700900123", 2)
	require.NoError(t, err)
	require.Equal(t, "msisdn-sid", sid)

	_, err = c.RequestToken(context.Background(), srv.URL, model.Medium("fax"), "s", "1", 1)
	require.Error(t, err)
}

func TestClient_SubmitToken(t *testing.T) {
	t.Parallel()
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/_matrix/identity/v2/validate/msisdn/submitToken", r.URL.Path)
		body := decodeBody(t, r)
		if body["token"] == "123456" {
			_, _ = io.WriteString(w, `{"success":true}`)
			return
		}
		_, _ = io.WriteString(w, `{"success":false}`)
	})
	c := New(time.Second)

	require.NoError(t, c.SubmitToken(context.Background(), srv.URL, model.MediumPhone, "sid", "secret", "123456"))
	err := c.SubmitToken(context.Background(), srv.URL, model.MediumPhone, "sid", "secret", "000000")
	require.True(t, HasCode(err, ErrCodeInvalidToken))
}

func TestClient_BindUnbind(t *testing.T) {
	t.Parallel()
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer syt_token", r.Header.Get("Authorization"))
		body := decodeBody(t, r)
		assert.Equal(t, "id.example.org:8443", body["id_server"])
		switch r.URL.Path {
		case "/_matrix/client/v3/account/3pid/bind":
			if body["sid"] == "pending" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, `{"errcode":"M_SESSION_NOT_VALIDATED","error":"not validated"}`)
				return
			}
			_, _ = io.WriteString(w, `{}`)
		case "/_matrix/client/v3/account/3pid/unbind":
			assert.Equal(t, "email", body["medium"])
			if body["address"] == "nosupport@example.org" {
				_, _ = io.WriteString(w, `{"id_server_unbind_result":"no-support"}`)
				return
			}
			_, _ = io.WriteString(w, `{"id_server_unbind_result":"success"}`)
		}
	})
	c := New(time.Second)
	is := "https://id.example.org:8443/"

	require.NoError(t, c.Bind(context.Background(), srv.URL, "syt_token", is, "ok", "secret"))
	err := c.Bind(context.Background(), srv.URL, "syt_token", is, "pending", "secret")
	require.True(t, HasCode(err, ErrCodeSessionNotValidated))

	key := model.PidKey{Medium: model.MediumEmail, Address: "alice@example.org"}
	require.NoError(t, c.Unbind(context.Background(), srv.URL, "syt_token", is, key))
	key.Address = "nosupport@example.org"
	require.ErrorContains(t, c.Unbind(context.Background(), srv.URL, "syt_token", is, key), "no-support")
}

func TestIDServerHost(t *testing.T) {
	t.Parallel()
	require.Equal(t, "id.example.org", IDServerHost("https://id.example.org"))
	require.Equal(t, "localhost:8090", IDServerHost("http://localhost:8090/"))
	require.Equal(t, "vector.im", IDServerHost("vector.im/"))
}

func TestClient_WithHTTPClientOverTLS(t *testing.T) {
	t.Parallel()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"policies":{}}`)
	}))
	t.Cleanup(srv.Close)

	// default transport does not trust the test CA
	_, err := New(time.Second).Terms(context.Background(), srv.URL, model.ServiceIdentity)
	require.Error(t, err)

	policies, err := New(time.Second, WithHTTPClient(srv.Client())).Terms(context.Background(), srv.URL, model.ServiceIdentity)
	require.NoError(t, err)
	require.Empty(t, policies)
}
