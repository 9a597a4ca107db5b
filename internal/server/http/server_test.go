package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/discokeeper/internal/errs"
	"github.com/and161185/discokeeper/internal/metrics"
	"github.com/and161185/discokeeper/internal/model"
)

type fakeSink struct {
	delivered bool
	err       error
	got       []model.VerificationEvent
}

func (f *fakeSink) DeliverEvent(_ context.Context, ev model.VerificationEvent) (bool, error) {
	f.got = append(f.got, ev)
	return f.delivered, f.err
}

type WebhookSuite struct {
	suite.Suite
	sink   *fakeSink
	router http.Handler
	id     uuid.UUID
}

func TestWebhookSuite(t *testing.T) {
	suite.Run(t, new(WebhookSuite))
}

func (s *WebhookSuite) SetupTest() {
	s.sink = &fakeSink{delivered: true}
	s.id = uuid.Must(uuid.NewV4())
	reg := prometheus.NewRegistry()
	metrics.New(reg).EventDelivered("delivered")
	s.router = NewRouter(New(s.sink, "s3cret", zaptest.NewLogger(s.T())), reg)
}

func (s *WebhookSuite) post(secret, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/verification-events", strings.NewReader(body))
	if secret != "" {
		req.Header.Set(SecretHeader, secret)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *WebhookSuite) body() string {
	return `{"account_id":"` + s.id.String() + `","medium":"email","address":"alice@example.org","bind":true}`
}

func (s *WebhookSuite) TestDelivered() {
	rec := s.post("s3cret", s.body())
	s.Equal(http.StatusAccepted, rec.Code)
	s.JSONEq(`{"delivered":true}`, rec.Body.String())
	s.Require().Len(s.sink.got, 1)
	s.Equal(model.VerificationEvent{AccountID: s.id, Medium: model.MediumEmail, Address: "alice@example.org", Bind: true}, s.sink.got[0])
}

func (s *WebhookSuite) TestDropped() {
	s.sink.delivered = false
	rec := s.post("s3cret", s.body())
	s.Equal(http.StatusAccepted, rec.Code)
	s.JSONEq(`{"delivered":false}`, rec.Body.String())
}

func (s *WebhookSuite) TestRecheckFailureStillAccepted() {
	s.sink.err = errs.ErrBindOperation
	rec := s.post("s3cret", s.body())
	s.Equal(http.StatusAccepted, rec.Code)
}

func (s *WebhookSuite) TestSecretRequired() {
	s.Equal(http.StatusUnauthorized, s.post("", s.body()).Code)
	s.Equal(http.StatusUnauthorized, s.post("wrong", s.body()).Code)
	s.Empty(s.sink.got)
}

func (s *WebhookSuite) TestBadRequests() {
	s.Equal(http.StatusBadRequest, s.post("s3cret", "{").Code)
	s.Equal(http.StatusBadRequest, s.post("s3cret", `{"account_id":"nope"}`).Code)

	s.sink.err = errors.Join(errs.ErrInvalidIdentifier)
	s.Equal(http.StatusBadRequest, s.post("s3cret", s.body()).Code)
}

func (s *WebhookSuite) TestHealthAndMetrics() {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	s.Equal(http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "discokeeper_verification_events_total")
}

func TestEmptySecretRejectsEverything(t *testing.T) {
	t.Parallel()
	sink := &fakeSink{}
	r := NewRouter(New(sink, "", nil), prometheus.NewRegistry())
	req := httptest.NewRequest(http.MethodPost, "/v1/verification-events", strings.NewReader("{}"))
	req.Header.Set(SecretHeader, "")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("code=%d", rec.Code)
	}
}
