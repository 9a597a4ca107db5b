// Package httpserver serves health, metrics and the verification event webhook.
package httpserver

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gofrs/uuid/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/and161185/discokeeper/internal/errs"
	"github.com/and161185/discokeeper/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SecretHeader carries the shared webhook secret.
const SecretHeader = "X-Webhook-Secret"

const maxBody = 16 << 10

// EventSink receives pushed verification events.
type EventSink interface {
	DeliverEvent(ctx context.Context, ev model.VerificationEvent) (bool, error)
}

// EventRequest is the body of POST /v1/verification-events.
type EventRequest struct {
	AccountID string `json:"account_id"`
	Medium    string `json:"medium"`
	Address   string `json:"address"`
	Bind      bool   `json:"bind"`
}

// EventResponse reports whether a listening controller took the event.
type EventResponse struct {
	Delivered bool `json:"delivered"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler wires the webhook to the discovery service.
type Handler struct {
	sink   EventSink
	secret string
	log    *zap.Logger
}

// New constructs a webhook handler. An empty secret rejects every event.
func New(sink EventSink, secret string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{sink: sink, secret: secret, log: log}
}

// Register mounts the webhook on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/verification-events", h.HandleEvent)
}

// NewRouter builds the full HTTP surface.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	h.Register(r)
	return r
}

// HandleEvent handles POST /v1/verification-events.
func (h *Handler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	got := r.Header.Get(SecretHeader)
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	var req EventRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}
	id, err := uuid.FromString(req.AccountID)
	if err != nil || id == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid account_id"})
		return
	}

	ev := model.VerificationEvent{AccountID: id, Medium: model.Medium(req.Medium), Address: req.Address, Bind: req.Bind}
	delivered, err := h.sink.DeliverEvent(r.Context(), ev)
	switch {
	case errors.Is(err, errs.ErrInvalidIdentifier):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid identifier"})
		return
	case err != nil:
		// the event reached a controller; its re-check failed and the Pid stays pending
		h.log.Warn("verification event re-check failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("account_id", id.String()),
			zap.Error(err),
		)
	}
	writeJSON(w, http.StatusAccepted, EventResponse{Delivered: delivered})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
