// Package matrix is a minimal client for the identity server and homeserver endpoints
// used by discovery: terms, 3pid validation and 3pid bind/unbind.
package matrix

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/and161185/discokeeper/internal/metrics"
	"github.com/and161185/discokeeper/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Matrix error codes the service reacts to.
const (
	ErrCodeSessionNotValidated = "M_SESSION_NOT_VALIDATED"
	ErrCodeNoValidSession      = "M_NO_VALID_SESSION"
	ErrCodeInvalidToken        = "M_INVALID_TOKEN"
)

// Error is a non-2xx response carrying the standard Matrix error body.
type Error struct {
	StatusCode int    `json:"-"`
	Code       string `json:"errcode"`
	Message    string `json:"error"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("matrix: status %d %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("matrix: status %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// ErrCode returns the Matrix errcode.
func (e *Error) ErrCode() string { return e.Code }

// HasCode reports whether err wraps a Matrix error with the given errcode.
func HasCode(err error, code string) bool {
	var me *Error
	return errors.As(err, &me) && me.Code == code
}

// Client issues Matrix requests. The zero value is not usable; use New.
type Client struct {
	http    *http.Client
	metrics *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithMetrics records request latency per endpoint.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New constructs a client whose requests time out after timeout.
func New(timeout time.Duration, opts ...Option) *Client {
	c := &Client{http: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// IDServerHost returns the host[:port] form of an identity server base URL,
// as homeservers expect it in id_server.
func IDServerHost(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		s := strings.TrimPrefix(strings.TrimPrefix(baseURL, "https://"), "http://")
		return strings.TrimSuffix(s, "/")
	}
	return u.Host
}

func termsPath(serviceType model.ServiceType) string {
	if serviceType == model.ServiceIntegration {
		return "/_matrix/integrations/v1/terms"
	}
	return "/_matrix/identity/v2/terms"
}

// Terms fetches the policies published by a service. Each policy object holds a
// "version" string plus one object per language tag.
func (c *Client) Terms(ctx context.Context, baseURL string, serviceType model.ServiceType) (map[string]model.Policy, error) {
	var body struct {
		Policies map[string]map[string]jsoniter.RawMessage `json:"policies"`
	}
	if err := c.do(ctx, "terms", http.MethodGet, join(baseURL, termsPath(serviceType)), "", nil, &body); err != nil {
		return nil, err
	}

	out := make(map[string]model.Policy, len(body.Policies))
	for name, fields := range body.Policies {
		p := model.Policy{Localized: map[string]model.PolicyDocument{}}
		for key, raw := range fields {
			if key == "version" {
				_ = json.Unmarshal(raw, &p.Version)
				continue
			}
			var doc model.PolicyDocument
			if err := json.Unmarshal(raw, &doc); err != nil {
				// Unknown non-object fields are ignored.
				continue
			}
			p.Localized[key] = doc
		}
		out[name] = p
	}
	return out, nil
}

// RequestToken asks the identity server to send a validation token to address and
// returns the session id.
func (c *Client) RequestToken(ctx context.Context, isURL string, medium model.Medium, clientSecret, address string, sendAttempt int) (string, error) {
	var (
		in       any
		endpoint string
	)
	switch medium {
	case model.MediumEmail:
		endpoint = "email_request_token"
		in = map[string]any{"client_secret": clientSecret, "email": address, "send_attempt": sendAttempt}
	case model.MediumPhone:
		endpoint = "msisdn_request_token"
		in = map[string]any{
			"client_secret": clientSecret,
			"country":       "",
			"phone_number":  "+" + strings.TrimPrefix(address, "+"),
			"send_attempt":  sendAttempt,
		}
	default:
		return "", fmt.Errorf("request token: unsupported medium %q", medium)
	}

	var out struct {
		Sid string `json:"sid"`
	}
	path := "/_matrix/identity/v2/validate/" + string(medium) + "/requestToken"
	if err := c.do(ctx, endpoint, http.MethodPost, join(isURL, path), "", in, &out); err != nil {
		return "", err
	}
	if out.Sid == "" {
		return "", errors.New("request token: empty sid in response")
	}
	return out.Sid, nil
}

// SubmitToken validates a session with the token the user received.
func (c *Client) SubmitToken(ctx context.Context, isURL string, medium model.Medium, sid, clientSecret, token string) error {
	in := map[string]string{"sid": sid, "client_secret": clientSecret, "token": token}
	var out struct {
		Success bool `json:"success"`
	}
	path := "/_matrix/identity/v2/validate/" + string(medium) + "/submitToken"
	if err := c.do(ctx, "submit_token", http.MethodPost, join(isURL, path), "", in, &out); err != nil {
		return err
	}
	if !out.Success {
		return &Error{StatusCode: http.StatusOK, Code: ErrCodeInvalidToken, Message: "token rejected"}
	}
	return nil
}

// Bind asks the homeserver to bind a validated session on the identity server.
// A session the user has not validated yet fails with M_SESSION_NOT_VALIDATED.
func (c *Client) Bind(ctx context.Context, hsURL, accessToken, isURL, sid, clientSecret string) error {
	in := map[string]string{"client_secret": clientSecret, "id_server": IDServerHost(isURL), "sid": sid}
	return c.do(ctx, "bind", http.MethodPost, join(hsURL, "/_matrix/client/v3/account/3pid/bind"), accessToken, in, nil)
}

// Unbind asks the homeserver to remove a binding from the identity server.
func (c *Client) Unbind(ctx context.Context, hsURL, accessToken, isURL string, key model.PidKey) error {
	in := map[string]string{"medium": string(key.Medium), "address": key.Address, "id_server": IDServerHost(isURL)}
	var out struct {
		Result string `json:"id_server_unbind_result"`
	}
	if err := c.do(ctx, "unbind", http.MethodPost, join(hsURL, "/_matrix/client/v3/account/3pid/unbind"), accessToken, in, &out); err != nil {
		return err
	}
	if out.Result != "" && out.Result != "success" {
		return fmt.Errorf("unbind: identity server result %q", out.Result)
	}
	return nil
}

func join(base, path string) string {
	return strings.TrimSuffix(base, "/") + path
}

func (c *Client) do(ctx context.Context, endpoint, method, target, bearer string, in, out any) error {
	start := time.Now()
	defer func() {
		c.metrics.ObserveMatrix(endpoint, float64(time.Since(start).Microseconds())/1000.0)
	}()

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", endpoint, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s: read body: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		me := &Error{StatusCode: resp.StatusCode}
		if json.Unmarshal(raw, me) != nil || me.Code == "" {
			me.Code = "M_UNKNOWN"
			me.Message = strings.TrimSpace(string(raw))
		}
		return fmt.Errorf("%s: %w", endpoint, me)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", endpoint, err)
	}
	return nil
}
