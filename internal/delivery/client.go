// Package delivery performs the HTTP exchange with the automation webhook.
// One call, one POST: retrying across encodings is the coordinator's job and
// stays visible to the caller, so a non-idempotent receiver never sees
// silently duplicated side effects.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/htconfort/facturation/internal/wire"
)

const (
	// DefaultTimeout bounds a delivery attempt
	DefaultTimeout = 30 * time.Second
	// DiagnosticTimeout is the shorter bound used by diagnostic and test paths
	DiagnosticTimeout = 10 * time.Second

	defaultUserAgent = "facturation/" + wire.SchemaVersion
)

// OutcomeKind classifies one HTTP attempt
type OutcomeKind string

const (
	OutcomeSuccess      OutcomeKind = "success"
	OutcomeHTTPError    OutcomeKind = "http_error"
	OutcomeTimeout      OutcomeKind = "timeout"
	OutcomeNetworkError OutcomeKind = "network_error"
)

// Outcome is the terminal result of a single delivery attempt
type Outcome struct {
	Kind       OutcomeKind    `json:"kind"`
	StatusCode int            `json:"status_code,omitempty"`
	Parsed     map[string]any `json:"parsed,omitempty"`
	RawBody    string         `json:"raw_body,omitempty"`
	Message    string         `json:"message,omitempty"`
	RequestID  string         `json:"request_id"`
}

// Succeeded reports whether the attempt got a 2xx response
func (o *Outcome) Succeeded() bool {
	return o != nil && o.Kind == OutcomeSuccess
}

// Client posts wire envelopes to a single configured webhook endpoint
type Client struct {
	httpClient *http.Client
	endpoint   string
	userAgent  string
	timeout    time.Duration
}

// Option configures the client
type Option func(*Client)

// WithTimeout sets the per-attempt timeout applied when the caller's context
// carries no deadline of its own
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient swaps the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a delivery client bound to the webhook endpoint
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		endpoint:   endpoint,
		userAgent:  defaultUserAgent,
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the configured webhook URL
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Deliver issues exactly one POST carrying the envelope and classifies the
// response. It never returns an error: every failure mode folds into the
// outcome so the caller always has something typed to inspect.
func (c *Client) Deliver(ctx context.Context, env *wire.Envelope) *Outcome {
	requestID := uuid.NewString()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(env.Body))
	if err != nil {
		return &Outcome{
			Kind:      OutcomeNetworkError,
			Message:   err.Error(),
			RequestID: requestID,
		}
	}
	req.Header.Set("Content-Type", env.ContentType)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err, requestID)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return &Outcome{
			Kind:       OutcomeNetworkError,
			StatusCode: resp.StatusCode,
			Message:    readErr.Error(),
			RequestID:  requestID,
		}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &Outcome{
			Kind:       OutcomeSuccess,
			StatusCode: resp.StatusCode,
			Parsed:     parseBody(body),
			RequestID:  requestID,
		}
	}

	// Remote reachable but rejected the payload: keep the raw body, since
	// receiver-side mapping problems are the dominant failure mode.
	return &Outcome{
		Kind:       OutcomeHTTPError,
		StatusCode: resp.StatusCode,
		RawBody:    string(body),
		RequestID:  requestID,
	}
}

func classifyTransportError(err error, requestID string) *Outcome {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Outcome{Kind: OutcomeTimeout, Message: "request timed out", RequestID: requestID}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Outcome{Kind: OutcomeTimeout, Message: "request timed out", RequestID: requestID}
	}
	return &Outcome{Kind: OutcomeNetworkError, Message: err.Error(), RequestID: requestID}
}

// parseBody attempts a JSON decode of a 2xx body and falls back to wrapping
// the raw text, never failing
func parseBody(body []byte) map[string]any {
	if len(body) == 0 {
		return map[string]any{}
	}
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err == nil {
		return parsed
	}
	return map[string]any{"raw": string(body)}
}
