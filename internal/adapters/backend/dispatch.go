// Package backend is the HTTP adapter for the external processing service.
//
// It separates the two failure modes the rest of the module cares about:
// transport failures (the backend never answered) abort an operation and wrap
// ErrTransport; application failures (a non-2xx response) are returned as
// ordinary responses for the caller to interpret.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/roadlens/pkg/logger"
	"github.com/okian/roadlens/pkg/metrics"
)

// Response is a fully-read backend reply. The body is buffered so callers
// can branch on status before deciding how to parse it.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// OK reports whether the status is in the 2xx range.
func (r *Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// DecodeJSON parses the body into v. A missing or malformed body never
// fails the caller; it reports false so callers can still branch on status.
func (r *Response) DecodeJSON(v any) bool {
	if r == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return false
	}
	return json.Unmarshal(r.Body, v) == nil
}

// Detail extracts the backend's error message field, if any.
func (r *Response) Detail() string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if r.DecodeJSON(&payload) {
		return payload.Detail
	}
	return ""
}

// Dispatcher executes single HTTP calls against the backend API base.
type Dispatcher struct {
	base string
	hc   *http.Client
	log  logger.Logger
}

// DispatcherOption applies a configuration option to the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) DispatcherOption {
	return func(d *Dispatcher) {
		if hc != nil {
			d.hc = hc
		}
	}
}

// WithDispatcherLogger sets a custom logger for the dispatcher.
func WithDispatcherLogger(log logger.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// NewDispatcher creates a dispatcher for the given API base, e.g.
// "http://localhost:8000/api".
func NewDispatcher(base string, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 15 * time.Second},
		log:  logger.Get().Named("dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Base returns the resolved API base URL.
func (d *Dispatcher) Base() string { return d.base }

// requestSpec collects per-request options before the request is built.
type requestSpec struct {
	op          string
	query       url.Values
	body        io.Reader
	contentType string
	bearer      string
	buildErr    error
}

// RequestOption customizes a single dispatched request.
type RequestOption func(*requestSpec)

// WithOperation names the request for logs, metrics, and error templates.
func WithOperation(op string) RequestOption {
	return func(s *requestSpec) { s.op = op }
}

// WithQuery appends one query parameter.
func WithQuery(key, value string) RequestOption {
	return func(s *requestSpec) {
		if s.query == nil {
			s.query = url.Values{}
		}
		s.query.Set(key, value)
	}
}

// WithJSONBody marshals v as the request body.
func WithJSONBody(v any) RequestOption {
	return func(s *requestSpec) {
		buf, err := json.Marshal(v)
		if err != nil {
			s.buildErr = fmt.Errorf("encode request body: %w", err)
			return
		}
		s.body = bytes.NewReader(buf)
		s.contentType = "application/json"
	}
}

// WithBody sets a raw request body, e.g. a multipart upload.
func WithBody(r io.Reader, contentType string) RequestOption {
	return func(s *requestSpec) {
		s.body = r
		s.contentType = contentType
	}
}

// WithBearer attaches the Authorization header.
func WithBearer(token string) RequestOption {
	return func(s *requestSpec) { s.bearer = token }
}

// Dispatch executes one request against base+path. A connection-level
// failure returns an error wrapping ErrTransport; any HTTP response,
// regardless of status, returns normally with its body fully read.
func (d *Dispatcher) Dispatch(ctx context.Context, method, path string, opts ...RequestOption) (*Response, error) {
	spec := requestSpec{op: "call backend"}
	for _, opt := range opts {
		opt(&spec)
	}
	if spec.buildErr != nil {
		return nil, spec.buildErr
	}

	target := d.base + path
	if len(spec.query) > 0 {
		target += "?" + spec.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, spec.body)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", spec.op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if spec.contentType != "" {
		req.Header.Set("Content-Type", spec.contentType)
	}
	if spec.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+spec.bearer)
	}

	start := time.Now()
	resp, err := d.hc.Do(req)
	if err != nil {
		metrics.RecordTransportError(spec.op)
		d.log.Warn(ctx, "request failed before reaching the backend",
			logger.String("operation", spec.op),
			logger.String("url", target),
			logger.Error(err))
		return nil, fmt.Errorf("%w: %s did not answer (%v); check that the processing backend is running", ErrTransport, d.base, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordTransportError(spec.op)
		return nil, fmt.Errorf("%w: reading response for %s: %v", ErrTransport, spec.op, err)
	}

	metrics.RecordRequest(spec.op, statusClass(resp.StatusCode))
	metrics.RecordRequestDuration(spec.op, time.Since(start).Seconds())
	d.log.Debug(ctx, "request complete",
		logger.String("operation", spec.op),
		logger.Int("status", resp.StatusCode),
		logger.Duration("elapsed", time.Since(start)))

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func statusClass(code int) string {
	switch {
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
