// Package adminapi executes calls against the admin API: one round trip per
// call, classified errors, interceptor hooks and coalescing of identical
// concurrent reads.
package adminapi

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"admingate/internal/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
)

const (
	defaultTimeout   = 8 * time.Second
	maxResponseBytes = 2 * 1024 * 1024
)

// Request describes one admin API call.
type Request struct {
	Method string
	Path   string
	// Route is the path template used for metrics and span names, e.g.
	// "/admin/users/{id}". Path is used when empty.
	Route string
	Query url.Values
	Body  any
	// DedupKey coalesces concurrent GETs sharing the key into one round trip.
	DedupKey string
}

// Response is a successful round trip. Payload is nil for empty or
// non-JSON bodies.
type Response struct {
	Status  int
	Payload any
	Header  http.Header

	body []byte
}

// ErrResponseTooLarge marks a success body beyond the read limit.
var ErrResponseTooLarge = errors.New("admin api response too large")

// own returns a copy holding its own decoded payload, so callers that joined
// one round trip never share mutable state.
func (r *Response) own() *Response {
	return &Response{Status: r.Status, Payload: decodeBody(r.body), Header: r.Header.Clone(), body: r.body}
}

// Client talks to the admin API with a bearer credential.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *observability.ClientLogger

	inflight singleflight.Group

	hooksMu sync.RWMutex
	hooks   []*hookEntry
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient validates baseURL and token and returns a ready client.
func NewClient(baseURL, token string, timeout time.Duration, opts ...Option) (*Client, error) {
	trimmedBaseURL := strings.TrimSpace(baseURL)
	trimmedToken := strings.TrimSpace(token)
	if trimmedBaseURL == "" || trimmedToken == "" {
		return nil, &Error{Op: "create admin api client", Err: errors.New("admin api url or token is empty")}
	}

	parsed, err := url.Parse(trimmedBaseURL)
	if err != nil {
		return nil, &Error{Op: "parse admin api url", Err: err}
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{Op: "validate admin api url", Err: fmt.Errorf("invalid admin api url: %s", trimmedBaseURL)}
	}

	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		baseURL: strings.TrimRight(trimmedBaseURL, "/"),
		token:   trimmedToken,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: observability.NewClientLogger(trimmedBaseURL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fingerprint identifies the credential without exposing it, for dedup keys.
func (c *Client) Fingerprint() string {
	return CredentialFingerprint(c.token)
}

// CredentialFingerprint returns a short stable hash of token.
func CredentialFingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

// DedupKey joins key parts, e.g. DedupKey("user-detail", id, fingerprint).
func DedupKey(parts ...string) string {
	return strings.Join(parts, ":")
}

// Execute performs req. GETs carrying a DedupKey join any identical call
// already in flight; the shared round trip is detached from the caller's
// cancellation so other waiters still receive its result, and the key is
// released as soon as it settles.
func (c *Client) Execute(ctx context.Context, req Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if req.DedupKey == "" || req.Method != http.MethodGet {
		return c.do(ctx, req)
	}

	shared := context.WithoutCancel(ctx)
	ch := c.inflight.DoChan(req.DedupKey, func() (any, error) {
		return c.do(shared, req)
	})

	select {
	case res := <-ch:
		if res.Shared {
			kind, _, _ := strings.Cut(req.DedupKey, ":")
			observability.SharedRequests.WithLabelValues(kind).Inc()
		}
		if res.Err != nil {
			var apiErr *Error
			if errors.As(res.Err, &apiErr) {
				return nil, apiErr.own()
			}
			return nil, res.Err
		}
		return res.Val.(*Response).own(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) do(ctx context.Context, call Request) (resp *Response, err error) {
	route := call.Route
	if route == "" {
		route = call.Path
	}
	span, ctx := observability.NewClientSpan(ctx, call.Method, route)
	defer span.End()

	hooks := c.snapshotHooks()
	start := time.Now()
	status := 0
	defer func() {
		observability.AdminRequestLatency.
			WithLabelValues(call.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		if err != nil {
			span.SetError(err)
			c.logger.LogError(ctx, call.Method, call.Path, err)
		} else {
			c.logger.LogResponse(ctx, call.Method, call.Path, status, time.Since(start))
		}
		for _, h := range hooks {
			if h.After != nil {
				h.After(ctx, call, resp, err)
			}
		}
	}()

	httpReq, err := c.newRequest(ctx, call)
	if err != nil {
		return nil, err
	}
	for _, h := range hooks {
		if h.Before == nil {
			continue
		}
		if err := h.Before(ctx, httpReq); err != nil {
			return nil, &Error{Op: "hook " + h.Name, Method: call.Method, Path: call.Path, Err: err}
		}
	}
	c.logger.LogRequest(ctx, call.Method, call.Path, httpReq.Header.Get("X-Request-ID"))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &Error{
			Op:      "execute http request",
			Method:  call.Method,
			Path:    call.Path,
			Message: "admin api request failed",
			Err:     err,
		}
	}
	defer httpResp.Body.Close()
	status = httpResp.StatusCode
	span.AddAttributes(attribute.Int("http.response.status_code", status))

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, &Error{
			Op:      "read http response",
			Method:  call.Method,
			Path:    call.Path,
			Status:  status,
			Message: "admin api response could not be read",
			Err:     err,
		}
	}
	success := status >= 200 && status < 300
	if len(body) > maxResponseBytes {
		if success {
			return nil, &Error{
				Op:      "read http response",
				Method:  call.Method,
				Path:    call.Path,
				Status:  status,
				Message: fmt.Sprintf("admin api response exceeds %d bytes", maxResponseBytes),
				Err:     ErrResponseTooLarge,
			}
		}
		// The status alone classifies a failure; a cut error body is dropped.
		body = nil
	}
	payload := decodeBody(body)

	if !success {
		return nil, newStatusError(call.Method, call.Path, status, payload, body)
	}
	return &Response{Status: status, Payload: payload, Header: httpResp.Header, body: body}, nil
}

func (c *Client) newRequest(ctx context.Context, call Request) (*http.Request, error) {
	fullURL := c.baseURL + ensureLeadingSlash(call.Path)
	if len(call.Query) > 0 {
		fullURL += "?" + call.Query.Encode()
	}

	var bodyReader io.Reader
	if call.Body != nil {
		raw, err := json.Marshal(call.Body)
		if err != nil {
			return nil, &Error{Op: "marshal request body", Method: call.Method, Path: call.Path, Err: err}
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, fullURL, bodyReader)
	if err != nil {
		return nil, &Error{Op: "create http request", Method: call.Method, Path: call.Path, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if id := observability.ExtractCorrelationID(ctx); id != "" {
		req.Header.Set("X-Correlation-ID", id)
	}
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// decodeBody parses a JSON body keeping numbers exact. Empty or malformed
// bodies yield nil.
func decodeBody(body []byte) any {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil
	}
	return payload
}

func ensureLeadingSlash(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "/"
	}
	if strings.HasPrefix(trimmed, "/") {
		return trimmed
	}
	return "/" + trimmed
}
