// Package api implements the authenticated request pipeline against the
// remote expense-splitting service.
//
// A single Client is constructed once and shared. Every outbound request
// picks up the current session token as a bearer credential; any 401
// response clears the session and fires the configured relogin hook before
// the error reaches the caller. All other failures pass through for
// call-site handling.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/http2"

	"splitmate/internal/metrics"
	"splitmate/internal/session"
)

// healthTimeout bounds the liveness probe; it is the only client-enforced
// timeout, used for the connectivity indicator rather than correctness.
const healthTimeout = 5 * time.Second

// Client is the process-wide API client.
type Client struct {
	base     *url.URL
	http     *http.Client
	sessions session.Store
}

// Options configures a Client.
type Options struct {
	// BaseURL is the API origin and base path, e.g. http://host:5000/api.
	BaseURL string

	// Sessions provides the token for outbound requests and is cleared on
	// 401 responses.
	Sessions session.Store

	// OnUnauthorized runs after a 401 has cleared the session, exactly
	// once per offending response. This is the hard-redirect hook: the app
	// routes to login and rebuilds its in-memory state.
	OnUnauthorized func()

	// Metrics, when set, records request counts and durations.
	Metrics *metrics.Metrics

	// UseH2C speaks HTTP/2 over cleartext, for backends served that way.
	UseH2C bool

	// Transport overrides the underlying transport (tests).
	Transport http.RoundTripper
}

// New builds the client. No network traffic happens until the first call.
func New(opts Options) (*Client, error) {
	if opts.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}

	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", opts.BaseURL, err)
	}

	inner := opts.Transport
	if inner == nil {
		if opts.UseH2C {
			inner = h2cTransport()
		} else {
			inner = http.DefaultTransport
		}
	}

	return &Client{
		base: base,
		http: &http.Client{
			Transport: &authTransport{
				inner:          inner,
				sessions:       opts.Sessions,
				onUnauthorized: opts.OnUnauthorized,
				metrics:        opts.Metrics,
			},
		},
		sessions: opts.Sessions,
	}, nil
}

// Sessions exposes the injected session accessor for callers that already
// hold the client.
func (c *Client) Sessions() session.Store {
	return c.sessions
}

// h2cTransport dials HTTP/2 without TLS, matching servers that run h2c.
func h2cTransport() http.RoundTripper {
	return &http2.Transport{
		AllowHTTP: true,
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}
}

// authTransport is the interceptor chain: bearer attach and request IDs on
// the way out, 401 recovery and instrumentation on the way back.
type authTransport struct {
	inner          http.RoundTripper
	sessions       session.Store
	onUnauthorized func()
	metrics        *metrics.Metrics
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("X-Request-Id", uuid.NewString())

	if token := t.sessions.Token(req.Context()); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if cookie := t.sessions.TokenCookie(req.Context()); cookie != nil {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}

	start := time.Now()
	resp, err := t.inner.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		slog.Warn("request failed",
			"method", req.Method,
			"path", req.URL.Path,
			"error", err,
			"duration_ms", duration.Milliseconds(),
		)
		t.record(req.Method, "error", duration)
		return nil, err
	}

	slog.Debug("request completed",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
	)
	t.record(req.Method, strconv.Itoa(resp.StatusCode), duration)

	if resp.StatusCode == http.StatusUnauthorized {
		// Session is invalid server-side. Clear it and route to login;
		// the caller still observes the 401.
		if err := t.sessions.Clear(req.Context()); err != nil {
			slog.Error("failed to clear session after 401", "error", err)
		}
		if t.onUnauthorized != nil {
			t.onUnauthorized()
		}
	}

	return resp, nil
}

func (t *authTransport) record(method, status string, duration time.Duration) {
	if t.metrics == nil {
		return
	}
	t.metrics.RequestsTotal.WithLabelValues(method, status).Inc()
	t.metrics.RequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// ListOptions carries the pagination convention shared by list endpoints.
type ListOptions struct {
	Page  int
	Limit int
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	return q
}

// Pagination is the server's paging envelope for list responses.
type Pagination struct {
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// do issues one JSON request and decodes the response into out (which may
// be nil for calls whose body the caller ignores).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return parseError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}

// Health probes the backend liveness endpoint with a bounded timeout.
// A nil error means the service answered 2xx.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}
