// Package httpclient is the net/http implementation of engine.Transport.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/strogmv/apiblocks/internal/engine"
	"github.com/strogmv/apiblocks/internal/pkg/circuitbreaker"
)

const defaultMaxBody = 10 << 20

// ErrBodyTooLarge is returned when a reply body exceeds MaxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

type Options struct {
	// Timeout bounds one call including reading the body. Zero means none.
	Timeout time.Duration
	Breaker circuitbreaker.Settings
	// MaxBodyBytes caps the size of a response body; larger bodies fail
	// the call with ErrBodyTooLarge.
	MaxBodyBytes int64
	// Base is the underlying round tripper; http.DefaultTransport if nil.
	Base http.RoundTripper
}

// Client performs calls over HTTP. Any status code is a reply; only
// transport failures and open circuits are errors. The per-host breaker
// counts transport failures only, so a host answering 5xx keeps its
// circuit closed.
type Client struct {
	http     *http.Client
	breakers *circuitbreaker.Group
	maxBody  int64
}

func New(opts Options) *Client {
	base := opts.Base
	if base == nil {
		base = http.DefaultTransport
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}
	return &Client{
		http: &http.Client{
			Transport: otelhttp.NewTransport(base),
			Timeout:   opts.Timeout,
		},
		breakers: circuitbreaker.NewGroup(opts.Breaker),
		maxBody:  maxBody,
	}
}

var _ engine.Transport = (*Client)(nil)

func (c *Client) Do(ctx context.Context, call engine.Call) (*engine.Reply, error) {
	var body io.Reader
	if call.Body != nil {
		body = strings.NewReader(*call.Body)
	}
	req, err := http.NewRequestWithContext(ctx, call.Method, call.URL, body)
	if err != nil {
		return nil, err
	}
	for k, v := range call.Headers {
		req.Header.Set(k, v)
	}

	breaker := c.breakers.For(hostKey(call.URL))
	if !breaker.Allow() {
		return nil, fmt.Errorf("%s: %w", req.URL.Host, circuitbreaker.ErrOpen)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			breaker.RecordFailure()
		}
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		if ctx.Err() == nil {
			breaker.RecordFailure()
		}
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	breaker.RecordSuccess()
	if int64(len(data)) > c.maxBody {
		return nil, fmt.Errorf("%s: %w: more than %d bytes", req.URL.Host, ErrBodyTooLarge, c.maxBody)
	}
	return &engine.Reply{Status: resp.StatusCode, Headers: resp.Header, Body: data}, nil
}

// BreakerStates reports the circuit state of every host called so far.
func (c *Client) BreakerStates() map[string]circuitbreaker.State {
	return c.breakers.States()
}

func hostKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}
