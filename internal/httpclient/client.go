package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nai-labs/nai/internal/job"
	"github.com/nai-labs/nai/internal/tracing"
)

// Transport issues one request and reports its status code. A non-nil error
// means no response was received.
type Transport interface {
	Do(ctx context.Context, d job.Descriptor) (int, error)
}

// Options configures a Client.
type Options struct {
	Timeout     time.Duration
	NoKeepAlive bool
	Insecure    bool
	// MaxConns sizes the idle pool; usually the worker count.
	MaxConns int
	// Tracer, when set, wraps each request in a client span.
	Tracer    trace.Tracer
	Propagate bool
}

// Client is the HTTP Transport used by workers.
type Client struct {
	http      *http.Client
	tracer    trace.Tracer
	propagate bool
}

var _ Transport = (*Client)(nil)

// NewClient returns a Client tuned for load generation.
func NewClient(opts Options) *Client {
	return &Client{
		http:      newHTTPClient(opts),
		tracer:    opts.Tracer,
		propagate: opts.Propagate,
	}
}

func newHTTPClient(opts Options) *http.Client {
	timeout := opts.Timeout
	if timeout < 0 {
		timeout = 0
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          max(256, opts.MaxConns),
		MaxIdleConnsPerHost:   max(32, opts.MaxConns),
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DisableKeepAlives:     opts.NoKeepAlive,
	}
	if opts.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via --insecure
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Do sends d and returns the response status code. The body is drained so the
// connection can be reused.
func (c *Client) Do(ctx context.Context, d job.Descriptor) (int, error) {
	var span trace.Span
	if c.tracer != nil {
		ctx, span = tracing.StartRequestSpan(ctx, c.tracer, d.Method, d.URL)
	}

	status, err := c.do(ctx, d)

	if span != nil {
		var attrs []attribute.KeyValue
		if status > 0 {
			attrs = append(attrs, attribute.Int("http.response.status_code", status))
		}
		tracing.EndSpan(span, err, status, attrs...)
	}
	return status, err
}

func (c *Client) do(ctx context.Context, d job.Descriptor) (int, error) {
	var body io.Reader
	if len(d.Body) > 0 {
		body = bytes.NewReader(d.Body)
	}

	req, err := http.NewRequestWithContext(ctx, d.Method, d.URL, body)
	if err != nil {
		return 0, err
	}
	for key, value := range d.Headers {
		if http.CanonicalHeaderKey(key) == "Host" {
			req.Host = value
			continue
		}
		req.Header.Set(key, value)
	}
	if c.propagate {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	// A status line was received, so a truncated body still counts as a response.
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
