// Package graphql implements the transport client for the Linear GraphQL API.
package graphql

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	linear "github.com/eugener/linear/internal"
)

// DefaultEndpoint is the Linear GraphQL API.
const DefaultEndpoint = "https://api.linear.app/graphql"

const (
	defaultRetryWait    = 500 * time.Millisecond
	defaultRetryMaxWait = 5 * time.Second
)

var _ linear.Transport = (*Client)(nil)

// Options configures a Client.
type Options struct {
	Endpoint   string        // defaults to DefaultEndpoint
	HTTPClient *http.Client  // carries the transport chain (auth, DNS); see NewHTTPClient
	Timeout    time.Duration // per attempt; 0 = no timeout
	Retries    int           // extra attempts on network errors, 429 and 5xx
	RetryWait  time.Duration // initial backoff between attempts
	Logger     *slog.Logger
}

// Client posts GraphQL operations and returns raw response bodies.
// It does not cache and does not inspect the errors envelope; callers do that.
type Client struct {
	endpoint string
	rest     *resty.Client
	tracer   trace.Tracer
}

// New creates a Client. The provided HTTP client should have auth configured
// via its transport chain.
func New(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	rc := resty.NewWithClient(opts.HTTPClient).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{opts.Logger})
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}
	if opts.Retries > 0 {
		wait := opts.RetryWait
		if wait <= 0 {
			wait = defaultRetryWait
		}
		rc.SetRetryCount(opts.Retries).
			SetRetryWaitTime(wait).
			SetRetryMaxWaitTime(max(wait, defaultRetryMaxWait)).
			AddRetryCondition(shouldRetry)
	}

	return &Client{
		endpoint: opts.Endpoint,
		rest:     rc,
		tracer:   otel.Tracer("github.com/eugener/linear/internal/graphql"),
	}
}

// Endpoint returns the URL operations are posted to.
func (c *Client) Endpoint() string { return c.endpoint }

// Do posts req and returns the response body of a 2xx reply. Network failures
// are wrapped; non-2xx replies return *TransportError.
func (c *Client) Do(ctx context.Context, req linear.Request) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "graphql.do",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("graphql.operation.name", req.OperationName)),
	)
	defer span.End()

	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(req).
		Post(c.endpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("graphql: do request: %w", err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode()))

	if !resp.IsSuccess() {
		terr := newTransportError(resp.StatusCode(), resp.Body())
		span.SetStatus(codes.Error, terr.Error())
		return nil, terr
	}

	body := resp.Body()
	if !gjson.ValidBytes(body) {
		span.SetStatus(codes.Error, "invalid JSON")
		return nil, fmt.Errorf("graphql: decode response: invalid JSON body (HTTP %d)", resp.StatusCode())
	}
	return body, nil
}

// restyLogger routes resty's internal messages into slog. Failures are
// already returned to the caller, so they are logged at debug.
type restyLogger struct{ l *slog.Logger }

func (r restyLogger) Errorf(format string, v ...any) {
	r.l.Debug(fmt.Sprintf(format, v...), "component", "resty")
}
func (r restyLogger) Warnf(format string, v ...any) {
	r.l.Debug(fmt.Sprintf(format, v...), "component", "resty")
}
func (r restyLogger) Debugf(format string, v ...any) {
	r.l.Debug(fmt.Sprintf(format, v...), "component", "resty")
}
