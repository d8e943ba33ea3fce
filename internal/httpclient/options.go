// Package httpclient provides an instrumented HTTP client with OTEL tracing,
// metrics and optional client-side rate limiting.
package httpclient

import (
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/lp-portfolio/internal/ratelimit"
)

// TraceOption specifies what to log in traces.
type TraceOption string

const (
	TraceRequest  TraceOption = "request"
	TraceResponse TraceOption = "response"
)

// ClientOptions holds configuration for the instrumented HTTP client.
type ClientOptions struct {
	client         *http.Client
	meterProvider  metric.MeterProvider
	providerName   string
	roundTripper   http.RoundTripper
	requestTimeout *time.Duration
	headers        map[string]string
	baseURL        string
	logRequest     bool
	logResponse    bool
	tracer         trace.Tracer
	limiter        *ratelimit.Limiter
}

// ClientOption is a function that configures ClientOptions.
type ClientOption func(*ClientOptions)

// NewClientOptions creates ClientOptions from variadic options.
func NewClientOptions(opts ...ClientOption) *ClientOptions {
	options := &ClientOptions{}
	for _, o := range opts {
		o(options)
	}
	return options
}

// WithMeterProvider sets the OTEL meter provider.
func WithMeterProvider(mp metric.MeterProvider) ClientOption {
	return func(o *ClientOptions) {
		o.meterProvider = mp
	}
}

// WithProviderName sets the provider name for metrics and traces.
func WithProviderName(name string) ClientOption {
	return func(o *ClientOptions) {
		o.providerName = name
	}
}

// WithRoundTripper sets a custom HTTP transport.
func WithRoundTripper(rt http.RoundTripper) ClientOption {
	return func(o *ClientOptions) {
		o.roundTripper = rt
	}
}

// WithRequestTimeout sets the request timeout.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(o *ClientOptions) {
		o.requestTimeout = &timeout
	}
}

// WithHeaders sets default headers for all requests.
func WithHeaders(headers map[string]string) ClientOption {
	return func(o *ClientOptions) {
		o.headers = headers
	}
}

// WithBaseURL sets the base URL for all requests.
func WithBaseURL(url string) ClientOption {
	return func(o *ClientOptions) {
		o.baseURL = url
	}
}

// WithRateLimiter makes every request wait on l before it is sent.
func WithRateLimiter(l *ratelimit.Limiter) ClientOption {
	return func(o *ClientOptions) {
		o.limiter = l
	}
}

// WithTraceOptions enables request/response body logging to traces.
func WithTraceOptions(tracer trace.Tracer, opts ...TraceOption) ClientOption {
	return func(o *ClientOptions) {
		o.tracer = tracer
		for _, opt := range opts {
			switch opt {
			case TraceRequest:
				o.logRequest = true
			case TraceResponse:
				o.logResponse = true
			}
		}
	}
}

// Upstream is the connection profile of one external API.
type Upstream struct {
	Name              string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
	Trace             []TraceOption
}

var (
	// GatewayProfile is the default profile of the ledger gateway. Stream
	// pages are large, and request bodies carry the cursor being read.
	GatewayProfile = Upstream{
		Name:              "gateway",
		Timeout:           15 * time.Second,
		RequestsPerMinute: 600,
		Trace:             []TraceOption{TraceRequest},
	}

	// ProtocolProfile is the default profile of the DEX, lending and price
	// APIs: small GET previews whose response bodies end up in valuations.
	ProtocolProfile = Upstream{
		Timeout:           10 * time.Second,
		RequestsPerMinute: 300,
		Trace:             []TraceOption{TraceResponse},
	}
)

// Merge returns u with its zero fields taken from defaults.
func (u Upstream) Merge(defaults Upstream) Upstream {
	if u.Name == "" {
		u.Name = defaults.Name
	}
	if u.BaseURL == "" {
		u.BaseURL = defaults.BaseURL
	}
	if u.Timeout <= 0 {
		u.Timeout = defaults.Timeout
	}
	if u.RequestsPerMinute <= 0 {
		u.RequestsPerMinute = defaults.RequestsPerMinute
	}
	if len(u.Trace) == 0 {
		u.Trace = defaults.Trace
	}
	return u
}

// WithUpstream applies u: provider name, base URL, timeout, a client-side
// rate limiter and the trace options.
func WithUpstream(u Upstream, tracer trace.Tracer) ClientOption {
	return func(o *ClientOptions) {
		o.providerName = u.Name
		o.baseURL = u.BaseURL
		if u.Timeout > 0 {
			WithRequestTimeout(u.Timeout)(o)
		}
		o.limiter = ratelimit.New(u.RequestsPerMinute)
		WithTraceOptions(tracer, u.Trace...)(o)
	}
}

// RequestOptions holds per-request configuration.
type RequestOptions struct {
	responseErrorHandler ResponseErrorHandler
	labels               []*Label
}

// RequestOption configures a single request.
type RequestOption func(*RequestOptions)

// NewRequestOptions creates RequestOptions from variadic options.
func NewRequestOptions(opts ...RequestOption) *RequestOptions {
	options := &RequestOptions{}
	for _, o := range opts {
		o(options)
	}
	if options.labels == nil {
		options.labels = make([]*Label, 0)
	}
	return options
}

// ResponseErrorHandler decides whether a response is an error. It runs before
// the body is decoded into the result.
type ResponseErrorHandler func(statusCode int, body []byte) error

// WithResponseErrorHandler sets a custom error handler for responses.
func WithResponseErrorHandler(handler ResponseErrorHandler) RequestOption {
	return func(o *RequestOptions) {
		o.responseErrorHandler = handler
	}
}

// maxErrorBody caps how much of an error body a StatusError keeps.
const maxErrorBody = 256

// StatusError is a non-2xx response from an upstream API.
type StatusError struct {
	Upstream   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s HTTP %d: %s", e.Upstream, e.StatusCode, e.Body)
}

// Temporary reports whether the same request may succeed later.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// StatusErrors returns a handler that turns every status >= 400 into a
// *StatusError for upstream.
func StatusErrors(upstream string) ResponseErrorHandler {
	return func(statusCode int, body []byte) error {
		if statusCode < http.StatusBadRequest {
			return nil
		}
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return &StatusError{Upstream: upstream, StatusCode: statusCode, Body: string(body)}
	}
}

// Label is a key-value pair for metrics/traces.
type Label struct {
	Key   string
	Value string
}

// NewLabel creates a new label.
func NewLabel(key, value string) *Label {
	return &Label{Key: key, Value: value}
}

// WithEndpoint labels the request with the API endpoint it calls.
func WithEndpoint(endpoint string) RequestOption {
	return WithLabels(NewLabel("endpoint", endpoint))
}

// WithLabels sets labels for the request.
func WithLabels(labels ...*Label) RequestOption {
	return func(o *RequestOptions) {
		o.labels = labels
	}
}
