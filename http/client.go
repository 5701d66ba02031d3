package http

import (
	"context"
	"encoding/json"
	"maps"
	nethttp "net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/gaborage/httpretry/config"
	"github.com/gaborage/httpretry/http/internal/tracking"
	"github.com/gaborage/httpretry/logger"
	"github.com/gaborage/httpretry/retry"
	"github.com/gaborage/httpretry/trace"
)

const (
	// DefaultTimeout is the default per-attempt timeout
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the default number of retries after the first attempt
	DefaultMaxRetries = retry.DefaultMaxRetries

	// DefaultBackoffBase seeds the exponential backoff
	DefaultBackoffBase = retry.DefaultBackoffBase

	// DefaultBackoffMax caps a single backoff wait
	DefaultBackoffMax = retry.DefaultBackoffMax

	logComponent = "http_client"
	tracerName   = "github.com/gaborage/httpretry/http"

	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
)

// client implements the Client interface
type client struct {
	config       Config
	transport    Transport
	executor     *retry.Executor
	logger       logger.Logger
	tracer       oteltrace.Tracer
	limiter      *rate.Limiter
	interceptors []RequestInterceptor
}

// NewClient creates a client for baseURL with the default retry configuration.
func NewClient(baseURL string, log logger.Logger) (Client, error) {
	return NewBuilder(baseURL, log).Build()
}

// Builder provides a fluent interface for configuring the REST client
type Builder struct {
	config         Config
	logger         logger.Logger
	transport      Transport
	httpClient     *nethttp.Client
	sleep          retry.SleepFunc
	tracerProvider oteltrace.TracerProvider
	meterProvider  metric.MeterProvider
}

// NewBuilder creates a new client builder
func NewBuilder(baseURL string, log logger.Logger) *Builder {
	return &Builder{
		config: Config{
			BaseURL:                 baseURL,
			Timeout:                 DefaultTimeout,
			MaxRetries:              DefaultMaxRetries,
			BackoffBase:             DefaultBackoffBase,
			BackoffMax:              DefaultBackoffMax,
			NonRetriableStatusCodes: retry.DefaultNonRetriableStatusCodes(),
			DefaultHeaders:          make(map[string]string),
			RequestInterceptors:     []RequestInterceptor{},
		},
		logger: log,
	}
}

// NewBuilderFromConfig creates a builder preloaded from loaded configuration.
func NewBuilderFromConfig(cfg *config.ClientConfig, log logger.Logger) *Builder {
	b := NewBuilder(cfg.BaseURL, log).
		WithTimeout(cfg.Timeout).
		WithRetries(cfg.MaxRetries).
		WithBackoff(cfg.Backoff.Base, cfg.Backoff.Max).
		WithNonRetriableStatusCodes(cfg.NonRetriable...).
		WithRateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	for key, value := range cfg.Headers {
		b.WithDefaultHeader(key, value)
	}
	if cfg.RequestID {
		b.WithRequestInterceptor(RequestIDInterceptor())
	}
	if cfg.Propagate {
		b.WithRequestInterceptor(TraceContextInterceptor())
	}
	return b
}

// WithTimeout sets the per-attempt timeout
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithRetries sets the number of retries after the first attempt
func (b *Builder) WithRetries(maxRetries int) *Builder {
	b.config.MaxRetries = maxRetries
	return b
}

// WithBackoff sets the exponential backoff seed and cap
func (b *Builder) WithBackoff(base, maxDelay time.Duration) *Builder {
	b.config.BackoffBase = base
	b.config.BackoffMax = maxDelay
	return b
}

// WithNonRetriableStatusCodes replaces the set of status codes that are never retried.
// Calling it with no codes makes every non-ok response retriable.
func (b *Builder) WithNonRetriableStatusCodes(codes ...int) *Builder {
	b.config.NonRetriableStatusCodes = append([]int(nil), codes...)
	return b
}

// WithDefaultHeader adds a default header that will be sent with all requests
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.config.DefaultHeaders[key] = value
	return b
}

// WithRequestInterceptor adds a request interceptor
func (b *Builder) WithRequestInterceptor(interceptor RequestInterceptor) *Builder {
	b.config.RequestInterceptors = append(b.config.RequestInterceptors, interceptor)
	return b
}

// WithRateLimit caps attempts per second; rps <= 0 disables limiting.
func (b *Builder) WithRateLimit(rps float64, burst int) *Builder {
	b.config.RateLimit = rps
	b.config.RateBurst = burst
	return b
}

// WithTransport replaces the transport used for every attempt.
func (b *Builder) WithTransport(transport Transport) *Builder {
	b.transport = transport
	return b
}

// WithHTTPClient sets the *nethttp.Client used by the default transport.
// It is ignored when WithTransport is also used.
func (b *Builder) WithHTTPClient(httpClient *nethttp.Client) *Builder {
	b.httpClient = httpClient
	return b
}

// WithSleep replaces the function used to wait between retries.
func (b *Builder) WithSleep(sleep retry.SleepFunc) *Builder {
	b.sleep = sleep
	return b
}

// WithTracerProvider sets the provider for request spans (default: global provider).
func (b *Builder) WithTracerProvider(tp oteltrace.TracerProvider) *Builder {
	b.tracerProvider = tp
	return b
}

// WithMeterProvider sets the provider for retry metrics (default: global provider).
func (b *Builder) WithMeterProvider(mp metric.MeterProvider) *Builder {
	b.meterProvider = mp
	return b
}

// Build validates the configuration and creates the REST client
func (b *Builder) Build() (Client, error) {
	if err := validateConfig(&b.config); err != nil {
		return nil, err
	}

	log := b.logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithFields(map[string]any{"component": logComponent})

	transport := b.transport
	if transport == nil {
		transport = NewTransport(b.httpClient)
	}

	tp := b.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	mp := b.meterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	cfg := b.config
	cfg.NonRetriableStatusCodes = append([]int(nil), b.config.NonRetriableStatusCodes...)
	cfg.DefaultHeaders = maps.Clone(b.config.DefaultHeaders)
	cfg.RequestInterceptors = append([]RequestInterceptor(nil), b.config.RequestInterceptors...)

	policy := retry.NewPolicy(cfg.MaxRetries, cfg.BackoffBase, cfg.BackoffMax, cfg.NonRetriableStatusCodes...)
	executor := retry.NewExecutor(policy,
		retry.WithLogger(log),
		retry.WithSleep(b.sleep),
		retry.WithObserver(tracking.NewObserver(mp)),
	)

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &client{
		config:       cfg,
		transport:    transport,
		executor:     executor,
		logger:       log,
		tracer:       tp.Tracer(tracerName),
		limiter:      limiter,
		interceptors: cfg.RequestInterceptors,
	}, nil
}

func validateConfig(cfg *Config) error {
	switch {
	case cfg.BaseURL == "":
		return NewValidationError("base URL cannot be empty", "base_url")
	case cfg.MaxRetries < 0:
		return NewValidationError("max retries cannot be negative", "max_retries")
	case cfg.Timeout <= 0:
		return NewValidationError("timeout must be positive", "timeout")
	case cfg.BackoffBase < 0:
		return NewValidationError("backoff base cannot be negative", "backoff_base")
	case cfg.BackoffMax < 0:
		return NewValidationError("backoff max cannot be negative", "backoff_max")
	}
	return nil
}

// Get sends Params in the query string; Data and Payload are not sent.
func (c *client) Get(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, NewValidationError("request cannot be nil", "request")
	}
	return c.Do(ctx, nethttp.MethodGet, &Request{
		Endpoint: req.Endpoint,
		Params:   req.Params,
		Headers:  req.Headers,
	})
}

// Post sends Data, or Payload as JSON; Params are not sent.
func (c *client) Post(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, NewValidationError("request cannot be nil", "request")
	}
	return c.Do(ctx, nethttp.MethodPost, &Request{
		Endpoint: req.Endpoint,
		Headers:  req.Headers,
		Data:     req.Data,
		Payload:  req.Payload,
	})
}

// Do performs an HTTP request with the specified method through the retry loop.
func (c *client) Do(ctx context.Context, method string, req *Request) (*Response, error) {
	if err := c.validateRequest(method, req); err != nil {
		return nil, err
	}

	body, jsonBody, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	target := c.config.BaseURL + req.Endpoint
	ctx, requestID := trace.EnsureRequestID(ctx)
	ctx, span := c.tracer.Start(ctx, "HTTP "+method,
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", target),
		),
	)
	defer span.End()

	c.logRequest(method, target, requestID, req)

	start := time.Now()
	attempts := 0
	resp, err := retry.Execute(ctx, c.executor, target, func(ctx context.Context) (retry.Outcome[*Response], error) {
		attempts++
		headers := c.buildHeaders(req, jsonBody)
		return c.attempt(ctx, &TransportRequest{
			Method:  method,
			URL:     target,
			Params:  req.Params,
			Body:    body,
			Headers: headers,
		})
	})
	elapsed := time.Since(start)
	err = asClientError(err)
	span.SetAttributes(attribute.Int("http.request.attempts", attempts))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error().
			Str("url", target).
			Str("request_id", requestID).
			Int("attempts", attempts).
			Dur("elapsed", elapsed).
			Err(err).
			Msg("REST client request failed")
		return nil, err
	}

	resp.Stats = Stats{ElapsedTime: elapsed, Attempts: attempts}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, nethttp.StatusText(resp.StatusCode))
	}
	c.logResponse(target, requestID, resp)
	return resp, nil
}

// attempt runs one transport exchange and converts it into a retry outcome.
func (c *client) attempt(ctx context.Context, treq *TransportRequest) (retry.Outcome[*Response], error) {
	var none retry.Outcome[*Response]

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return none, NewNetworkError("rate limiter wait failed", err)
		}
	}

	for _, interceptor := range c.interceptors {
		if err := interceptor(ctx, treq); err != nil {
			return none, NewInterceptorError("request interceptor failed", err)
		}
	}

	resp, err := c.transport.Send(ctx, treq, c.config.Timeout)
	if err != nil {
		// A cancelled or expired caller context is not an attempt timeout.
		if ctx.Err() == nil && isTimeout(err) {
			return retry.TimedOut[*Response](), nil
		}
		return none, err
	}
	if resp == nil {
		return none, NewNetworkError("transport returned no response", nil)
	}
	return retry.Completed(resp, resp.StatusCode, resp.OK()), nil
}

func (c *client) validateRequest(method string, req *Request) error {
	if req == nil {
		return NewValidationError("request cannot be nil", "request")
	}
	if method == "" {
		return NewValidationError("method cannot be empty", "method")
	}
	return nil
}

// encodeBody returns the body bytes and whether they came from a JSON payload.
// Raw data wins over a payload.
func encodeBody(req *Request) ([]byte, bool, error) {
	if req.Data != nil {
		return req.Data, false, nil
	}
	if req.Payload == nil {
		return nil, false, nil
	}
	body, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, false, NewEncodingError(err)
	}
	return body, true, nil
}

// buildHeaders returns a fresh header map per attempt so interceptors cannot leak
// state between attempts.
func (c *client) buildHeaders(req *Request, jsonBody bool) map[string]string {
	headers := make(map[string]string, len(c.config.DefaultHeaders)+len(req.Headers)+1)
	for key, value := range c.config.DefaultHeaders {
		headers[nethttp.CanonicalHeaderKey(key)] = value
	}
	for key, value := range req.Headers {
		headers[nethttp.CanonicalHeaderKey(key)] = value
	}
	if jsonBody {
		if _, ok := headers[headerContentType]; !ok {
			headers[headerContentType] = contentTypeJSON
		}
	}
	return headers
}

// logRequest logs the outgoing request
func (c *client) logRequest(method, target, requestID string, req *Request) {
	logEvent := c.logger.Debug().
		Str("direction", "outbound").
		Str("method", method).
		Str("url", target).
		Str("request_id", requestID)

	if len(req.Params) > 0 {
		logEvent = logEvent.Interface("params", map[string][]string(req.Params))
	}
	if len(req.Headers) > 0 {
		logEvent = logEvent.Interface("headers", req.Headers)
	}

	logEvent.Msg("REST client request")
}

// logResponse logs the final response of a request
func (c *client) logResponse(target, requestID string, resp *Response) {
	c.logger.Info().
		Str("direction", "inbound").
		Str("url", target).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Bool("ok", resp.OK()).
		Dur("elapsed", resp.Stats.ElapsedTime).
		Int("attempts", resp.Stats.Attempts).
		Msg("REST client response")
}

// RequestIDInterceptor sets X-Request-ID from the request context unless the caller
// already supplied one. The ID is fixed per logical request, so every attempt carries
// the same value.
func RequestIDInterceptor() RequestInterceptor {
	return func(ctx context.Context, req *TransportRequest) error {
		key := nethttp.CanonicalHeaderKey(trace.HeaderXRequestID)
		if _, ok := req.Headers[key]; ok {
			return nil
		}
		if id, ok := trace.RequestIDFromContext(ctx); ok {
			req.Headers[key] = id
		}
		return nil
	}
}

// TraceContextInterceptor propagates the W3C trace context of the request span.
func TraceContextInterceptor() RequestInterceptor {
	return func(ctx context.Context, req *TransportRequest) error {
		trace.InjectContext(ctx, req.Headers)
		return nil
	}
}
