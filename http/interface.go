package http

import (
	"context"
	nethttp "net/http"
	"net/url"
	"time"
)

// Client defines the REST client interface for making HTTP requests
type Client interface {
	Get(ctx context.Context, req *Request) (*Response, error)
	Post(ctx context.Context, req *Request) (*Response, error)
	Do(ctx context.Context, method string, req *Request) (*Response, error)
}

// Request describes one logical request relative to the client's base URL.
type Request struct {
	// Endpoint is appended to the base URL as-is.
	Endpoint string
	// Params are encoded into the query string.
	Params url.Values
	// Headers override the client's default headers.
	Headers map[string]string
	// Data is sent verbatim as the body. It takes precedence over Payload.
	Data []byte
	// Payload is JSON-encoded into the body when Data is nil.
	Payload any
}

// Response represents an HTTP response with tracking information
type Response struct {
	StatusCode int
	Body       []byte
	Headers    nethttp.Header
	Stats      Stats
}

// OK reports whether the status code is in the 200-399 range. A 1xx status is not OK;
// net/http consumes informational responses before returning one.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 400
}

// IsSuccess reports whether the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return IsSuccessStatus(r.StatusCode)
}

// Stats contains request execution statistics
type Stats struct {
	ElapsedTime time.Duration
	// Attempts counts transport calls, the initial one included.
	Attempts int
}

// TransportRequest is the fully resolved request handed to a Transport for one attempt.
type TransportRequest struct {
	Method  string
	URL     string
	Params  url.Values
	Body    []byte
	Headers map[string]string
}

// Transport performs a single network exchange. Implementations must report an
// exchange that did not complete within timeout with an error matching ErrTimeout.
type Transport interface {
	Send(ctx context.Context, req *TransportRequest, timeout time.Duration) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *TransportRequest, timeout time.Duration) (*Response, error)

// Send calls f.
func (f TransportFunc) Send(ctx context.Context, req *TransportRequest, timeout time.Duration) (*Response, error) {
	return f(ctx, req, timeout)
}

// RequestInterceptor is called before every attempt is handed to the transport.
type RequestInterceptor func(ctx context.Context, req *TransportRequest) error

// Config holds the REST client configuration
type Config struct {
	BaseURL                 string
	Timeout                 time.Duration
	MaxRetries              int
	BackoffBase             time.Duration
	BackoffMax              time.Duration
	NonRetriableStatusCodes []int
	DefaultHeaders          map[string]string
	RequestInterceptors     []RequestInterceptor
	// RateLimit caps attempts per second across all requests of the client; 0 disables it.
	RateLimit float64
	RateBurst int
}
