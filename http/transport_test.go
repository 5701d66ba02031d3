package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tconst "github.com/gaborage/httpretry/testing"
)

type roundTripperFunc func(*nethttp.Request) (*nethttp.Response, error)

func (f roundTripperFunc) RoundTrip(req *nethttp.Request) (*nethttp.Response, error) {
	return f(req)
}

type timeoutNetError struct{}

func (timeoutNetError) Error() string   { return "i/o timeout" }
func (timeoutNetError) Timeout() bool   { return true }
func (timeoutNetError) Temporary() bool { return true }

var _ net.Error = timeoutNetError{}

func TestTransportSend(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Echo-Method", r.Method)
		w.Header().Set("X-Echo-Key", r.Header.Get(tconst.TestHeaderAPIKey))
		w.WriteHeader(nethttp.StatusAccepted)
		_, _ = fmt.Fprintf(w, "%s|%s", r.URL.RawQuery, body)
	}))
	defer server.Close()

	transport := NewTransport(nil)
	resp, err := transport.Send(context.Background(), &TransportRequest{
		Method:  nethttp.MethodPut,
		URL:     server.URL + "/items?fixed=1",
		Params:  url.Values{"extra": {"2"}},
		Body:    []byte("payload"),
		Headers: map[string]string{tconst.TestHeaderAPIKey: tconst.TestAPIKeyValue},
	}, time.Second)
	require.NoError(t, err)

	assert.Equal(t, nethttp.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "extra=2&fixed=1|payload", string(resp.Body))
	assert.Equal(t, nethttp.MethodPut, resp.Headers.Get("X-Echo-Method"))
	assert.Equal(t, tconst.TestAPIKeyValue, resp.Headers.Get("X-Echo-Key"))
}

func TestTransportUsesProvidedClient(t *testing.T) {
	called := false
	httpClient := &nethttp.Client{Transport: roundTripperFunc(func(req *nethttp.Request) (*nethttp.Response, error) {
		called = true
		_, hasDeadline := req.Context().Deadline()
		assert.True(t, hasDeadline, "attempt must carry a deadline")
		return &nethttp.Response{
			StatusCode: nethttp.StatusTeapot,
			Body:       io.NopCloser(strings.NewReader("")),
			Header:     nethttp.Header{},
		}, nil
	})}

	resp, err := NewTransport(httpClient).Send(context.Background(), &TransportRequest{
		Method: nethttp.MethodGet,
		URL:    "http://example.invalid/",
	}, time.Second)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, nethttp.StatusTeapot, resp.StatusCode)
	assert.Empty(t, resp.Body)
}

func TestTransportTimeout(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(_ nethttp.ResponseWriter, r *nethttp.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	_, err := NewTransport(nil).Send(context.Background(), &TransportRequest{
		Method: nethttp.MethodGet,
		URL:    server.URL,
	}, tconst.TestAttemptTimeout)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.True(t, IsErrorType(err, TimeoutError))
	assert.Contains(t, err.Error(), tconst.TestAttemptTimeout.String())
}

func TestTransportErrors(t *testing.T) {
	t.Run("round trip failure", func(t *testing.T) {
		httpClient := &nethttp.Client{Transport: roundTripperFunc(func(*nethttp.Request) (*nethttp.Response, error) {
			return nil, errors.New("connection reset")
		})}
		_, err := NewTransport(httpClient).Send(context.Background(), &TransportRequest{
			Method: nethttp.MethodGet,
			URL:    "http://example.invalid/",
		}, time.Second)
		require.Error(t, err)
		assert.True(t, IsErrorType(err, NetworkError))
		assert.NotErrorIs(t, err, ErrTimeout)
	})

	t.Run("round trip timeout", func(t *testing.T) {
		httpClient := &nethttp.Client{Transport: roundTripperFunc(func(*nethttp.Request) (*nethttp.Response, error) {
			return nil, timeoutNetError{}
		})}
		_, err := NewTransport(httpClient).Send(context.Background(), &TransportRequest{
			Method: nethttp.MethodGet,
			URL:    "http://example.invalid/",
		}, time.Second)
		assert.ErrorIs(t, err, ErrTimeout)
	})

	t.Run("invalid method", func(t *testing.T) {
		_, err := NewTransport(nil).Send(context.Background(), &TransportRequest{
			Method: "BAD METHOD",
			URL:    "http://example.invalid/",
		}, time.Second)
		assert.True(t, IsErrorType(err, NetworkError))
	})

	t.Run("invalid url with params", func(t *testing.T) {
		_, err := NewTransport(nil).Send(context.Background(), &TransportRequest{
			Method: nethttp.MethodGet,
			URL:    "http://[::1",
			Params: url.Values{"a": {"b"}},
		}, time.Second)
		assert.True(t, IsErrorType(err, ValidationError))
	})
}

func TestWithParams(t *testing.T) {
	got, err := withParams("http://h/p", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://h/p", got)

	got, err = withParams("http://h/p?a=1", url.Values{"b": {"2", "3"}})
	require.NoError(t, err)
	assert.Equal(t, "http://h/p?a=1&b=2&b=3", got)
}

func TestIsTimeout(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: true},
		{name: "wrapped deadline", err: fmt.Errorf("get: %w", context.DeadlineExceeded), want: true},
		{name: "timeout error", err: NewTimeoutError("t", time.Second, nil), want: true},
		{name: "net timeout", err: &url.Error{Op: "Get", URL: "u", Err: timeoutNetError{}}, want: true},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTimeout(tt.err))
		})
	}
}
