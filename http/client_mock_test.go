package http_test

import (
	"context"
	"errors"
	nethttp "net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/httpretry/http"
	"github.com/gaborage/httpretry/internal/testutil"
	"github.com/gaborage/httpretry/logger"
	"github.com/gaborage/httpretry/testing/mocks"
)

func noSleep(context.Context, time.Duration) error { return nil }

func TestClientWithMockTransport(t *testing.T) {
	transport := &mocks.MockTransport{}
	transport.ExpectTimeout().Once()
	transport.ExpectStatus(nethttp.StatusServiceUnavailable, nil).Once()
	transport.ExpectStatus(nethttp.StatusOK, []byte("done")).Once()

	client, err := http.NewBuilder(testutil.TestBaseURL, logger.Nop()).
		WithTransport(transport).
		WithTimeout(2 * time.Second).
		WithSleep(noSleep).
		Build()
	require.NoError(t, err)

	resp, err := client.Post(context.Background(), &http.Request{
		Endpoint: testutil.TestEndpoint,
		Payload:  map[string]string{"k": "v"},
	})
	require.NoError(t, err)
	assert.Equal(t, "done", string(resp.Body))
	assert.Equal(t, 3, resp.Stats.Attempts)

	transport.AssertNumberOfCalls(t, "Send", 3)
	transport.AssertCalled(t, "Send", mock.Anything, mock.MatchedBy(func(req *http.TransportRequest) bool {
		return req.Method == nethttp.MethodPost &&
			req.URL == testutil.TestURL &&
			string(req.Body) == `{"k":"v"}` &&
			req.Headers["Content-Type"] == "application/json"
	}), 2*time.Second)
}

func TestClientWithMockTransportError(t *testing.T) {
	transport := &mocks.MockTransport{}
	transport.ExpectError(http.NewNetworkError("dial failed", errors.New(testutil.TestConnectionRefused)))

	client, err := http.NewBuilder(testutil.TestBaseURL, nil).WithTransport(transport).Build()
	require.NoError(t, err)

	_, err = client.Get(context.Background(), &http.Request{})
	require.Error(t, err)
	assert.True(t, http.IsErrorType(err, http.NetworkError))
	transport.AssertNumberOfCalls(t, "Send", 1)
}
