package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/gaborage/httpretry/http"
)

// MockTransport provides a testify-based mock implementation of the http.Transport interface.
//
// Example usage:
//
//	transport := &mocks.MockTransport{}
//	transport.On("Send", mock.Anything, mock.Anything, mock.Anything).
//		Return(&http.Response{StatusCode: 200}, nil)
type MockTransport struct {
	mock.Mock
}

var _ http.Transport = (*MockTransport)(nil)

// Send implements http.Transport
func (m *MockTransport) Send(ctx context.Context, req *http.TransportRequest, timeout time.Duration) (*http.Response, error) {
	arguments := m.Called(ctx, req, timeout)
	var resp *http.Response
	if r := arguments.Get(0); r != nil {
		resp = r.(*http.Response)
	}
	return resp, arguments.Error(1)
}

// ExpectStatus stubs an attempt that completes with status and body.
func (m *MockTransport) ExpectStatus(status int, body []byte) *mock.Call {
	return m.On("Send", mock.Anything, mock.Anything, mock.Anything).
		Return(&http.Response{StatusCode: status, Body: body}, nil)
}

// ExpectTimeout stubs an attempt that exceeds its timeout.
func (m *MockTransport) ExpectTimeout() *mock.Call {
	return m.On("Send", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, http.NewTimeoutError("mock timeout", 0, context.DeadlineExceeded))
}

// ExpectError stubs an attempt that fails without a response.
func (m *MockTransport) ExpectError(err error) *mock.Call {
	return m.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil, err)
}
