package http

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gaborage/httpretry/internal/testutil"
	"github.com/gaborage/httpretry/retry"
)

func TestErrorMessages(t *testing.T) {
	cause := errors.New(testutil.TestError)

	tests := []struct {
		name     string
		err      ClientError
		typ      ErrorType
		expected string
	}{
		{
			name:     "network with cause",
			err:      NewNetworkError("dial failed", cause),
			typ:      NetworkError,
			expected: "network error: dial failed: test error",
		},
		{
			name:     "network without cause",
			err:      NewNetworkError("no response", nil),
			typ:      NetworkError,
			expected: "network error: no response",
		},
		{
			name:     "timeout",
			err:      NewTimeoutError("request timeout", 5*time.Second, cause),
			typ:      TimeoutError,
			expected: "timeout error: request timeout (timeout: 5s)",
		},
		{
			name:     "validation with field",
			err:      NewValidationError("base URL cannot be empty", "base_url"),
			typ:      ValidationError,
			expected: "validation error: base URL cannot be empty (field: base_url)",
		},
		{
			name:     "validation without field",
			err:      NewValidationError("bad request", ""),
			typ:      ValidationError,
			expected: "validation error: bad request",
		},
		{
			name:     "interceptor",
			err:      NewInterceptorError("request interceptor failed", cause),
			typ:      InterceptorError,
			expected: "interceptor error: request interceptor failed: test error",
		},
		{
			name:     "encoding",
			err:      NewEncodingError(cause),
			typ:      EncodingError,
			expected: "encoding error: failed to encode payload: test error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.expected)
			assert.Equal(t, tt.typ, tt.err.Type())
			assert.True(t, IsErrorType(fmt.Errorf("wrapped: %w", tt.err), tt.typ))
		})
	}
}

func TestErrorUnwrapping(t *testing.T) {
	cause := errors.New(testutil.TestError)

	assert.ErrorIs(t, NewNetworkError("m", cause), cause)
	assert.ErrorIs(t, NewInterceptorError("m", cause), cause)
	assert.ErrorIs(t, NewEncodingError(cause), cause)

	timeout := NewTimeoutError("m", time.Second, context.DeadlineExceeded)
	assert.ErrorIs(t, timeout, ErrTimeout)
	assert.ErrorIs(t, timeout, context.DeadlineExceeded)
	assert.NotErrorIs(t, NewNetworkError("m", cause), ErrTimeout)
}

func TestIsErrorType(t *testing.T) {
	assert.False(t, IsErrorType(nil, NetworkError))
	assert.False(t, IsErrorType(errors.New("plain"), NetworkError))
	assert.False(t, IsErrorType(NewNetworkError("m", nil), TimeoutError))

	exceeded := NewMaxRetriesExceededError("http://api.test/x", 4)
	assert.True(t, IsErrorType(exceeded, MaxRetriesExceededErrorType))
	assert.True(t, IsErrorType(fmt.Errorf("outer: %w", exceeded), MaxRetriesExceededErrorType))
	assert.False(t, IsErrorType(exceeded, TimeoutError))
	assert.False(t, IsErrorType(&MaxRetriesExceededError{URL: "http://api.test/x"}, MaxRetriesExceededErrorType))
}

func TestMaxRetriesExceeded(t *testing.T) {
	err := error(&MaxRetriesExceededError{URL: "http://api.test/x", Retries: 4})

	assert.True(t, IsMaxRetriesExceeded(err))
	assert.True(t, IsMaxRetriesExceeded(fmt.Errorf("outer: %w", err)))
	assert.ErrorIs(t, err, retry.ErrMaxRetriesExceeded)
	assert.EqualError(t, err, "request for URL: http://api.test/x failed after 4 retries")
	assert.False(t, IsMaxRetriesExceeded(NewTimeoutError("m", time.Second, nil)))

	tagged := NewMaxRetriesExceededError("http://api.test/x", 4)
	assert.True(t, IsMaxRetriesExceeded(tagged))
	assert.EqualError(t, tagged, "request for URL: http://api.test/x failed after 4 retries")
	var inner *MaxRetriesExceededError
	assert.ErrorAs(t, tagged, &inner)
	assert.Equal(t, 4, inner.Retries)
}
