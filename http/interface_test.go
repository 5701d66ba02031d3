package http

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseStatusHelpers(t *testing.T) {
	tests := []struct {
		status  int
		ok      bool
		success bool
	}{
		{status: 100, ok: false, success: false},
		{status: 199, ok: false, success: false},
		{status: 200, ok: true, success: true},
		{status: 204, ok: true, success: true},
		{status: 301, ok: true, success: false},
		{status: 399, ok: true, success: false},
		{status: 400, ok: false, success: false},
		{status: 404, ok: false, success: false},
		{status: 500, ok: false, success: false},
		{status: 503, ok: false, success: false},
	}

	for _, tt := range tests {
		resp := &Response{StatusCode: tt.status}
		assert.Equal(t, tt.ok, resp.OK(), "OK(%d)", tt.status)
		assert.Equal(t, tt.success, resp.IsSuccess(), "IsSuccess(%d)", tt.status)
	}
}

func TestTransportFunc(t *testing.T) {
	var gotTimeout time.Duration
	transport := TransportFunc(func(_ context.Context, req *TransportRequest, timeout time.Duration) (*Response, error) {
		gotTimeout = timeout
		return &Response{StatusCode: 201, Body: req.Body}, nil
	})

	resp, err := transport.Send(context.Background(), &TransportRequest{Body: []byte("b")}, 3*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, []byte("b"), resp.Body)
	assert.Equal(t, 3*time.Second, gotTimeout)
}
