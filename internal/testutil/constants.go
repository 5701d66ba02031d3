// Package testutil provides shared constants for tests across httpretry.
package testutil

const (
	// TestError is a generic error message for test error scenarios.
	TestError = "test error"

	// TestConnectionRefused is the common network error message for connection failures.
	TestConnectionRefused = "connection refused"
)

const (
	// TestBaseURL is a base URL that is never dialled; tests using it stub the transport.
	TestBaseURL = "http://api.test"

	// TestEndpoint is appended to TestBaseURL.
	TestEndpoint = "/v1/items"

	// TestURL is TestBaseURL joined with TestEndpoint.
	TestURL = TestBaseURL + TestEndpoint
)
