package testing

import "time"

// Logger levels used across tests.
const (
	TestLoggerLevelDebug    = "debug"
	TestLoggerLevelError    = "error"
	TestLoggerLevelDisabled = "disabled"
)

// Header names and values shared by client tests.
const (
	TestHeaderAPIKey   = "X-Api-Key"
	TestAPIKeyValue    = "test-key"
	TestHeaderTrace    = "X-Trace"
	TestContentTypeHdr = "Content-Type"
	TestJSONType       = "application/json"
)

// Durations that keep retry tests fast.
const (
	// TestAttemptTimeout bounds a single attempt against a stalled server.
	TestAttemptTimeout = 50 * time.Millisecond
	// TestBackoffBase seeds backoff in tests that really sleep.
	TestBackoffBase = time.Millisecond
	// TestBackoffMax caps backoff in tests that really sleep.
	TestBackoffMax = 5 * time.Millisecond
)
