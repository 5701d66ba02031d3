// Package http provides a small HTTP client whose verbs share one retry loop.
//
// Every request is sent through a Transport. The default transport is built on
// net/http and applies the configured timeout to each attempt separately.
//
// Retries
//   - Timeouts are always retried.
//   - Non-ok responses are retried unless their status code is in the non-retriable
//     set (default 400, 404 and 422), in which case they are returned immediately.
//   - Once the budget (MaxRetries, default 4) is spent the last response is returned,
//     whatever its status. HTTP error statuses are never reported as errors; callers
//     inspect Response.OK and Response.StatusCode.
//   - If the final attempt timed out the call fails with ErrMaxRetriesExceeded.
//
// Backoff Strategy
//   - The first retry is sent immediately.
//   - Retry n+1 (n >= 1) waits min(BackoffBase * 2^n, BackoffMax).
//   - No jitter is applied.
//
// Notes
//   - Endpoints are appended to the base URL verbatim.
//   - Request bodies are rebuilt for every attempt; interceptors run per attempt.
//   - Transport failures other than timeouts (connection refused, DNS) are returned
//     at once without retrying.
package http
