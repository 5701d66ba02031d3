// Package retry implements the retry/backoff decision loop shared by every HTTP verb of
// the client.
//
// One logical request is executed by calling Execute with an attempt function. Each call
// of the attempt function performs one network exchange and reports an Outcome: either a
// completed response (status code and ok flag) or a timeout.
//
// Classification
//   - ok responses end the loop and are returned.
//   - Non-ok responses whose status code is in the policy's non-retriable set end the loop
//     and are returned as-is.
//   - Timeouts and every other non-ok response are retried while the budget allows.
//
// Backoff
//   - The wait before retry n (n = retries already made) is min(base * 2^n, max).
//   - The first retry (n == 0) fires immediately; waits start with the second retry.
//
// Termination
//   - When the budget is spent the last response is returned, even an error status.
//   - Only a final timeout produces an error: *MaxRetriesExceededError.
package retry
