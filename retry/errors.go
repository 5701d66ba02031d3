package retry

import (
	"errors"
	"fmt"
)

// ErrMaxRetriesExceeded matches every *MaxRetriesExceededError via errors.Is.
var ErrMaxRetriesExceeded = errors.New("max retries exceeded")

// MaxRetriesExceededError reports a request whose every attempt timed out.
type MaxRetriesExceededError struct {
	URL     string
	Retries int
}

func (e *MaxRetriesExceededError) Error() string {
	return fmt.Sprintf("request for URL: %s failed after %d retries", e.URL, e.Retries)
}

// Is reports whether target is ErrMaxRetriesExceeded.
func (e *MaxRetriesExceededError) Is(target error) bool {
	return target == ErrMaxRetriesExceeded
}
