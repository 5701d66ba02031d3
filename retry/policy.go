package retry

import (
	"slices"
	"time"
)

const (
	// DefaultMaxRetries is the number of retries made after the first attempt.
	DefaultMaxRetries = 4

	// DefaultBackoffBase seeds the exponential backoff.
	DefaultBackoffBase = 30 * time.Second

	// DefaultBackoffMax caps any single wait.
	DefaultBackoffMax = 30 * time.Second
)

// DefaultNonRetriableStatusCodes returns a fresh copy of the status codes that are given
// up on immediately: 400, 404 and 422.
func DefaultNonRetriableStatusCodes() []int {
	return []int{400, 404, 422}
}

// StatusSet is an immutable set of HTTP status codes.
type StatusSet struct {
	codes map[int]struct{}
}

// NewStatusSet copies codes into a new set.
func NewStatusSet(codes ...int) StatusSet {
	m := make(map[int]struct{}, len(codes))
	for _, c := range codes {
		m[c] = struct{}{}
	}
	return StatusSet{codes: m}
}

// Contains reports whether code is a member of the set.
func (s StatusSet) Contains(code int) bool {
	_, ok := s.codes[code]
	return ok
}

// Codes returns the members in ascending order.
func (s StatusSet) Codes() []int {
	out := make([]int, 0, len(s.codes))
	for c := range s.codes {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of members.
func (s StatusSet) Len() int {
	return len(s.codes)
}

// Class is the classification of one attempt outcome.
type Class int

const (
	// ClassSuccess is an ok response. Terminal.
	ClassSuccess Class = iota
	// ClassNonRetriable is a non-ok response whose status is in the non-retriable set. Terminal.
	ClassNonRetriable
	// ClassRetriable is a non-ok response whose status is not in the non-retriable set.
	ClassRetriable
	// ClassTimeout is an attempt that produced no response.
	ClassTimeout
)

func (c Class) String() string {
	switch c {
	case ClassSuccess:
		return "success"
	case ClassNonRetriable:
		return "non_retriable"
	case ClassRetriable:
		return "retriable"
	case ClassTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Terminal reports whether the class ends the loop regardless of the remaining budget.
func (c Class) Terminal() bool {
	return c == ClassSuccess || c == ClassNonRetriable
}

// Policy holds the retry parameters of a client. It is a value type and safe to share
// between concurrent requests.
type Policy struct {
	MaxRetries   int
	BackoffBase  time.Duration
	BackoffMax   time.Duration
	NonRetriable StatusSet
}

// NewPolicy builds a policy. The non-retriable codes are copied.
func NewPolicy(maxRetries int, backoffBase, backoffMax time.Duration, nonRetriable ...int) Policy {
	return Policy{
		MaxRetries:   maxRetries,
		BackoffBase:  backoffBase,
		BackoffMax:   backoffMax,
		NonRetriable: NewStatusSet(nonRetriable...),
	}
}

// DefaultPolicy returns 4 retries, 30s base, 30s cap and the default non-retriable codes.
func DefaultPolicy() Policy {
	return NewPolicy(DefaultMaxRetries, DefaultBackoffBase, DefaultBackoffMax, DefaultNonRetriableStatusCodes()...)
}

// Classify maps an attempt outcome to its Class.
func (p Policy) Classify(timedOut, ok bool, statusCode int) Class {
	switch {
	case timedOut:
		return ClassTimeout
	case ok:
		return ClassSuccess
	case p.NonRetriable.Contains(statusCode):
		return ClassNonRetriable
	default:
		return ClassRetriable
	}
}

// Delay returns min(BackoffBase * 2^n, BackoffMax) without overflowing.
func (p Policy) Delay(n int) time.Duration {
	if p.BackoffBase <= 0 || p.BackoffMax <= 0 || n < 0 {
		return 0
	}
	if n >= 62 || p.BackoffBase > p.BackoffMax>>uint(n) {
		return p.BackoffMax
	}
	return p.BackoffBase << uint(n)
}

// WaitBefore returns the wait to apply before the retry that follows attemptsMade
// retries. The first retry is never delayed.
func (p Policy) WaitBefore(attemptsMade int) (time.Duration, bool) {
	if attemptsMade < 1 {
		return 0, false
	}
	return p.Delay(attemptsMade), true
}
