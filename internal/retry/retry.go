// Package retry runs an operation with bounded exponential backoff, retrying
// only failures classified as transient.
package retry

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/subhan986/JoJo-Stand-connector/internal/model"
)

// sleepFunc waits between attempts (injectable for tests)
var sleepFunc = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Policy bounds the attempts of a single operation. The zero value and
// Attempts <= 1 mean exactly one try.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
}

// FromConfig converts the config representation
func FromConfig(c model.RetryConfig) Policy {
	return Policy{Attempts: c.Attempts, BaseDelay: c.BaseDelay}
}

// Backoff returns the delay before attempt n+1 (n starts at 0)
func (p Policy) Backoff(n int) time.Duration {
	return p.BaseDelay * time.Duration(1<<uint(n))
}

// Do calls fn until it succeeds, returns a non-retryable error, the attempts
// are exhausted, or ctx is done. The last error is returned.
func Do[T any](ctx context.Context, p Policy, retryable func(error) bool, fn func(context.Context) (T, error)) (T, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	if retryable == nil {
		retryable = IsTransient
	}

	var (
		val T
		err error
	)
	for attempt := 0; attempt < attempts; attempt++ {
		val, err = fn(ctx)
		if err == nil || !retryable(err) {
			return val, err
		}
		if attempt < attempts-1 {
			if werr := sleepFunc(ctx, p.Backoff(attempt)); werr != nil {
				return val, err
			}
		}
	}
	return val, err
}

// StatusCoder is implemented by errors that carry an HTTP status
type StatusCoder interface {
	HTTPStatus() int
}

// IsTransient reports 5xx, 429, timeouts and connection refused/reset
// failures. Context cancellation is never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	if code := statusOf(err); code != 0 {
		return code == 429 || (code >= 500 && code < 600)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	s := strings.ToLower(err.Error())
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}

func statusOf(err error) int {
	var fe *model.FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatus()
	}
	return 0
}
