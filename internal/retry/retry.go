/*
Package retry runs an operation a bounded number of times with exponential
backoff.
*/
package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

type Backoff struct {
	Base    time.Duration
	Max     time.Duration
	attempt int
}

func NewBackoff(base, max time.Duration) *Backoff {
	return &Backoff{Base: base, Max: max}
}

func (b *Backoff) Next() time.Duration {
	d := b.Base << b.attempt
	if d > b.Max || d <= 0 {
		d = b.Max
	}
	b.attempt++
	return d
}

func (b *Backoff) Reset() {
	b.attempt = 0
}

// Policy bounds how often and how patiently an operation is retried.
type Policy struct {
	Attempts int
	Base     time.Duration
	Max      time.Duration
}

func DefaultPolicy() Policy {
	return Policy{Attempts: 3, Base: time.Second, Max: 8 * time.Second}
}

// permanent marks an error that must not be retried.
type permanent struct{ err error }

func (p permanent) Error() string { return p.err.Error() }
func (p permanent) Unwrap() error { return p.err }

// Permanent wraps err so Do returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanent{err: err}
}

// Do calls fn until it succeeds, returns a Permanent error, the attempts run
// out or ctx is done. The last error is returned.
func Do(ctx context.Context, p Policy, fn func(attempt int) error) error {
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	backoff := NewBackoff(p.Base, p.Max)

	var err error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		err = fn(attempt)
		if err == nil {
			return nil
		}
		var perm permanent
		if errors.As(err, &perm) {
			return perm.err
		}
		if attempt == p.Attempts {
			break
		}

		timer := time.NewTimer(backoff.Next())
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-timer.C:
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", p.Attempts, err)
}

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("received non-OK status code %d from %s", e.StatusCode, e.URL)
}

// CheckStatus converts a response status into an error. Rate limiting and
// server errors are retryable; other failures are permanent.
func CheckStatus(url string, code int) error {
	if code >= 200 && code < 300 {
		return nil
	}
	err := &StatusError{URL: url, StatusCode: code}
	if RetryableStatus(code) {
		return err
	}
	return Permanent(err)
}

// RetryableStatus reports whether a request that failed with code may
// succeed later.
func RetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// ByStatus keeps err retryable for rate limits and server errors and marks
// every other status as permanent. A zero code (no response) stays
// retryable.
func ByStatus(code int, err error) error {
	if code == 0 || RetryableStatus(code) {
		return err
	}
	return Permanent(err)
}
