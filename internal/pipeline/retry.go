package pipeline

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/docsplit/internal/index"
	"github.com/dgallion1/docsplit/internal/layout"
)

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var layoutErr *layout.RetryableError
	var indexErr *index.RetryableError
	return errors.As(err, &layoutErr) || errors.As(err, &indexErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3

// backoffFunc is swapped out in tests.
var backoffFunc = Backoff
