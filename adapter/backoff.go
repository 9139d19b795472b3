package adapter

import (
	"math"
	"time"
)

// Backoff is a capped exponential retry policy.
type Backoff struct {
	// Attempts is the total number of tries, including the first.
	Attempts int
	Base     time.Duration
	Max      time.Duration
}

// DefaultBackoff returns 5 attempts starting at 100ms, capped at 2s.
func DefaultBackoff() Backoff {
	return Backoff{Attempts: 5, Base: 100 * time.Millisecond, Max: 2 * time.Second}
}

// Delay returns the wait before retry number n (1 for the first retry).
// Delays never decrease as n grows.
func (b Backoff) Delay(n int) time.Duration {
	if n < 1 || b.Base <= 0 {
		return 0
	}
	d := b.Base
	for i := 1; i < n; i++ {
		if d > math.MaxInt64/2 {
			return d
		}
		d *= 2
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
	}
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}

func (b Backoff) attempts() int {
	return max(b.Attempts, 1)
}
