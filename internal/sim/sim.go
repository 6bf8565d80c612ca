// Package sim provides the clock, randomness and latency source used by the
// simulated issuer and acquirer banks.
package sim

import (
	"context"
	"math/rand/v2"
	"time"
)

// Environment abstracts everything nondeterministic about a simulated bank.
type Environment interface {
	// Now returns the current time.
	Now() time.Time

	// Float64 returns a pseudo-random number in [0.0, 1.0).
	Float64() float64

	// IntRange returns a pseudo-random integer in [min, max].
	IntRange(min, max int) int

	// Sleep blocks for d or until ctx is done, whichever comes first.
	Sleep(ctx context.Context, d time.Duration) error
}

// Real is the production Environment backed by the wall clock and math/rand/v2.
type Real struct{}

// NewReal creates a wall-clock Environment.
func NewReal() Real {
	return Real{}
}

// Now returns the wall-clock time.
func (Real) Now() time.Time {
	return time.Now()
}

// Float64 returns a pseudo-random number in [0.0, 1.0).
func (Real) Float64() float64 {
	return rand.Float64()
}

// IntRange returns a pseudo-random integer in [min, max].
func (Real) IntRange(min, max int) int {
	if max <= min {
		return min
	}
	return min + rand.IntN(max-min+1)
}

// Sleep blocks for d or until ctx is done.
func (Real) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Elapsed returns the milliseconds between start and env.Now().
func Elapsed(env Environment, start time.Time) int {
	return int(env.Now().Sub(start) / time.Millisecond)
}
