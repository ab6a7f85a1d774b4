package core

import "time"

// DefaultWrap is the modulus of a 32-bit millisecond tick counter.
const DefaultWrap int64 = 1 << 32

// Clock provides wall time operations that can be swapped out in tests.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// RealClock uses the standard time package.
type RealClock struct{}

func (RealClock) Now() time.Time                  { return time.Now() }
func (RealClock) Since(t time.Time) time.Duration { return time.Since(t) }

// MonotonicSource turns a Clock into a millisecond TimeSource counting from
// its creation and wrapping back to zero every wrap milliseconds.
type MonotonicSource struct {
	clock Clock
	start time.Time
	wrap  int64
}

// NewMonotonicSource returns a TimeSource over the real clock that wraps at
// wrap milliseconds. A non-positive wrap selects DefaultWrap.
func NewMonotonicSource(wrap int64) *MonotonicSource {
	return NewMonotonicSourceWithClock(RealClock{}, wrap)
}

// NewMonotonicSourceWithClock is NewMonotonicSource with a custom clock (for testing).
func NewMonotonicSourceWithClock(clock Clock, wrap int64) *MonotonicSource {
	if wrap <= 0 {
		wrap = DefaultWrap
	}
	return &MonotonicSource{
		clock: clock,
		start: clock.Now(),
		wrap:  wrap,
	}
}

// Now returns the milliseconds elapsed since creation, modulo the wrap.
func (m *MonotonicSource) Now() Timestamp {
	ms := m.clock.Since(m.start).Milliseconds()
	return Timestamp(ms % m.wrap)
}

// Wrap returns the modulus this source wraps at.
func (m *MonotonicSource) Wrap() int64 {
	return m.wrap
}
