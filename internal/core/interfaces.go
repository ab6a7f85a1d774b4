// Package core defines the clock and time source primitives shared by the
// host loop, the timer set and the pacing layer.
package core

// Timestamp is a millisecond tick count sampled from a TimeSource. It is
// opaque: only differences between two samples carry meaning, and the
// underlying counter wraps at an implementation-defined modulus.
type Timestamp int64

// TimeSource is a non-decreasing millisecond clock that may wrap.
type TimeSource interface {
	Now() Timestamp
}

// Delta returns now - last in milliseconds.
// A result <= 0 means no elapsed time was observed. Callers must not try to
// correct it modulo the wrap point; the interval across a wrap is lost.
func Delta(now, last Timestamp) int64 {
	return int64(now - last)
}

// Elapsed reports whether now is strictly ahead of last.
func Elapsed(now, last Timestamp) bool {
	return Delta(now, last) > 0
}
