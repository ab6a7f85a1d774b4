package core

import (
	"sync"
	"time"
)

// MockWriter is a thread-safe io.Writer for testing.
type MockWriter struct {
	mu   sync.Mutex
	data []byte
}

func (w *MockWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.data = append(w.data, p...)
	return len(p), nil
}

func (w *MockWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return string(w.data)
}

// FakeClock is a Clock that only moves when told to.
type FakeClock struct {
	current time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{current: start}
}

func (f *FakeClock) Now() time.Time                  { return f.current }
func (f *FakeClock) Since(t time.Time) time.Duration { return f.current.Sub(t) }
func (f *FakeClock) Advance(d time.Duration)         { f.current = f.current.Add(d) }

// FakeSource is a TimeSource whose reading is set by hand. Set may move it
// backwards to simulate a counter wrap.
type FakeSource struct {
	mu  sync.Mutex
	now Timestamp
}

func NewFakeSource(start Timestamp) *FakeSource {
	return &FakeSource{now: start}
}

func (f *FakeSource) Now() Timestamp {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the reading forward by ms milliseconds.
func (f *FakeSource) Advance(ms int64) {
	f.mu.Lock()
	f.now += Timestamp(ms)
	f.mu.Unlock()
}

func (f *FakeSource) Set(ts Timestamp) {
	f.mu.Lock()
	f.now = ts
	f.mu.Unlock()
}
