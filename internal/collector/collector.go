// Package collector counts what the host loop does: iterations, frames
// dispatched or dropped, and maintenance timer fires.
package collector

import (
	"sync/atomic"
	"time"

	"hostloop/internal/timer"
)

// Collector holds the loop counters. The loop thread writes them; any
// goroutine may read them.
type Collector struct {
	iterations    atomic.Uint64
	frames        atomic.Uint64
	inputErrors   atomic.Uint64
	unroutable    atomic.Uint64
	advances      atomic.Uint64
	fires         [timer.FirstCustom]atomic.Uint64
	customFires   atomic.Uint64
	droppedCycles atomic.Uint64
	diagnostics   atomic.Uint64

	startTime time.Time
	endTime   atomic.Int64 // unix nanos, 0 while running
}

func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

func (c *Collector) Iteration()      { c.iterations.Add(1) }
func (c *Collector) Advance()        { c.advances.Add(1) }
func (c *Collector) Frame()          { c.frames.Add(1) }
func (c *Collector) InputError()     { c.inputErrors.Add(1) }
func (c *Collector) Unroutable()     { c.unroutable.Add(1) }
func (c *Collector) DiagnosticSent() { c.diagnostics.Add(1) }

// TimerFired records one fire of id and the due cycles it discarded.
// Its signature matches timer.Set.Observe.
func (c *Collector) TimerFired(id timer.ID, dropped uint64) {
	if id >= 0 && id < timer.FirstCustom {
		c.fires[id].Add(1)
	} else {
		c.customFires.Add(1)
	}
	c.droppedCycles.Add(dropped)
}

// Close marks the end of the run.
func (c *Collector) Close() {
	c.endTime.CompareAndSwap(0, time.Now().UnixNano())
}

// Duration returns the run duration.
// If the collector is closed, returns the duration from start to end.
// If still running, returns the duration from start to now.
func (c *Collector) Duration() time.Duration {
	if end := c.endTime.Load(); end != 0 {
		return time.Unix(0, end).Sub(c.startTime)
	}
	return time.Since(c.startTime)
}

// Iterations returns the number of completed loop iterations.
func (c *Collector) Iterations() uint64 {
	return c.iterations.Load()
}

// Frames returns the number of frames handed to the stack.
func (c *Collector) Frames() uint64 {
	return c.frames.Load()
}

// Fires returns how often id fired.
func (c *Collector) Fires(id timer.ID) uint64 {
	if id >= 0 && id < timer.FirstCustom {
		return c.fires[id].Load()
	}
	return c.customFires.Load()
}
