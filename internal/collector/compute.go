package collector

import (
	"time"

	"hostloop/internal/timer"
)

// Metrics is a point-in-time snapshot of a Collector.
type Metrics struct {
	Duration       time.Duration
	Iterations     uint64
	IterationsPerS float64
	Advances       uint64
	Frames         uint64
	InputErrors    uint64
	Unroutable     uint64
	Diagnostics    uint64
	DroppedCycles  uint64
	Timers         map[string]uint64
}

// Compute snapshots the counters.
func (c *Collector) Compute() *Metrics {
	m := &Metrics{
		Duration:      c.Duration(),
		Iterations:    c.iterations.Load(),
		Advances:      c.advances.Load(),
		Frames:        c.frames.Load(),
		InputErrors:   c.inputErrors.Load(),
		Unroutable:    c.unroutable.Load(),
		Diagnostics:   c.diagnostics.Load(),
		DroppedCycles: c.droppedCycles.Load(),
		Timers:        make(map[string]uint64),
	}
	for id := timer.TCPFast; id < timer.FirstCustom; id++ {
		if n := c.fires[id].Load(); n > 0 {
			m.Timers[id.String()] = n
		}
	}
	if n := c.customFires.Load(); n > 0 {
		m.Timers["custom"] = n
	}
	if m.Duration > 0 {
		m.IterationsPerS = float64(m.Iterations) / m.Duration.Seconds()
	}
	return m
}
