// Package loop runs the host loop: bring-up, then a poll loop that advances
// the maintenance timers, polls the link adapter for one unit and checks the
// stop signal, then a single shutdown of the adapter.
//
// Everything the loop touches lives in a Context value built by the caller;
// there is no package state. The loop and frame dispatch run on the
// goroutine that calls Run. Timer callbacks run there too in Cooperative
// mode, and on the loop's own ticker goroutine in External mode.
package loop

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"hostloop/internal/collector"
	"hostloop/internal/core"
	"hostloop/internal/link"
	"hostloop/internal/netif"
	"hostloop/internal/ratelimit"
	"hostloop/internal/stack"
	"hostloop/internal/timer"
)

var (
	ErrNoAdapter   = errors.New("loop has no link adapter")
	ErrNoTimers    = errors.New("loop needs a timer set and time source")
	ErrAdapterInit = errors.New("link adapter init failed")
	ErrBringup     = errors.New("interface bring-up failed")
	ErrAlreadyRun  = errors.New("loop already ran")
)

// State is the loop lifecycle state.
type State int32

const (
	StateInit State = iota
	StateRunning
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Mode says who advances the timers.
type Mode int

const (
	// Cooperative: the loop advances the timers at the top of each iteration.
	Cooperative Mode = iota
	// External: a ticker goroutine advances them every TickInterval. The
	// loop starts it once bring-up has succeeded and stops it before the
	// adapter is shut down, so callbacks only ever see running interfaces.
	External
)

func (m Mode) String() string {
	if m == External {
		return "external"
	}
	return "cooperative"
}

// Context is the state one loop owns.
type Context struct {
	Interfaces *netif.Registry
	Timers     *timer.Set
	Adapter    link.Adapter
}

// Diagnostic is the datagram sent once after bring-up. Send errors are
// ignored.
type Diagnostic struct {
	Sender      stack.Sender
	Destination netip.AddrPort
	Size        int
}

// Config controls one run.
type Config struct {
	Mode   Mode
	Source core.TimeSource
	Plan   netif.Plan

	// TickInterval is the ticker period in External mode.
	TickInterval time.Duration

	// Pacer spreads iterations out. Nil means a busy poll.
	Pacer *ratelimit.Pacer
	// MaxIterations stops the loop after that many iterations; 0 is unlimited.
	MaxIterations int
	Diagnostic    *Diagnostic

	Stats *collector.Collector
	Debug *DebugLogger
}

// Loop is a single-use host loop.
type Loop struct {
	ctx   Context
	cfg   Config
	stats *collector.Collector

	ran        atomic.Bool
	state      atomic.Int32
	iterations int
	adapterUp  bool

	shutdownOnce sync.Once
	shutdownErr  error
}

// New checks c and cfg and returns a loop in StateInit.
func New(c Context, cfg Config) (*Loop, error) {
	if c.Adapter == nil {
		return nil, ErrNoAdapter
	}
	if c.Timers == nil || cfg.Source == nil {
		return nil, ErrNoTimers
	}
	if c.Interfaces == nil {
		c.Interfaces = netif.NewRegistry()
	}
	stats := cfg.Stats
	if stats == nil {
		stats = collector.NewCollector()
	}
	return &Loop{ctx: c, cfg: cfg, stats: stats}, nil
}

// Context returns the loop context. Interfaces is populated after bring-up.
func (l *Loop) Context() Context { return l.ctx }

func (l *Loop) State() State { return State(l.state.Load()) }

// Iterations returns the number of completed iterations. Only meaningful
// once Run has returned.
func (l *Loop) Iterations() int { return l.iterations }

// Run brings the interfaces up and polls until stop reports true, ctx is
// done or MaxIterations is reached. A nil stop never stops. A bring-up
// failure is returned without polling; the adapter is still shut down if its
// Init succeeded.
func (l *Loop) Run(ctx context.Context, stop StopSignal) error {
	if !l.ran.CompareAndSwap(false, true) {
		return ErrAlreadyRun
	}
	if stop == nil {
		stop = never{}
	}

	if err := l.init(); err != nil {
		l.cfg.Debug.LogError("init", err)
		if l.adapterUp {
			l.drain()
		}
		l.setState(StateStopped)
		l.stats.Close()
		return err
	}

	l.setState(StateRunning)
	stopTicker := l.startTicker(ctx)
	l.run(ctx, stop)
	stopTicker()

	err := l.drain()
	l.setState(StateStopped)
	l.stats.Close()
	return err
}

func (l *Loop) init() error {
	if l.cfg.Mode == Cooperative {
		l.ctx.Timers.Prime(l.cfg.Source.Now())
	}

	if err := l.ctx.Adapter.Init(); err != nil {
		return fmt.Errorf("%w: %w", ErrAdapterInit, err)
	}
	l.adapterUp = true

	ifaces, err := netif.Bringup(l.ctx.Interfaces, l.cfg.Plan)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBringup, err)
	}
	for _, iface := range ifaces {
		l.cfg.Debug.LogInterface(iface.String())
	}

	if d := l.cfg.Diagnostic; d != nil && d.Sender != nil {
		if err := d.Sender.SendUDP(d.Destination, make([]byte, d.Size)); err != nil {
			l.cfg.Debug.LogError("diagnostic", err)
		} else {
			l.stats.DiagnosticSent()
		}
	}
	return nil
}

func (l *Loop) run(ctx context.Context, stop StopSignal) {
	for {
		if l.cfg.Mode == Cooperative {
			l.ctx.Timers.Advance(l.cfg.Source.Now())
			l.stats.Advance()
		}

		l.pollOnce()

		l.iterations++
		l.stats.Iteration()

		if stop.Stopped() || ctx.Err() != nil {
			return
		}
		if l.cfg.MaxIterations > 0 && l.iterations >= l.cfg.MaxIterations {
			return
		}
		if l.cfg.Pacer != nil {
			if err := l.cfg.Pacer.Wait(ctx); err != nil {
				return
			}
		}
	}
}

// startTicker runs timer.RunTicker in External mode and returns a function
// that stops it and waits for the last callback to return.
func (l *Loop) startTicker(ctx context.Context) func() {
	if l.cfg.Mode != External {
		return func() {}
	}
	tctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.ctx.Timers.Prime(l.cfg.Source.Now())
	go func() {
		defer close(done)
		timer.RunTicker(tctx, l.ctx.Timers, l.cfg.Source, l.cfg.TickInterval)
	}()
	return func() {
		cancel()
		<-done
	}
}

func (l *Loop) pollOnce() {
	frame, ok := l.ctx.Adapter.Poll()
	if !ok {
		return
	}
	iface, found := l.ctx.Interfaces.Lookup(frame.Interface)
	if !found {
		l.stats.Unroutable()
		l.cfg.Debug.LogError("link", fmt.Errorf("frame for unknown interface %q dropped", frame.Interface))
		return
	}
	l.cfg.Debug.LogFrame(iface.Name(), frame.Data)
	l.stats.Frame()
	if err := iface.Input(frame.Data); err != nil {
		l.stats.InputError()
		l.cfg.Debug.LogError("input", err)
	}
}

func (l *Loop) drain() error {
	l.setState(StateDraining)
	return l.Shutdown()
}

// Shutdown releases the adapter. Only the first call does anything; later
// calls return the first result.
func (l *Loop) Shutdown() error {
	l.shutdownOnce.Do(func() {
		l.shutdownErr = l.ctx.Adapter.Shutdown()
		if l.shutdownErr != nil {
			l.cfg.Debug.LogError("shutdown", l.shutdownErr)
		}
	})
	return l.shutdownErr
}

func (l *Loop) setState(s State) {
	from := State(l.state.Swap(int32(s)))
	if from != s {
		l.cfg.Debug.LogState(from, s)
	}
}
