package loop

import (
	"context"
	"sync/atomic"
)

// StopSignal is checked once per iteration, after the poll. It must not
// block.
type StopSignal interface {
	Stopped() bool
}

// StopFunc adapts a function to StopSignal.
type StopFunc func() bool

func (f StopFunc) Stopped() bool { return f() }

// ContextStop reports stopped once ctx is done.
func ContextStop(ctx context.Context) StopSignal {
	return StopFunc(func() bool { return ctx.Err() != nil })
}

// Flag is a StopSignal that may be raised from any goroutine, for example a
// signal handler.
type Flag struct {
	raised atomic.Bool
}

// Stop raises the flag.
func (f *Flag) Stop() { f.raised.Store(true) }

func (f *Flag) Stopped() bool { return f.raised.Load() }

type never struct{}

func (never) Stopped() bool { return false }
