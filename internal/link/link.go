// Package link provides the link adapters the host loop polls for inbound
// data. An adapter is opaque to the loop: it is initialized once, polled for
// at most one unit per loop iteration and shut down once on exit.
package link

import "errors"

var (
	// ErrUnsupported is returned by adapters that cannot run on this platform.
	ErrUnsupported = errors.New("link adapter not supported on this platform")
	// ErrClosed is returned when an adapter is used after Shutdown.
	ErrClosed = errors.New("link adapter is closed")
	// ErrQueueFull is returned when a bounded queue refuses a frame.
	ErrQueueFull = errors.New("link queue is full")
)

// Frame is one inbound unit of data. Interface names the interface that owns
// it; an empty name means the primary interface.
type Frame struct {
	Interface string
	Data      []byte
}

// Adapter is a polled link-layer data source.
//
// Poll never blocks. A failed receive is reported the same way as an empty
// one: ok is false.
type Adapter interface {
	Init() error
	Poll() (frame Frame, ok bool)
	Shutdown() error
}

// Outputter is implemented by adapters that can also transmit.
type Outputter interface {
	Output(frame []byte) error
}

// Counters are receive-side statistics some adapters keep.
type Counters struct {
	Received uint64
	Errors   uint64
}
