package link

import (
	"github.com/eapache/queue"
)

// DefaultLoopbackDepth bounds a Loopback created with a non-positive depth.
const DefaultLoopbackDepth = 64

// Loopback is an in-memory link: everything written with Output comes back
// out of Poll in order. It is the driver behind the loopback interface.
// Not safe for concurrent use.
type Loopback struct {
	name   string
	q      *queue.Queue
	depth  int
	closed bool
	stats  Counters
}

// NewLoopback returns a loopback link holding at most depth frames.
func NewLoopback(depth int) *Loopback {
	if depth <= 0 {
		depth = DefaultLoopbackDepth
	}
	return &Loopback{q: queue.New(), depth: depth}
}

// AttachInterface binds the link to the interface whose frames it carries.
func (l *Loopback) AttachInterface(name string) error {
	l.name = name
	return nil
}

func (l *Loopback) Init() error {
	l.closed = false
	return nil
}

// Output queues a copy of frame for a later Poll.
func (l *Loopback) Output(frame []byte) error {
	if l.closed {
		return ErrClosed
	}
	if l.q.Length() >= l.depth {
		return ErrQueueFull
	}
	data := make([]byte, len(frame))
	copy(data, frame)
	l.q.Add(data)
	return nil
}

func (l *Loopback) Poll() (Frame, bool) {
	if l.closed || l.q.Length() == 0 {
		return Frame{}, false
	}
	data := l.q.Remove().([]byte)
	l.stats.Received++
	return Frame{Interface: l.name, Data: data}, true
}

// Shutdown drops anything still queued.
func (l *Loopback) Shutdown() error {
	l.closed = true
	for l.q.Length() > 0 {
		l.q.Remove()
	}
	return nil
}

// Pending returns the number of queued frames.
func (l *Loopback) Pending() int {
	return l.q.Length()
}

func (l *Loopback) Stats() Counters {
	return l.stats
}
