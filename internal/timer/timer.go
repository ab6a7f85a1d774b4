// Package timer keeps a set of independent periodic maintenance timers
// driven from a single wraparound-prone millisecond clock.
//
// A Set is not safe for concurrent use. Whoever drives Advance owns it: the
// host loop in cooperative mode, or the goroutine started by RunTicker when
// timers are scheduled externally.
package timer

import (
	"errors"
	"fmt"
	"time"

	"hostloop/internal/core"
)

var (
	// ErrInvalidPeriod is returned for periods that are not a positive whole
	// number of milliseconds, the resolution of the time source.
	ErrInvalidPeriod = errors.New("timer period must be a whole number of milliseconds >= 1ms")
	// ErrNilCallback is returned when a timer is registered without a callback.
	ErrNilCallback = errors.New("timer callback is nil")
	// ErrDuplicateID is returned when an id is registered twice.
	ErrDuplicateID = errors.New("timer already registered")
)

// ID identifies a timer. The predefined ids double as firing priority:
// when several timers are due in one Advance they fire in this order.
type ID int

const (
	TCPFast ID = iota
	TCPSlow
	ARP
	DHCPFine
	DHCPCoarse
	IPReassembly
	AutoIP
	IGMP

	// FirstCustom is the lowest id free for callers. Custom ids fire after
	// the predefined ones, in registration order.
	FirstCustom
)

var idNames = [...]string{
	TCPFast:      "tcp_fast",
	TCPSlow:      "tcp_slow",
	ARP:          "arp",
	DHCPFine:     "dhcp_fine",
	DHCPCoarse:   "dhcp_coarse",
	IPReassembly: "ip_reass",
	AutoIP:       "autoip",
	IGMP:         "igmp",
}

func (id ID) String() string {
	if id >= 0 && id < FirstCustom {
		return idNames[id]
	}
	return fmt.Sprintf("custom_%d", int(id))
}

func (id ID) priority() int {
	if id >= 0 && id < FirstCustom {
		return int(id)
	}
	return int(FirstCustom)
}

// Info is a read-only snapshot of one timer.
type Info struct {
	ID          ID
	Period      time.Duration
	Accumulated time.Duration
	Fires       uint64
	Dropped     uint64 // due cycles discarded by backlog collapse
}

type entry struct {
	id          ID
	period      int64 // ms
	accumulated int64 // ms
	callback    func()
	seq         int
	fires       uint64
	dropped     uint64
}

// Set is an ordered collection of timers sharing one clock sample.
type Set struct {
	timers  []*entry
	byID    map[ID]*entry
	last    core.Timestamp
	seq     int
	observe func(id ID, dropped uint64)
}

// NewSet returns an empty Set whose clock sample starts at zero.
func NewSet() *Set {
	return &Set{byID: make(map[ID]*entry)}
}

// Register adds a timer with nothing accumulated. The period must be a whole
// number of milliseconds; 1500us is rejected rather than truncated.
func (s *Set) Register(id ID, period time.Duration, callback func()) error {
	if period < time.Millisecond || period%time.Millisecond != 0 {
		return fmt.Errorf("registering %s: %w", id, ErrInvalidPeriod)
	}
	if callback == nil {
		return fmt.Errorf("registering %s: %w", id, ErrNilCallback)
	}
	if _, exists := s.byID[id]; exists {
		return fmt.Errorf("registering %s: %w", id, ErrDuplicateID)
	}

	e := &entry{
		id:       id,
		period:   period.Milliseconds(),
		callback: callback,
		seq:      s.seq,
	}
	s.seq++
	s.byID[id] = e

	// insert keeping (priority, seq) order
	i := len(s.timers)
	for i > 0 && s.timers[i-1].id.priority() > id.priority() {
		i--
	}
	s.timers = append(s.timers, nil)
	copy(s.timers[i+1:], s.timers[i:])
	s.timers[i] = e
	return nil
}

// Observe installs a hook called after every fire with the number of due
// cycles that fire discarded. Passing nil removes it.
func (s *Set) Observe(fn func(id ID, dropped uint64)) {
	s.observe = fn
}

// Prime sets the stored clock sample without accumulating anything.
func (s *Set) Prime(now core.Timestamp) {
	s.last = now
}

// Last returns the stored clock sample.
func (s *Set) Last() core.Timestamp {
	return s.last
}

// Len returns the number of registered timers.
func (s *Set) Len() int {
	return len(s.timers)
}

// Advance feeds the time elapsed since the previous sample to every timer
// and fires the ones that came due, returning how many fired.
//
// A non-positive delta is a counter wrap (or a stalled clock): nothing
// accumulates and the stored sample stays where it was. A timer overdue by
// several periods fires once and keeps only the sub-period remainder.
func (s *Set) Advance(now core.Timestamp) int {
	delta := core.Delta(now, s.last)
	if delta <= 0 {
		return 0
	}
	s.last = now
	for _, e := range s.timers {
		e.accumulated += delta
	}

	fired := 0
	for _, e := range s.timers {
		if e.accumulated < e.period {
			continue
		}
		e.callback()
		e.accumulated -= e.period
		var dropped uint64
		if e.accumulated >= e.period {
			dropped = uint64(e.accumulated / e.period)
			e.accumulated %= e.period
		}
		e.fires++
		e.dropped += dropped
		fired++
		if s.observe != nil {
			s.observe(e.id, dropped)
		}
	}
	return fired
}

// Timer returns a snapshot of the timer registered under id.
func (s *Set) Timer(id ID) (Info, bool) {
	e, ok := s.byID[id]
	if !ok {
		return Info{}, false
	}
	return e.info(), true
}

// Timers returns snapshots of all timers in firing order.
func (s *Set) Timers() []Info {
	out := make([]Info, len(s.timers))
	for i, e := range s.timers {
		out[i] = e.info()
	}
	return out
}

func (e *entry) info() Info {
	return Info{
		ID:          e.id,
		Period:      time.Duration(e.period) * time.Millisecond,
		Accumulated: time.Duration(e.accumulated) * time.Millisecond,
		Fires:       e.fires,
		Dropped:     e.dropped,
	}
}
