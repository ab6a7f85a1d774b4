// Package stack describes the protocol stack the host loop drives. The
// protocol state machines themselves live outside this module; the loop
// only needs their maintenance entry points, their input entry points and a
// way to send the start-up diagnostic datagram.
package stack

import (
	"net/netip"
	"time"
)

// Default maintenance periods of the protocol subsystems.
const (
	TCPInterval        = 250 * time.Millisecond
	TCPSlowInterval    = 2 * TCPInterval
	ARPInterval        = 5 * time.Second
	DHCPFineInterval   = 500 * time.Millisecond
	DHCPCoarseInterval = 60 * time.Second
	IPReassInterval    = 1 * time.Second
	AutoIPInterval     = 100 * time.Millisecond
	IGMPInterval       = 100 * time.Millisecond
)

// Maintainer is the set of periodic housekeeping entry points. Each call is
// expected to be short, non-blocking and confined to its own subsystem.
type Maintainer interface {
	TCPFastTimer()
	TCPSlowTimer()
	ARPTimer()
	DHCPFineTimer()
	DHCPCoarseTimer()
	IPReassTimer()
	AutoIPTimer()
	IGMPTimer()
}

// Interface is the view of a network interface the stack sees on input.
type Interface interface {
	Name() string
	Addr() netip.Addr
}

// InputFunc hands one inbound unit of data to the stack.
type InputFunc func(frame []byte, iface Interface) error

// Input holds the two input entry points. EthernetInput resolves link
// addresses before handing the packet up; IPInput takes a bare IP packet.
type Input interface {
	EthernetInput(frame []byte, iface Interface) error
	IPInput(frame []byte, iface Interface) error
}

// Sender transmits a single UDP datagram.
type Sender interface {
	SendUDP(dst netip.AddrPort, payload []byte) error
}

// Stack is everything the host loop uses.
type Stack interface {
	Maintainer
	Input
	Sender
}
