package stack

import (
	"net/netip"
	"sync"
	"sync/atomic"

	"hostloop/internal/timer"
)

// Counting is a Stack that records what it is asked to do and nothing else.
// It stands in for the external protocol implementation in the binary and in
// tests. Safe for concurrent use.
type Counting struct {
	timers   [timer.FirstCustom]atomic.Uint64
	ethernet atomic.Uint64
	ip       atomic.Uint64

	mu      sync.Mutex
	sent    []Datagram
	sendErr error
	inErr   error
}

// Datagram is a UDP payload handed to SendUDP.
type Datagram struct {
	Dst     netip.AddrPort
	Payload []byte
}

func NewCounting() *Counting {
	return &Counting{}
}

func (c *Counting) TCPFastTimer()    { c.timers[timer.TCPFast].Add(1) }
func (c *Counting) TCPSlowTimer()    { c.timers[timer.TCPSlow].Add(1) }
func (c *Counting) ARPTimer()        { c.timers[timer.ARP].Add(1) }
func (c *Counting) DHCPFineTimer()   { c.timers[timer.DHCPFine].Add(1) }
func (c *Counting) DHCPCoarseTimer() { c.timers[timer.DHCPCoarse].Add(1) }
func (c *Counting) IPReassTimer()    { c.timers[timer.IPReassembly].Add(1) }
func (c *Counting) AutoIPTimer()     { c.timers[timer.AutoIP].Add(1) }
func (c *Counting) IGMPTimer()       { c.timers[timer.IGMP].Add(1) }

func (c *Counting) EthernetInput(frame []byte, iface Interface) error {
	c.ethernet.Add(1)
	return c.inputErr()
}

func (c *Counting) IPInput(frame []byte, iface Interface) error {
	c.ip.Add(1)
	return c.inputErr()
}

func (c *Counting) SendUDP(dst netip.AddrPort, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	p := make([]byte, len(payload))
	copy(p, payload)
	c.sent = append(c.sent, Datagram{Dst: dst, Payload: p})
	return nil
}

// TimerCalls returns how often the entry point behind id was called.
func (c *Counting) TimerCalls(id timer.ID) uint64 {
	if id < 0 || id >= timer.FirstCustom {
		return 0
	}
	return c.timers[id].Load()
}

// InputCalls returns the number of EthernetInput and IPInput calls.
func (c *Counting) InputCalls() (ethernet, ip uint64) {
	return c.ethernet.Load(), c.ip.Load()
}

// Sent returns a copy of the datagrams passed to SendUDP.
func (c *Counting) Sent() []Datagram {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Datagram, len(c.sent))
	copy(out, c.sent)
	return out
}

// SetSendError makes SendUDP fail with err.
func (c *Counting) SetSendError(err error) {
	c.mu.Lock()
	c.sendErr = err
	c.mu.Unlock()
}

// SetInputError makes both input entry points fail with err.
func (c *Counting) SetInputError(err error) {
	c.mu.Lock()
	c.inErr = err
	c.mu.Unlock()
}

func (c *Counting) inputErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inErr
}
