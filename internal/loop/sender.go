package loop

import (
	"errors"
	"net/netip"

	"hostloop/internal/link"
	"hostloop/internal/netif"
	"hostloop/internal/stack"
)

var ErrNoRoute = errors.New("no route for datagram")

// RoutedSender delivers datagrams for loopback destinations on the loopback
// interface's link, where the next poll picks them up, and hands everything
// else to Next.
type RoutedSender struct {
	Interfaces *netif.Registry
	Next       stack.Sender
}

func (s *RoutedSender) SendUDP(dst netip.AddrPort, payload []byte) error {
	if dst.Addr().IsLoopback() && s.Interfaces != nil {
		iface := s.Interfaces.Route(dst.Addr())
		if iface != nil && iface.Addr().IsLoopback() {
			if out, ok := iface.Driver().(link.Outputter); ok {
				return out.Output(payload)
			}
		}
	}
	if s.Next == nil {
		return ErrNoRoute
	}
	return s.Next.SendUDP(dst, payload)
}
