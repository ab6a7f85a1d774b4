package stack

import (
	"fmt"
	"time"

	"hostloop/internal/timer"
)

// Features toggles the protocol subsystems that are compiled into the stack.
// Disabled subsystems get no maintenance timer.
type Features struct {
	TCP          bool `yaml:"tcp"`
	UDP          bool `yaml:"udp"`
	ARP          bool `yaml:"arp"`
	DHCP         bool `yaml:"dhcp"`
	IPReassembly bool `yaml:"ip_reassembly"`
	AutoIP       bool `yaml:"autoip"`
	IGMP         bool `yaml:"igmp"`
}

// AllFeatures enables every subsystem.
func AllFeatures() Features {
	return Features{
		TCP:          true,
		UDP:          true,
		ARP:          true,
		DHCP:         true,
		IPReassembly: true,
		AutoIP:       true,
		IGMP:         true,
	}
}

// Period returns the default maintenance period for a predefined timer id,
// or zero for ids the stack does not know.
func Period(id timer.ID) time.Duration {
	switch id {
	case timer.TCPFast:
		return TCPInterval
	case timer.TCPSlow:
		return TCPSlowInterval
	case timer.ARP:
		return ARPInterval
	case timer.DHCPFine:
		return DHCPFineInterval
	case timer.DHCPCoarse:
		return DHCPCoarseInterval
	case timer.IPReassembly:
		return IPReassInterval
	case timer.AutoIP:
		return AutoIPInterval
	case timer.IGMP:
		return IGMPInterval
	}
	return 0
}

// RegisterTimers registers the maintenance timer of every enabled subsystem.
func RegisterTimers(set *timer.Set, m Maintainer, f Features) error {
	regs := []struct {
		on bool
		id timer.ID
		fn func()
	}{
		{f.TCP, timer.TCPFast, m.TCPFastTimer},
		{f.TCP, timer.TCPSlow, m.TCPSlowTimer},
		{f.ARP, timer.ARP, m.ARPTimer},
		{f.DHCP, timer.DHCPFine, m.DHCPFineTimer},
		{f.DHCP, timer.DHCPCoarse, m.DHCPCoarseTimer},
		{f.IPReassembly, timer.IPReassembly, m.IPReassTimer},
		{f.AutoIP, timer.AutoIP, m.AutoIPTimer},
		{f.IGMP, timer.IGMP, m.IGMPTimer},
	}
	for _, r := range regs {
		if !r.on {
			continue
		}
		if err := set.Register(r.id, Period(r.id), r.fn); err != nil {
			return fmt.Errorf("stack timers: %w", err)
		}
	}
	return nil
}
