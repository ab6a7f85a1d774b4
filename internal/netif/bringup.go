package netif

import (
	"fmt"
	"net/netip"

	"hostloop/internal/stack"
)

const (
	PrimaryName  = "en0"
	LoopbackName = "lo0"
)

var (
	LoopbackAddr    = netip.AddrFrom4([4]byte{127, 0, 0, 1})
	LoopbackNetmask = netip.AddrFrom4([4]byte{255, 0, 0, 0})
)

// Plan lists the interfaces to bring up. Loopback is nil when disabled.
type Plan struct {
	Primary  Spec
	Loopback *Spec
}

// LoopbackSpec returns the fixed loopback interface spec.
func LoopbackSpec(driver Driver, input stack.InputFunc) Spec {
	return Spec{
		Name:    LoopbackName,
		Address: LoopbackAddr,
		Netmask: LoopbackNetmask,
		Gateway: LoopbackAddr,
		Driver:  driver,
		Input:   input,
	}
}

// Bringup creates the primary interface, marks it default and brings it up,
// then does the same (minus default) for the loopback interface if planned.
// Any failure undoes what this call added to r, restores the previous
// default interface and is returned; the caller must not start polling.
func Bringup(r *Registry, plan Plan) ([]*Interface, error) {
	start := r.Len()
	prevDefault := r.Default()
	rollback := func() {
		r.truncate(start)
		r.SetDefault(prevDefault)
	}

	primary := plan.Primary
	if primary.Name == "" {
		primary.Name = PrimaryName
	}
	primary.Default = true

	out := make([]*Interface, 0, 2)
	iface, err := r.Add(primary)
	if err != nil {
		rollback()
		return nil, fmt.Errorf("bring-up primary: %w", err)
	}
	out = append(out, iface)

	if plan.Loopback != nil {
		lo := *plan.Loopback
		lo.Default = false
		iface, err = r.Add(lo)
		if err != nil {
			rollback()
			return nil, fmt.Errorf("bring-up loopback: %w", err)
		}
		out = append(out, iface)
	}
	return out, nil
}
