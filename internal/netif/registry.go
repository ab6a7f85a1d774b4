package netif

import (
	"fmt"
	"net/netip"
)

// Registry is the stack's interface list.
type Registry struct {
	ifaces []*Interface
	byName map[string]*Interface
	def    *Interface
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Interface)}
}

// Add creates an interface from spec: it attaches the link driver, registers
// the record, makes it the default route if asked and brings it up.
func (r *Registry) Add(spec Spec) (*Interface, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	if _, exists := r.byName[spec.Name]; exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, spec.Name)
	}
	if err := spec.Driver.AttachInterface(spec.Name); err != nil {
		return nil, fmt.Errorf("%w for %q: %w", ErrDriver, spec.Name, err)
	}

	iface := &Interface{
		index:   len(r.ifaces),
		name:    spec.Name,
		address: spec.Address,
		netmask: spec.Netmask,
		gateway: spec.Gateway,
		driver:  spec.Driver,
		input:   spec.Input,
	}
	r.ifaces = append(r.ifaces, iface)
	r.byName[iface.name] = iface

	if spec.Default {
		r.SetDefault(iface)
	}
	iface.up = true
	return iface, nil
}

// SetDefault makes iface the default route.
func (r *Registry) SetDefault(iface *Interface) {
	if r.def != nil {
		r.def.isDefault = false
	}
	r.def = iface
	if iface != nil {
		iface.isDefault = true
	}
}

// Default returns the default interface, or nil.
func (r *Registry) Default() *Interface {
	return r.def
}

// Lookup finds an interface by name. The empty name resolves to the default
// interface.
func (r *Registry) Lookup(name string) (*Interface, bool) {
	if name == "" {
		return r.def, r.def != nil
	}
	iface, ok := r.byName[name]
	return iface, ok
}

// Route returns the interface whose subnet holds dst, falling back to the
// default interface.
func (r *Registry) Route(dst netip.Addr) *Interface {
	for _, iface := range r.ifaces {
		if iface.up && iface.Prefix().Contains(dst) {
			return iface
		}
	}
	return r.def
}

// Interfaces returns the records in creation order.
func (r *Registry) Interfaces() []*Interface {
	out := make([]*Interface, len(r.ifaces))
	copy(out, r.ifaces)
	return out
}

func (r *Registry) Len() int {
	return len(r.ifaces)
}

// truncate drops every record from index n on.
func (r *Registry) truncate(n int) {
	for _, iface := range r.ifaces[n:] {
		delete(r.byName, iface.name)
		if r.def == iface {
			r.def = nil
		}
	}
	r.ifaces = r.ifaces[:n]
}
