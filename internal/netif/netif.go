// Package netif holds the network interface records the host loop brings
// up before polling starts, and the registry the stack looks them up in.
//
// Records are written once during bring-up and only read afterwards.
package netif

import (
	"errors"
	"fmt"
	"net/netip"

	"hostloop/internal/stack"
)

var (
	ErrInvalidSpec   = errors.New("invalid interface spec")
	ErrDuplicateName = errors.New("interface name already registered")
	ErrDriver        = errors.New("link driver init failed")
	ErrUnknownInput  = errors.New("unknown input variant")
)

// Driver is the link driver behind an interface. AttachInterface is called
// once while the interface is created; a failure aborts the creation.
type Driver interface {
	AttachInterface(name string) error
}

// Spec describes an interface to create.
type Spec struct {
	Name    string
	Address netip.Addr
	Netmask netip.Addr
	Gateway netip.Addr
	Driver  Driver
	Input   stack.InputFunc
	Default bool
}

// Interface is a created network interface.
type Interface struct {
	index     int
	name      string
	address   netip.Addr
	netmask   netip.Addr
	gateway   netip.Addr
	driver    Driver
	input     stack.InputFunc
	isDefault bool
	up        bool
}

func (i *Interface) Name() string        { return i.name }
func (i *Interface) Index() int          { return i.index }
func (i *Interface) Addr() netip.Addr    { return i.address }
func (i *Interface) Netmask() netip.Addr { return i.netmask }
func (i *Interface) Gateway() netip.Addr { return i.gateway }
func (i *Interface) Driver() Driver      { return i.driver }
func (i *Interface) IsDefault() bool     { return i.isDefault }
func (i *Interface) IsUp() bool          { return i.up }

// Input hands frame to the stack input entry point chosen at bring-up.
func (i *Interface) Input(frame []byte) error {
	return i.input(frame, i)
}

// Prefix returns the interface subnet.
func (i *Interface) Prefix() netip.Prefix {
	bits, _ := maskBits(i.netmask)
	p, _ := i.address.Prefix(bits)
	return p
}

func (i *Interface) String() string {
	return fmt.Sprintf("%s %s/%s gw %s", i.name, i.address, i.netmask, i.gateway)
}

func (s Spec) validate() error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, errors.New("name is empty"))
	}
	if !s.Address.Is4() {
		errs = append(errs, fmt.Errorf("address %v is not IPv4", s.Address))
	}
	if !s.Gateway.Is4() {
		errs = append(errs, fmt.Errorf("gateway %v is not IPv4", s.Gateway))
	}
	if _, ok := maskBits(s.Netmask); !ok {
		errs = append(errs, fmt.Errorf("netmask %v is not a contiguous IPv4 mask", s.Netmask))
	}
	if s.Driver == nil {
		errs = append(errs, errors.New("link driver is nil"))
	}
	if s.Input == nil {
		errs = append(errs, errors.New("input function is nil"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w %q: %w", ErrInvalidSpec, s.Name, errors.Join(errs...))
	}
	return nil
}

// maskBits returns the prefix length of a contiguous IPv4 netmask.
func maskBits(mask netip.Addr) (int, bool) {
	if !mask.Is4() {
		return 0, false
	}
	b := mask.As4()
	m := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	inv := ^m
	if inv&(inv+1) != 0 {
		return 0, false
	}
	bits := 0
	for m != 0 {
		bits++
		m <<= 1
	}
	return bits, true
}

// SelectInput returns the stack input entry point for variant: "ethernet"
// (link address resolution first) or "ip" (direct).
func SelectInput(variant string, in stack.Input) (stack.InputFunc, error) {
	switch variant {
	case "ethernet", "":
		return in.EthernetInput, nil
	case "ip":
		return in.IPInput, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownInput, variant)
}
