package netif

import (
	"errors"
	"net/netip"
	"testing"

	"hostloop/internal/stack"
)

type fakeDriver struct {
	attached []string
	err      error
}

func (d *fakeDriver) AttachInterface(name string) error {
	if d.err != nil {
		return d.err
	}
	d.attached = append(d.attached, name)
	return nil
}

func primarySpec(d Driver, in stack.InputFunc) Spec {
	return Spec{
		Address: netip.MustParseAddr("10.0.0.2"),
		Netmask: netip.MustParseAddr("255.255.255.0"),
		Gateway: netip.MustParseAddr("10.0.0.1"),
		Driver:  d,
		Input:   in,
	}
}

func TestBringup_PrimaryAndLoopback(t *testing.T) {
	st := stack.NewCounting()
	eth := &fakeDriver{}
	lo := &fakeDriver{}
	loSpec := LoopbackSpec(lo, st.IPInput)

	reg := NewRegistry()
	ifaces, err := Bringup(reg, Plan{
		Primary:  primarySpec(eth, st.EthernetInput),
		Loopback: &loSpec,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(ifaces) != 2 {
		t.Fatalf("got %d interfaces, expected 2", len(ifaces))
	}

	primary, loop := ifaces[0], ifaces[1]
	if primary.Addr().String() != "10.0.0.2" || primary.Netmask().String() != "255.255.255.0" || primary.Gateway().String() != "10.0.0.1" {
		t.Errorf("unexpected primary %s", primary)
	}
	if !primary.IsDefault() {
		t.Error("expected primary to be the default interface")
	}
	if loop.Addr().String() != "127.0.0.1" || loop.Netmask().String() != "255.0.0.0" {
		t.Errorf("unexpected loopback %s", loop)
	}
	if loop.IsDefault() {
		t.Error("loopback must not be the default interface")
	}
	if !primary.IsUp() || !loop.IsUp() {
		t.Error("expected both interfaces up")
	}
	if reg.Default() != primary {
		t.Error("registry default is not the primary interface")
	}
	if len(eth.attached) != 1 || eth.attached[0] != PrimaryName {
		t.Errorf("primary driver attached to %v, expected [%s]", eth.attached, PrimaryName)
	}
	if len(lo.attached) != 1 || lo.attached[0] != LoopbackName {
		t.Errorf("loopback driver attached to %v, expected [%s]", lo.attached, LoopbackName)
	}
}

func TestBringup_LoopbackDisabled(t *testing.T) {
	st := stack.NewCounting()
	reg := NewRegistry()

	ifaces, err := Bringup(reg, Plan{Primary: primarySpec(&fakeDriver{}, st.EthernetInput)})
	if err != nil {
		t.Fatal(err)
	}
	if len(ifaces) != 1 || reg.Len() != 1 {
		t.Fatalf("got %d interfaces, expected 1", len(ifaces))
	}
	if _, ok := reg.Lookup(LoopbackName); ok {
		t.Error("loopback registered while disabled")
	}
}

func TestBringup_LoopbackFailureLeavesNothing(t *testing.T) {
	st := stack.NewCounting()
	bad := &fakeDriver{err: errors.New("no loop device")}
	loSpec := LoopbackSpec(bad, st.IPInput)
	reg := NewRegistry()

	_, err := Bringup(reg, Plan{
		Primary:  primarySpec(&fakeDriver{}, st.EthernetInput),
		Loopback: &loSpec,
	})
	if !errors.Is(err, ErrDriver) {
		t.Fatalf("got %v, expected ErrDriver", err)
	}
	if reg.Len() != 0 {
		t.Errorf("registry holds %d interfaces after failed bring-up, expected 0", reg.Len())
	}
	if reg.Default() != nil {
		t.Error("default interface left behind after failed bring-up")
	}
}

func TestBringup_FailureRestoresPreviousDefault(t *testing.T) {
	st := stack.NewCounting()
	reg := NewRegistry()
	existing := primarySpec(&fakeDriver{}, st.EthernetInput)
	existing.Name = "en1"
	existing.Address = netip.MustParseAddr("10.1.0.2")
	existing.Default = true
	prev, err := reg.Add(existing)
	if err != nil {
		t.Fatal(err)
	}

	bad := &fakeDriver{err: errors.New("no loop device")}
	loSpec := LoopbackSpec(bad, st.IPInput)
	if _, err := Bringup(reg, Plan{
		Primary:  primarySpec(&fakeDriver{}, st.EthernetInput),
		Loopback: &loSpec,
	}); !errors.Is(err, ErrDriver) {
		t.Fatalf("got %v, expected ErrDriver", err)
	}

	if reg.Len() != 1 {
		t.Errorf("registry holds %d interfaces, expected the 1 added before", reg.Len())
	}
	if reg.Default() != prev {
		t.Errorf("default is %v, expected %s", reg.Default(), prev)
	}
	if !prev.IsDefault() {
		t.Error("previous default lost its default flag after rollback")
	}
}

func TestBringup_InvalidPrimary(t *testing.T) {
	st := stack.NewCounting()
	spec := primarySpec(&fakeDriver{}, st.EthernetInput)
	spec.Netmask = netip.MustParseAddr("255.0.255.0")

	_, err := Bringup(NewRegistry(), Plan{Primary: spec})
	if !errors.Is(err, ErrInvalidSpec) {
		t.Errorf("got %v, expected ErrInvalidSpec", err)
	}
}

func TestRegistry_AddValidation(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Add(Spec{Name: "x"})
	if !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("got %v, expected ErrInvalidSpec", err)
	}

	st := stack.NewCounting()
	spec := primarySpec(&fakeDriver{}, st.EthernetInput)
	spec.Name = "en1"
	if _, err := reg.Add(spec); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Add(spec); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("got %v, expected ErrDuplicateName", err)
	}
}

func TestRegistry_LookupAndRoute(t *testing.T) {
	st := stack.NewCounting()
	loSpec := LoopbackSpec(&fakeDriver{}, st.IPInput)
	reg := NewRegistry()
	ifaces, _ := Bringup(reg, Plan{Primary: primarySpec(&fakeDriver{}, st.EthernetInput), Loopback: &loSpec})

	if iface, ok := reg.Lookup(""); !ok || iface != ifaces[0] {
		t.Error("empty name should resolve to the default interface")
	}
	if iface, ok := reg.Lookup(LoopbackName); !ok || iface != ifaces[1] {
		t.Error("lookup of lo0 failed")
	}
	if _, ok := reg.Lookup("wlan0"); ok {
		t.Error("lookup of an unknown name succeeded")
	}

	if reg.Route(netip.MustParseAddr("127.1.2.3")) != ifaces[1] {
		t.Error("127.1.2.3 should route to loopback")
	}
	if reg.Route(netip.MustParseAddr("10.0.0.77")) != ifaces[0] {
		t.Error("10.0.0.77 should route to primary")
	}
	if reg.Route(netip.MustParseAddr("8.8.8.8")) != ifaces[0] {
		t.Error("off-subnet address should fall back to the default interface")
	}
}

func TestInterface_InputUsesSelectedEntryPoint(t *testing.T) {
	st := stack.NewCounting()
	in, err := SelectInput("ip", st)
	if err != nil {
		t.Fatal(err)
	}
	iface, _ := NewRegistry().Add(Spec{
		Name:    "en0",
		Address: netip.MustParseAddr("10.0.0.2"),
		Netmask: netip.MustParseAddr("255.255.255.0"),
		Gateway: netip.MustParseAddr("10.0.0.1"),
		Driver:  &fakeDriver{},
		Input:   in,
	})

	_ = iface.Input([]byte{0x45})
	eth, ip := st.InputCalls()
	if eth != 0 || ip != 1 {
		t.Errorf("InputCalls() = %d, %d, expected 0, 1", eth, ip)
	}
}

func TestSelectInput(t *testing.T) {
	st := stack.NewCounting()
	for _, v := range []string{"ethernet", "ip", ""} {
		if _, err := SelectInput(v, st); err != nil {
			t.Errorf("SelectInput(%q): %v", v, err)
		}
	}
	if _, err := SelectInput("ppp", st); !errors.Is(err, ErrUnknownInput) {
		t.Errorf("got %v, expected ErrUnknownInput", err)
	}
}

func TestInterface_Prefix(t *testing.T) {
	st := stack.NewCounting()
	iface, _ := NewRegistry().Add(Spec{
		Name:    "en0",
		Address: netip.MustParseAddr("192.168.1.200"),
		Netmask: netip.MustParseAddr("255.255.255.0"),
		Gateway: netip.MustParseAddr("192.168.1.1"),
		Driver:  &fakeDriver{},
		Input:   st.EthernetInput,
	})
	if got := iface.Prefix().String(); got != "192.168.1.0/24" {
		t.Errorf("Prefix() = %s, expected 192.168.1.0/24", got)
	}
}
