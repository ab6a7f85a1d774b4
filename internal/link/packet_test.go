package link

import "testing"

func TestPacket_UnknownDevice(t *testing.T) {
	p := NewPacket("hostloop-no-such-device0")
	if err := p.Init(); err == nil {
		_ = p.Shutdown()
		t.Fatal("expected Init to fail for an unknown device")
	}
	if _, ok := p.Poll(); ok {
		t.Error("expected no frames from an adapter that failed Init")
	}
	if err := p.Shutdown(); err != nil {
		t.Errorf("Shutdown after failed Init: %v", err)
	}
}
