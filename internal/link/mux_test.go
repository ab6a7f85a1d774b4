package link

import (
	"errors"
	"testing"
)

type failingAdapter struct {
	initErr   error
	shutdowns int
}

func (f *failingAdapter) Init() error         { return f.initErr }
func (f *failingAdapter) Poll() (Frame, bool) { return Frame{}, false }
func (f *failingAdapter) Shutdown() error     { f.shutdowns++; return nil }

func TestMux_RoundRobin(t *testing.T) {
	a := NewLoopback(8)
	b := NewLoopback(8)
	_ = a.AttachInterface("a")
	_ = b.AttachInterface("b")
	m := NewMux(a, b)
	if err := m.Init(); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		_ = a.Output([]byte{byte(i)})
		_ = b.Output([]byte{byte(i)})
	}

	var got []string
	for {
		f, ok := m.Poll()
		if !ok {
			break
		}
		got = append(got, f.Interface)
	}

	want := []string{"a", "b", "a", "b", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("got %v, expected %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("poll %d: got %q, expected %q", i, got[i], want[i])
		}
	}
}

func TestMux_SkipsEmptyMembers(t *testing.T) {
	a := NewLoopback(8)
	b := NewLoopback(8)
	_ = b.AttachInterface("b")
	m := NewMux(a, b)
	_ = m.Init()
	_ = b.Output([]byte{1})

	f, ok := m.Poll()
	if !ok || f.Interface != "b" {
		t.Errorf("got %+v %v, expected a frame from b", f, ok)
	}
}

func TestMux_InitFailureUnwinds(t *testing.T) {
	first := &failingAdapter{}
	second := &failingAdapter{initErr: errors.New("no device")}
	m := NewMux(first, second)

	if err := m.Init(); err == nil {
		t.Fatal("expected Init to fail")
	}
	if first.shutdowns != 1 {
		t.Errorf("first member shut down %d times, expected 1", first.shutdowns)
	}
	if second.shutdowns != 0 {
		t.Errorf("failed member shut down %d times, expected 0", second.shutdowns)
	}
}

func TestMux_ShutdownOnce(t *testing.T) {
	a := &failingAdapter{}
	m := NewMux(a)
	_ = m.Init()

	_ = m.Shutdown()
	_ = m.Shutdown()
	if a.shutdowns != 1 {
		t.Errorf("member shut down %d times, expected 1", a.shutdowns)
	}
}
