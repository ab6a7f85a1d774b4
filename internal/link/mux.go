package link

import (
	"errors"
	"fmt"
)

// Mux polls several adapters as one. Each Poll returns at most one frame,
// taking the adapters in round robin so a busy one cannot starve the rest.
type Mux struct {
	adapters []Adapter
	next     int
	inited   int
}

func NewMux(adapters ...Adapter) *Mux {
	return &Mux{adapters: adapters}
}

// Add appends an adapter. It must be called before Init.
func (m *Mux) Add(a Adapter) {
	m.adapters = append(m.adapters, a)
}

// Len returns the number of member adapters.
func (m *Mux) Len() int {
	return len(m.adapters)
}

// Init initializes the members in order. On failure the members already
// initialized are shut down again.
func (m *Mux) Init() error {
	for i, a := range m.adapters {
		if err := a.Init(); err != nil {
			m.inited = i
			_ = m.Shutdown()
			return fmt.Errorf("link mux member %d: %w", i, err)
		}
	}
	m.inited = len(m.adapters)
	return nil
}

func (m *Mux) Poll() (Frame, bool) {
	n := len(m.adapters)
	for i := 0; i < n; i++ {
		a := m.adapters[(m.next+i)%n]
		if f, ok := a.Poll(); ok {
			m.next = (m.next + i + 1) % n
			return f, true
		}
	}
	return Frame{}, false
}

// Shutdown shuts down every initialized member and joins their errors.
func (m *Mux) Shutdown() error {
	var errs []error
	for _, a := range m.adapters[:m.inited] {
		if err := a.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}
	m.inited = 0
	return errors.Join(errs...)
}
