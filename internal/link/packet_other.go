//go:build !linux

package link

// Packet is unavailable outside Linux; Init always fails.
type Packet struct {
	device string
}

func NewPacket(device string) *Packet {
	return &Packet{device: device}
}

func (p *Packet) AttachInterface(string) error { return nil }
func (p *Packet) Init() error                  { return ErrUnsupported }
func (p *Packet) Poll() (Frame, bool)          { return Frame{}, false }
func (p *Packet) Output([]byte) error          { return ErrUnsupported }
func (p *Packet) Shutdown() error              { return nil }
func (p *Packet) Stats() Counters              { return Counters{} }
