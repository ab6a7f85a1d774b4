//go:build linux

package link

import (
	"errors"
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

const defaultSnapLen = 65536

// Packet is a raw AF_PACKET socket bound to one host network device. It
// plays the role a capture library plays on other hosts: every frame seen on
// the device is handed to the stack. Needs CAP_NET_RAW.
type Packet struct {
	device string
	name   string
	fd     int
	buf    []byte
	open   bool
	stats  Counters
}

// NewPacket returns an adapter for the host device (e.g. "eth0").
func NewPacket(device string) *Packet {
	return &Packet{device: device, fd: -1, buf: make([]byte, defaultSnapLen)}
}

func (p *Packet) AttachInterface(name string) error {
	p.name = name
	return nil
}

func (p *Packet) Init() error {
	ifi, err := net.InterfaceByName(p.device)
	if err != nil {
		return fmt.Errorf("packet adapter: %w", err)
	}
	proto := htons(unix.ETH_P_ALL)
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, int(proto))
	if err != nil {
		return fmt.Errorf("packet adapter: socket: %w", err)
	}
	sa := &unix.SockaddrLinklayer{Protocol: proto, Ifindex: ifi.Index}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return fmt.Errorf("packet adapter: bind %s: %w", p.device, err)
	}
	p.fd = fd
	p.open = true
	return nil
}

func (p *Packet) Poll() (Frame, bool) {
	if !p.open {
		return Frame{}, false
	}
	n, _, err := unix.Recvfrom(p.fd, p.buf, unix.MSG_DONTWAIT)
	if err != nil {
		if !errors.Is(err, unix.EAGAIN) && !errors.Is(err, unix.EINTR) {
			p.stats.Errors++
		}
		return Frame{}, false
	}
	if n <= 0 {
		return Frame{}, false
	}
	data := make([]byte, n)
	copy(data, p.buf[:n])
	p.stats.Received++
	return Frame{Interface: p.name, Data: data}, true
}

// Output writes one frame to the device.
func (p *Packet) Output(frame []byte) error {
	if !p.open {
		return ErrClosed
	}
	_, err := unix.Write(p.fd, frame)
	return err
}

func (p *Packet) Shutdown() error {
	if !p.open {
		return nil
	}
	p.open = false
	err := unix.Close(p.fd)
	p.fd = -1
	return err
}

func (p *Packet) Stats() Counters {
	return p.stats
}

func htons(v uint16) uint16 {
	return v<<8 | v>>8
}
