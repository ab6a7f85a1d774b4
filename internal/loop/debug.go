package loop

import (
	"fmt"
	"io"
	"sync"
)

const maxFrameLogSize = 64

// DebugLogger writes loop events to out. A nil logger discards everything.
type DebugLogger struct {
	out io.Writer
	mu  sync.Mutex
}

func NewDebugLogger(out io.Writer) *DebugLogger {
	return &DebugLogger{out: out}
}

func (d *DebugLogger) LogState(from, to State) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "[loop] %s -> %s\n", from, to)
}

func (d *DebugLogger) LogInterface(desc string) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "[netif] up: %s\n", desc)
}

func (d *DebugLogger) LogFrame(iface string, data []byte) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "[link] %s <<< %d bytes % x\n", iface, len(data), truncateFrame(data))
}

func (d *DebugLogger) LogError(stage string, err error) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "[%s] ERROR: %v\n", stage, err)
}

func truncateFrame(data []byte) []byte {
	if len(data) > maxFrameLogSize {
		return data[:maxFrameLogSize]
	}
	return data
}
