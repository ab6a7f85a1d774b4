package link

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// ReplayMode selects what a Replay does after its last frame.
type ReplayMode string

const (
	// ReplayOnce stops producing frames at the end of the capture.
	ReplayOnce ReplayMode = "once"
	// ReplayLoop starts over from the first frame.
	ReplayLoop ReplayMode = "loop"
)

// Replay feeds frames from a capture file. The file holds one JSON object
// per line:
//
//	{"iface": "loop0", "frame": "45000054..."}
//
// "frame" is hex encoded; "iface" is optional and defaults to the interface
// the adapter is attached to. Blank lines and lines starting with # are
// skipped.
type Replay struct {
	path   string
	mode   ReplayMode
	name   string
	frames []Frame
	pos    int
	open   bool
	stats  Counters
}

// NewReplay returns a replay adapter for path. The file is read on Init.
func NewReplay(path string, mode ReplayMode) *Replay {
	if mode == "" {
		mode = ReplayOnce
	}
	return &Replay{path: path, mode: mode}
}

// NewReplayFrames returns a replay adapter over frames already in memory.
func NewReplayFrames(frames []Frame, mode ReplayMode) *Replay {
	r := NewReplay("", mode)
	r.frames = frames
	return r
}

func (r *Replay) AttachInterface(name string) error {
	r.name = name
	return nil
}

func (r *Replay) Init() error {
	if r.path != "" {
		frames, err := LoadCapture(r.path)
		if err != nil {
			return err
		}
		r.frames = frames
	}
	r.pos = 0
	r.open = true
	return nil
}

func (r *Replay) Poll() (Frame, bool) {
	if !r.open || len(r.frames) == 0 {
		return Frame{}, false
	}
	if r.pos >= len(r.frames) {
		if r.mode != ReplayLoop {
			return Frame{}, false
		}
		r.pos = 0
	}
	f := r.frames[r.pos]
	r.pos++
	if f.Interface == "" {
		f.Interface = r.name
	}
	r.stats.Received++
	return f, true
}

func (r *Replay) Shutdown() error {
	r.open = false
	return nil
}

// Remaining returns the frames left before the end of the capture.
func (r *Replay) Remaining() int {
	return len(r.frames) - r.pos
}

func (r *Replay) Stats() Counters {
	return r.stats
}

// LoadCapture reads a JSON-lines capture file.
func LoadCapture(path string) ([]Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading capture file: %w", err)
	}
	frames, err := ParseCapture(data)
	if err != nil {
		return nil, fmt.Errorf("parsing capture file %s: %w", path, err)
	}
	return frames, nil
}

// ParseCapture parses JSON-lines capture data.
func ParseCapture(data []byte) ([]Frame, error) {
	var frames []Frame
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		if !gjson.ValidBytes(line) {
			return nil, fmt.Errorf("line %d: invalid JSON", lineNo)
		}
		raw := gjson.GetBytes(line, "frame")
		if !raw.Exists() {
			return nil, fmt.Errorf("line %d: missing \"frame\"", lineNo)
		}
		payload, err := hex.DecodeString(raw.String())
		if err != nil {
			return nil, fmt.Errorf("line %d: frame is not hex: %w", lineNo, err)
		}
		frames = append(frames, Frame{
			Interface: gjson.GetBytes(line, "iface").String(),
			Data:      payload,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return frames, nil
}
