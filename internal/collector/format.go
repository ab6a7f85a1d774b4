package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"
)

// FormatText writes metrics in human-readable format.
func FormatText(w io.Writer, m *Metrics) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "hostloop - Run Summary")
	fmt.Fprintln(w, "======================")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Duration:       %v\n", m.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Iterations:     %s (%.0f/s)\n", formatNumber(m.Iterations), m.IterationsPerS)
	fmt.Fprintf(w, "Frames:         %s\n", formatNumber(m.Frames))
	fmt.Fprintf(w, "Input errors:   %s\n", formatNumber(m.InputErrors))
	fmt.Fprintf(w, "Unroutable:     %s\n", formatNumber(m.Unroutable))
	fmt.Fprintf(w, "Diagnostics:    %s\n", formatNumber(m.Diagnostics))

	if len(m.Timers) == 0 {
		return
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Timers:")
	for _, name := range sortedKeys(m.Timers) {
		fmt.Fprintf(w, "  %-12s %s fires\n", name, formatNumber(m.Timers[name]))
	}
	if m.DroppedCycles > 0 {
		fmt.Fprintf(w, "  dropped cycles: %s\n", formatNumber(m.DroppedCycles))
	}
}

// FormatJSON writes metrics in JSON format.
func FormatJSON(w io.Writer, m *Metrics) {
	output := struct {
		Duration       string            `json:"duration"`
		Iterations     uint64            `json:"iterations"`
		IterationsPerS float64           `json:"iterationsPerSec"`
		Advances       uint64            `json:"advances"`
		Frames         uint64            `json:"frames"`
		InputErrors    uint64            `json:"inputErrors"`
		Unroutable     uint64            `json:"unroutable"`
		Diagnostics    uint64            `json:"diagnostics"`
		DroppedCycles  uint64            `json:"droppedCycles"`
		Timers         map[string]uint64 `json:"timers"`
	}{
		Duration:       m.Duration.Round(time.Millisecond).String(),
		Iterations:     m.Iterations,
		IterationsPerS: m.IterationsPerS,
		Advances:       m.Advances,
		Frames:         m.Frames,
		InputErrors:    m.InputErrors,
		Unroutable:     m.Unroutable,
		Diagnostics:    m.Diagnostics,
		DroppedCycles:  m.DroppedCycles,
		Timers:         m.Timers,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(output) // stdout errors are unrecoverable
}

func sortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatNumber(n uint64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	pre := len(s) % 3
	if pre > 0 {
		out = append(out, s[:pre]...)
	}
	for i := pre; i < len(s); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}
	return string(out)
}
