package timer

import (
	"context"
	"time"

	"hostloop/internal/core"
)

// RunTicker drives set from src every interval until ctx is done. It is the
// externally scheduled counterpart of the host loop calling Advance itself;
// while it runs the calling goroutine owns set and callbacks run on it.
func RunTicker(ctx context.Context, set *Set, src core.TimeSource, every time.Duration) {
	if every <= 0 {
		every = time.Millisecond
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			set.Advance(src.Now())
		}
	}
}
