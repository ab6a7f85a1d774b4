// Package ratelimit paces the host loop when it runs in the paced
// scheduling mode instead of busy polling.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Pacer admits at most a fixed number of loop iterations per second. Burst
// is one: iterations are spread out instead of bunched.
type Pacer struct {
	limiter *rate.Limiter
	mu      sync.RWMutex
}

// NewPacer returns a Pacer for perSecond iterations. A non-positive rate
// disables pacing.
func NewPacer(perSecond int) *Pacer {
	p := &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	p.SetRate(perSecond)
	return p
}

// Wait blocks until the next iteration may start or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.RLock()
	limiter := p.limiter
	p.mu.RUnlock()

	if limiter.Limit() == rate.Inf {
		return nil
	}
	return limiter.Wait(ctx)
}

// SetRate changes the admitted iterations per second.
func (p *Pacer) SetRate(perSecond int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if perSecond <= 0 {
		p.limiter.SetLimit(rate.Inf)
		return
	}
	p.limiter.SetLimit(rate.Limit(perSecond))
	p.limiter.SetBurst(1)
}

// Rate returns the current iterations per second, 0 when unpaced.
func (p *Pacer) Rate() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	l := p.limiter.Limit()
	if l == rate.Inf {
		return 0
	}
	return int(l)
}
