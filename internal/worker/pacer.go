package worker

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a fixed minimum interval between external reasoning-service
// calls. The pipeline is sequential, so the pacing exists purely to respect
// third-party rate limits; it is not a correctness-critical synchronization
// point.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer with the given minimum interval between calls.
// A non-positive interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{}
	}
	return &Pacer{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Wait blocks until the next call is allowed or the context is cancelled.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}
