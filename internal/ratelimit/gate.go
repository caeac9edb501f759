// Package ratelimit provides the shared admission gate for outbound provider
// calls. One Gate is shared by all workers; it spaces the *starts* of
// successive calls at least MinInterval apart while letting admitted calls run
// concurrently, so outbound rate is bounded independent of worker count.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMinInterval is the default spacing between call admissions.
const DefaultMinInterval = 500 * time.Millisecond

// Gate wraps a burst-1 limiter: exactly one admission per MinInterval.
type Gate struct {
	lim *rate.Limiter
}

// NewGate builds a gate admitting at most one call per minInterval.
func NewGate(minInterval time.Duration) *Gate {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	return &Gate{lim: rate.NewLimiter(rate.Every(minInterval), 1)}
}

// AwaitTurn blocks until the caller may start its call, or until ctx is done.
func (g *Gate) AwaitTurn(ctx context.Context) error {
	return g.lim.Wait(ctx)
}
