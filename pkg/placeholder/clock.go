// Copyright 2024-2026 Aiku AI

package placeholder

import (
	"context"
	"sync/atomic"
	"time"
)

// Clock is the shared tick counter driving animated placeholders. Reads are
// lock-free; concurrent readers may briefly see different ticks.
type Clock struct {
	ticks atomic.Int64
}

// Now returns the current tick. A nil clock reads zero.
func (c *Clock) Now() int64 {
	if c == nil {
		return 0
	}
	return c.ticks.Load()
}

// Advance moves the clock forward by one tick and returns the new value.
func (c *Clock) Advance() int64 {
	return c.ticks.Add(1)
}

// Run advances the clock every period until ctx is cancelled.
func (c *Clock) Run(ctx context.Context, period time.Duration) {
	if period <= 0 {
		period = 50 * time.Millisecond
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Advance()
		}
	}
}
