// Package ratelimit implements a per-client sliding-window request
// limiter. The window state lives behind the Store interface so the
// process can run with an in-memory map or shared Redis state.
package ratelimit

import (
	"context"
	"time"
)

// Config holds the window parameters shared by all stores.
type Config struct {
	MaxRequests int
	Window      time.Duration
}

// Store admits or rejects a request for a client identifier at time now.
// Implementations must prune entries older than Window, reject without
// recording when the pruned count has reached MaxRequests, and otherwise
// record now and admit. The prune-check-append sequence is atomic per
// client key.
type Store interface {
	Admit(ctx context.Context, clientID string, now time.Time) (bool, error)
}
