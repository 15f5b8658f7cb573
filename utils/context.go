package utils

import (
	"context"
	"time"
)

// Sleep blocks for the given duration and reports whether it elapsed in
// full. It returns false as soon as the context is canceled.
func Sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
