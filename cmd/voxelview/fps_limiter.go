package main

import (
	"time"
)

// FPSLimiter caps the frame rate.
type FPSLimiter struct {
	limit int
	next  time.Time
}

// NewFPSLimiter returns a limiter for limit frames per second; 0 disables it.
func NewFPSLimiter(limit int) *FPSLimiter {
	return &FPSLimiter{limit: limit}
}

// Wait blocks until the next frame is due. It sleeps most of the interval and
// spins the last 200µs.
func (f *FPSLimiter) Wait(idle bool) {
	limit := f.limit
	if idle && (limit <= 0 || limit > 30) {
		limit = 30
	}
	if limit <= 0 {
		f.next = time.Time{}
		return
	}

	target := time.Second / time.Duration(limit)
	if f.next.IsZero() {
		f.next = time.Now().Add(target)
	} else {
		f.next = f.next.Add(target)
	}

	for {
		remaining := time.Until(f.next)
		if remaining <= 0 {
			break
		}
		if remaining > 200*time.Microsecond {
			time.Sleep(remaining - 200*time.Microsecond)
		}
	}

	// resync after a hitch instead of racing to catch up
	if late := -time.Until(f.next); late > target {
		f.next = time.Now().Add(target)
	}
}
