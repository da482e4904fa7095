// Package realtime – reply scheduling
//
// Assistant replies to chat messages are delivered after a short, jittered
// delay. The delay and the timer source are injectable so the lifecycle
// handler can be tested deterministically.
package realtime

import (
	"math/rand"
	"sync"
	"time"
)

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	// Stop cancels the callback. It returns false when the callback has
	// already started or was stopped before.
	Stop() bool
}

// Scheduler runs f after d. Handler uses it for delayed assistant replies;
// tests substitute a manual scheduler and fire callbacks explicitly.
type Scheduler interface {
	// AfterFunc arranges for f to run on its own goroutine after d.
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler schedules on the runtime timer heap.
type RealScheduler struct{}

// AfterFunc wraps time.AfterFunc.
func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// DelayFunc picks the delay before an assistant reply.
type DelayFunc func() time.Duration

// FixedDelay always returns d.
func FixedDelay(d time.Duration) DelayFunc { return func() time.Duration { return d } }

// RandomDelay returns min plus a uniform jitter in [0, jitter). A zero seed
// seeds from the clock. A non-positive jitter degrades to FixedDelay(min).
// The returned func is safe for concurrent use.
func RandomDelay(min, jitter time.Duration, seed int64) DelayFunc {
	if jitter <= 0 {
		return FixedDelay(min)
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	var (
		mu  sync.Mutex
		rng = rand.New(rand.NewSource(seed))
	)
	return func() time.Duration {
		mu.Lock()
		defer mu.Unlock()
		return min + time.Duration(rng.Int63n(int64(jitter)))
	}
}
