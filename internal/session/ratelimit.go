// File: internal/session/ratelimit.go
package session

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"wallet.module/internal/config"
	"wallet.module/internal/errors"
)

// TokenBucket is the persisted state of one operation's throttle.
// Tokens refill continuously and cap at Capacity.
type TokenBucket struct {
	Capacity        float64   `json:"capacity"`
	RefillPerSecond float64   `json:"refill_per_second"`
	Tokens          float64   `json:"tokens"`
	LastRefill      time.Time `json:"last_refill"`
}

func (b *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(b.LastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	b.Tokens = math.Min(b.Capacity, b.Tokens+elapsed*b.RefillPerSecond)
	b.LastRefill = now
}

// RateLimiter throttles named operations with one token bucket each.
// State is persisted to a JSON file after every mutation and reloaded
// at construction, so limits survive restarts. The file write happens
// after the bucket lock is released.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*TokenBucket
	path    string
}

// NewRateLimiter builds buckets from the configuration and overlays any
// persisted state found at path. Unknown persisted operations are
// dropped; configured capacities win over stale persisted ones.
func NewRateLimiter(path string, configs map[string]config.RateLimit) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*TokenBucket),
		path:    path,
	}

	now := time.Now()
	for op, c := range configs {
		rl.buckets[op] = &TokenBucket{
			Capacity:        c.Capacity,
			RefillPerSecond: c.RefillPerSecond,
			Tokens:          c.Capacity,
			LastRefill:      now,
		}
	}

	rl.loadState()
	return rl
}

func (rl *RateLimiter) loadState() {
	data, err := os.ReadFile(rl.path)
	if err != nil {
		return
	}

	var persisted map[string]TokenBucket
	if err := json.Unmarshal(data, &persisted); err != nil {
		return
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for op, saved := range persisted {
		bucket, ok := rl.buckets[op]
		if !ok {
			continue
		}
		// Keep the configured shape, restore the consumed tokens.
		bucket.Tokens = math.Min(bucket.Capacity, saved.Tokens)
		if !saved.LastRefill.IsZero() {
			bucket.LastRefill = saved.LastRefill
		}
	}
}

// snapshot copies the bucket map for persistence outside the lock.
func (rl *RateLimiter) snapshot() map[string]TokenBucket {
	out := make(map[string]TokenBucket, len(rl.buckets))
	for op, b := range rl.buckets {
		out[op] = *b
	}
	return out
}

func (rl *RateLimiter) persist(state map[string]TokenBucket) {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return
	}
	if dir := filepath.Dir(rl.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return
		}
	}
	// Best effort; a failed persist only loosens limits across restarts.
	_ = os.WriteFile(rl.path, data, 0600)
}

// Check consumes one token for the operation. On an empty bucket it
// returns RATE_LIMIT_EXCEEDED with the wait until the next token, never
// below one second. Unknown operations fail closed.
func (rl *RateLimiter) Check(operation string) error {
	rl.mu.Lock()

	bucket, ok := rl.buckets[operation]
	if !ok {
		rl.mu.Unlock()
		return errors.NewRateLimitExceededError(operation, 0).
			WithDetails("operation has no rate-limit configuration")
	}

	now := time.Now()
	bucket.refill(now)

	if bucket.Tokens < 1 {
		// A non-positive refill rate would make the division blow up to
		// +Inf; such a bucket never refills, so report a fixed wait.
		wait := uint64(1)
		if bucket.RefillPerSecond > 0 {
			wait = uint64(math.Ceil((1 - bucket.Tokens) / bucket.RefillPerSecond))
			if wait < 1 {
				wait = 1
			}
		}
		rl.mu.Unlock()
		return errors.NewRateLimitExceededError(operation, wait)
	}

	bucket.Tokens--
	state := rl.snapshot()
	rl.mu.Unlock()

	rl.persist(state)
	return nil
}

// Reset refills the operation's bucket to capacity.
func (rl *RateLimiter) Reset(operation string) {
	rl.mu.Lock()
	bucket, ok := rl.buckets[operation]
	if !ok {
		rl.mu.Unlock()
		return
	}
	bucket.Tokens = bucket.Capacity
	bucket.LastRefill = time.Now()
	state := rl.snapshot()
	rl.mu.Unlock()

	rl.persist(state)
}

// Remaining reports the current token count, refilled to now.
func (rl *RateLimiter) Remaining(operation string) float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	bucket, ok := rl.buckets[operation]
	if !ok {
		return 0
	}
	bucket.refill(time.Now())
	return bucket.Tokens
}
