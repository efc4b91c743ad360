package fetch

import (
	"context"
	"math"
	"sync"
	"time"
)

// tokenBucket bounds request throughput independently of the concurrency
// semaphore. Capacity is burstable to a small multiple of the per-second
// refill so idle periods do not starve the next batch.
type tokenBucket struct {
	mu           sync.Mutex
	capacity     float64
	tokens       float64
	refillPerSec float64
	last         time.Time
}

// newTokenBucket builds a bucket that refills at perHour/3600 tokens per
// second. A nil bucket (perHour <= 0) imposes no limit.
func newTokenBucket(perHour int) *tokenBucket {
	if perHour <= 0 {
		return nil
	}
	rps := float64(perHour) / 3600.0
	burst := math.Max(1, rps*2)
	return &tokenBucket{
		capacity:     burst,
		tokens:       burst,
		refillPerSec: rps,
		last:         time.Now(),
	}
}

// take blocks until a token is available or ctx is done. It returns false
// only on context cancellation. The lock covers only the token bookkeeping,
// never the wait.
func (b *tokenBucket) take(ctx context.Context) bool {
	if b == nil {
		return true
	}
	for {
		b.mu.Lock()
		now := time.Now()
		if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
			b.tokens = math.Min(b.capacity, b.tokens+elapsed*b.refillPerSec)
			b.last = now
		}
		ok := b.tokens >= 1.0
		if ok {
			b.tokens -= 1.0
		}
		b.mu.Unlock()

		if ok {
			return true
		}

		wait := time.Duration(float64(time.Second) / b.refillPerSec)
		if wait > time.Second {
			wait = time.Second
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(wait):
		}
	}
}
