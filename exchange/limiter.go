package exchange

import (
	"sync"
	"time"
)

// RateLimiter 控制对交易所私有接口的请求速率，避免触发限流封禁。
type RateLimiter interface {
	Wait()
}

// tokenBucket 简单令牌桶。每个交易所的私有 API 共用一个桶即可，
// 轮询场景下请求量很低，桶只是兜底。
type tokenBucket struct {
	rate   float64 // tokens per second
	burst  float64
	tokens float64
	last   time.Time
	mu     sync.Mutex
}

// NewTokenBucketLimiter builds a limiter refilling rate tokens per second
// up to burst.
func NewTokenBucketLimiter(rate float64, burst int) RateLimiter {
	if rate <= 0 {
		rate = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &tokenBucket{
		rate:   rate,
		burst:  float64(burst),
		tokens: float64(burst),
		last:   time.Now(),
	}
}

func (b *tokenBucket) Wait() {
	b.mu.Lock()
	b.refill()
	if b.tokens >= 1 {
		b.tokens--
		b.mu.Unlock()
		return
	}
	wait := time.Duration((1-b.tokens)/b.rate*float64(time.Second)) + time.Millisecond
	b.mu.Unlock()
	time.Sleep(wait)
	b.mu.Lock()
	b.refill()
	b.tokens = 0
	b.mu.Unlock()
}

func (b *tokenBucket) refill() {
	now := time.Now()
	b.tokens += now.Sub(b.last).Seconds() * b.rate
	b.last = now
	if b.tokens > b.burst {
		b.tokens = b.burst
	}
}
