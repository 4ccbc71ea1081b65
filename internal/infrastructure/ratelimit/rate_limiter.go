package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dongnezip/pkg/errors"
)

// Actions throttled on the client before they reach the backend.
const (
	ActionSendMessage    = "send_message"
	ActionToggleFavorite = "toggle_favorite"
	ActionGateway        = "gateway"
)

// TokenBucket represents a token bucket for rate limiting
type TokenBucket struct {
	tokens     int
	maxTokens  int
	refillRate int
	refillTime time.Duration
	lastRefill time.Time
	lastUsed   time.Time
	mutex      sync.Mutex
}

// RateLimiter keeps one bucket per user and action.
type RateLimiter struct {
	buckets       map[string]*TokenBucket
	sendPerMinute int
	mutex         sync.RWMutex
}

// NewRateLimiter allows sendPerMinute chat sends per user; values below 1 fall
// back to 20.
func NewRateLimiter(sendPerMinute int) *RateLimiter {
	if sendPerMinute < 1 {
		sendPerMinute = 20
	}
	return &RateLimiter{
		buckets:       make(map[string]*TokenBucket),
		sendPerMinute: sendPerMinute,
	}
}

func NewTokenBucket(maxTokens, refillRate int, refillTime time.Duration) *TokenBucket {
	now := time.Now()
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		refillTime: refillTime,
		lastRefill: now,
		lastUsed:   now,
	}
}

// Allow checks if an action is allowed and consumes a token if so
func (tb *TokenBucket) Allow() (bool, time.Duration) {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	now := time.Now()
	tb.lastUsed = now

	elapsed := now.Sub(tb.lastRefill)
	intervals := int(elapsed / tb.refillTime)
	if intervals > 0 {
		tb.tokens += intervals * tb.refillRate
		if tb.tokens > tb.maxTokens {
			tb.tokens = tb.maxTokens
		}
		tb.lastRefill = tb.lastRefill.Add(time.Duration(intervals) * tb.refillTime)
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true, 0
	}

	return false, tb.lastRefill.Add(tb.refillTime).Sub(now)
}

func (tb *TokenBucket) GetTokens() int {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()
	return tb.tokens
}

func (rl *RateLimiter) newBucket(action string) *TokenBucket {
	switch action {
	case ActionSendMessage:
		return NewTokenBucket(rl.sendPerMinute, 1, time.Minute/time.Duration(rl.sendPerMinute))
	case ActionToggleFavorite:
		// 10 toggles, refilled one per second
		return NewTokenBucket(10, 1, time.Second)
	case ActionGateway:
		// keyed per remote address: 120 requests, refilled two per second
		return NewTokenBucket(120, 1, 500*time.Millisecond)
	default:
		return NewTokenBucket(20, 1, 3*time.Second)
	}
}

// Allow checks if a user action is allowed
func (rl *RateLimiter) Allow(userID, action string) (bool, time.Duration) {
	key := userID + ":" + action

	rl.mutex.RLock()
	bucket, exists := rl.buckets[key]
	rl.mutex.RUnlock()

	if !exists {
		rl.mutex.Lock()
		if bucket, exists = rl.buckets[key]; !exists {
			bucket = rl.newBucket(action)
			rl.buckets[key] = bucket
		}
		rl.mutex.Unlock()
	}

	return bucket.Allow()
}

// Check is Allow as an error: TooManyRequests when the bucket is empty.
func (rl *RateLimiter) Check(userID, action string) error {
	allowed, wait := rl.Allow(userID, action)
	if allowed {
		return nil
	}
	return errors.TooManyRequests(fmt.Sprintf("too many requests, retry in %s", wait.Round(time.Second)))
}

// GetStatus returns current rate limit status for a user action
func (rl *RateLimiter) GetStatus(userID, action string) (tokens int, maxTokens int) {
	key := userID + ":" + action

	rl.mutex.RLock()
	bucket, exists := rl.buckets[key]
	rl.mutex.RUnlock()

	if !exists {
		return 0, 0
	}

	return bucket.GetTokens(), bucket.maxTokens
}

// Cleanup removes buckets idle for longer than maxIdle.
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()
	for key, bucket := range rl.buckets {
		bucket.mutex.Lock()
		idle := now.Sub(bucket.lastUsed)
		bucket.mutex.Unlock()
		if idle > maxIdle {
			delete(rl.buckets, key)
		}
	}
}

// StartCleanupRoutine prunes idle buckets every 30 minutes until ctx is done.
func (rl *RateLimiter) StartCleanupRoutine(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.Cleanup(time.Hour)
			case <-ctx.Done():
				return
			}
		}
	}()
}
