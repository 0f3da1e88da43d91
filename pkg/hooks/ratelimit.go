package hooks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bromq-dev/udpmq/pkg/broker"
	"github.com/bromq-dev/udpmq/pkg/packet"
)

// ErrRateLimited indicates a client exceeded its publish rate.
var ErrRateLimited = errors.New("publish rate limit exceeded")

// RateLimitHook limits publish rates per client using a token bucket.
type RateLimitHook struct {
	publishRate int           // tokens added per interval
	interval    time.Duration // refill interval
	burstSize   int           // bucket capacity

	mu      sync.RWMutex
	buckets map[string]*bucket

	done chan struct{}
	once sync.Once
}

type bucket struct {
	mu       sync.Mutex
	tokens   float64
	lastFill time.Time
}

// RateLimitConfig configures the rate limiter.
type RateLimitConfig struct {
	// PublishRate is the max number of publishes per interval per client.
	PublishRate int

	// Interval is the rate limit window (default: 1s).
	Interval time.Duration

	// BurstSize is the max burst allowed (default: PublishRate * 2).
	BurstSize int
}

// NewRateLimitHook creates a new rate limiting hook.
func NewRateLimitHook(cfg RateLimitConfig) *RateLimitHook {
	if cfg.Interval == 0 {
		cfg.Interval = time.Second
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = cfg.PublishRate * 2
	}

	h := &RateLimitHook{
		publishRate: cfg.PublishRate,
		interval:    cfg.Interval,
		burstSize:   cfg.BurstSize,
		buckets:     make(map[string]*bucket),
		done:        make(chan struct{}),
	}

	go h.cleanup()

	return h
}

func (h *RateLimitHook) ID() string { return "ratelimit" }

// Stop ends the bucket cleanup goroutine.
func (h *RateLimitHook) Stop() error {
	h.once.Do(func() { close(h.done) })
	return nil
}

// OnPublishReceived checks the publish rate limit.
func (h *RateLimitHook) OnPublishReceived(ctx context.Context, client broker.ClientInfo, pkt *packet.Publish) (*packet.Publish, error) {
	if h.publishRate <= 0 {
		return nil, nil // No limit
	}

	b := h.getBucket(client.ClientID())
	if !b.take(float64(h.publishRate)/h.interval.Seconds(), float64(h.burstSize)) {
		return nil, ErrRateLimited
	}

	return nil, nil
}

func (h *RateLimitHook) OnPublishDeliver(ctx context.Context, subscriber broker.ClientInfo, pkt *packet.Publish) (*packet.Publish, error) {
	return nil, nil
}

// ConnectionHook implementation (cleanup on disconnect)

func (h *RateLimitHook) OnConnected(ctx context.Context, client broker.ClientInfo) {}

func (h *RateLimitHook) OnDisconnect(ctx context.Context, client broker.ClientInfo, err error) {
	h.mu.Lock()
	delete(h.buckets, client.ClientID())
	h.mu.Unlock()
}

func (h *RateLimitHook) getBucket(clientID string) *bucket {
	h.mu.RLock()
	b, ok := h.buckets[clientID]
	h.mu.RUnlock()

	if ok {
		return b
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// Double-check
	if b, ok = h.buckets[clientID]; ok {
		return b
	}

	b = &bucket{
		tokens:   float64(h.burstSize),
		lastFill: time.Now(),
	}
	h.buckets[clientID] = b
	return b
}

// take refills the bucket for elapsed time, then consumes one token.
func (b *bucket) take(ratePerSec, capacity float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastFill).Seconds()
	b.lastFill = now

	b.tokens += elapsed * ratePerSec
	if b.tokens > capacity {
		b.tokens = capacity
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (h *RateLimitHook) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
		}

		h.mu.Lock()
		now := time.Now()
		for id, b := range h.buckets {
			b.mu.Lock()
			stale := now.Sub(b.lastFill) > 5*time.Minute
			b.mu.Unlock()
			if stale {
				delete(h.buckets, id)
			}
		}
		h.mu.Unlock()
	}
}
