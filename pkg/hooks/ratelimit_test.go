package hooks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bromq-dev/udpmq/pkg/packet"
)

func TestRateLimitBurst(t *testing.T) {
	h := NewRateLimitHook(RateLimitConfig{
		PublishRate: 1,
		Interval:    time.Hour, // effectively no refill during the test
		BurstSize:   3,
	})
	defer h.Stop()

	ctx := context.Background()
	client := fakeClient{id: "c"}
	pkt := packet.NewPublish("a", []byte("x"))

	for i := 0; i < 3; i++ {
		if _, err := h.OnPublishReceived(ctx, client, pkt); err != nil {
			t.Fatalf("publish %d rejected within burst: %v", i, err)
		}
	}

	_, err := h.OnPublishReceived(ctx, client, pkt)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("got %v, want ErrRateLimited", err)
	}
}

func TestRateLimitPerClient(t *testing.T) {
	h := NewRateLimitHook(RateLimitConfig{
		PublishRate: 1,
		Interval:    time.Hour,
		BurstSize:   1,
	})
	defer h.Stop()

	ctx := context.Background()
	pkt := packet.NewPublish("a", []byte("x"))

	if _, err := h.OnPublishReceived(ctx, fakeClient{id: "a"}, pkt); err != nil {
		t.Fatalf("first client rejected: %v", err)
	}
	if _, err := h.OnPublishReceived(ctx, fakeClient{id: "a"}, pkt); err == nil {
		t.Error("first client not limited after burst")
	}

	// A different client has its own bucket.
	if _, err := h.OnPublishReceived(ctx, fakeClient{id: "b"}, pkt); err != nil {
		t.Errorf("second client throttled by first client's bucket: %v", err)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	h := NewRateLimitHook(RateLimitConfig{PublishRate: 0})
	defer h.Stop()

	ctx := context.Background()
	pkt := packet.NewPublish("a", []byte("x"))

	for i := 0; i < 100; i++ {
		if _, err := h.OnPublishReceived(ctx, fakeClient{id: "c"}, pkt); err != nil {
			t.Fatalf("unlimited hook rejected publish: %v", err)
		}
	}
}

func TestRateLimitBucketResetOnDisconnect(t *testing.T) {
	h := NewRateLimitHook(RateLimitConfig{
		PublishRate: 1,
		Interval:    time.Hour,
		BurstSize:   1,
	})
	defer h.Stop()

	ctx := context.Background()
	client := fakeClient{id: "c"}
	pkt := packet.NewPublish("a", []byte("x"))

	h.OnPublishReceived(ctx, client, pkt)
	if _, err := h.OnPublishReceived(ctx, client, pkt); err == nil {
		t.Fatal("not limited after burst")
	}

	h.OnDisconnect(ctx, client, nil)

	if _, err := h.OnPublishReceived(ctx, client, pkt); err != nil {
		t.Errorf("bucket survived disconnect: %v", err)
	}
}
