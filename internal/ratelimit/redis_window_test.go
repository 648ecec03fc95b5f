package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisCounterCountsBoundaryEvent(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	counter := NewRedisCounter(client, "rl")
	base := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	counter.now = func() time.Time { return base }

	window := time.Minute
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := counter.AdmitAndRecord(ctx, "ip:x", window, 2)
		if err != nil || !d.Allowed {
			t.Fatalf("seed call %d: allowed=%v err=%v", i+1, d.Allowed, err)
		}
	}

	// Exactly one window later the seed events sit on the boundary
	// (timestamp == now-window) and still count toward the cap.
	counter.now = func() time.Time { return base.Add(window) }
	d, err := counter.AdmitAndRecord(ctx, "ip:x", window, 2)
	if err != nil {
		t.Fatalf("AdmitAndRecord: %v", err)
	}
	if d.Allowed {
		t.Fatal("events on the window boundary must still consume the cap")
	}

	// One millisecond past the boundary the window has slid and capacity
	// frees up.
	counter.now = func() time.Time { return base.Add(window + time.Millisecond) }
	d, err = counter.AdmitAndRecord(ctx, "ip:x", window, 2)
	if err != nil {
		t.Fatalf("AdmitAndRecord: %v", err)
	}
	if !d.Allowed {
		t.Fatal("call just past the boundary should be admitted")
	}
}
