package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/staysuite/guestgate/internal/ratelimit"
)

func newTestRedisCounter(t *testing.T) *ratelimit.RedisCounter {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return ratelimit.NewRedisCounter(client, "rl")
}

func TestRedisCounterAdmitsUpToCap(t *testing.T) {
	counter := newTestRedisCounter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := counter.AdmitAndRecord(ctx, "ip:203.0.113.7", time.Minute, 3)
		if err != nil {
			t.Fatalf("AdmitAndRecord: %v", err)
		}
		if !d.Allowed {
			t.Fatalf("call %d denied", i+1)
		}
		if want := 3 - i - 1; d.Remaining != want {
			t.Errorf("call %d remaining = %d, want %d", i+1, d.Remaining, want)
		}
	}

	d, err := counter.AdmitAndRecord(ctx, "ip:203.0.113.7", time.Minute, 3)
	if err != nil {
		t.Fatalf("AdmitAndRecord: %v", err)
	}
	if d.Allowed {
		t.Fatal("fourth call should be denied")
	}
	if d.ResetAt.IsZero() {
		t.Error("denial should carry a reset time")
	}
}

func TestRedisCounterWindowSlides(t *testing.T) {
	counter := newTestRedisCounter(t)
	ctx := context.Background()
	window := 50 * time.Millisecond

	for i := 0; i < 2; i++ {
		if d, err := counter.AdmitAndRecord(ctx, "ip:1", window, 2); err != nil || !d.Allowed {
			t.Fatalf("seed call %d: allowed=%v err=%v", i+1, d.Allowed, err)
		}
	}
	if d, _ := counter.AdmitAndRecord(ctx, "ip:1", window, 2); d.Allowed {
		t.Fatal("over-cap call should be denied")
	}

	time.Sleep(window + 20*time.Millisecond)

	d, err := counter.AdmitAndRecord(ctx, "ip:1", window, 2)
	if err != nil {
		t.Fatalf("AdmitAndRecord: %v", err)
	}
	if !d.Allowed {
		t.Fatal("call after the window elapsed should be admitted")
	}
}

func TestRedisCounterKeysAreIndependent(t *testing.T) {
	counter := newTestRedisCounter(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		counter.AdmitAndRecord(ctx, "ip:a", time.Minute, 2)
	}
	if d, _ := counter.AdmitAndRecord(ctx, "ip:a", time.Minute, 2); d.Allowed {
		t.Fatal("ip:a should be exhausted")
	}

	d, err := counter.AdmitAndRecord(ctx, "ip:b", time.Minute, 2)
	if err != nil {
		t.Fatalf("AdmitAndRecord: %v", err)
	}
	if !d.Allowed {
		t.Fatal("ip:b should be unaffected by ip:a")
	}
}
