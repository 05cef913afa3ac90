package inflight

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryGuard_Exclusive(t *testing.T) {
	g := NewMemoryGuard()
	ctx := context.Background()

	release, ok, err := g.TryAcquire(ctx, "u1:s1")
	if err != nil || !ok {
		t.Fatalf("first TryAcquire() = ok %v, err %v", ok, err)
	}

	if _, ok, _ := g.TryAcquire(ctx, "u1:s1"); ok {
		t.Fatal("second TryAcquire() on held key should fail")
	}

	// Other keys are independent
	otherRelease, ok, _ := g.TryAcquire(ctx, "u1:s2")
	if !ok {
		t.Fatal("TryAcquire() on a different key should succeed")
	}
	otherRelease()

	release()
	if g.Held("u1:s1") {
		t.Fatal("key still held after release")
	}

	release2, ok, _ := g.TryAcquire(ctx, "u1:s1")
	if !ok {
		t.Fatal("TryAcquire() after release should succeed")
	}

	// A stale release must not free someone else's claim
	release()
	if !g.Held("u1:s1") {
		t.Fatal("double release freed a newer claim")
	}
	release2()
}

func TestMemoryGuard_Concurrent(t *testing.T) {
	g := NewMemoryGuard()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		winners atomic.Int32
		start   = make(chan struct{})
		hold    = make(chan struct{})
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			release, ok, _ := g.TryAcquire(ctx, "same")
			if ok {
				winners.Add(1)
				<-hold
				release()
			}
		}()
	}
	close(start)

	// Losers return immediately; give the winner's claim time to settle
	for !g.Held("same") {
	}
	close(hold)
	wg.Wait()

	if got := winners.Load(); got < 1 {
		t.Fatalf("expected at least one winner, got %d", got)
	}
	if g.Held("same") {
		t.Fatal("key still held after all goroutines finished")
	}
}

func TestTTLFor(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		want    time.Duration
	}{
		{"default webhook timeout", 120 * time.Second, DefaultTTL},
		{"short timeout keeps the floor", 5 * time.Second, DefaultTTL},
		{"long timeout raises the ttl", 10 * time.Minute, 10*time.Minute + ttlMargin},
		{"timeout equal to the floor", DefaultTTL, DefaultTTL + ttlMargin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TTLFor(tt.timeout)
			if got != tt.want {
				t.Errorf("TTLFor(%v) = %v, want %v", tt.timeout, got, tt.want)
			}
			if got <= tt.timeout {
				t.Errorf("TTLFor(%v) = %v, does not outlive the webhook timeout", tt.timeout, got)
			}
		})
	}
}
