package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestNew_NonPositiveIsUnlimited(t *testing.T) {
	l := New(0)
	if l != nil {
		t.Fatalf("New(0) = %v, want nil", l)
	}
	for i := 0; i < 100; i++ {
		if !l.Allow() {
			t.Fatal("nil limiter must always allow")
		}
	}
	if err := l.Wait(context.Background()); err != nil {
		t.Errorf("Wait on nil limiter: %v", err)
	}
}

func TestLimiter_BurstThenBlocks(t *testing.T) {
	l := NewWithBurst(1, 2)
	if !l.Allow() || !l.Allow() {
		t.Fatal("expected burst of 2")
	}
	if l.Allow() {
		t.Fatal("expected third call to be limited")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); err == nil {
		t.Error("expected Wait to fail when the deadline is shorter than the refill")
	}
}
