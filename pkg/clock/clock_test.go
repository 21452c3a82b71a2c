package clock

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFakeSleepAdvances(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFake(start)

	if err := f.Sleep(context.Background(), 500*time.Millisecond); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
	f.Sleep(context.Background(), 10*time.Microsecond)

	if got := f.Now().Sub(start); got != 500*time.Millisecond+10*time.Microsecond {
		t.Errorf("elapsed = %v", got)
	}
	if f.Sleeps() != 2 {
		t.Errorf("Sleeps = %d, want 2", f.Sleeps())
	}
}

func TestFakeSleepCancelled(t *testing.T) {
	f := NewFake(time.Time{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := f.Sleep(ctx, time.Second); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep on cancelled ctx = %v, want context.Canceled", err)
	}
	if f.Slept() != 0 {
		t.Error("cancelled sleep should not advance")
	}
}

func TestRealSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (Real{}).Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Real.Sleep = %v, want context.Canceled", err)
	}
}
