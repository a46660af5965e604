package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNewRejectsNonPositiveInterval(t *testing.T) {
	if _, err := New(Options{}, zerolog.Nop()); err == nil {
		t.Fatal("zero interval should be rejected")
	}
}

func TestNextTickAligned(t *testing.T) {
	s, err := New(Options{Interval: 5 * time.Minute, AlignToStart: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	now := time.Date(2025, 3, 1, 10, 7, 30, 0, time.UTC)
	if got := s.nextTick(now); !got.Equal(time.Date(2025, 3, 1, 10, 10, 0, 0, time.UTC)) {
		t.Fatalf("unexpected next tick %s", got)
	}

	onBoundary := time.Date(2025, 3, 1, 10, 10, 0, 0, time.UTC)
	if got := s.nextTick(onBoundary); !got.Equal(onBoundary.Add(5 * time.Minute)) {
		t.Fatalf("a tick on the boundary should move to the next slot, got %s", got)
	}
}

func TestNextTickUnaligned(t *testing.T) {
	s, err := New(Options{Interval: time.Minute}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	now := time.Date(2025, 3, 1, 10, 7, 30, 0, time.UTC)
	if got := s.nextTick(now); !got.Equal(now.Add(time.Minute)) {
		t.Fatalf("unexpected next tick %s", got)
	}
}

func TestRunImmediateAndCancel(t *testing.T) {
	s, err := New(Options{Interval: 20 * time.Millisecond, Immediate: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(ctx context.Context, slot time.Time) error {
			if calls.Add(1) >= 3 {
				cancel()
			}
			return errors.New("tick errors are logged, not fatal")
		})
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		cancel()
		t.Fatal("scheduler did not stop")
	}
	if calls.Load() < 3 {
		t.Fatalf("expected at least 3 ticks, got %d", calls.Load())
	}
}
