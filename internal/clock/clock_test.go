package clock

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/openadsim/openadsim/internal/models"
)

func setupClock(t *testing.T) *RedisClock {
	t.Helper()
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(s.Close)
	return NewRedisClock(redis.NewClient(&redis.Options{Addr: s.Addr()}))
}

func TestCurrentDayDefaultsToZero(t *testing.T) {
	clk := setupClock(t)
	day, err := clk.CurrentDay(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if day != 0 {
		t.Fatalf("day = %d, want 0", day)
	}
}

func TestAdvanceForward(t *testing.T) {
	clk := setupClock(t)
	ctx := context.Background()

	if err := clk.Advance(ctx, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	day, err := clk.CurrentDay(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if day != 5 {
		t.Fatalf("day = %d, want 5", day)
	}
}

func TestAdvanceSameDayIsNoOp(t *testing.T) {
	clk := setupClock(t)
	ctx := context.Background()

	if err := clk.Advance(ctx, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := clk.Advance(ctx, 3); err != nil {
		t.Fatalf("re-setting the same day should succeed, got %v", err)
	}
}

func TestAdvanceBackwardRejected(t *testing.T) {
	clk := setupClock(t)
	ctx := context.Background()

	if err := clk.Advance(ctx, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := clk.Advance(ctx, 3)
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	day, _ := clk.CurrentDay(ctx)
	if day != 5 {
		t.Fatalf("day changed after rejected advance: %d", day)
	}
}

func TestFixedClock(t *testing.T) {
	clk := NewFixed(2)
	ctx := context.Background()

	day, _ := clk.CurrentDay(ctx)
	if day != 2 {
		t.Fatalf("day = %d, want 2", day)
	}
	if err := clk.Advance(ctx, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := clk.Advance(ctx, 1); !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	day, _ = clk.CurrentDay(ctx)
	if day != 7 {
		t.Fatalf("day = %d, want 7", day)
	}
}
