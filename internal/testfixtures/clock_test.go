package testfixtures

import (
	"testing"
	"time"
)

func TestClock(t *testing.T) {
	t.Parallel()

	t.Run("zero start uses the reference time", func(t *testing.T) {
		t.Parallel()

		if got := NewClock(time.Time{}).Now(); !got.Equal(ReferenceTime()) {
			t.Fatalf("expected %v, got %v", ReferenceTime(), got)
		}
	})

	t.Run("advance is visible through method values", func(t *testing.T) {
		t.Parallel()

		start := time.Date(2024, time.September, 2, 8, 0, 0, 0, time.UTC)
		clock := NewClock(start)
		now := clock.Now

		if got := clock.Advance(2*time.Hour + time.Minute); !got.Equal(start.Add(121 * time.Minute)) {
			t.Fatalf("Advance returned %v", got)
		}
		if got := now(); !got.Equal(start.Add(121 * time.Minute)) {
			t.Fatalf("expected advanced time from method value, got %v", got)
		}
	})
}
