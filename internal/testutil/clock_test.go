// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"sync"
	"testing"
	"time"
)

func TestFakeClock(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewFakeClock(start)

	if !c.Now().Equal(start) {
		t.Fatalf("Now() = %v, want %v", c.Now(), start)
	}

	c.Advance(90 * time.Second)
	if want := start.Add(90 * time.Second); !c.Now().Equal(want) {
		t.Errorf("Now() after Advance = %v, want %v", c.Now(), want)
	}

	later := start.Add(24 * time.Hour)
	c.Set(later)
	if !c.Now().Equal(later) {
		t.Errorf("Now() after Set = %v, want %v", c.Now(), later)
	}
}

func TestNewFakeClockZeroTime(t *testing.T) {
	t.Parallel()

	c := NewFakeClock(time.Time{})
	if c.Now().IsZero() {
		t.Error("zero initial time should be replaced by a fixed epoch")
	}
}

func TestFakeClockConcurrentAdvance(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c := NewFakeClock(start)

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			c.Advance(time.Second)
			_ = c.Now()
		})
	}
	wg.Wait()

	if want := start.Add(50 * time.Second); !c.Now().Equal(want) {
		t.Errorf("Now() = %v, want %v", c.Now(), want)
	}
}

func TestRealClock(t *testing.T) {
	t.Parallel()

	before := time.Now()
	got := RealClock{}.Now()
	if got.Before(before) {
		t.Errorf("RealClock.Now() = %v, earlier than %v", got, before)
	}
}

type stopCounter struct{ stops int }

func (s *stopCounter) Stop() error {
	s.stops++
	return nil
}

func (s *stopCounter) Close() error { return s.Stop() }

func TestCleanupHelpers(t *testing.T) {
	t.Parallel()

	s := &stopCounter{}
	MustStop(t, s)
	DeferClose(t, s)()
	if s.stops != 2 {
		t.Errorf("stops = %d, want 2", s.stops)
	}
}
