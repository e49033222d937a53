// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestFakeNowAdvances(t *testing.T) {
	start := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	clk := Fake(start)

	if got := clk.Now(); !got.Equal(start) {
		t.Fatalf("Now() = %v, want %v", got, start)
	}

	clk.Advance(90 * time.Second)
	if got, want := clk.Now(), start.Add(90*time.Second); !got.Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestFakeAfterFiresAtDeadline(t *testing.T) {
	clk := Fake(time.Unix(0, 0))
	ch := clk.After(10 * time.Second)

	clk.Advance(9 * time.Second)
	select {
	case <-ch:
		t.Fatal("After fired before its deadline")
	default:
	}

	clk.Advance(time.Second)
	select {
	case fired := <-ch:
		if got, want := fired, time.Unix(10, 0); !got.Equal(want) {
			t.Fatalf("fire time = %v, want %v", got, want)
		}
	default:
		t.Fatal("After did not fire at its deadline")
	}
}

func TestFakeAfterNonPositiveFiresImmediately(t *testing.T) {
	clk := Fake(time.Unix(100, 0))
	select {
	case <-clk.After(0):
	default:
		t.Fatal("After(0) did not fire immediately")
	}
}

func TestFakeTickerRepeatsAndStops(t *testing.T) {
	clk := Fake(time.Unix(0, 0))
	ticker := clk.NewTicker(time.Second)

	for i := 1; i <= 3; i++ {
		clk.Advance(time.Second)
		select {
		case <-ticker.C:
		default:
			t.Fatalf("tick %d not delivered", i)
		}
	}

	ticker.Stop()
	clk.Advance(time.Second)
	select {
	case <-ticker.C:
		t.Fatal("tick delivered after Stop")
	default:
	}
}

func TestFakeAdvanceFiresInDeadlineOrder(t *testing.T) {
	clk := Fake(time.Unix(0, 0))
	late := clk.After(3 * time.Second)
	early := clk.After(1 * time.Second)

	clk.Advance(5 * time.Second)

	earlyFired := <-early
	lateFired := <-late
	if !earlyFired.Before(lateFired) {
		t.Fatalf("early waiter fired at %v, late at %v; want early first", earlyFired, lateFired)
	}
}
