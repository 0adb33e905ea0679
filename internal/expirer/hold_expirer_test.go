package expirer

import (
	"testing"
	"time"
)

// TestHoldExpirerHealthyBeforeFirstTick documents that liveness is false
// until at least one tick has completed.
func TestHoldExpirerHealthyBeforeFirstTick(t *testing.T) {
	e := &HoldExpirer{}
	if e.Healthy() {
		t.Fatalf("expected unhealthy before any tick has run")
	}
}

// TestHoldExpirerHealthyWindow exercises HoldExpirer's one-minute liveness
// boundary; ReservationSweeper.Healthy applies the same check.
func TestHoldExpirerHealthyWindow(t *testing.T) {
	cases := []struct {
		name string
		age  time.Duration
		want bool
	}{
		{"just ticked", 0, true},
		{"within window", 30 * time.Second, true},
		{"at boundary", time.Minute, true},
		{"stale", 90 * time.Second, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := &HoldExpirer{}
			e.lastTick.Store(time.Now().Add(-c.age).Unix())
			if got := e.Healthy(); got != c.want {
				t.Fatalf("age=%v: got healthy=%v, want %v", c.age, got, c.want)
			}
		})
	}
}

func TestReservationSweeperHealthyBeforeFirstTick(t *testing.T) {
	s := &ReservationSweeper{}
	if s.Healthy() {
		t.Fatalf("expected unhealthy before any tick has run")
	}
}

func TestReservationSweeperGraceDefault(t *testing.T) {
	s := &ReservationSweeper{}
	if got := s.grace(); got != 24*time.Hour {
		t.Fatalf("got default grace %v, want 24h", got)
	}
	s.Grace = time.Hour
	if got := s.grace(); got != time.Hour {
		t.Fatalf("got grace %v, want 1h override", got)
	}
}
