package inventory

import "testing"

// TestHoldRequestDefaults documents the TTL/scope defaulting applied by
// holdSeat/holdGeneral before a hold row is written.
func TestHoldRequestDefaults(t *testing.T) {
	req := HoldRequest{}
	if req.TTL != 0 {
		t.Fatalf("zero-value HoldRequest should carry a zero TTL so Hold() applies its 10m default")
	}
}

// TestCapacityArithmetic exercises the accept/reject boundary that
// holdGeneral applies once it has computed used capacity under lock:
// used+quantity must not exceed capacity.
func TestCapacityArithmetic(t *testing.T) {
	cases := []struct {
		name     string
		capacity int
		used     int
		quantity int
		wantOK   bool
	}{
		{"fits exactly", 100, 90, 10, true},
		{"over by one", 100, 95, 10, false},
		{"empty pool", 50, 0, 50, true},
		{"already full", 50, 50, 1, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			gotOK := c.used+c.quantity <= c.capacity
			if gotOK != c.wantOK {
				t.Fatalf("used=%d quantity=%d capacity=%d: got ok=%v, want %v", c.used, c.quantity, c.capacity, gotOK, c.wantOK)
			}
		})
	}
}
