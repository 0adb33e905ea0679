package audit

import (
	"testing"
	"time"

	"github.com/iliyamo/ticketing-core/internal/model"
)

// TestEntryOrderingKey documents the (timestamp, insertion_id) ordering
// ForObject relies on: two entries sharing a timestamp must still sort
// deterministically by insertion order.
func TestEntryOrderingKey(t *testing.T) {
	now := time.Now()
	a := model.AuditEntry{InsertionID: 1, Timestamp: now}
	b := model.AuditEntry{InsertionID: 2, Timestamp: now}

	less := func(x, y model.AuditEntry) bool {
		if !x.Timestamp.Equal(y.Timestamp) {
			return x.Timestamp.Before(y.Timestamp)
		}
		return x.InsertionID < y.InsertionID
	}
	if !less(a, b) {
		t.Fatalf("entry with lower insertion id should sort first when timestamps tie")
	}
	if less(b, a) {
		t.Fatalf("ordering must not be symmetric for distinct insertion ids")
	}
}
