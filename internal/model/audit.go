package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntry is one immutable record of a state-changing operation.
// Entries are never updated or deleted; ordering is by (Timestamp,
// InsertionID) so concurrent writers still produce a stable sequence.
type AuditEntry struct {
	InsertionID  uint64
	TenantID     uuid.UUID
	UserID       *uint64
	Action       string
	ObjectType   string
	ObjectID     string
	FiscalSeries *uuid.UUID
	Timestamp    time.Time // America/Caracas wall time
	OldValue     string    // JSON snapshot, empty on create
	NewValue     string    // JSON snapshot
	Description  string
}
