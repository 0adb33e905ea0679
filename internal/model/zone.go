package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ZoneType distinguishes individually-numbered seating from a counted
// general-admission pool.
type ZoneType string

const (
	ZoneNumbered ZoneType = "numbered"
	ZoneGeneral  ZoneType = "general"
)

// Zone is a priced region of an Event. For ZoneNumbered zones, Capacity
// must equal the number of Seat rows generated for it; for ZoneGeneral
// zones, Capacity bounds sold+held units directly.
type Zone struct {
	ID        uint64
	TenantID  uuid.UUID
	EventID   uint64
	Name      string
	Type      ZoneType
	Capacity  int
	BasePrice decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
