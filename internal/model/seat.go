package model

import (
	"time"

	"github.com/google/uuid"
)

// SeatState drives the numbered-zone inventory state machine of
// internal/inventory: available -> held -> {reserved, available},
// held -> sold, reserved -> {sold, available}, sold -> refunded. Blocked
// is a static admin state that replaces available for a disabled seat.
type SeatState string

const (
	SeatAvailable SeatState = "available"
	SeatHeld      SeatState = "held"
	SeatReserved  SeatState = "reserved"
	SeatSold      SeatState = "sold"
	SeatRefunded  SeatState = "refunded"
	SeatBlocked   SeatState = "blocked"
)

// Seat is a single numbered seat in a ZoneNumbered zone. (Row, Number) is
// unique within the zone; once generated, seats are never renumbered:
// only blocked/unblocked.
type Seat struct {
	ID        uint64
	TenantID  uuid.UUID
	ZoneID    uint64
	TableID   *uint64
	Row       string
	Number    int
	Label     string
	State     SeatState
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Table groups seats within one zone under a shared label (e.g. a
// cabaret-style round table sold as a unit for seating-chart display).
type Table struct {
	ID       uint64
	TenantID uuid.UUID
	ZoneID   uint64
	Name     string
}
