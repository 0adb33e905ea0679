package model

import (
	"time"

	"github.com/google/uuid"
)

// HoldState tracks a Hold independently of the Seat/zone-counter state it
// guards: active -> consumed (on settlement), active -> released, or
// active -> expired (swept by internal/expirer).
type HoldState string

const (
	HoldActive    HoldState = "active"
	HoldConsumed  HoldState = "consumed"
	HoldExpired   HoldState = "expired"
	HoldReleased  HoldState = "released"
)

// HoldScope distinguishes an ordinary cart hold from an operator-grabbed
// offline-selling block (spec.md §4.4). The scope is recorded on the hold
// row only: checkout, release and expiry handle both scopes the same way.
type HoldScope string

const (
	HoldScopeCart    HoldScope = "cart"
	HoldScopeOffline HoldScope = "offline"
)

// Hold is a short-lived soft reservation against a numbered Seat or a
// quantity of general-admission capacity. Effective GA availability is
// always recomputed as capacity - sold - Σ(active holds' Quantity); it is
// never trusted from a cached counter.
type Hold struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	ZoneID    uint64
	SeatID    *uint64 // nil for general-admission holds
	Quantity  int     // 1 for numbered seats; the held unit count for general admission
	Owner     string  // cart/session id, or the operator id for offline blocks
	Scope     HoldScope
	State     HoldState
	ExpiresAt time.Time
	CreatedAt time.Time
}
