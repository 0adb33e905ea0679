package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ModifierType distinguishes a percentage multiplier from a flat addend in
// a PriceStage.
type ModifierType string

const (
	ModifierPercentage ModifierType = "percentage"
	ModifierFixedAdd   ModifierType = "fixed_add"
)

// PriceStage is a time-windowed price modifier. A nil ZoneID means the
// stage is event-wide; spec.md resolves event-wide modifiers to apply
// after zone-scoped ones when both match the same instant (see SPEC_FULL
// §4.3 / spec.md §9 Open Question).
type PriceStage struct {
	ID            uint64
	TenantID      uuid.UUID
	EventID       uint64
	ZoneID        *uint64
	Ordinal       int
	Start         time.Time
	End           time.Time
	ModifierType  ModifierType
	ModifierValue decimal.Decimal
	Active        bool
}

// RowPricing is a signed, additive offset applied before any stage
// modifier when a row is known. Unique per (zone, row).
type RowPricing struct {
	ID       uint64
	TenantID uuid.UUID
	ZoneID   uint64
	Row      string
	Offset   decimal.Decimal
}

// AppliedModifier records one modifier that contributed to a PriceQuote,
// for receipts and audit.
type AppliedModifier struct {
	Source string // "row_offset" or the PriceStage id as a string
	Type   ModifierType
	Value  decimal.Decimal
}

// PriceQuote is the deterministic output of internal/pricing.Resolve.
type PriceQuote struct {
	ZoneID     uint64
	Row        *string
	At         time.Time
	UnitPrice  decimal.Decimal
	Modifiers  []AppliedModifier
	ClampedNeg bool // true when the raw result went negative and was clamped to zero
}
