package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxType selects how TaxConfig.Rate (or fixed amount) combines with a
// base amount in internal/fiscal's tax engine.
type TaxType string

const (
	TaxPercentage TaxType = "percentage"
	TaxFixed      TaxType = "fixed"
	TaxCompound   TaxType = "compound"
)

// TaxConfig is one tax rule. A nil EventID scopes it to the whole tenant;
// an event-scoped config with the same Name overrides the tenant-scoped
// one of the same name (spec.md §4.6).
type TaxConfig struct {
	ID            uint64
	TenantID      uuid.UUID
	EventID       *uint64
	Name          string
	Type          TaxType
	Rate          decimal.Decimal // used by percentage/compound
	FixedAmount   decimal.Decimal // used by fixed
	Active        bool
	EffectiveFrom time.Time
}

// TaxCalculationHistory ties one tax-engine evaluation to the transaction,
// config and base/amount it produced, so a later audit can reconstruct
// exactly how a total was derived.
type TaxCalculationHistory struct {
	ID            uint64
	TenantID      uuid.UUID
	TransactionID uint64
	TaxConfigID   uint64
	Base          decimal.Decimal
	Amount        decimal.Decimal
	CreatedAt     time.Time
}
