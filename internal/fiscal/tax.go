package fiscal

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/ticketing-core/internal/apperr"
	"github.com/iliyamo/ticketing-core/internal/model"
)

// TaxEngine evaluates TaxConfig rules against a base amount, using
// round-up-to-2dp for percentage and compound tax, matching the Django
// original's `quantize(Decimal('0.01'), rounding='ROUND_UP')`.
type TaxEngine struct{ DB *sql.DB }

func NewTaxEngine(db *sql.DB) *TaxEngine { return &TaxEngine{DB: db} }

// Calculate returns the tax amount for one config against a base amount.
// An inactive config contributes zero.
func (TaxEngine) Calculate(cfg model.TaxConfig, base decimal.Decimal) decimal.Decimal {
	if !cfg.Active {
		return decimal.Zero
	}
	switch cfg.Type {
	case model.TaxFixed:
		return cfg.FixedAmount
	case model.TaxPercentage:
		return base.Mul(cfg.Rate).RoundCeil(2)
	case model.TaxCompound:
		primary := base.Mul(cfg.Rate)
		compound := primary.Mul(cfg.Rate)
		return primary.Add(compound).RoundCeil(2)
	default:
		return decimal.Zero
	}
}

// CalculateAndRecord evaluates every config and persists one
// TaxCalculationHistory row per config inside the caller's transaction,
// so a later audit can reconstruct exactly how a transaction's tax total
// was derived (recovered from the source's tax-history pattern; required
// by the "each calculation is recorded" line the distilled spec carries
// forward).
func (e TaxEngine) CalculateAndRecord(ctx context.Context, tx *sql.Tx, tenantID uuid.UUID, transactionID uint64, configs []model.TaxConfig, base decimal.Decimal) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, cfg := range configs {
		amount := e.Calculate(cfg, base)
		total = total.Add(amount)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tax_calculation_history (tenant_id, transaction_id, tax_config_id, base_amount, amount)
			 VALUES (?, ?, ?, ?, ?)`,
			tenantID, transactionID, cfg.ID, base, amount,
		); err != nil {
			return decimal.Zero, apperr.Wrap(apperr.Internal, "record tax calculation", err)
		}
	}
	return total, nil
}
