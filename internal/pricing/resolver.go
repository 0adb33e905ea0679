// Package pricing implements the deterministic price-resolution algorithm:
// base price, plus a per-row offset, plus every active stage modifier that
// applies at a given instant, applied zone-scoped stages first and
// event-wide stages second, ordinal order within each scope.
package pricing

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/ticketing-core/internal/model"
	"github.com/iliyamo/ticketing-core/internal/repository"
)

// Resolver resolves prices for one event's zones.
type Resolver struct {
	Stages *repository.PriceStageRepo
	Rows   *repository.RowPricingRepo
	Zones  *repository.ZoneRepo
}

func New(stages *repository.PriceStageRepo, rows *repository.RowPricingRepo, zones *repository.ZoneRepo) *Resolver {
	return &Resolver{Stages: stages, Rows: rows, Zones: zones}
}

// Resolve computes the unit price for a zone (and optionally a specific
// row) at instant `at`. Stages are applied zone-scoped first, then
// event-wide, ordinal order within each scope; if the rounded final price
// is negative it is clamped to zero and the quote is flagged ClampedNeg.
func (res *Resolver) Resolve(ctx context.Context, tenantID uuid.UUID, zoneID uint64, row *string, at time.Time) (model.PriceQuote, error) {
	zone, err := res.Zones.GetByID(ctx, tenantID, zoneID)
	if err != nil {
		return model.PriceQuote{}, err
	}

	price := zone.BasePrice
	quote := model.PriceQuote{ZoneID: zoneID, Row: row, At: at}

	if row != nil {
		offsets, err := res.Rows.ForZone(ctx, tenantID, zoneID)
		if err != nil {
			return model.PriceQuote{}, err
		}
		if rp, ok := offsets[*row]; ok {
			price = price.Add(rp.Offset)
			quote.Modifiers = append(quote.Modifiers, model.AppliedModifier{
				Source: "row_offset",
				Type:   model.ModifierFixedAdd,
				Value:  rp.Offset,
			})
		}
	}

	stages, err := res.Stages.ActiveForEvent(ctx, tenantID, zone.EventID)
	if err != nil {
		return model.PriceQuote{}, err
	}

	ordered := applicableStages(stages, zoneID, at)
	for _, s := range ordered {
		price = applyModifier(price, s.ModifierType, s.ModifierValue)
		quote.Modifiers = append(quote.Modifiers, model.AppliedModifier{
			Source: modifierSource(s),
			Type:   s.ModifierType,
			Value:  s.ModifierValue,
		})
	}

	if price.IsNegative() {
		price = decimal.Zero
		quote.ClampedNeg = true
	}
	quote.UnitPrice = price.Round(2)
	return quote, nil
}

// applicableStages filters to stages active at `at` for this zone (its own
// zone-scoped stages, plus every event-wide stage), then sorts zone-scoped
// before event-wide, ordinal ascending within each group.
func applicableStages(stages []model.PriceStage, zoneID uint64, at time.Time) []model.PriceStage {
	var out []model.PriceStage
	for _, s := range stages {
		if !s.Active {
			continue
		}
		if at.Before(s.Start) || !at.Before(s.End) {
			continue
		}
		if s.ZoneID != nil && *s.ZoneID != zoneID {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		iZoneScoped := out[i].ZoneID != nil
		jZoneScoped := out[j].ZoneID != nil
		if iZoneScoped != jZoneScoped {
			return iZoneScoped // zone-scoped sorts before event-wide
		}
		return out[i].Ordinal < out[j].Ordinal
	})
	return out
}

func applyModifier(price decimal.Decimal, t model.ModifierType, value decimal.Decimal) decimal.Decimal {
	switch t {
	case model.ModifierPercentage:
		return price.Add(price.Mul(value).Div(decimal.NewFromInt(100)))
	case model.ModifierFixedAdd:
		return price.Add(value)
	default:
		return price
	}
}

func modifierSource(s model.PriceStage) string {
	return "stage_" + strconv.FormatUint(s.ID, 10)
}
