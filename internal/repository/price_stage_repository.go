package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/ticketing-core/internal/model"
)

var ErrPriceStageNotFound = errors.New("price stage not found")

// PriceStageRepo is tenant-scoped CRUD for price stages, enforcing the
// non-overlap invariant of spec.md §4.3: two stages with the same scope
// (same ZoneID, or both event-wide) may not share any instant.
type PriceStageRepo struct{ DB *sql.DB }

func NewPriceStageRepo(db *sql.DB) *PriceStageRepo { return &PriceStageRepo{DB: db} }

func (r *PriceStageRepo) Create(ctx context.Context, s *model.PriceStage) error {
	if !s.End.After(s.Start) {
		return ErrConflict
	}
	overlaps, err := r.overlaps(ctx, s.TenantID, s.EventID, s.ZoneID, s.Start, s.End, 0)
	if err != nil {
		return err
	}
	if overlaps {
		return ErrConflict
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO price_stages (tenant_id, event_id, zone_id, ordinal, starts_at, ends_at, modifier_type, modifier_value, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.TenantID, s.EventID, s.ZoneID, s.Ordinal, s.Start.UTC(), s.End.UTC(), s.ModifierType, s.ModifierValue, s.Active,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

func (r *PriceStageRepo) overlaps(ctx context.Context, tenantID uuid.UUID, eventID uint64, zoneID *uint64, start, end time.Time, excludeID uint64) (bool, error) {
	var n int
	if zoneID == nil {
		err := r.DB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM price_stages
			 WHERE tenant_id = ? AND event_id = ? AND zone_id IS NULL AND active = 1 AND id <> ?
			   AND starts_at < ? AND ends_at > ?`,
			tenantID, eventID, excludeID, end.UTC(), start.UTC(),
		).Scan(&n)
		return n > 0, err
	}
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM price_stages
		 WHERE tenant_id = ? AND event_id = ? AND zone_id = ? AND active = 1 AND id <> ?
		   AND starts_at < ? AND ends_at > ?`,
		tenantID, eventID, *zoneID, excludeID, end.UTC(), start.UTC(),
	).Scan(&n)
	return n > 0, err
}

// ActiveForEvent returns all active stages for an event (zone-scoped and
// event-wide), ordered by ordinal, the order internal/pricing applies them.
func (r *PriceStageRepo) ActiveForEvent(ctx context.Context, tenantID uuid.UUID, eventID uint64) ([]model.PriceStage, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, tenant_id, event_id, zone_id, ordinal, starts_at, ends_at, modifier_type, modifier_value, active
		 FROM price_stages WHERE tenant_id = ? AND event_id = ? AND active = 1
		 ORDER BY ordinal`,
		tenantID, eventID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.PriceStage
	for rows.Next() {
		var s model.PriceStage
		if err := rows.Scan(&s.ID, &s.TenantID, &s.EventID, &s.ZoneID, &s.Ordinal, &s.Start, &s.End, &s.ModifierType, &s.ModifierValue, &s.Active); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PriceStageRepo) Deactivate(ctx context.Context, tenantID uuid.UUID, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE price_stages SET active = 0 WHERE tenant_id = ? AND id = ?`, tenantID, id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPriceStageNotFound
	}
	return nil
}
