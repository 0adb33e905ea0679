package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/iliyamo/ticketing-core/internal/model"
)

// RowPricingRepo is tenant-scoped CRUD for per-row price offsets. Unique
// per (zone, row); Upsert overwrites the offset of an existing (zone, row)
// pair instead of failing.
type RowPricingRepo struct{ DB *sql.DB }

func NewRowPricingRepo(db *sql.DB) *RowPricingRepo { return &RowPricingRepo{DB: db} }

func (r *RowPricingRepo) Upsert(ctx context.Context, p *model.RowPricing) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO row_pricings (tenant_id, zone_id, row_label, offset_amount)
		 VALUES (?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE offset_amount = VALUES(offset_amount)`,
		p.TenantID, p.ZoneID, p.Row, p.Offset,
	)
	if err != nil {
		return err
	}
	if p.ID == 0 {
		id, err := res.LastInsertId()
		if err == nil && id > 0 {
			p.ID = uint64(id)
		}
	}
	return nil
}

func (r *RowPricingRepo) ForZone(ctx context.Context, tenantID uuid.UUID, zoneID uint64) (map[string]model.RowPricing, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, tenant_id, zone_id, row_label, offset_amount FROM row_pricings WHERE tenant_id = ? AND zone_id = ?`,
		tenantID, zoneID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]model.RowPricing)
	for rows.Next() {
		var p model.RowPricing
		if err := rows.Scan(&p.ID, &p.TenantID, &p.ZoneID, &p.Row, &p.Offset); err != nil {
			return nil, err
		}
		out[p.Row] = p
	}
	return out, rows.Err()
}
