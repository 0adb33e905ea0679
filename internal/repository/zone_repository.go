package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/iliyamo/ticketing-core/internal/model"
)

// ZoneRepo is tenant-scoped CRUD for zones. A capacity shrink after the
// owning event leaves draft is rejected by UpdateCapacity, per spec.md
// §4.2 ("capacity may never shrink once an event is active").
type ZoneRepo struct{ DB *sql.DB }

func NewZoneRepo(db *sql.DB) *ZoneRepo { return &ZoneRepo{DB: db} }

func (r *ZoneRepo) Create(ctx context.Context, z *model.Zone) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO zones (tenant_id, event_id, name, type, capacity, base_price)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		z.TenantID, z.EventID, z.Name, z.Type, z.Capacity, z.BasePrice,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	z.ID = uint64(id)
	return nil
}

func (r *ZoneRepo) GetByID(ctx context.Context, tenantID uuid.UUID, id uint64) (model.Zone, error) {
	var z model.Zone
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, tenant_id, event_id, name, type, capacity, base_price, created_at, updated_at
		 FROM zones WHERE tenant_id = ? AND id = ?`,
		tenantID, id,
	).Scan(&z.ID, &z.TenantID, &z.EventID, &z.Name, &z.Type, &z.Capacity, &z.BasePrice, &z.CreatedAt, &z.UpdatedAt)
	if err == sql.ErrNoRows {
		return z, ErrZoneNotFound
	}
	return z, err
}

func (r *ZoneRepo) ListByEvent(ctx context.Context, tenantID uuid.UUID, eventID uint64) ([]model.Zone, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, tenant_id, event_id, name, type, capacity, base_price, created_at, updated_at
		 FROM zones WHERE tenant_id = ? AND event_id = ? ORDER BY name`,
		tenantID, eventID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Zone
	for rows.Next() {
		var z model.Zone
		if err := rows.Scan(&z.ID, &z.TenantID, &z.EventID, &z.Name, &z.Type, &z.Capacity, &z.BasePrice, &z.CreatedAt, &z.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, z)
	}
	return out, rows.Err()
}

// SeatCount returns the number of seats generated for a numbered zone, so
// callers can enforce capacity == count(seats).
func (r *ZoneRepo) SeatCount(ctx context.Context, tenantID uuid.UUID, zoneID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seats WHERE tenant_id = ? AND zone_id = ?`, tenantID, zoneID,
	).Scan(&n)
	return n, err
}

// ActiveHoldAndSoldCount counts sold, reserved and held seats plus active
// general-admission hold quantities for a zone, for UpdateCapacity's
// shrink guard.
func (r *ZoneRepo) ActiveHoldAndSoldCount(ctx context.Context, tenantID uuid.UUID, zoneID uint64) (int, error) {
	var sold int
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seats WHERE tenant_id = ? AND zone_id = ? AND state IN ('sold','reserved','held')`,
		tenantID, zoneID,
	).Scan(&sold); err != nil {
		return 0, err
	}
	var held sql.NullInt64
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM holds
		 WHERE tenant_id = ? AND zone_id = ? AND state = 'active' AND seat_id IS NULL`,
		tenantID, zoneID,
	).Scan(&held); err != nil {
		return 0, err
	}
	return sold + int(held.Int64), nil
}

// UpdateCapacity rejects any shrink once the owning event has left draft,
// and rejects a shrink below the current sold+held count regardless of
// event status.
func (r *ZoneRepo) UpdateCapacity(ctx context.Context, tenantID uuid.UUID, eventRepo *EventRepo, zoneID uint64, newCapacity int) error {
	z, err := r.GetByID(ctx, tenantID, zoneID)
	if err != nil {
		return err
	}
	if newCapacity < z.Capacity {
		locked, err := eventRepo.CapacityLocked(ctx, tenantID, z.EventID)
		if err != nil {
			return err
		}
		if locked {
			return ErrConflict
		}
		inUse, err := r.ActiveHoldAndSoldCount(ctx, tenantID, zoneID)
		if err != nil {
			return err
		}
		if newCapacity < inUse {
			return ErrConflict
		}
	}
	_, err = r.DB.ExecContext(ctx,
		`UPDATE zones SET capacity = ?, updated_at = CURRENT_TIMESTAMP WHERE tenant_id = ? AND id = ?`,
		newCapacity, tenantID, zoneID,
	)
	return err
}
