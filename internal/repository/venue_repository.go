package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/iliyamo/ticketing-core/internal/model"
)

// VenueRepo is tenant-scoped CRUD for venues, following the same shape as
// hall_repository.go generalized from "owner_id" to "tenant_id".
type VenueRepo struct{ DB *sql.DB }

func NewVenueRepo(db *sql.DB) *VenueRepo { return &VenueRepo{DB: db} }

func (r *VenueRepo) Create(ctx context.Context, v *model.Venue) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO venues (tenant_id, name, address) VALUES (?, ?, ?)`,
		v.TenantID, v.Name, v.Address,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	return nil
}

func (r *VenueRepo) GetByID(ctx context.Context, tenantID uuid.UUID, id uint64) (model.Venue, error) {
	var v model.Venue
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, tenant_id, name, address, created_at, updated_at
		 FROM venues WHERE tenant_id = ? AND id = ?`,
		tenantID, id,
	).Scan(&v.ID, &v.TenantID, &v.Name, &v.Address, &v.CreatedAt, &v.UpdatedAt)
	if err == sql.ErrNoRows {
		return v, ErrVenueNotFound
	}
	return v, err
}

func (r *VenueRepo) List(ctx context.Context, tenantID uuid.UUID) ([]model.Venue, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, tenant_id, name, address, created_at, updated_at
		 FROM venues WHERE tenant_id = ? ORDER BY name`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Venue
	for rows.Next() {
		var v model.Venue
		if err := rows.Scan(&v.ID, &v.TenantID, &v.Name, &v.Address, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *VenueRepo) Update(ctx context.Context, tenantID uuid.UUID, id uint64, name, address string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE venues SET name = ?, address = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE tenant_id = ? AND id = ?`,
		name, address, tenantID, id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVenueNotFound
	}
	return nil
}
