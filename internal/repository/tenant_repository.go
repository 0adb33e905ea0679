package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/iliyamo/ticketing-core/internal/model"
)

// TenantRepo provides lookups used by internal/tenant.Resolver; it is the
// only repository allowed to query without a tenant id in scope, since
// resolving the tenant is what every other repository call depends on.
type TenantRepo struct{ DB *sql.DB }

func NewTenantRepo(db *sql.DB) *TenantRepo { return &TenantRepo{DB: db} }

// ActiveByID satisfies tenant.Resolver.
func (r *TenantRepo) ActiveByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var active bool
	err := r.DB.QueryRowContext(ctx, `SELECT is_active FROM tenants WHERE id = ?`, id).Scan(&active)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return active, nil
}

// ActiveBySlug satisfies tenant.Resolver.
func (r *TenantRepo) ActiveBySlug(ctx context.Context, slug string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	var active bool
	err := r.DB.QueryRowContext(ctx, `SELECT id, is_active FROM tenants WHERE slug = ?`, slug).Scan(&id, &active)
	if err == sql.ErrNoRows {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, active, nil
}

// ListActive returns every active tenant, for internal/expirer's background
// jobs to iterate per tick.
func (r *TenantRepo) ListActive(ctx context.Context) ([]model.Tenant, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, slug, name, is_active, created_at, updated_at FROM tenants WHERE is_active = 1`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Tenant
	for rows.Next() {
		var t model.Tenant
		if err := rows.Scan(&t.ID, &t.Slug, &t.Name, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create inserts a new tenant. Tenants are created administratively and
// are never deleted while they own data (spec.md §3).
func (r *TenantRepo) Create(ctx context.Context, t *model.Tenant) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO tenants (id, slug, name, is_active) VALUES (?, ?, ?, ?)`,
		t.ID, t.Slug, t.Name, t.IsActive,
	)
	return err
}

// GetByID returns a tenant regardless of active flag, for admin tooling.
func (r *TenantRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Tenant, error) {
	var t model.Tenant
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, slug, name, is_active, created_at, updated_at FROM tenants WHERE id = ?`, id,
	).Scan(&t.ID, &t.Slug, &t.Name, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}
