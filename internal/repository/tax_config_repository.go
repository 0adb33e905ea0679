package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/iliyamo/ticketing-core/internal/model"
)

// TaxConfigRepo is tenant-scoped CRUD for tax rules. An event-scoped
// config overrides a tenant-scoped one of the same Name, resolved by
// ActiveForEvent (spec.md §4.6).
type TaxConfigRepo struct{ DB *sql.DB }

func NewTaxConfigRepo(db *sql.DB) *TaxConfigRepo { return &TaxConfigRepo{DB: db} }

func (r *TaxConfigRepo) Create(ctx context.Context, t *model.TaxConfig) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO tax_configs (tenant_id, event_id, name, type, rate, fixed_amount, active, effective_from)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TenantID, t.EventID, t.Name, t.Type, t.Rate, t.FixedAmount, t.Active, t.EffectiveFrom.UTC(),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// ActiveForEvent returns the effective tax configs for an event: every
// active tenant-scoped config, with any event-scoped config of the same
// Name taking its place.
func (r *TaxConfigRepo) ActiveForEvent(ctx context.Context, tenantID uuid.UUID, eventID uint64) ([]model.TaxConfig, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, tenant_id, event_id, name, type, rate, fixed_amount, active, effective_from
		 FROM tax_configs
		 WHERE tenant_id = ? AND active = 1 AND (event_id IS NULL OR event_id = ?)
		 ORDER BY name, (event_id IS NOT NULL)`,
		tenantID, eventID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byName := make(map[string]model.TaxConfig)
	var order []string
	for rows.Next() {
		var t model.TaxConfig
		if err := rows.Scan(&t.ID, &t.TenantID, &t.EventID, &t.Name, &t.Type, &t.Rate, &t.FixedAmount, &t.Active, &t.EffectiveFrom); err != nil {
			return nil, err
		}
		if _, seen := byName[t.Name]; !seen {
			order = append(order, t.Name)
		}
		// Rows arrive tenant-scoped first, event-scoped second per the
		// ORDER BY above, so the later write for a given name always
		// wins and reflects the override.
		byName[t.Name] = t
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]model.TaxConfig, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	return out, nil
}
