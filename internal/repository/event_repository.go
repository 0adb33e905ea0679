package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/iliyamo/ticketing-core/internal/model"
)

// EventRepo is tenant-scoped CRUD plus the status-transition guard of
// spec.md §4.2 (draft -> active -> {closed, cancelled}).
type EventRepo struct{ DB *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{DB: db} }

func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	if !e.EndsAt.After(e.StartsAt) {
		return ErrConflict
	}
	if e.Status == "" {
		e.Status = model.EventDraft
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO events (tenant_id, venue_id, name, starts_at, ends_at, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.TenantID, e.VenueID, e.Name, e.StartsAt.UTC(), e.EndsAt.UTC(), e.Status,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

func (r *EventRepo) GetByID(ctx context.Context, tenantID uuid.UUID, id uint64) (model.Event, error) {
	var e model.Event
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, tenant_id, venue_id, name, starts_at, ends_at, status, created_at, updated_at
		 FROM events WHERE tenant_id = ? AND id = ?`,
		tenantID, id,
	).Scan(&e.ID, &e.TenantID, &e.VenueID, &e.Name, &e.StartsAt, &e.EndsAt, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return e, ErrEventNotFound
	}
	return e, err
}

// Transition validates and applies an event status change. draft -> active
// is the only way into active; active is the only state from which
// closed/cancelled are reachable (spec.md §4.2).
func (r *EventRepo) Transition(ctx context.Context, tenantID uuid.UUID, id uint64, to model.EventStatus) error {
	e, err := r.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	allowed := map[model.EventStatus][]model.EventStatus{
		model.EventDraft:  {model.EventActive},
		model.EventActive: {model.EventClosed, model.EventCancelled},
	}
	ok := false
	for _, s := range allowed[e.Status] {
		if s == to {
			ok = true
			break
		}
	}
	if !ok {
		return ErrConflict
	}
	_, err = r.DB.ExecContext(ctx,
		`UPDATE events SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE tenant_id = ? AND id = ?`,
		to, tenantID, id,
	)
	return err
}

// CapacityLocked reports whether capacity-affecting catalog mutations
// (adding/removing seats, lowering zone capacity below sold+held) must be
// rejected for this event: true once the event has left draft.
func (r *EventRepo) CapacityLocked(ctx context.Context, tenantID uuid.UUID, id uint64) (bool, error) {
	e, err := r.GetByID(ctx, tenantID, id)
	if err != nil {
		return false, err
	}
	return e.Status != model.EventDraft, nil
}
