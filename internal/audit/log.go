// Package audit implements the append-only audit trail: every
// state-changing operation writes one entry in the same *sql.Tx as the
// change it describes, never as a post-commit hook. ConfirmSeats'
// publish-after-commit side effect is the anti-pattern this avoids: an
// audit entry committed with the change it describes, never after.
package audit

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/ticketing-core/internal/apperr"
	"github.com/iliyamo/ticketing-core/internal/model"
)

// Log appends entries; there is deliberately no Update or Delete method.
type Log struct{}

// Append inserts one entry. Timestamp is stamped in America/Caracas wall
// time if the caller left it zero.
func (Log) Append(ctx context.Context, tx *sql.Tx, e model.AuditEntry) error {
	if e.Timestamp.IsZero() {
		loc, err := time.LoadLocation("America/Caracas")
		if err != nil {
			loc = time.FixedZone("America/Caracas", -4*60*60)
		}
		e.Timestamp = time.Now().In(loc)
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO audit_entries (tenant_id, user_id, action, object_type, object_id, fiscal_series_id, timestamp, old_value, new_value, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.TenantID, e.UserID, e.Action, e.ObjectType, e.ObjectID, e.FiscalSeries, e.Timestamp, e.OldValue, e.NewValue, e.Description,
	)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "append audit entry", err)
	}
	return nil
}

// QueryFilter narrows Query to the fields an operator's audit screen
// actually filters on; zero-value fields are left unconstrained.
type QueryFilter struct {
	ObjectType string
	Action     string
	Since      time.Time
	Until      time.Time
	Limit      int
}

// Query returns entries matching filter, newest first, for the audit
// trail's read side. Unlike ForObject it is not scoped to one object, so
// it is meant for an operator dashboard rather than a per-entity history
// view.
func (Log) Query(ctx context.Context, db *sql.DB, tenantID uuid.UUID, filter QueryFilter) ([]model.AuditEntry, error) {
	query := `SELECT insertion_id, tenant_id, user_id, action, object_type, object_id, fiscal_series_id, timestamp, old_value, new_value, description
		 FROM audit_entries WHERE tenant_id = ?`
	args := []any{tenantID}
	if filter.ObjectType != "" {
		query += ` AND object_type = ?`
		args = append(args, filter.ObjectType)
	}
	if filter.Action != "" {
		query += ` AND action = ?`
		args = append(args, filter.Action)
	}
	if !filter.Since.IsZero() {
		query += ` AND timestamp >= ?`
		args = append(args, filter.Since)
	}
	if !filter.Until.IsZero() {
		query += ` AND timestamp <= ?`
		args = append(args, filter.Until)
	}
	query += ` ORDER BY timestamp DESC, insertion_id DESC`
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "query audit entries", err)
	}
	defer rows.Close()
	var out []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(&e.InsertionID, &e.TenantID, &e.UserID, &e.Action, &e.ObjectType, &e.ObjectID, &e.FiscalSeries, &e.Timestamp, &e.OldValue, &e.NewValue, &e.Description); err != nil {
			return nil, apperr.Wrap(apperr.Internal, "scan audit entry", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "iterate audit entries", err)
	}
	return out, nil
}

// ForObject returns every entry for one object, ordered by
// (timestamp, insertion_id) so concurrent writers still read back in a
// stable sequence.
func (Log) ForObject(ctx context.Context, db *sql.DB, tenantID uuid.UUID, objectType, objectID string) ([]model.AuditEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT insertion_id, tenant_id, user_id, action, object_type, object_id, fiscal_series_id, timestamp, old_value, new_value, description
		 FROM audit_entries
		 WHERE tenant_id = ? AND object_type = ? AND object_id = ?
		 ORDER BY timestamp, insertion_id`,
		tenantID, objectType, objectID,
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "query audit entries", err)
	}
	defer rows.Close()
	var out []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(&e.InsertionID, &e.TenantID, &e.UserID, &e.Action, &e.ObjectType, &e.ObjectID, &e.FiscalSeries, &e.Timestamp, &e.OldValue, &e.NewValue, &e.Description); err != nil {
			return nil, apperr.Wrap(apperr.Internal, "scan audit entry", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "iterate audit entries", err)
	}
	return out, nil
}
