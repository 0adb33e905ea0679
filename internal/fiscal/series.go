// Package fiscal implements the gapless series numbering, fiscal-day
// open/close, tax engine and X/Z reporting required for Venezuelan-style
// fiscal compliance. The series allocator is ported from the Django
// original's FiscalSeriesManager.get_next_series: select_for_update the
// per-tenant counter, increment, create the series row, all in one
// transaction.
package fiscal

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/ticketing-core/internal/apperr"
	"github.com/iliyamo/ticketing-core/internal/model"
)

var caracas *time.Location

func init() {
	loc, err := time.LoadLocation("America/Caracas")
	if err != nil {
		// A missing tzdata bundle must not turn fiscal timestamps into UTC:
		// fall back to a fixed UTC-4 zone (Caracas's offset) instead of
		// failing.
		loc = time.FixedZone("America/Caracas", -4*60*60)
	}
	caracas = loc
}

// Caracas returns the America/Caracas location used by every fiscal
// timestamp and date computation in this package.
func Caracas() *time.Location { return caracas }

// SeriesAllocator issues gapless, per-tenant fiscal series numbers.
type SeriesAllocator struct{}

// Next row-locks the tenant's FiscalCounter, increments it, and inserts
// the FiscalSeries row, all within the caller's transaction so it
// composes with the rest of checkout's fiscal branch.
func (SeriesAllocator) Next(ctx context.Context, tx *sql.Tx, tenantID uuid.UUID, transactionID uint64, issuedBy uint64) (model.FiscalSeries, error) {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO fiscal_counters (tenant_id, current) VALUES (?, 0)
		 ON DUPLICATE KEY UPDATE tenant_id = tenant_id`,
		tenantID,
	); err != nil {
		return model.FiscalSeries{}, apperr.Wrap(apperr.Internal, "ensure fiscal counter", err)
	}

	var current int64
	if err := tx.QueryRowContext(ctx,
		`SELECT current FROM fiscal_counters WHERE tenant_id = ? FOR UPDATE`, tenantID,
	).Scan(&current); err != nil {
		return model.FiscalSeries{}, apperr.Wrap(apperr.Internal, "lock fiscal counter", err)
	}
	next := current + 1
	if _, err := tx.ExecContext(ctx,
		`UPDATE fiscal_counters SET current = ? WHERE tenant_id = ?`, next, tenantID,
	); err != nil {
		return model.FiscalSeries{}, apperr.Wrap(apperr.Internal, "increment fiscal counter", err)
	}

	s := model.FiscalSeries{
		ID:            uuid.New(),
		TenantID:      tenantID,
		SeriesNumber:  next,
		TransactionID: transactionID,
		IssuedBy:      issuedBy,
		IssuedAt:      time.Now().In(caracas),
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO fiscal_series (id, tenant_id, series_number, transaction_id, issued_by, issued_at, voided)
		 VALUES (?, ?, ?, ?, ?, ?, 0)`,
		s.ID, s.TenantID, s.SeriesNumber, s.TransactionID, s.IssuedBy, s.IssuedAt,
	); err != nil {
		return model.FiscalSeries{}, apperr.Wrap(apperr.Internal, "insert fiscal series", err)
	}
	return s, nil
}

var ErrAlreadyVoided = errors.New("fiscal series already voided")

// Void marks a series voided without freeing its number for reuse: the
// voided row keeps its number and its place in the sequence, so the
// numbering stays gapless.
func (SeriesAllocator) Void(ctx context.Context, tx *sql.Tx, tenantID uuid.UUID, seriesID uuid.UUID, by uint64, reason string) error {
	var voided bool
	if err := tx.QueryRowContext(ctx,
		`SELECT voided FROM fiscal_series WHERE tenant_id = ? AND id = ? FOR UPDATE`, tenantID, seriesID,
	).Scan(&voided); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.New(apperr.NotFound, "fiscal series not found")
		}
		return apperr.Wrap(apperr.Internal, "lock fiscal series", err)
	}
	if voided {
		return apperr.Wrap(apperr.Conflict, "fiscal series already voided", ErrAlreadyVoided)
	}
	now := time.Now().In(caracas)
	_, err := tx.ExecContext(ctx,
		`UPDATE fiscal_series SET voided = 1, voided_at = ?, voided_by = ?, void_reason = ?
		 WHERE tenant_id = ? AND id = ?`,
		now, by, reason, tenantID, seriesID,
	)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "void fiscal series", err)
	}
	return nil
}
