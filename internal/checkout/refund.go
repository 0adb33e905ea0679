package checkout

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/google/uuid"

	"github.com/iliyamo/ticketing-core/internal/apperr"
	"github.com/iliyamo/ticketing-core/internal/audit"
	"github.com/iliyamo/ticketing-core/internal/fiscal"
	"github.com/iliyamo/ticketing-core/internal/model"
)

var ErrNotSold = errors.New("seat is not sold")

// Refund reverses one sold seat: the seat returns to refunded (not
// available: a refunded seat is never silently resold), any digital
// ticket tied to the seat's transaction item is cancelled, the
// certifying fiscal series is voided with the given reason (its number
// is never reused), and an audit entry is appended, all in one
// transaction.
func (co *Checkout) Refund(ctx context.Context, tenantID uuid.UUID, seatID uint64, seriesID uuid.UUID, by uint64, reason string) error {
	tx, err := co.DB.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "begin refund tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var state model.SeatState
	if err := tx.QueryRowContext(ctx,
		`SELECT state FROM seats WHERE tenant_id = ? AND id = ? FOR UPDATE`, tenantID, seatID,
	).Scan(&state); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.New(apperr.NotFound, "seat not found")
		}
		return apperr.Wrap(apperr.Internal, "lock seat", err)
	}
	if state != model.SeatSold {
		return apperr.Wrap(apperr.Conflict, "seat is not sold", ErrNotSold)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE seats SET state = ?, updated_at = CURRENT_TIMESTAMP WHERE tenant_id = ? AND id = ?`,
		model.SeatRefunded, tenantID, seatID,
	); err != nil {
		return apperr.Wrap(apperr.Internal, "refund seat", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE digital_tickets SET status = ? WHERE tenant_id = ? AND seat_id = ? AND status != ?`,
		model.TicketCancelled, tenantID, seatID, model.TicketCancelled,
	); err != nil {
		return apperr.Wrap(apperr.Internal, "cancel ticket", err)
	}

	var series fiscal.SeriesAllocator
	if err := series.Void(ctx, tx, tenantID, seriesID, by, reason); err != nil {
		return err
	}

	var log audit.Log
	if err := log.Append(ctx, tx, model.AuditEntry{
		TenantID:     tenantID,
		UserID:       &by,
		Action:       "checkout.refunded",
		ObjectType:   "seat",
		ObjectID:     strconv.FormatUint(seatID, 10),
		FiscalSeries: &seriesID,
		Description:  reason,
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.Internal, "commit refund", err)
	}
	committed = true
	return nil
}
