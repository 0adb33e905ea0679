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

var ErrDayAlreadyClosed = errors.New("fiscal day already closed")

// DayManager opens and closes per-(tenant, user, Caracas-date) fiscal
// days, ported from FiscalDayManager.get_current_fiscal_day /
// close_fiscal_day in the Django original. Two users may have
// independently open days on the same calendar date.
type DayManager struct{ DB *sql.DB }

func NewDayManager(db *sql.DB) *DayManager { return &DayManager{DB: db} }

// Current returns today's (Caracas calendar date) fiscal day for the
// user, creating it if this is the user's first sale of the day.
func (m *DayManager) Current(ctx context.Context, tenantID uuid.UUID, userID uint64) (model.FiscalDay, error) {
	today := time.Now().In(caracas)
	date := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, caracas)

	var d model.FiscalDay
	err := m.DB.QueryRowContext(ctx,
		`SELECT id, tenant_id, user_id, fiscal_date, opened_at, closed_at, is_closed, z_report_id
		 FROM fiscal_days WHERE tenant_id = ? AND user_id = ? AND fiscal_date = ?`,
		tenantID, userID, date,
	).Scan(&d.ID, &d.TenantID, &d.UserID, &d.Date, &d.OpenedAt, &d.ClosedAt, &d.IsClosed, &d.ZReportID)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.FiscalDay{}, apperr.Wrap(apperr.Internal, "read fiscal day", err)
	}

	d = model.FiscalDay{
		TenantID: tenantID,
		UserID:   userID,
		Date:     date,
		OpenedAt: time.Now().In(caracas),
		IsClosed: false,
	}
	res, err := m.DB.ExecContext(ctx,
		`INSERT INTO fiscal_days (tenant_id, user_id, fiscal_date, opened_at, is_closed) VALUES (?, ?, ?, ?, 0)`,
		d.TenantID, d.UserID, d.Date, d.OpenedAt,
	)
	if err != nil {
		return model.FiscalDay{}, apperr.Wrap(apperr.Internal, "open fiscal day", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.FiscalDay{}, apperr.Wrap(apperr.Internal, "read fiscal day id", err)
	}
	d.ID = uint64(id)
	return d, nil
}

// CanProcessSales mirrors FiscalDay.can_process_sales: false once closed.
func (m *DayManager) CanProcessSales(ctx context.Context, tenantID uuid.UUID, userID uint64) (bool, error) {
	d, err := m.Current(ctx, tenantID, userID)
	if err != nil {
		return false, err
	}
	return !d.IsClosed, nil
}

// Close idempotency-guards a double-close the same way the Django
// original raises ValidationError on an already-closed day; here that
// becomes apperr.Conflict. zReportID links the day to the Z report that
// closed it.
func (m *DayManager) Close(ctx context.Context, tx *sql.Tx, tenantID uuid.UUID, dayID uint64, zReportID uint64) error {
	var isClosed bool
	if err := tx.QueryRowContext(ctx,
		`SELECT is_closed FROM fiscal_days WHERE tenant_id = ? AND id = ? FOR UPDATE`, tenantID, dayID,
	).Scan(&isClosed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.New(apperr.NotFound, "fiscal day not found")
		}
		return apperr.Wrap(apperr.Internal, "lock fiscal day", err)
	}
	if isClosed {
		return apperr.Wrap(apperr.Conflict, "fiscal day already closed", ErrDayAlreadyClosed)
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE fiscal_days SET is_closed = 1, closed_at = ?, z_report_id = ? WHERE tenant_id = ? AND id = ?`,
		time.Now().In(caracas), zReportID, tenantID, dayID,
	)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "close fiscal day", err)
	}
	return nil
}
