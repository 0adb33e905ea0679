package fiscal

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/ticketing-core/internal/apperr"
	"github.com/iliyamo/ticketing-core/internal/model"
)

// ReportGenerator builds X (non-closing snapshot) and Z (end-of-day)
// reports, both recorded as numbered fiscal_reports rows, ported from FiscalReport.save's auto-numbering
// (`Max(report_number) + 1` per tenant/type) in the Django original.
type ReportGenerator struct{ DB *sql.DB }

func NewReportGenerator(db *sql.DB) *ReportGenerator { return &ReportGenerator{DB: db} }

// GenerateX snapshots one user's completed transactions for the current
// Caracas date and records it as a numbered X report. It does not touch
// fiscal_days and may be called any number of times per day.
func (g *ReportGenerator) GenerateX(ctx context.Context, tenantID uuid.UUID, userID uint64) (model.FiscalReport, error) {
	today := time.Now().In(caracas)
	date := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, caracas)
	return g.generate(ctx, nil, tenantID, model.ReportX, date, &userID)
}

// GenerateZ builds the Z report for the given fiscal day but does not close
// the day itself: it snapshots the same range as GenerateX would, stamps a
// report number, and the caller is expected to
// pass the returned report's ID to DayManager.Close within the same
// transaction so the close is atomic with the report.
func (g *ReportGenerator) GenerateZ(ctx context.Context, tx *sql.Tx, tenantID uuid.UUID, userID uint64, date time.Time) (model.FiscalReport, error) {
	return g.generate(ctx, tx, tenantID, model.ReportZ, date, &userID)
}

func (g *ReportGenerator) generate(ctx context.Context, tx *sql.Tx, tenantID uuid.UUID, typ model.ReportType, date time.Time, userID *uint64) (model.FiscalReport, error) {
	q := queryer(g.DB, tx)

	r := model.FiscalReport{
		TenantID:         tenantID,
		Type:             typ,
		FiscalDate:       date,
		UserID:           userID,
		PaymentBreakdown: map[string]decimal.Decimal{},
		TotalAmount:      decimal.Zero,
		TotalTax:         decimal.Zero,
		GeneratedAt:      time.Now().In(caracas),
	}

	rows, err := q.QueryContext(ctx,
		`SELECT t.total, t.tax, t.payment_method, fs.series_number
		 FROM transactions t
		 JOIN fiscal_series fs ON fs.transaction_id = t.id
		 WHERE t.tenant_id = ? AND t.status = 'completed'
		   AND DATE(CONVERT_TZ(t.created_at, '+00:00', '-04:00')) = ?
		   AND (? IS NULL OR fs.issued_by = ?)
		 ORDER BY fs.series_number`,
		tenantID, date.Format("2006-01-02"), userID, userID,
	)
	if err != nil {
		return model.FiscalReport{}, apperr.Wrap(apperr.Internal, "query report transactions", err)
	}
	defer rows.Close()

	first, last := int64(0), int64(0)
	for rows.Next() {
		var total, tax decimal.Decimal
		var method string
		var seriesNumber int64
		if err := rows.Scan(&total, &tax, &method, &seriesNumber); err != nil {
			return model.FiscalReport{}, apperr.Wrap(apperr.Internal, "scan report row", err)
		}
		r.TransactionCnt++
		r.TotalAmount = r.TotalAmount.Add(total)
		r.TotalTax = r.TotalTax.Add(tax)
		r.PaymentBreakdown[method] = r.PaymentBreakdown[method].Add(total)
		if first == 0 {
			first = seriesNumber
		}
		last = seriesNumber
	}
	if err := rows.Err(); err != nil {
		return model.FiscalReport{}, apperr.Wrap(apperr.Internal, "iterate report rows", err)
	}
	r.FirstSeries, r.LastSeries = first, last

	var maxNumber sql.NullInt64
	if err := q.QueryRowContext(ctx,
		`SELECT MAX(report_number) FROM fiscal_reports WHERE tenant_id = ? AND type = ?`, tenantID, typ,
	).Scan(&maxNumber); err != nil {
		return model.FiscalReport{}, apperr.Wrap(apperr.Internal, "read max report number", err)
	}
	r.ReportNumber = maxNumber.Int64 + 1

	res, err := q.ExecContext(ctx,
		`INSERT INTO fiscal_reports (tenant_id, type, report_number, fiscal_date, user_id, transaction_cnt, total_amount, total_tax, first_series, last_series, generated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.TenantID, r.Type, r.ReportNumber, r.FiscalDate, r.UserID, r.TransactionCnt, r.TotalAmount, r.TotalTax, r.FirstSeries, r.LastSeries, r.GeneratedAt,
	)
	if err != nil {
		return model.FiscalReport{}, apperr.Wrap(apperr.Internal, "insert fiscal report", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.FiscalReport{}, apperr.Wrap(apperr.Internal, "read fiscal report id", err)
	}
	r.ID = uint64(id)
	return r, nil
}

// execQueryer is satisfied by both *sql.DB and *sql.Tx, letting generate
// run X reports standalone and Z reports inside the enclosing close tx.
type execQueryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func queryer(db *sql.DB, tx *sql.Tx) execQueryer {
	if tx != nil {
		return tx
	}
	return db
}
