package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/ticketing-core/internal/model"
)

// TransactionRepo persists Transaction, TransactionItem and
// PaymentSchedule rows, mirroring ReservationRepo's split between a
// parent record and its line items.
type TransactionRepo struct{ DB *sql.DB }

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{DB: db} }

// CreatePendingTx inserts a new Transaction in the pending status, within
// the caller's transaction, and fills in its generated ID.
func (r *TransactionRepo) CreatePendingTx(ctx context.Context, tx *sql.Tx, t *model.Transaction) error {
	t.Status = model.TransactionPending
	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (tenant_id, event_id, customer_id, status, subtotal, tax, total, currency, payment_method)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TenantID, t.EventID, t.CustomerID, t.Status, t.Subtotal, t.Tax, t.Total, t.Currency, t.PaymentMethod,
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

// CreateItemTx inserts one TransactionItem and fills in its generated ID.
func (r *TransactionRepo) CreateItemTx(ctx context.Context, tx *sql.Tx, it *model.TransactionItem) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO transaction_items (tenant_id, transaction_id, zone_id, seat_id, unit_price, quantity, total_price)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		it.TenantID, it.TransactionID, it.ZoneID, it.SeatID, it.UnitPrice, it.Quantity, it.TotalPrice,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	it.ID = uint64(id)
	return nil
}

// SetTotalsTx updates a transaction's computed subtotal/tax/total.
func (r *TransactionRepo) SetTotalsTx(ctx context.Context, tx *sql.Tx, tenantID uuid.UUID, id uint64, subtotal, taxAmt, total decimal.Decimal) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE transactions SET subtotal = ?, tax = ?, total = ? WHERE tenant_id = ? AND id = ?`,
		subtotal, taxAmt, total, tenantID, id,
	)
	return err
}

// MarkStatusTx transitions a transaction's status within the caller's
// transaction.
func (r *TransactionRepo) MarkStatusTx(ctx context.Context, tx *sql.Tx, tenantID uuid.UUID, id uint64, status model.TransactionStatus) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE transactions SET status = ? WHERE tenant_id = ? AND id = ?`, status, tenantID, id,
	)
	return err
}

// GetByID returns one transaction by tenant-scoped ID.
func (r *TransactionRepo) GetByID(ctx context.Context, tenantID uuid.UUID, id uint64) (model.Transaction, error) {
	var t model.Transaction
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, tenant_id, event_id, customer_id, status, subtotal, tax, total, currency, payment_method, created_at
		 FROM transactions WHERE tenant_id = ? AND id = ?`,
		tenantID, id,
	).Scan(&t.ID, &t.TenantID, &t.EventID, &t.CustomerID, &t.Status, &t.Subtotal, &t.Tax, &t.Total, &t.Currency, &t.PaymentMethod, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, ErrTransactionNotFound
	}
	if err != nil {
		return model.Transaction{}, err
	}
	return t, nil
}

// ItemsByTransaction returns every line item of a transaction.
func (r *TransactionRepo) ItemsByTransaction(ctx context.Context, tenantID uuid.UUID, transactionID uint64) ([]model.TransactionItem, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, tenant_id, transaction_id, zone_id, seat_id, unit_price, quantity, total_price
		 FROM transaction_items WHERE tenant_id = ? AND transaction_id = ?`,
		tenantID, transactionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.TransactionItem
	for rows.Next() {
		var it model.TransactionItem
		if err := rows.Scan(&it.ID, &it.TenantID, &it.TransactionID, &it.ZoneID, &it.SeatID, &it.UnitPrice, &it.Quantity, &it.TotalPrice); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// CreateScheduleTx inserts one PaymentSchedule installment row.
func (r *TransactionRepo) CreateScheduleTx(ctx context.Context, tx *sql.Tx, p *model.PaymentSchedule) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO payment_schedules (tenant_id, transaction_id, sequence_no, due_at, amount, paid_at, reference)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.TenantID, p.TransactionID, p.SequenceNo, p.DueAt, p.Amount, p.PaidAt, p.Reference,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// SchedulesByTransaction returns every installment, ordered by sequence.
func (r *TransactionRepo) SchedulesByTransaction(ctx context.Context, tenantID uuid.UUID, transactionID uint64) ([]model.PaymentSchedule, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, tenant_id, transaction_id, sequence_no, due_at, amount, paid_at, reference
		 FROM payment_schedules WHERE tenant_id = ? AND transaction_id = ? ORDER BY sequence_no`,
		tenantID, transactionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.PaymentSchedule
	for rows.Next() {
		var p model.PaymentSchedule
		if err := rows.Scan(&p.ID, &p.TenantID, &p.TransactionID, &p.SequenceNo, &p.DueAt, &p.Amount, &p.PaidAt, &p.Reference); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// OverdueReserved returns every reserved transaction for a tenant that
// has at least one unpaid installment whose due date is at or before
// cutoff, for internal/expirer's reservation sweeper.
func (r *TransactionRepo) OverdueReserved(ctx context.Context, tenantID uuid.UUID, cutoff time.Time) ([]model.Transaction, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT DISTINCT t.id, t.tenant_id, t.event_id, t.customer_id, t.status, t.subtotal, t.tax, t.total, t.currency, t.payment_method, t.created_at
		 FROM transactions t
		 JOIN payment_schedules ps ON ps.tenant_id = t.tenant_id AND ps.transaction_id = t.id
		 WHERE t.tenant_id = ? AND t.status = ? AND ps.paid_at IS NULL AND ps.due_at <= ?`,
		tenantID, model.TransactionReserved, cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.TenantID, &t.EventID, &t.CustomerID, &t.Status, &t.Subtotal, &t.Tax, &t.Total, &t.Currency, &t.PaymentMethod, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// MarkScheduleTx records an installment as paid.
func (r *TransactionRepo) MarkScheduleTx(ctx context.Context, tx *sql.Tx, tenantID uuid.UUID, id uint64, paidAt time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE payment_schedules SET paid_at = ? WHERE tenant_id = ? AND id = ?`, paidAt, tenantID, id,
	)
	return err
}
