package checkout

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/ticketing-core/internal/apperr"
	"github.com/iliyamo/ticketing-core/internal/audit"
	"github.com/iliyamo/ticketing-core/internal/fiscal"
	"github.com/iliyamo/ticketing-core/internal/model"
)

// Schedule describes a partial-payment plan: each installment's due date
// and amount. The caller is responsible for ensuring the amounts sum to
// the transaction total.
type Schedule []model.PaymentSchedule

// Reserve creates the pending transaction and quotes every line like
// Checkout, but computes no tax and, instead of charging immediately,
// converts the cart's holds into the long-lived `reserved` seat state and
// records a payment schedule, the recovered installment path. Tax is
// computed when the final installment's settlement re-enters the fiscal
// branch via SettleInstallment.
func (co *Checkout) Reserve(ctx context.Context, cart *Cart, tenantID uuid.UUID, req Request, schedule Schedule) (model.Transaction, error) {
	lines := cart.Lines(req.SessionID)
	if len(lines) == 0 {
		return model.Transaction{}, apperr.Wrap(apperr.Validation, "cart empty", ErrCartEmpty)
	}
	now := time.Now().UTC()

	txn := model.Transaction{
		TenantID:      tenantID,
		EventID:       req.EventID,
		CustomerID:    req.CustomerID,
		Currency:      req.Currency,
		PaymentMethod: req.PaymentMethod,
	}

	tx, err := co.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Transaction{}, apperr.Wrap(apperr.Internal, "begin tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := co.Transactions.CreatePendingTx(ctx, tx, &txn); err != nil {
		return model.Transaction{}, apperr.Wrap(apperr.Internal, "create pending transaction", err)
	}

	var finalDue time.Time
	for _, p := range schedule {
		if p.DueAt.After(finalDue) {
			finalDue = p.DueAt
		}
	}
	extendedExpiry := finalDue.Add(24 * time.Hour)

	subtotal := decimal.Zero
	for _, h := range lines {
		var row *string
		if h.SeatID != nil {
			seat, err := co.Seats.GetByID(ctx, tenantID, *h.SeatID)
			if err != nil {
				return model.Transaction{}, err
			}
			row = &seat.Row
		}
		quote, err := co.Pricing.Resolve(ctx, tenantID, h.ZoneID, row, now)
		if err != nil {
			return model.Transaction{}, err
		}
		lineTotal := quote.UnitPrice.Mul(decimal.NewFromInt(int64(h.Quantity)))
		item := model.TransactionItem{
			TenantID: tenantID, TransactionID: txn.ID, ZoneID: h.ZoneID, SeatID: h.SeatID,
			UnitPrice: quote.UnitPrice, Quantity: h.Quantity, TotalPrice: lineTotal,
		}
		if err := co.Transactions.CreateItemTx(ctx, tx, &item); err != nil {
			return model.Transaction{}, apperr.Wrap(apperr.Internal, "create transaction item", err)
		}
		subtotal = subtotal.Add(lineTotal)

		if h.SeatID != nil {
			if _, err := tx.ExecContext(ctx,
				`UPDATE seats SET state = ?, updated_at = CURRENT_TIMESTAMP WHERE tenant_id = ? AND id = ? AND state = ?`,
				model.SeatReserved, tenantID, *h.SeatID, model.SeatHeld,
			); err != nil {
				return model.Transaction{}, apperr.Wrap(apperr.Internal, "mark seat reserved", err)
			}
		}
		if !extendedExpiry.IsZero() {
			if _, err := tx.ExecContext(ctx,
				`UPDATE holds SET expires_at = ? WHERE tenant_id = ? AND id = ?`,
				extendedExpiry, tenantID, h.ID,
			); err != nil {
				return model.Transaction{}, apperr.Wrap(apperr.Internal, "extend hold for installment plan", err)
			}
		}
	}

	if err := co.Transactions.MarkStatusTx(ctx, tx, tenantID, txn.ID, model.TransactionReserved); err != nil {
		return model.Transaction{}, apperr.Wrap(apperr.Internal, "mark transaction reserved", err)
	}
	for i := range schedule {
		schedule[i].TenantID = tenantID
		schedule[i].TransactionID = txn.ID
		if err := co.Transactions.CreateScheduleTx(ctx, tx, &schedule[i]); err != nil {
			return model.Transaction{}, apperr.Wrap(apperr.Internal, "create payment schedule", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return model.Transaction{}, apperr.Wrap(apperr.Internal, "commit reservation", err)
	}
	committed = true
	cart.clear(req.SessionID)

	txn.Status = model.TransactionReserved
	txn.Subtotal = subtotal
	return txn, nil
}

// SettleInstallment pays down one PaymentSchedule row; once every
// installment is paid it runs the fiscal branch (allocate series, mark
// completed, consume holds, issue tickets, audit) the same way a
// full-payment Checkout does on a successful charge.
func (co *Checkout) SettleInstallment(ctx context.Context, tenantID uuid.UUID, txn model.Transaction, scheduleID uint64, req Request, holdTokens []uuid.UUID) (Outcome, error) {
	schedules, err := co.Transactions.SchedulesByTransaction(ctx, tenantID, txn.ID)
	if err != nil {
		return Outcome{}, apperr.Wrap(apperr.Internal, "load payment schedules", err)
	}

	tx, err := co.DB.BeginTx(ctx, nil)
	if err != nil {
		return Outcome{}, apperr.Wrap(apperr.Internal, "begin tx", err)
	}
	now := time.Now().UTC()
	if err := co.Transactions.MarkScheduleTx(ctx, tx, tenantID, scheduleID, now); err != nil {
		_ = tx.Rollback()
		return Outcome{}, apperr.Wrap(apperr.Internal, "mark installment paid", err)
	}
	if err := tx.Commit(); err != nil {
		return Outcome{}, apperr.Wrap(apperr.Internal, "commit installment", err)
	}

	allPaid := true
	for _, s := range schedules {
		if s.ID == scheduleID {
			continue
		}
		if s.PaidAt == nil {
			allPaid = false
			break
		}
	}
	if !allPaid {
		return Outcome{Transaction: txn}, nil
	}

	items, err := co.Transactions.ItemsByTransaction(ctx, tenantID, txn.ID)
	if err != nil {
		return Outcome{}, apperr.Wrap(apperr.Internal, "load transaction items", err)
	}

	settleTx, err := co.DB.BeginTx(ctx, nil)
	if err != nil {
		return Outcome{}, apperr.Wrap(apperr.Internal, "begin settlement tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = settleTx.Rollback()
		}
	}()

	canSell, err := co.Days.CanProcessSales(ctx, tenantID, req.UserID)
	if err != nil {
		return Outcome{}, err
	}
	if !canSell {
		return Outcome{}, apperr.Wrap(apperr.AccessDenied, "fiscal day closed", ErrDayClosed)
	}

	var series fiscal.SeriesAllocator
	fs, err := series.Next(ctx, settleTx, tenantID, txn.ID, req.UserID)
	if err != nil {
		return Outcome{}, err
	}
	if err := co.Transactions.MarkStatusTx(ctx, settleTx, tenantID, txn.ID, model.TransactionCompleted); err != nil {
		return Outcome{}, apperr.Wrap(apperr.Internal, "mark transaction completed", err)
	}
	for _, token := range holdTokens {
		if err := co.Inventory.Consume(ctx, settleTx, tenantID, token, txn.ID); err != nil {
			return Outcome{}, err
		}
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.TotalPrice)
	}
	configs, err := co.TaxConfigs.ActiveForEvent(ctx, tenantID, req.EventID)
	if err != nil {
		return Outcome{}, err
	}
	var taxEngine fiscal.TaxEngine
	taxTotal, err := taxEngine.CalculateAndRecord(ctx, settleTx, tenantID, txn.ID, configs, subtotal)
	if err != nil {
		return Outcome{}, err
	}
	total := subtotal.Add(taxTotal)
	if err := co.Transactions.SetTotalsTx(ctx, settleTx, tenantID, txn.ID, subtotal, taxTotal, total); err != nil {
		return Outcome{}, apperr.Wrap(apperr.Internal, "set transaction totals", err)
	}

	validFrom := now
	validDuration := co.ValidDuration
	if validDuration <= 0 {
		validDuration = 24 * time.Hour
	}
	validUntil := validFrom.Add(validDuration)
	maxUsage := co.MaxUsage
	if maxUsage == 0 {
		maxUsage = 1
	}
	var tickets []model.DigitalTicket
	for idx, item := range items {
		issued, err := co.TicketIssuer.IssueForItem(ctx, settleTx, tenantID, item, req.EventID, req.CustomerID, idx+1, fs.SeriesNumber, validFrom, validUntil, maxUsage)
		if err != nil {
			return Outcome{}, err
		}
		tickets = append(tickets, issued...)
	}

	var log audit.Log
	if err := log.Append(ctx, settleTx, model.AuditEntry{
		TenantID:     tenantID,
		UserID:       &req.UserID,
		Action:       "checkout.completed",
		ObjectType:   "transaction",
		ObjectID:     strconv.FormatUint(txn.ID, 10),
		FiscalSeries: &fs.ID,
		NewValue:     total.String(),
	}); err != nil {
		return Outcome{}, err
	}

	if err := settleTx.Commit(); err != nil {
		return Outcome{}, apperr.Wrap(apperr.Internal, "commit settlement", err)
	}
	committed = true

	txn.Status = model.TransactionCompleted
	txn.Subtotal, txn.Tax, txn.Total = subtotal, taxTotal, total
	publishIssuedTickets(ctx, tenantID, txn.ID, req.CustomerID, tickets)
	return Outcome{Transaction: txn, Tickets: tickets}, nil
}
