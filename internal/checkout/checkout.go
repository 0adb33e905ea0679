package checkout

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/ticketing-core/internal/apperr"
	"github.com/iliyamo/ticketing-core/internal/audit"
	"github.com/iliyamo/ticketing-core/internal/fiscal"
	"github.com/iliyamo/ticketing-core/internal/inventory"
	"github.com/iliyamo/ticketing-core/internal/model"
	"github.com/iliyamo/ticketing-core/internal/pricing"
	"github.com/iliyamo/ticketing-core/internal/queue"
	"github.com/iliyamo/ticketing-core/internal/repository"
	qp "github.com/iliyamo/ticketing-core/internal/service"
	"github.com/iliyamo/ticketing-core/internal/ticket"
)

var (
	ErrHoldNoLongerActive = errors.New("a cart hold is no longer active")
	ErrDayClosed          = errors.New("fiscal day is closed for this user")
)

// Checkout wires together inventory, pricing, fiscal and ticketing to run
// the cart-to-transaction settlement sequence.
type Checkout struct {
	DB           *sql.DB
	Inventory    *inventory.Manager
	Pricing      *pricing.Resolver
	Seats        *repository.SeatRepo
	TaxConfigs   *repository.TaxConfigRepo
	Transactions *repository.TransactionRepo
	Days         *fiscal.DayManager
	TicketIssuer *ticket.Issuer
	ValidDuration time.Duration // ticket validity window length; defaults to 24h when zero
	MaxUsage     int            // defaults to 1 (single-entry) when zero
}

func New(db *sql.DB, inv *inventory.Manager, pr *pricing.Resolver, seats *repository.SeatRepo, taxConfigs *repository.TaxConfigRepo, txRepo *repository.TransactionRepo, days *fiscal.DayManager, issuer *ticket.Issuer) *Checkout {
	return &Checkout{
		DB: db, Inventory: inv, Pricing: pr, Seats: seats, TaxConfigs: taxConfigs,
		Transactions: txRepo, Days: days, TicketIssuer: issuer,
	}
}

// Request carries the information a checkout call needs beyond the cart's
// own hold lines.
type Request struct {
	SessionID     string
	EventID       uint64
	CustomerID    uint64
	UserID        uint64
	Currency      string
	PaymentMethod string
	Payer         PaymentProcessor
}

// Outcome is what a successful (or cleanly-cancelled) Checkout returns.
type Outcome struct {
	Transaction model.Transaction
	Tickets     []model.DigitalTicket
}

// Checkout runs spec step 1-4 for a full (non-installment) payment: quote
// every cart line, compute tax, call the payment collaborator, then on
// success settle everything in one database transaction.
func (co *Checkout) Checkout(ctx context.Context, cart *Cart, tenantID uuid.UUID, req Request) (Outcome, error) {
	lines := cart.Lines(req.SessionID)
	if len(lines) == 0 {
		return Outcome{}, apperr.Wrap(apperr.Validation, "cart empty", ErrCartEmpty)
	}

	now := time.Now().UTC()
	deadline, err := cart.TTL(req.SessionID)
	if err != nil {
		return Outcome{}, err
	}
	if now.After(deadline) {
		return Outcome{}, apperr.Wrap(apperr.Conflict, "cart hold expired before checkout", ErrHoldNoLongerActive)
	}

	txn := model.Transaction{
		TenantID:      tenantID,
		EventID:       req.EventID,
		CustomerID:    req.CustomerID,
		Currency:      req.Currency,
		PaymentMethod: req.PaymentMethod,
	}

	// Step 1+2: a pending transaction row, then one quoted item per line.
	beginTx, err := co.DB.BeginTx(ctx, nil)
	if err != nil {
		return Outcome{}, apperr.Wrap(apperr.Internal, "begin tx", err)
	}
	if err := co.Transactions.CreatePendingTx(ctx, beginTx, &txn); err != nil {
		_ = beginTx.Rollback()
		return Outcome{}, apperr.Wrap(apperr.Internal, "create pending transaction", err)
	}

	items := make([]model.TransactionItem, 0, len(lines))
	subtotal := decimal.Zero
	for _, h := range lines {
		var row *string
		if h.SeatID != nil {
			seat, err := co.Seats.GetByID(ctx, tenantID, *h.SeatID)
			if err != nil {
				_ = beginTx.Rollback()
				return Outcome{}, err
			}
			row = &seat.Row
		}
		quote, err := co.Pricing.Resolve(ctx, tenantID, h.ZoneID, row, now)
		if err != nil {
			_ = beginTx.Rollback()
			return Outcome{}, err
		}
		lineTotal := quote.UnitPrice.Mul(decimal.NewFromInt(int64(h.Quantity)))
		item := model.TransactionItem{
			TenantID:      tenantID,
			TransactionID: txn.ID,
			ZoneID:        h.ZoneID,
			SeatID:        h.SeatID,
			UnitPrice:     quote.UnitPrice,
			Quantity:      h.Quantity,
			TotalPrice:    lineTotal,
		}
		if err := co.Transactions.CreateItemTx(ctx, beginTx, &item); err != nil {
			_ = beginTx.Rollback()
			return Outcome{}, apperr.Wrap(apperr.Internal, "create transaction item", err)
		}
		items = append(items, item)
		subtotal = subtotal.Add(lineTotal)
	}
	if err := beginTx.Commit(); err != nil {
		return Outcome{}, apperr.Wrap(apperr.Internal, "commit quote phase", err)
	}

	// Step 3: tax on the subtotal, against this tenant+event's active configs.
	configs, err := co.TaxConfigs.ActiveForEvent(ctx, tenantID, req.EventID)
	if err != nil {
		return Outcome{}, err
	}
	taxEngine := fiscal.TaxEngine{}
	taxTotal := decimal.Zero
	for _, cfg := range configs {
		taxTotal = taxTotal.Add(taxEngine.Calculate(cfg, subtotal))
	}
	total := subtotal.Add(taxTotal)

	// Step 4: re-verify every hold is still active before calling out to
	// payment: the core must not charge for inventory it can no longer
	// guarantee.
	if time.Now().UTC().After(deadline) {
		co.cancelAndRelease(ctx, cart, tenantID, req.SessionID, lines, txn.ID)
		return Outcome{}, apperr.Wrap(apperr.Conflict, "cart hold expired before payment", ErrHoldNoLongerActive)
	}

	result, err := req.Payer.Charge(ctx, total, req.Currency, req.PaymentMethod, chargeReference(txn.ID))
	if err != nil || !result.Settled {
		co.cancelAndRelease(ctx, cart, tenantID, req.SessionID, lines, txn.ID)
		if err == nil {
			err = errors.New("payment not settled")
		}
		return Outcome{}, apperr.Wrap(apperr.Conflict, "payment declined", err)
	}

	// Fiscal branch: one DB transaction, serialized per tenant on the
	// FiscalCounter row via fiscal.SeriesAllocator.
	out, err := co.settle(ctx, tenantID, txn, items, subtotal, taxTotal, total, req, lines, configs)
	if err != nil {
		return Outcome{}, err
	}
	cart.clear(req.SessionID)
	return out, nil
}

func (co *Checkout) settle(ctx context.Context, tenantID uuid.UUID, txn model.Transaction, items []model.TransactionItem, subtotal, taxTotal, total decimal.Decimal, req Request, lines []model.Hold, taxConfigs []model.TaxConfig) (Outcome, error) {
	tx, err := co.DB.BeginTx(ctx, nil)
	if err != nil {
		return Outcome{}, apperr.Wrap(apperr.Internal, "begin settlement tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
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
	fs, err := series.Next(ctx, tx, tenantID, txn.ID, req.UserID)
	if err != nil {
		return Outcome{}, err
	}

	if err := co.Transactions.SetTotalsTx(ctx, tx, tenantID, txn.ID, subtotal, taxTotal, total); err != nil {
		return Outcome{}, apperr.Wrap(apperr.Internal, "set transaction totals", err)
	}
	if err := co.Transactions.MarkStatusTx(ctx, tx, tenantID, txn.ID, model.TransactionCompleted); err != nil {
		return Outcome{}, apperr.Wrap(apperr.Internal, "mark transaction completed", err)
	}

	var taxEngine fiscal.TaxEngine
	if _, err := taxEngine.CalculateAndRecord(ctx, tx, tenantID, txn.ID, taxConfigs, subtotal); err != nil {
		return Outcome{}, err
	}

	for _, h := range lines {
		if err := co.Inventory.Consume(ctx, tx, tenantID, h.ID, txn.ID); err != nil {
			return Outcome{}, err
		}
	}

	validFrom := time.Now().UTC()
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
		issued, err := co.TicketIssuer.IssueForItem(ctx, tx, tenantID, item, req.EventID, req.CustomerID, idx+1, fs.SeriesNumber, validFrom, validUntil, maxUsage)
		if err != nil {
			return Outcome{}, err
		}
		tickets = append(tickets, issued...)
	}

	var log audit.Log
	if err := log.Append(ctx, tx, model.AuditEntry{
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

	if err := tx.Commit(); err != nil {
		return Outcome{}, apperr.Wrap(apperr.Internal, "commit settlement", err)
	}
	committed = true

	txn.Status = model.TransactionCompleted
	txn.Subtotal, txn.Tax, txn.Total = subtotal, taxTotal, total
	publishIssuedTickets(ctx, tenantID, txn.ID, req.CustomerID, tickets)
	return Outcome{Transaction: txn, Tickets: tickets}, nil
}

// publishIssuedTickets fans settled tickets out to delivery-transport
// workers after commit. A publish failure only means a worker misses its
// wakeup; the digital_tickets rows already committed remain the source of
// truth, so this never turns into a caller-visible error.
func publishIssuedTickets(ctx context.Context, tenantID uuid.UUID, transactionID, customerID uint64, tickets []model.DigitalTicket) {
	for _, t := range tickets {
		_ = qp.PublishTicketIssued(ctx, queue.TicketIssuedEvent{
			TicketID:      t.ID.String(),
			TenantID:      tenantID.String(),
			TransactionID: transactionID,
			CustomerID:    customerID,
			TicketNumber:  t.TicketNumber,
			IssuedAt:      t.CreatedAt.Format(time.RFC3339),
		})
	}
}

// cancelAndRelease releases every hold in the cart and leaves the
// transaction row in cancelled for traceability, matching spec step 4's
// failure branch.
func (co *Checkout) cancelAndRelease(ctx context.Context, cart *Cart, tenantID uuid.UUID, sessionID string, lines []model.Hold, transactionID uint64) {
	for _, h := range lines {
		_ = co.Inventory.Release(ctx, tenantID, h.ID)
	}
	cart.clear(sessionID)
	tx, err := co.DB.BeginTx(ctx, nil)
	if err != nil {
		return
	}
	_ = co.Transactions.MarkStatusTx(ctx, tx, tenantID, transactionID, model.TransactionCancelled)
	_ = tx.Commit()
}

func chargeReference(transactionID uint64) string {
	return "txn-" + strconv.FormatUint(transactionID, 10)
}
