package expirer

import (
	"context"
	"database/sql"
	"log"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/ticketing-core/internal/apperr"
	"github.com/iliyamo/ticketing-core/internal/audit"
	"github.com/iliyamo/ticketing-core/internal/model"
	"github.com/iliyamo/ticketing-core/internal/notification"
	"github.com/iliyamo/ticketing-core/internal/repository"
)

// ReservationSweeper releases partial-payment (reserved) transactions
// that missed an installment's due date: seats held in the reserved
// state return to available, the holds backing them are marked expired, the
// transaction is marked cancelled, and an overdue-payment notification
// is enqueued. Recovered from original_source's sales app, which expires
// apartado orders the same way.
type ReservationSweeper struct {
	DB           *sql.DB
	Transactions *repository.TransactionRepo
	Outbox       *notification.Outbox
	Tenants      TenantLister
	// Grace is how long past an installment's due date a reservation is
	// left alone before being released; defaults to 24h.
	Grace    time.Duration
	Interval time.Duration

	lastTick atomic.Int64
}

func NewReservationSweeper(db *sql.DB, transactions *repository.TransactionRepo, outbox *notification.Outbox, tenants TenantLister) *ReservationSweeper {
	return &ReservationSweeper{
		DB:           db,
		Transactions: transactions,
		Outbox:       outbox,
		Tenants:      tenants,
		Grace:        24 * time.Hour,
		Interval:     time.Minute,
	}
}

// Run blocks, ticking until ctx is cancelled.
func (s *ReservationSweeper) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.tick(ctx); err != nil {
				log.Printf("reservation sweeper: tick failed: %v", err)
			}
			s.lastTick.Store(time.Now().Unix())
		}
	}
}

// Healthy mirrors HoldExpirer.Healthy: true if a tick completed within
// the last minute.
func (s *ReservationSweeper) Healthy() bool {
	last := s.lastTick.Load()
	if last == 0 {
		return false
	}
	return time.Now().Unix()-last <= int64(time.Minute/time.Second)
}

func (s *ReservationSweeper) grace() time.Duration {
	if s.Grace <= 0 {
		return 24 * time.Hour
	}
	return s.Grace
}

func (s *ReservationSweeper) tick(ctx context.Context) error {
	tenants, err := s.Tenants.ListActive(ctx)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "list active tenants", err)
	}
	for _, t := range tenants {
		if err := s.sweepTenant(ctx, t.ID); err != nil {
			log.Printf("reservation sweeper: tenant %s: %v", t.ID, err)
		}
	}
	return nil
}

func (s *ReservationSweeper) sweepTenant(ctx context.Context, tenantID uuid.UUID) error {
	cutoff := time.Now().UTC().Add(-s.grace())
	overdue, err := s.Transactions.OverdueReserved(ctx, tenantID, cutoff)
	if err != nil {
		return err
	}
	for _, txn := range overdue {
		if err := s.release(ctx, tenantID, txn); err != nil {
			log.Printf("reservation sweeper: transaction %d: %v", txn.ID, err)
		}
	}
	return nil
}

func (s *ReservationSweeper) release(ctx context.Context, tenantID uuid.UUID, txn model.Transaction) error {
	items, err := s.Transactions.ItemsByTransaction(ctx, tenantID, txn.ID)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "load transaction items", err)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "begin tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for _, it := range items {
		if it.SeatID != nil {
			if _, err := tx.ExecContext(ctx,
				`UPDATE seats SET state = ?, updated_at = CURRENT_TIMESTAMP WHERE tenant_id = ? AND id = ? AND state = ?`,
				model.SeatAvailable, tenantID, *it.SeatID, model.SeatReserved,
			); err != nil {
				return apperr.Wrap(apperr.Internal, "release reserved seat", err)
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE holds SET state = ? WHERE tenant_id = ? AND seat_id = ? AND state = ?`,
				model.HoldExpired, tenantID, *it.SeatID, model.HoldActive,
			); err != nil {
				return apperr.Wrap(apperr.Internal, "expire reservation hold", err)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE holds SET state = ? WHERE tenant_id = ? AND zone_id = ? AND quantity = ? AND state = ? ORDER BY created_at LIMIT 1`,
			model.HoldExpired, tenantID, it.ZoneID, it.Quantity, model.HoldActive,
		); err != nil {
			return apperr.Wrap(apperr.Internal, "expire reservation hold", err)
		}
	}

	if err := s.Transactions.MarkStatusTx(ctx, tx, tenantID, txn.ID, model.TransactionCancelled); err != nil {
		return apperr.Wrap(apperr.Internal, "cancel overdue reservation", err)
	}

	var entryLog audit.Log
	if err := entryLog.Append(ctx, tx, model.AuditEntry{
		TenantID:    tenantID,
		Action:      "reservation.released",
		ObjectType:  "transaction",
		ObjectID:    strconv.FormatUint(txn.ID, 10),
		Description: "installment payment overdue",
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.Internal, "commit reservation release", err)
	}
	committed = true

	if s.Outbox != nil {
		_, _ = s.Outbox.Enqueue(ctx, model.OutboxEntry{
			TenantID:   tenantID,
			CustomerID: txn.CustomerID,
			Channel:    "email",
			Subject:    "Your reservation was released",
			Body:       "The installment plan for transaction " + strconv.FormatUint(txn.ID, 10) + " missed its payment deadline and the held seats have been released.",
		})
	}
	return nil
}
