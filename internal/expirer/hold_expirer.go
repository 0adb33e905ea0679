// Package expirer runs the two periodic, tenant-scoped jobs that keep
// inventory honest without a request ever having asked: the hold expirer
// sweeps lapsed holds back to available every tick, and the reservation
// sweeper (reservation_sweeper.go) releases partial-payment reservations
// that missed their payment deadline.
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
	"github.com/iliyamo/ticketing-core/internal/inventory"
	"github.com/iliyamo/ticketing-core/internal/model"
)

// TenantLister supplies the set of tenants a worker iterates per tick.
// internal/repository.TenantRepo already exposes this for the HTTP side;
// workers reuse it rather than maintaining their own tenant list.
type TenantLister interface {
	ListActive(ctx context.Context) ([]model.Tenant, error)
}

// HoldExpirer ticks every Interval, moving active holds with a lapsed
// expires_at to expired and returning their seats to available.
type HoldExpirer struct {
	DB        *sql.DB
	Inventory *inventory.Manager
	Tenants   TenantLister
	Interval  time.Duration

	lastTick atomic.Int64 // unix seconds of the last completed tick
}

func NewHoldExpirer(db *sql.DB, inv *inventory.Manager, tenants TenantLister) *HoldExpirer {
	return &HoldExpirer{DB: db, Inventory: inv, Tenants: tenants, Interval: 60 * time.Second}
}

// Run blocks, ticking until ctx is cancelled.
func (e *HoldExpirer) Run(ctx context.Context) {
	interval := e.Interval
	if interval <= 0 {
		interval = 60 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.tick(ctx); err != nil {
				log.Printf("hold expirer: tick failed: %v", err)
			}
			e.lastTick.Store(time.Now().Unix())
		}
	}
}

// Healthy reports whether a tick has completed within the last minute,
// the liveness contract the /healthz probe checks.
func (e *HoldExpirer) Healthy() bool {
	last := e.lastTick.Load()
	if last == 0 {
		return false
	}
	return time.Now().Unix()-last <= int64(time.Minute/time.Second)
}

func (e *HoldExpirer) tick(ctx context.Context) error {
	tenants, err := e.Tenants.ListActive(ctx)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "list active tenants", err)
	}
	for _, t := range tenants {
		if err := e.expireOne(ctx, t.ID); err != nil {
			log.Printf("hold expirer: tenant %s: %v", t.ID, err)
		}
	}
	return nil
}

func (e *HoldExpirer) expireOne(ctx context.Context, tenantID uuid.UUID) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "begin tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	freedSeats, expiredGAHolds, err := e.Inventory.ExpireDueTx(ctx, tx, tenantID)
	if err != nil {
		return err
	}

	var entryLog audit.Log
	for _, seatID := range freedSeats {
		if err := entryLog.Append(ctx, tx, model.AuditEntry{
			TenantID:   tenantID,
			Action:     "hold.expired",
			ObjectType: "seat",
			ObjectID:   strconv.FormatUint(seatID, 10),
		}); err != nil {
			return err
		}
	}
	for _, holdID := range expiredGAHolds {
		if err := entryLog.Append(ctx, tx, model.AuditEntry{
			TenantID:   tenantID,
			Action:     "hold.expired",
			ObjectType: "hold",
			ObjectID:   holdID.String(),
		}); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.Internal, "commit expiry", err)
	}
	committed = true
	return nil
}
