// Package inventory implements the seat/general-admission hold state
// machine: available -> held -> {reserved, available}, held -> sold,
// reserved -> {sold, available}, sold -> refunded, plus the static
// blocked state. General-admission availability is never cached: it is
// always recomputed as capacity - sold - sum(active holds' quantity)
// instead of trusting a counter column, the same way show_seats status
// is recomputed from seat_holds rather than cached.
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/ticketing-core/internal/apperr"
	"github.com/iliyamo/ticketing-core/internal/model"
)

var (
	ErrSeatUnavailable = errors.New("seat unavailable")
	ErrCapacityExceeded = errors.New("zone capacity exceeded")
	ErrHoldNotFound     = errors.New("hold not found")
	ErrHoldExpired      = errors.New("hold expired")
)

// HoldRequest describes one hold attempt: either a specific SeatID
// (numbered zone), or a Quantity against a general-admission zone.
type HoldRequest struct {
	ZoneID   uint64
	SeatID   *uint64
	Quantity int
	Owner    string
	Scope    model.HoldScope
	TTL      time.Duration
}

// Manager is the hold state machine, backed by one *sql.DB. Every mutating
// method opens its own *sql.Tx and locks the rows it touches with
// SELECT ... FOR UPDATE, the way HoldSeats/ConfirmSeats lock show_seats.
type Manager struct {
	DB *sql.DB
}

func New(db *sql.DB) *Manager { return &Manager{DB: db} }

// Hold places a soft reservation against a numbered seat or a quantity of
// general-admission capacity. On success the returned Hold's ID is the
// opaque token callers present to Release/Extend/Consume.
func (m *Manager) Hold(ctx context.Context, tenantID uuid.UUID, req HoldRequest) (model.Hold, error) {
	if req.TTL <= 0 {
		req.TTL = 10 * time.Minute
	}
	tx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Hold{}, apperr.Wrap(apperr.Internal, "begin tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var h model.Hold
	if req.SeatID != nil {
		h, err = m.holdSeat(ctx, tx, tenantID, req)
	} else {
		h, err = m.holdGeneral(ctx, tx, tenantID, req)
	}
	if err != nil {
		return model.Hold{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Hold{}, apperr.Wrap(apperr.Internal, "commit hold", err)
	}
	committed = true
	return h, nil
}

// HoldOffline is Hold with HoldScope fixed to offline. The scope is only
// recorded on the hold row; Consume, Release and expiry treat an offline
// hold exactly like a cart hold.
func (m *Manager) HoldOffline(ctx context.Context, tenantID uuid.UUID, req HoldRequest) (model.Hold, error) {
	req.Scope = model.HoldScopeOffline
	return m.Hold(ctx, tenantID, req)
}

func (m *Manager) holdSeat(ctx context.Context, tx *sql.Tx, tenantID uuid.UUID, req HoldRequest) (model.Hold, error) {
	var state model.SeatState
	err := tx.QueryRowContext(ctx,
		`SELECT state FROM seats WHERE tenant_id = ? AND id = ? FOR UPDATE`,
		tenantID, *req.SeatID,
	).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Hold{}, apperr.New(apperr.NotFound, "seat not found")
	}
	if err != nil {
		return model.Hold{}, apperr.Wrap(apperr.Internal, "lock seat", err)
	}
	if state != model.SeatAvailable {
		return model.Hold{}, apperr.Wrap(apperr.Conflict, "seat unavailable", ErrSeatUnavailable)
	}

	h := model.Hold{
		ID:        uuid.New(),
		TenantID:  tenantID,
		ZoneID:    req.ZoneID,
		SeatID:    req.SeatID,
		Quantity:  1,
		Owner:     req.Owner,
		Scope:     req.Scope,
		State:     model.HoldActive,
		ExpiresAt: time.Now().UTC().Add(req.TTL),
	}
	if h.Scope == "" {
		h.Scope = model.HoldScopeCart
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO holds (id, tenant_id, zone_id, seat_id, quantity, owner, scope, state, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.TenantID, h.ZoneID, h.SeatID, h.Quantity, h.Owner, h.Scope, h.State, h.ExpiresAt,
	); err != nil {
		return model.Hold{}, apperr.Wrap(apperr.Internal, "insert hold", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE seats SET state = ?, updated_at = CURRENT_TIMESTAMP WHERE tenant_id = ? AND id = ?`,
		model.SeatHeld, tenantID, *req.SeatID,
	); err != nil {
		return model.Hold{}, apperr.Wrap(apperr.Internal, "mark seat held", err)
	}
	return h, nil
}

// holdGeneral locks the zone row itself (not individual seats; there are
// none) so concurrent holds against the same GA pool serialize, then
// recomputes availability fresh before accepting the request.
func (m *Manager) holdGeneral(ctx context.Context, tx *sql.Tx, tenantID uuid.UUID, req HoldRequest) (model.Hold, error) {
	if req.Quantity <= 0 {
		return model.Hold{}, apperr.New(apperr.Validation, "quantity must be positive")
	}
	var capacity int
	if err := tx.QueryRowContext(ctx,
		`SELECT capacity FROM zones WHERE tenant_id = ? AND id = ? FOR UPDATE`,
		tenantID, req.ZoneID,
	).Scan(&capacity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Hold{}, apperr.New(apperr.NotFound, "zone not found")
		}
		return model.Hold{}, apperr.Wrap(apperr.Internal, "lock zone", err)
	}

	used, err := m.usedCapacityTx(ctx, tx, tenantID, req.ZoneID)
	if err != nil {
		return model.Hold{}, err
	}
	if used+req.Quantity > capacity {
		return model.Hold{}, apperr.Wrap(apperr.Conflict, "insufficient capacity", ErrCapacityExceeded)
	}

	h := model.Hold{
		ID:        uuid.New(),
		TenantID:  tenantID,
		ZoneID:    req.ZoneID,
		SeatID:    nil,
		Quantity:  req.Quantity,
		Owner:     req.Owner,
		Scope:     req.Scope,
		State:     model.HoldActive,
		ExpiresAt: time.Now().UTC().Add(req.TTL),
	}
	if h.Scope == "" {
		h.Scope = model.HoldScopeCart
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO holds (id, tenant_id, zone_id, seat_id, quantity, owner, scope, state, expires_at)
		 VALUES (?, ?, ?, NULL, ?, ?, ?, ?, ?)`,
		h.ID, h.TenantID, h.ZoneID, h.Quantity, h.Owner, h.Scope, h.State, h.ExpiresAt,
	); err != nil {
		return model.Hold{}, apperr.Wrap(apperr.Internal, "insert hold", err)
	}
	return h, nil
}

// usedCapacityTx sums sold seats/units plus active hold quantities for a
// GA zone, run inside the caller's transaction so the zone-row lock it
// already holds prevents a concurrent writer from changing the answer.
func (m *Manager) usedCapacityTx(ctx context.Context, tx *sql.Tx, tenantID uuid.UUID, zoneID uint64) (int, error) {
	var sold int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seats WHERE tenant_id = ? AND zone_id = ? AND state = 'sold'`,
		tenantID, zoneID,
	).Scan(&sold); err != nil {
		return 0, apperr.Wrap(apperr.Internal, "count sold", err)
	}
	var held sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM holds
		 WHERE tenant_id = ? AND zone_id = ? AND seat_id IS NULL AND state = 'active' AND expires_at > UTC_TIMESTAMP()`,
		tenantID, zoneID,
	).Scan(&held); err != nil {
		return 0, apperr.Wrap(apperr.Internal, "sum active holds", err)
	}
	return sold + int(held.Int64), nil
}

// AvailableGeneral reports the currently available GA units for a zone,
// derived fresh, never from a cached counter.
func (m *Manager) AvailableGeneral(ctx context.Context, tenantID uuid.UUID, zoneID uint64) (int, error) {
	var capacity int
	if err := m.DB.QueryRowContext(ctx,
		`SELECT capacity FROM zones WHERE tenant_id = ? AND id = ?`, tenantID, zoneID,
	).Scan(&capacity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperr.New(apperr.NotFound, "zone not found")
		}
		return 0, apperr.Wrap(apperr.Internal, "read zone", err)
	}
	var sold int
	if err := m.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seats WHERE tenant_id = ? AND zone_id = ? AND state = 'sold'`,
		tenantID, zoneID,
	).Scan(&sold); err != nil {
		return 0, apperr.Wrap(apperr.Internal, "count sold", err)
	}
	var held sql.NullInt64
	if err := m.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM holds
		 WHERE tenant_id = ? AND zone_id = ? AND seat_id IS NULL AND state = 'active' AND expires_at > UTC_TIMESTAMP()`,
		tenantID, zoneID,
	).Scan(&held); err != nil {
		return 0, apperr.Wrap(apperr.Internal, "sum active holds", err)
	}
	return capacity - sold - int(held.Int64), nil
}

// Release moves an active hold to released and returns its capacity: a
// held seat goes back to available, a GA hold's quantity simply stops
// counting against usedCapacityTx on its next read.
func (m *Manager) Release(ctx context.Context, tenantID uuid.UUID, token uuid.UUID) error {
	tx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "begin tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	h, err := m.lockHoldTx(ctx, tx, tenantID, token)
	if err != nil {
		return err
	}
	if h.State != model.HoldActive {
		return apperr.New(apperr.Conflict, "hold is not active")
	}
	if err := m.setHoldStateTx(ctx, tx, tenantID, token, model.HoldReleased); err != nil {
		return err
	}
	if h.SeatID != nil {
		if _, err := tx.ExecContext(ctx,
			`UPDATE seats SET state = ?, updated_at = CURRENT_TIMESTAMP WHERE tenant_id = ? AND id = ? AND state = ?`,
			model.SeatAvailable, tenantID, *h.SeatID, model.SeatHeld,
		); err != nil {
			return apperr.Wrap(apperr.Internal, "release seat", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.Internal, "commit release", err)
	}
	committed = true
	return nil
}

// Extend pushes a hold's expiry forward by ttl from now, refusing to
// extend a hold that has already expired or settled.
func (m *Manager) Extend(ctx context.Context, tenantID uuid.UUID, token uuid.UUID, ttl time.Duration) error {
	tx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "begin tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	h, err := m.lockHoldTx(ctx, tx, tenantID, token)
	if err != nil {
		return err
	}
	if h.State != model.HoldActive {
		return apperr.New(apperr.Conflict, "hold is not active")
	}
	if time.Now().UTC().After(h.ExpiresAt) {
		return apperr.Wrap(apperr.Conflict, "hold expired", ErrHoldExpired)
	}
	newExpiry := time.Now().UTC().Add(ttl)
	if _, err := tx.ExecContext(ctx,
		`UPDATE holds SET expires_at = ? WHERE tenant_id = ? AND id = ?`, newExpiry, tenantID, token,
	); err != nil {
		return apperr.Wrap(apperr.Internal, "extend hold", err)
	}
	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.Internal, "commit extend", err)
	}
	committed = true
	return nil
}

// Consume settles a hold into sold state as part of an enclosing checkout
// transaction. It re-locks and re-validates expiry under the same row
// lock used by Hold, the way ConfirmSeats re-validates seat state before
// committing a reservation.
func (m *Manager) Consume(ctx context.Context, tx *sql.Tx, tenantID uuid.UUID, token uuid.UUID, transactionID uint64) error {
	h, err := m.lockHoldTx(ctx, tx, tenantID, token)
	if err != nil {
		return err
	}
	if h.State != model.HoldActive {
		return apperr.New(apperr.Conflict, "hold is not active")
	}
	if time.Now().UTC().After(h.ExpiresAt) {
		return apperr.Wrap(apperr.Conflict, "hold expired", ErrHoldExpired)
	}
	if err := m.setHoldStateTx(ctx, tx, tenantID, token, model.HoldConsumed); err != nil {
		return err
	}
	if h.SeatID != nil {
		res, err := tx.ExecContext(ctx,
			`UPDATE seats SET state = ?, updated_at = CURRENT_TIMESTAMP WHERE tenant_id = ? AND id = ? AND state IN (?, ?)`,
			model.SeatSold, tenantID, *h.SeatID, model.SeatHeld, model.SeatReserved,
		)
		if err != nil {
			return apperr.Wrap(apperr.Internal, "mark seat sold", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return apperr.New(apperr.Conflict, "seat is not held or reserved")
		}
	}
	return nil
}

func (m *Manager) lockHoldTx(ctx context.Context, tx *sql.Tx, tenantID uuid.UUID, token uuid.UUID) (model.Hold, error) {
	var h model.Hold
	err := tx.QueryRowContext(ctx,
		`SELECT id, tenant_id, zone_id, seat_id, quantity, owner, scope, state, expires_at, created_at
		 FROM holds WHERE tenant_id = ? AND id = ? FOR UPDATE`,
		tenantID, token,
	).Scan(&h.ID, &h.TenantID, &h.ZoneID, &h.SeatID, &h.Quantity, &h.Owner, &h.Scope, &h.State, &h.ExpiresAt, &h.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Hold{}, apperr.Wrap(apperr.NotFound, "hold not found", ErrHoldNotFound)
	}
	if err != nil {
		return model.Hold{}, apperr.Wrap(apperr.Internal, "lock hold", err)
	}
	return h, nil
}

func (m *Manager) setHoldStateTx(ctx context.Context, tx *sql.Tx, tenantID uuid.UUID, token uuid.UUID, state model.HoldState) error {
	_, err := tx.ExecContext(ctx, `UPDATE holds SET state = ? WHERE tenant_id = ? AND id = ?`, state, tenantID, token)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "update hold state", err)
	}
	return nil
}

// ExpireDueTx is used by internal/expirer: it moves every hold past its
// expires_at for one tenant from active to expired, returning the freed
// numbered-seat IDs and the expired general-admission hold IDs so the
// caller can flip seats back to available and audit every expired hold,
// numbered or general-admission, in the same tx.
func (m *Manager) ExpireDueTx(ctx context.Context, tx *sql.Tx, tenantID uuid.UUID) ([]uint64, []uuid.UUID, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, seat_id FROM holds
		 WHERE tenant_id = ? AND state = 'active' AND expires_at <= UTC_TIMESTAMP()
		 FOR UPDATE`,
		tenantID,
	)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.Internal, "select expiring holds", err)
	}
	var seatIDs []uint64
	var gaHoldIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		var seatID *uint64
		if err := rows.Scan(&id, &seatID); err != nil {
			rows.Close()
			return nil, nil, apperr.Wrap(apperr.Internal, "scan expiring hold", err)
		}
		if seatID != nil {
			seatIDs = append(seatIDs, *seatID)
		} else {
			gaHoldIDs = append(gaHoldIDs, id)
		}
	}
	if err := rows.Close(); err != nil {
		return nil, nil, apperr.Wrap(apperr.Internal, "close rows", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE holds SET state = 'expired'
		 WHERE tenant_id = ? AND state = 'active' AND expires_at <= UTC_TIMESTAMP()`,
		tenantID,
	); err != nil {
		return nil, nil, apperr.Wrap(apperr.Internal, "expire holds", err)
	}
	if len(seatIDs) == 0 {
		return seatIDs, gaHoldIDs, nil
	}
	placeholders := make([]byte, 0, len(seatIDs)*2)
	args := make([]any, 0, len(seatIDs)+2)
	args = append(args, model.SeatAvailable, tenantID)
	for i, id := range seatIDs {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args = append(args, id)
	}
	query := `UPDATE seats SET state = ?, updated_at = CURRENT_TIMESTAMP WHERE tenant_id = ? AND id IN (` + string(placeholders) + `) AND state = 'held'`
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, nil, apperr.Wrap(apperr.Internal, "free expired seats", err)
	}
	return seatIDs, gaHoldIDs, nil
}
