package ticket

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/ticketing-core/internal/apperr"
	"github.com/iliyamo/ticketing-core/internal/model"
)

const (
	replaySkew      = time.Minute
	eventGuardBefore = time.Hour
	eventGuardAfter  = 2 * time.Hour
	maxBulkValidate  = 100
)

var ErrTooManyIdentifiers = errors.New("bulk validate accepts at most 100 identifiers")

// Validator implements the six-step check: ticket lookup, authenticity
// (signed-payload match + 1-minute replay-skew guard), status, usage
// limit, validity window, and event-time guard, ported from
// original_source/apps/tickets/validation.py's _validate_authenticity /
// _validate_ticket_usage.
type Validator struct {
	DB     *sql.DB
	Sealer *Sealer
}

func NewValidator(db *sql.DB, sealer *Sealer) *Validator { return &Validator{DB: db, Sealer: sealer} }

// Result is the outcome of one Validate/BulkValidate call.
type Result struct {
	TicketID uuid.UUID
	Valid    bool
	Reason   string
}

// Validate runs the six-step sequence against a bare ticket number
// (Method "ticket_number"). ValidateSealed runs the same sequence but
// first authenticates a sealed QR payload against the stored ticket
// (Method "payload").
func (v *Validator) Validate(ctx context.Context, tenantID uuid.UUID, ticketNumber string, action model.ValidationAction, eventStart time.Time, checkEventTiming bool) (Result, error) {
	t, err := v.lookupByNumber(ctx, tenantID, ticketNumber)
	if err != nil {
		return Result{Valid: false, Reason: "ticket not found"}, nil
	}
	return v.validateAndUse(ctx, tenantID, t, action, eventStart, checkEventTiming, "ticket_number", nil)
}

// ValidateSealed authenticates a sealed QR payload: it must open under
// the deployment key, and its ticket_id must match a ticket whose own
// CreatedAt is within one minute of the payload's CreatedAt (replay-skew
// guard): a payload minted long ago for a different sealing event (key
// rotation, clock skew, or a captured-and-replayed QR code) is rejected
// here before any usage-state check runs.
func (v *Validator) ValidateSealed(ctx context.Context, tenantID uuid.UUID, sealed []byte, action model.ValidationAction, eventStart time.Time, checkEventTiming bool) (Result, error) {
	payload, err := v.Sealer.Open(sealed)
	if err != nil {
		return Result{Valid: false, Reason: "invalid or forged ticket payload"}, nil
	}
	t, err := v.lookupByID(ctx, tenantID, payload.TicketID)
	if err != nil {
		return Result{Valid: false, Reason: "ticket not found"}, nil
	}
	if diff := t.CreatedAt.Sub(payload.CreatedAt); diff > replaySkew || diff < -replaySkew {
		return v.fail(ctx, tenantID, t, "payload", action, "payload timestamp mismatch")
	}
	return v.validateAndUse(ctx, tenantID, t, action, eventStart, checkEventTiming, "payload", &payload)
}

// fail records a failed ValidationEvent (usage counters unchanged) and
// returns the matching Result, the failure-path counterpart to the
// successful recordEvent call in validateAndUse.
func (v *Validator) fail(ctx context.Context, tenantID uuid.UUID, t model.DigitalTicket, method string, action model.ValidationAction, reason string) (Result, error) {
	if err := v.recordEvent(ctx, tenantID, t.ID, false, method, action, t.UsageCount, t.UsageCount); err != nil {
		return Result{}, err
	}
	return Result{TicketID: t.ID, Valid: false, Reason: reason}, nil
}

func (v *Validator) validateAndUse(ctx context.Context, tenantID uuid.UUID, t model.DigitalTicket, action model.ValidationAction, eventStart time.Time, checkEventTiming bool, method string, payload *model.TicketPayload) (Result, error) {
	if payload != nil {
		if payload.ZoneID != t.ZoneID || (payload.SeatID == nil) != (t.SeatID == nil) {
			return v.fail(ctx, tenantID, t, method, action, "ticket identity mismatch")
		}
	}

	now := time.Now().UTC()
	if t.Status != model.TicketActive {
		return v.fail(ctx, tenantID, t, method, action, "ticket status is "+string(t.Status))
	}
	if now.Before(t.ValidFrom) {
		return v.fail(ctx, tenantID, t, method, action, "ticket not yet valid")
	}
	if now.After(t.ValidUntil) {
		return v.fail(ctx, tenantID, t, method, action, "ticket expired")
	}
	if t.UsageCount >= t.MaxUsage {
		return v.fail(ctx, tenantID, t, method, action, "usage limit exceeded")
	}
	if checkEventTiming && !eventStart.IsZero() {
		if now.Before(eventStart.Add(-eventGuardBefore)) {
			return v.fail(ctx, tenantID, t, method, action, "event has not started yet")
		}
		if now.After(eventStart.Add(eventGuardAfter)) {
			return v.fail(ctx, tenantID, t, method, action, "entry period has ended")
		}
	}

	if action == model.ActionCheckOut {
		if err := v.recordEvent(ctx, tenantID, t.ID, true, method, action, t.UsageCount, t.UsageCount); err != nil {
			return Result{}, err
		}
		return Result{TicketID: t.ID, Valid: true}, nil
	}

	newCount, err := v.incrementUsage(ctx, tenantID, t.ID, t.UsageCount)
	if err != nil {
		return Result{}, err
	}
	if err := v.recordEvent(ctx, tenantID, t.ID, true, method, action, t.UsageCount, newCount); err != nil {
		return Result{}, err
	}
	return Result{TicketID: t.ID, Valid: true}, nil
}

// BulkValidate validates up to 100 identifiers (ticket numbers) in one
// call, each independently: a failure on one identifier does not abort
// the rest.
func (v *Validator) BulkValidate(ctx context.Context, tenantID uuid.UUID, ticketNumbers []string, action model.ValidationAction, eventStart time.Time, checkEventTiming bool) ([]Result, error) {
	if len(ticketNumbers) > maxBulkValidate {
		return nil, apperr.Wrap(apperr.Validation, "too many identifiers", ErrTooManyIdentifiers)
	}
	out := make([]Result, 0, len(ticketNumbers))
	for _, tn := range ticketNumbers {
		r, err := v.Validate(ctx, tenantID, tn, action, eventStart, checkEventTiming)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (v *Validator) lookupByNumber(ctx context.Context, tenantID uuid.UUID, ticketNumber string) (model.DigitalTicket, error) {
	return v.scan(v.DB.QueryRowContext(ctx,
		`SELECT id, tenant_id, transaction_id, transaction_item_id, event_id, customer_id, zone_id, seat_id,
		        ticket_number, sequence, validation_hash, usage_count, max_usage, status, valid_from, valid_until, created_at
		 FROM digital_tickets WHERE tenant_id = ? AND ticket_number = ?`,
		tenantID, ticketNumber,
	))
}

func (v *Validator) lookupByID(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (model.DigitalTicket, error) {
	return v.scan(v.DB.QueryRowContext(ctx,
		`SELECT id, tenant_id, transaction_id, transaction_item_id, event_id, customer_id, zone_id, seat_id,
		        ticket_number, sequence, validation_hash, usage_count, max_usage, status, valid_from, valid_until, created_at
		 FROM digital_tickets WHERE tenant_id = ? AND id = ?`,
		tenantID, id,
	))
}

func (v *Validator) scan(row *sql.Row) (model.DigitalTicket, error) {
	var t model.DigitalTicket
	err := row.Scan(&t.ID, &t.TenantID, &t.TransactionID, &t.TransactionItemID, &t.EventID, &t.CustomerID, &t.ZoneID, &t.SeatID,
		&t.TicketNumber, &t.Sequence, &t.ValidationHash, &t.UsageCount, &t.MaxUsage, &t.Status, &t.ValidFrom, &t.ValidUntil, &t.CreatedAt)
	if err != nil {
		return model.DigitalTicket{}, err
	}
	return t, nil
}

func (v *Validator) incrementUsage(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, expectedCount int) (int, error) {
	tx, err := v.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "begin tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var count, maxUsage int
	if err := tx.QueryRowContext(ctx,
		`SELECT usage_count, max_usage FROM digital_tickets WHERE tenant_id = ? AND id = ? FOR UPDATE`,
		tenantID, id,
	).Scan(&count, &maxUsage); err != nil {
		return 0, apperr.Wrap(apperr.Internal, "lock ticket", err)
	}
	if count >= maxUsage {
		return 0, apperr.New(apperr.Conflict, "usage limit exceeded")
	}
	newCount := count + 1
	status := model.TicketActive
	var firstUsedSet string
	if count == 0 {
		firstUsedSet = ", first_used_at = CURRENT_TIMESTAMP"
	}
	if newCount >= maxUsage {
		status = model.TicketUsed
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE digital_tickets SET usage_count = ?, status = ?`+firstUsedSet+` WHERE tenant_id = ? AND id = ?`,
		newCount, status, tenantID, id,
	)
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "increment usage", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, apperr.Wrap(apperr.Internal, "commit usage increment", err)
	}
	committed = true
	return newCount, nil
}

func (v *Validator) recordEvent(ctx context.Context, tenantID uuid.UUID, ticketID uuid.UUID, result bool, method string, action model.ValidationAction, before, after int) error {
	_, err := v.DB.ExecContext(ctx,
		`INSERT INTO validation_events (tenant_id, ticket_id, result, method, action, usage_before, usage_after, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tenantID, ticketID, result, method, action, before, after, time.Now().UTC(),
	)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "record validation event", err)
	}
	return nil
}
