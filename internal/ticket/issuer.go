package ticket

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/ticketing-core/internal/apperr"
	"github.com/iliyamo/ticketing-core/internal/model"
)

// Issuer emits DigitalTicket rows on transaction settlement.
type Issuer struct {
	Sealer *Sealer
}

func NewIssuer(sealer *Sealer) *Issuer { return &Issuer{Sealer: sealer} }

// IssueForItem emits one DigitalTicket per unit of an item's Quantity,
// numbered "<series>-<item_index>-<sequence>", sealed and hashed, all
// within the caller's checkout transaction. eventID and customerID come
// from the Transaction the item belongs to, resolved by the caller before
// numbering begins.
func (i *Issuer) IssueForItem(ctx context.Context, tx *sql.Tx, tenantID uuid.UUID, item model.TransactionItem, eventID, customerID uint64, itemIndex int, seriesNumber int64, validFrom, validUntil time.Time, maxUsage int) ([]model.DigitalTicket, error) {
	if item.Quantity <= 0 {
		return nil, apperr.New(apperr.Validation, "item quantity must be positive")
	}
	tickets := make([]model.DigitalTicket, 0, item.Quantity)
	for seq := 1; seq <= item.Quantity; seq++ {
		t := model.DigitalTicket{
			ID:                uuid.New(),
			TenantID:          tenantID,
			TransactionID:     item.TransactionID,
			TransactionItemID: item.ID,
			EventID:           eventID,
			CustomerID:        customerID,
			ZoneID:            item.ZoneID,
			SeatID:            item.SeatID,
			TicketNumber:      fmt.Sprintf("%d-%d-%d", seriesNumber, itemIndex, seq),
			Sequence:          seq,
			UsageCount:        0,
			MaxUsage:          maxUsage,
			Status:            model.TicketActive,
			ValidFrom:         validFrom,
			ValidUntil:        validUntil,
			CreatedAt:         time.Now().UTC(),
		}
		t.ValidationHash = validationHash(t.TicketNumber, eventID, customerID)

		payload := model.TicketPayload{
			TicketID:   t.ID,
			EventID:    eventID,
			CustomerID: customerID,
			ZoneID:     t.ZoneID,
			SeatID:     t.SeatID,
			ValidFrom:  t.ValidFrom,
			ValidUntil: t.ValidUntil,
			MaxUsage:   t.MaxUsage,
			CreatedAt:  t.CreatedAt,
		}
		sealed, err := i.Sealer.Seal(payload)
		if err != nil {
			return nil, err
		}
		t.SignedPayload = sealed

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO digital_tickets
			 (id, tenant_id, transaction_id, transaction_item_id, event_id, customer_id, zone_id, seat_id,
			  ticket_number, sequence, signed_payload, validation_hash, usage_count, max_usage, status,
			  valid_from, valid_until, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.TenantID, t.TransactionID, t.TransactionItemID, t.EventID, t.CustomerID, t.ZoneID, t.SeatID,
			t.TicketNumber, t.Sequence, t.SignedPayload, t.ValidationHash, t.UsageCount, t.MaxUsage, t.Status,
			t.ValidFrom, t.ValidUntil, t.CreatedAt,
		); err != nil {
			return nil, apperr.Wrap(apperr.Internal, "insert digital ticket", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}

// validationHash is SHA-256(ticket_number || event_id || customer_id).
func validationHash(ticketNumber string, eventID, customerID uint64) string {
	h := sha256.New()
	h.Write([]byte(ticketNumber))
	fmt.Fprintf(h, "%d%d", eventID, customerID)
	return hex.EncodeToString(h.Sum(nil))
}

// ValidationHash exposes the hash function for recomputation by the
// validator and by callers finalizing a ticket's event_id/customer_id
// after the owning Transaction is known.
func ValidationHash(ticketNumber string, eventID, customerID uint64) string {
	return validationHash(ticketNumber, eventID, customerID)
}
