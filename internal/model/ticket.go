package model

import (
	"time"

	"github.com/google/uuid"
)

// TicketStatus is the bounded-use validation state of a DigitalTicket.
type TicketStatus string

const (
	TicketActive    TicketStatus = "active"
	TicketUsed      TicketStatus = "used"
	TicketExpired   TicketStatus = "expired"
	TicketCancelled TicketStatus = "cancelled"
	TicketRefunded  TicketStatus = "refunded"
)

// DigitalTicket is the signed, issuable unit produced for each
// TransactionItem quantity on settlement. TicketNumber is derived from the
// certifying FiscalSeries: "<series>-<item_index>-<sequence>".
type DigitalTicket struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	TransactionID    uint64
	TransactionItemID uint64
	EventID          uint64
	CustomerID       uint64
	ZoneID           uint64
	SeatID           *uint64
	TicketNumber     string
	Sequence         int
	SignedPayload    []byte // NaCl secretbox ciphertext; see internal/ticket
	ValidationHash   string // sha256(ticket_number || event_id || customer_id)
	UsageCount       int
	MaxUsage         int
	Status           TicketStatus
	ValidFrom        time.Time
	ValidUntil       time.Time
	FirstUsedAt      *time.Time
	CreatedAt        time.Time
}

// ValidationAction distinguishes a multi-entry ticket's admission from its
// corresponding exit.
type ValidationAction string

const (
	ActionCheckIn  ValidationAction = "check_in"
	ActionCheckOut ValidationAction = "check_out"
)

// ValidationEvent is an append-only record of one validate() attempt,
// whatever its outcome.
type ValidationEvent struct {
	ID            uint64
	TenantID      uuid.UUID
	TicketID      uuid.UUID
	Result        bool
	Method        string // "payload" or "ticket_number"
	Action        ValidationAction
	SystemID      string
	Location      string
	UsageBefore   int
	UsageAfter    int
	Timestamp     time.Time
}

// TicketPayload is the plaintext structure sealed into
// DigitalTicket.SignedPayload.
type TicketPayload struct {
	TicketID   uuid.UUID `json:"ticket_id"`
	EventID    uint64    `json:"event_id"`
	CustomerID uint64    `json:"customer_id"`
	ZoneID     uint64    `json:"zone_id"`
	SeatID     *uint64   `json:"seat_id,omitempty"`
	ValidFrom  time.Time `json:"valid_from"`
	ValidUntil time.Time `json:"valid_until"`
	MaxUsage   int       `json:"max_usage"`
	CreatedAt  time.Time `json:"created_at"`
}
