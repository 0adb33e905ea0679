package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus is the checkout lifecycle state (spec.md §4.5).
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionReserved  TransactionStatus = "reserved"
	TransactionCompleted TransactionStatus = "completed"
	TransactionCancelled TransactionStatus = "cancelled"
	TransactionRefunded  TransactionStatus = "refunded"
)

// Transaction is a cart's checkout result: it exclusively owns its Items
// and Tickets. FiscalSeries is looked up by TransactionID rather than
// stored as a forward reference (spec.md §9 on cyclic references).
type Transaction struct {
	ID         uint64
	TenantID   uuid.UUID
	EventID    uint64
	CustomerID uint64
	Status     TransactionStatus
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Total      decimal.Decimal
	Currency   string
	PaymentMethod string // "cash" | "card" | "transfer" | "other"; drives FiscalReport.PaymentBreakdown
	CreatedAt  time.Time
}

// TransactionItem is one priced line of a Transaction: one numbered seat
// (Quantity always 1) or a quantity of general-admission capacity.
type TransactionItem struct {
	ID            uint64
	TenantID      uuid.UUID
	TransactionID uint64
	ZoneID        uint64
	SeatID        *uint64
	UnitPrice     decimal.Decimal
	Quantity      int
	TotalPrice    decimal.Decimal
}

// PaymentSchedule models an installment of a partial-payment ("reserved")
// transaction. Recovered from original_source's sales app (dropped by the
// spec.md distillation, added back per SPEC_FULL §4.5): the transaction's
// last installment is the one that triggers the fiscal branch.
type PaymentSchedule struct {
	ID            uint64
	TenantID      uuid.UUID
	TransactionID uint64
	SequenceNo    int
	DueAt         time.Time
	Amount        decimal.Decimal
	PaidAt        *time.Time
	Reference     string
}
