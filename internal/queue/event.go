// Package queue defines message payloads exchanged over the message
// broker.
package queue

// OutboxDispatchSignal is published whenever internal/notification.Outbox
// enqueues a row; it carries just enough information for the external
// delivery worker to wake up and pull pending rows; the outbox row
// itself, not this message, is the durable source of truth.
type OutboxDispatchSignal struct {
	OutboxID uint64 `json:"outbox_id"`
	TenantID string `json:"tenant_id"`
	Channel  string `json:"channel"`
}

// TicketIssuedEvent is published by internal/checkout for each issued
// ticket once the settlement transaction has committed, for
// delivery-transport workers (email/SMS/PDF
// rendering) that live outside the core.
type TicketIssuedEvent struct {
	TicketID      string `json:"ticket_id"`
	TenantID      string `json:"tenant_id"`
	TransactionID uint64 `json:"transaction_id"`
	CustomerID    uint64 `json:"customer_id"`
	TicketNumber  string `json:"ticket_number"`
	IssuedAt      string `json:"issued_at"`
}
