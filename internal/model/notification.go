package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationStatus tracks an outbox row from enqueue through delivery.
// The core only ever writes Pending; Sent/Failed are written back by the
// external worker that polls the outbox (spec.md §4.10).
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

// OutboxEntry is an enqueue-only row. The core is done the moment this
// row is durably persisted; it never waits on deliverability.
type OutboxEntry struct {
	ID         uint64
	TenantID   uuid.UUID
	CustomerID uint64
	TemplateID string
	Channel    string // "email" | "sms" | "whatsapp"
	Recipient  string
	Subject    string
	Body       string
	Status     NotificationStatus
	FailReason string
	TaskID     *string
	CreatedAt  time.Time
	SentAt     *time.Time
}
