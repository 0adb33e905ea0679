package model

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a de-duplicated contact, unique within a tenant on
// Identification (when present) and on Email (when present). At least one
// of Phone or Email is required at create and update time.
type Customer struct {
	ID             uint64
	TenantID       uuid.UUID
	Name           string
	Surname        string
	Phone          *string
	Email          *string
	Identification *string // letters+digits; trimmed, but its format is not validated
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NotificationPreferences is auto-materialized with defaults the moment a
// Customer is created, recovered from original_source's customers app.
type NotificationPreferences struct {
	CustomerID        uint64
	TenantID          uuid.UUID
	EmailEnabled      bool
	SMSEnabled        bool
	WhatsAppEnabled   bool
	MarketingOptIn    bool
	TransactionalOptIn bool
	PreferredHourFrom int
	PreferredHourTo   int
	PreferredLanguage string
}

// DefaultNotificationPreferences returns the defaults applied on Customer
// creation.
func DefaultNotificationPreferences(customerID uint64, tenantID uuid.UUID) NotificationPreferences {
	return NotificationPreferences{
		CustomerID:         customerID,
		TenantID:           tenantID,
		EmailEnabled:       true,
		SMSEnabled:         false,
		WhatsAppEnabled:    false,
		MarketingOptIn:     false,
		TransactionalOptIn: true,
		PreferredHourFrom:  8,
		PreferredHourTo:    20,
		PreferredLanguage:  "es",
	}
}
