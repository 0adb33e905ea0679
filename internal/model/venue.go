package model

import (
	"time"

	"github.com/google/uuid"
)

// Venue is the physical location that owns one or more Events.
type Venue struct {
	ID        uint64
	TenantID  uuid.UUID
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
