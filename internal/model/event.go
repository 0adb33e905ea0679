package model

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus is the lifecycle state of an Event. Transitions are
// draft -> active -> (closed | cancelled); see repository.EventRepo.Transition.
type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventActive    EventStatus = "active"
	EventClosed    EventStatus = "closed"
	EventCancelled EventStatus = "cancelled"
)

// Event is a scheduled occurrence at a Venue; it owns one or more Zones.
type Event struct {
	ID        uint64
	TenantID  uuid.UUID
	VenueID   uint64
	Name      string
	StartsAt  time.Time
	EndsAt    time.Time
	Status    EventStatus
	HoldTTL   time.Duration // default hold TTL for this event's zones; zero means the deployment default (10m)
	CreatedAt time.Time
	UpdatedAt time.Time
}
