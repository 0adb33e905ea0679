package model

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is an independent organization whose venues, events, customers and
// fiscal journal are isolated from every other tenant in the deployment.
//
// Fields:
//  ID       – primary key, also the value carried by the tenant-id header.
//  Slug     – URL/subdomain-friendly identifier, unique across the deployment.
//  Name     – display name.
//  IsActive – inactive tenants are never resolved by tenant.Resolve.
type Tenant struct {
	ID        uuid.UUID
	Slug      string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
