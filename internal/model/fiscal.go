package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FiscalCounter holds the last-issued series number per tenant. Mutations
// go through internal/fiscal.SeriesAllocator, which row-locks this table
// for the duration of the fiscal branch of checkout (spec.md §5).
type FiscalCounter struct {
	TenantID uuid.UUID
	Current  int64
}

// FiscalSeries certifies one completed sale with a per-tenant, gapless,
// monotonically increasing number. A voided series keeps its slot: the
// number is never reused (spec.md §8 property 1, Scenario D).
type FiscalSeries struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	SeriesNumber  int64
	TransactionID uint64
	IssuedBy      uint64
	IssuedAt      time.Time // America/Caracas wall time
	Voided        bool
	VoidedAt      *time.Time
	VoidedBy      *uint64
	VoidReason    string
}

// FiscalDay is a per-(tenant,user,Caracas-date) session of sales. Two
// users may have independent open days on the same calendar date.
type FiscalDay struct {
	ID         uint64
	TenantID   uuid.UUID
	UserID     uint64
	Date       time.Time // Caracas calendar date, time component zeroed
	OpenedAt   time.Time
	ClosedAt   *time.Time
	IsClosed   bool
	ZReportID  *uint64
}

// ReportType distinguishes a midday X-report snapshot from an end-of-day
// Z-report close.
type ReportType string

const (
	ReportX ReportType = "X"
	ReportZ ReportType = "Z"
)

// FiscalReport aggregates the transactions of a fiscal day (Z) or of a
// user/tenant's sales so far (X). ReportNumber is monotone per
// (tenant, type).
type FiscalReport struct {
	ID              uint64
	TenantID        uuid.UUID
	Type            ReportType
	ReportNumber    int64
	FiscalDate      time.Time
	UserID          *uint64 // nil for tenant-wide X reports
	TransactionCnt  int
	TotalAmount     decimal.Decimal
	TotalTax        decimal.Decimal
	PaymentBreakdown map[string]decimal.Decimal
	FirstSeries     int64
	LastSeries      int64
	GeneratedAt     time.Time
}
