// Package checkout implements the cart/hold-to-transaction pipeline:
// AddLine calls into internal/inventory to place a hold, Checkout walks
// the five-step settlement sequence (quote, tax, charge, fiscal branch,
// ticket issuance) inside one database transaction on success.
package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/ticketing-core/internal/apperr"
	"github.com/iliyamo/ticketing-core/internal/inventory"
	"github.com/iliyamo/ticketing-core/internal/model"
)

var ErrCartEmpty = errors.New("cart has no lines")

// Cart is a tenant-scoped container of holds identified by a session id.
// It does not persist to the database itself: each line is a Hold row
// the inventory manager already owns, so Cart only tracks which hold
// tokens belong to which session in process memory, keeping ephemeral
// session state outside the core tables.
type Cart struct {
	mu       sync.Mutex
	sessions map[string][]model.Hold
}

func NewCart() *Cart {
	return &Cart{sessions: make(map[string][]model.Hold)}
}

// AddLine places a hold via the inventory manager and appends it to the
// session's line list.
func (c *Cart) AddLine(ctx context.Context, inv *inventory.Manager, tenantID uuid.UUID, sessionID string, req inventory.HoldRequest) (model.Hold, error) {
	req.Owner = sessionID
	h, err := inv.Hold(ctx, tenantID, req)
	if err != nil {
		return model.Hold{}, err
	}
	c.mu.Lock()
	c.sessions[sessionID] = append(c.sessions[sessionID], h)
	c.mu.Unlock()
	return h, nil
}

// RemoveLine releases one hold and drops it from the session's line list.
func (c *Cart) RemoveLine(ctx context.Context, inv *inventory.Manager, tenantID uuid.UUID, sessionID string, holdID uuid.UUID) error {
	if err := inv.Release(ctx, tenantID, holdID); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := c.sessions[sessionID]
	for i, h := range lines {
		if h.ID == holdID {
			c.sessions[sessionID] = append(lines[:i], lines[i+1:]...)
			break
		}
	}
	return nil
}

// Lines returns a session's current hold lines.
func (c *Cart) Lines(sessionID string) []model.Hold {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Hold, len(c.sessions[sessionID]))
	copy(out, c.sessions[sessionID])
	return out
}

// TTL returns the minimum expires_at across a session's lines.
func (c *Cart) TTL(sessionID string) (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := c.sessions[sessionID]
	if len(lines) == 0 {
		return time.Time{}, apperr.Wrap(apperr.Validation, "cart empty", ErrCartEmpty)
	}
	min := lines[0].ExpiresAt
	for _, h := range lines[1:] {
		if h.ExpiresAt.Before(min) {
			min = h.ExpiresAt
		}
	}
	return min, nil
}

// clear drops a session's line list once checkout has consumed or
// released every hold in it.
func (c *Cart) clear(sessionID string) {
	c.mu.Lock()
	delete(c.sessions, sessionID)
	c.mu.Unlock()
}
