// Package notification implements the persisted-then-delivered outbox:
// Enqueue writes a row and returns without waiting on deliverability. An
// external worker polls for pending rows and flips their status to sent
// or failed; the RabbitMQ publish this package performs alongside the
// insert is only a best-effort wakeup for that worker, never the source
// of truth.
package notification

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/iliyamo/ticketing-core/internal/apperr"
	"github.com/iliyamo/ticketing-core/internal/model"
	"github.com/iliyamo/ticketing-core/internal/queue"
	qp "github.com/iliyamo/ticketing-core/internal/service"
)

// Sender is the asynchronous external worker's contract: it polls
// pending rows and reports delivery outcomes back via MarkSent/MarkFailed.
// No concrete transport (email/SMS/WhatsApp) is implemented in this
// module.
type Sender interface {
	Send(ctx context.Context, e model.OutboxEntry) error
}

// Outbox persists notification rows and pokes the external worker.
type Outbox struct {
	DB *sql.DB
	// Dispatch publishes the wakeup signal; defaults to
	// service.PublishOutboxDispatch but swappable for tests.
	Dispatch func(ctx context.Context, sig queue.OutboxDispatchSignal) error
}

func NewOutbox(db *sql.DB) *Outbox {
	return &Outbox{DB: db, Dispatch: qp.PublishOutboxDispatch}
}

// Enqueue inserts a pending row and publishes a best-effort dispatch
// signal; a publish failure is logged by the dispatcher and does not
// fail the enqueue, since the row itself is already durable.
func (o *Outbox) Enqueue(ctx context.Context, e model.OutboxEntry) (model.OutboxEntry, error) {
	e.Status = model.NotificationPending
	res, err := o.DB.ExecContext(ctx,
		`INSERT INTO notification_outbox
		 (tenant_id, customer_id, template_id, channel, recipient, subject, body, status, task_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.TenantID, e.CustomerID, e.TemplateID, e.Channel, e.Recipient, e.Subject, e.Body, e.Status, e.TaskID,
	)
	if err != nil {
		return model.OutboxEntry{}, apperr.Wrap(apperr.Internal, "insert outbox entry", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.OutboxEntry{}, apperr.Wrap(apperr.Internal, "read outbox entry id", err)
	}
	e.ID = uint64(id)

	if o.Dispatch != nil {
		_ = o.Dispatch(ctx, queue.OutboxDispatchSignal{
			OutboxID: e.ID,
			TenantID: e.TenantID.String(),
			Channel:  e.Channel,
		})
	}
	return e, nil
}

// MarkSent is called by the external worker once delivery succeeds.
func (o *Outbox) MarkSent(ctx context.Context, tenantID uuid.UUID, id uint64) error {
	_, err := o.DB.ExecContext(ctx,
		`UPDATE notification_outbox SET status = ?, sent_at = CURRENT_TIMESTAMP WHERE tenant_id = ? AND id = ?`,
		model.NotificationSent, tenantID, id,
	)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "mark outbox sent", err)
	}
	return nil
}

// MarkFailed is called by the external worker once delivery exhausts its
// retries.
func (o *Outbox) MarkFailed(ctx context.Context, tenantID uuid.UUID, id uint64, reason string) error {
	_, err := o.DB.ExecContext(ctx,
		`UPDATE notification_outbox SET status = ?, fail_reason = ? WHERE tenant_id = ? AND id = ?`,
		model.NotificationFailed, reason, tenantID, id,
	)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "mark outbox failed", err)
	}
	return nil
}

// Pending returns up to limit pending rows for one tenant, oldest first,
// for a poller to pick up.
func (o *Outbox) Pending(ctx context.Context, tenantID uuid.UUID, limit int) ([]model.OutboxEntry, error) {
	rows, err := o.DB.QueryContext(ctx,
		`SELECT id, tenant_id, customer_id, template_id, channel, recipient, subject, body, status, fail_reason, task_id, created_at, sent_at
		 FROM notification_outbox WHERE tenant_id = ? AND status = ? ORDER BY created_at LIMIT ?`,
		tenantID, model.NotificationPending, limit,
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "query pending outbox entries", err)
	}
	defer rows.Close()
	var out []model.OutboxEntry
	for rows.Next() {
		var e model.OutboxEntry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.CustomerID, &e.TemplateID, &e.Channel, &e.Recipient, &e.Subject, &e.Body, &e.Status, &e.FailReason, &e.TaskID, &e.CreatedAt, &e.SentAt); err != nil {
			return nil, apperr.Wrap(apperr.Internal, "scan outbox entry", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
