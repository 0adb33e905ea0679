// Package customer implements the tenant-scoped customer registry:
// find-or-create by identification, then email, then phone (ported from
// original_source/apps/customers/services.py find_or_create_customer),
// auto-materializing NotificationPreferences on first creation.
package customer

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/ticketing-core/internal/apperr"
	"github.com/iliyamo/ticketing-core/internal/model"
)

var ErrMissingContact = errors.New("customer requires a phone or an email")

// Registry is tenant-scoped customer persistence.
type Registry struct{ DB *sql.DB }

func NewRegistry(db *sql.DB) *Registry { return &Registry{DB: db} }

// Input is the caller-supplied fields for FindOrCreate; blank strings
// are treated as absent.
type Input struct {
	Name           string
	Surname        string
	Phone          string
	Email          string
	Identification string
}

// FindOrCreate looks up an existing customer by identification, then
// email, then phone (in that precedence), merging in any newly-supplied
// fields without nulling a previously-populated one; if no match is
// found it creates a new customer and materializes default
// NotificationPreferences.
func (r *Registry) FindOrCreate(ctx context.Context, tenantID uuid.UUID, in Input) (model.Customer, error) {
	in.Identification = strings.TrimSpace(in.Identification)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	if in.Phone == "" && in.Email == "" {
		return model.Customer{}, apperr.Wrap(apperr.Validation, "missing contact", ErrMissingContact)
	}

	if in.Identification != "" {
		if c, err := r.byIdentification(ctx, tenantID, in.Identification); err == nil {
			return r.merge(ctx, c, in)
		} else if !errors.Is(err, sql.ErrNoRows) {
			return model.Customer{}, apperr.Wrap(apperr.Internal, "lookup by identification", err)
		}
	}
	if in.Email != "" {
		if c, err := r.byField(ctx, tenantID, "email", in.Email); err == nil {
			return r.merge(ctx, c, in)
		} else if !errors.Is(err, sql.ErrNoRows) {
			return model.Customer{}, apperr.Wrap(apperr.Internal, "lookup by email", err)
		}
	}
	if in.Phone != "" {
		if c, err := r.byField(ctx, tenantID, "phone", in.Phone); err == nil {
			return r.merge(ctx, c, in)
		} else if !errors.Is(err, sql.ErrNoRows) {
			return model.Customer{}, apperr.Wrap(apperr.Internal, "lookup by phone", err)
		}
	}
	return r.create(ctx, tenantID, in)
}

func (r *Registry) byIdentification(ctx context.Context, tenantID uuid.UUID, identification string) (model.Customer, error) {
	return r.scanOne(ctx,
		`SELECT id, tenant_id, name, surname, phone, email, identification, active, created_at, updated_at
		 FROM customers WHERE tenant_id = ? AND identification = ?`,
		tenantID, identification,
	)
}

func (r *Registry) byField(ctx context.Context, tenantID uuid.UUID, field, value string) (model.Customer, error) {
	query := `SELECT id, tenant_id, name, surname, phone, email, identification, active, created_at, updated_at
	          FROM customers WHERE tenant_id = ? AND ` + field + ` = ?`
	return r.scanOne(ctx, query, tenantID, value)
}

func (r *Registry) scanOne(ctx context.Context, query string, args ...any) (model.Customer, error) {
	var c model.Customer
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(
		&c.ID, &c.TenantID, &c.Name, &c.Surname, &c.Phone, &c.Email, &c.Identification, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// merge fills in any newly-supplied field on an existing customer without
// clearing a previously-populated one, matching
// update_customer_from_sales_data's "only update_data for present keys"
// behavior in the source.
func (r *Registry) merge(ctx context.Context, c model.Customer, in Input) (model.Customer, error) {
	if in.Name != "" {
		c.Name = in.Name
	}
	if in.Surname != "" {
		c.Surname = in.Surname
	}
	if in.Phone != "" {
		c.Phone = &in.Phone
	}
	if in.Email != "" {
		c.Email = &in.Email
	}
	if in.Identification != "" {
		c.Identification = &in.Identification
	}
	_, err := r.DB.ExecContext(ctx,
		`UPDATE customers SET name = ?, surname = ?, phone = ?, email = ?, identification = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE tenant_id = ? AND id = ?`,
		c.Name, c.Surname, c.Phone, c.Email, c.Identification, c.TenantID, c.ID,
	)
	if err != nil {
		return model.Customer{}, apperr.Wrap(apperr.Internal, "update customer", err)
	}
	return c, nil
}

func (r *Registry) create(ctx context.Context, tenantID uuid.UUID, in Input) (model.Customer, error) {
	c := model.Customer{TenantID: tenantID, Name: in.Name, Surname: in.Surname, Active: true}
	if in.Phone != "" {
		c.Phone = &in.Phone
	}
	if in.Email != "" {
		c.Email = &in.Email
	}
	if in.Identification != "" {
		c.Identification = &in.Identification
	}

	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO customers (tenant_id, name, surname, phone, email, identification, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.TenantID, c.Name, c.Surname, c.Phone, c.Email, c.Identification, c.Active,
	)
	if err != nil {
		return model.Customer{}, apperr.Wrap(apperr.Internal, "insert customer", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Customer{}, apperr.Wrap(apperr.Internal, "read customer id", err)
	}
	c.ID = uint64(id)

	prefs := model.DefaultNotificationPreferences(c.ID, tenantID)
	if _, err := r.DB.ExecContext(ctx,
		`INSERT INTO notification_preferences
		 (customer_id, tenant_id, email_enabled, sms_enabled, whatsapp_enabled, marketing_opt_in, transactional_opt_in, preferred_hour_from, preferred_hour_to, preferred_language)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		prefs.CustomerID, prefs.TenantID, prefs.EmailEnabled, prefs.SMSEnabled, prefs.WhatsAppEnabled,
		prefs.MarketingOptIn, prefs.TransactionalOptIn, prefs.PreferredHourFrom, prefs.PreferredHourTo, prefs.PreferredLanguage,
	); err != nil {
		return model.Customer{}, apperr.Wrap(apperr.Internal, "insert notification preferences", err)
	}
	return c, nil
}
