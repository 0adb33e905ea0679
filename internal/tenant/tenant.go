// Package tenant resolves and carries the tenant identifier that scopes
// every query, mutation and side effect in the core. There is no
// process-global "current tenant" here, unlike the threadlocal the
// source reaches for (original_source/apps/tenants/middleware.py), the
// resolved tenant travels exclusively on a context.Context value.
package tenant

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/ticketing-core/internal/apperr"
)

// ID identifies a tenant.
type ID = uuid.UUID

type ctxKey struct{}

// WithID returns a context carrying the resolved tenant id.
func WithID(ctx context.Context, id ID) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext extracts the tenant id a previous middleware attached.
// Calling a repository method without one is a programming error, not a
// request-level failure, so it reports apperr.Internal rather than
// AccessDenied.
func FromContext(ctx context.Context) (ID, error) {
	v, ok := ctx.Value(ctxKey{}).(ID)
	if !ok || v == uuid.Nil {
		return uuid.Nil, apperr.New(apperr.Internal, "no tenant id attached to context")
	}
	return v, nil
}

// Resolver looks tenants up by id or slug to validate a request's claim.
type Resolver interface {
	ActiveByID(ctx context.Context, id ID) (bool, error)
	ActiveBySlug(ctx context.Context, slug string) (ID, bool, error)
}

// Resolve implements the precedence order of spec.md §4.1: an explicit
// tenant-id header, then a tenant-slug header, then the request's
// subdomain, then finally the authenticated user's own tenant. It mirrors
// original_source/apps/tenants/middleware.py TenantMiddleware._resolve_tenant.
//
// authTenant is the tenant id carried by the caller's bearer token, or
// uuid.Nil for unauthenticated requests. If a tenant is resolved from the
// request (header/slug/subdomain) and differs from authTenant, Resolve
// fails closed with AccessDenied rather than silently preferring one over
// the other.
func Resolve(ctx context.Context, r *http.Request, res Resolver, authTenant ID) (ID, error) {
	var (
		resolved ID
		found    bool
	)

	if raw := r.Header.Get("tenant-id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, apperr.New(apperr.Validation, "malformed tenant-id header")
		}
		ok, err := res.ActiveByID(ctx, id)
		if err != nil {
			return uuid.Nil, err
		}
		if ok {
			resolved, found = id, true
		}
	}

	if !found {
		if slug := strings.TrimSpace(r.Header.Get("tenant-slug")); slug != "" {
			id, ok, err := res.ActiveBySlug(ctx, slug)
			if err != nil {
				return uuid.Nil, err
			}
			if ok {
				resolved, found = id, true
			}
		}
	}

	if !found {
		if sub := subdomain(r.Host); sub != "" {
			id, ok, err := res.ActiveBySlug(ctx, sub)
			if err != nil {
				return uuid.Nil, err
			}
			if ok {
				resolved, found = id, true
			}
		}
	}

	if !found {
		if authTenant == uuid.Nil {
			return uuid.Nil, apperr.New(apperr.Validation, "no tenant could be resolved for this request")
		}
		return authTenant, nil
	}

	if authTenant != uuid.Nil && authTenant != resolved {
		return uuid.Nil, apperr.New(apperr.AccessDenied, "authenticated user's tenant does not match resolved tenant")
	}
	return resolved, nil
}

func subdomain(host string) string {
	host = strings.Split(host, ":")[0]
	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return ""
	}
	sub := parts[0]
	if sub == "www" || sub == "api" {
		return ""
	}
	return sub
}
