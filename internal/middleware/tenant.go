package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketing-core/internal/apperr"
	"github.com/iliyamo/ticketing-core/internal/tenant"
)

// TenantScoping resolves the tenant for every request and attaches it to
// the request context before any handler runs. It assumes JWTAuth (if
// present on the route) already stored "tenant_id" from the access token's
// claims; unauthenticated routes pass uuid.Nil and rely solely on the
// request-side resolution strategies.
func TenantScoping(res tenant.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authTenant := uuid.Nil
			if v, ok := c.Get("tenant_id").(string); ok && v != "" {
				if parsed, err := uuid.Parse(v); err == nil {
					authTenant = parsed
				}
			}

			id, err := tenant.Resolve(c.Request().Context(), c.Request(), res, authTenant)
			if err != nil {
				status := apperr.HTTPStatus(err)
				if status == http.StatusInternalServerError {
					status = http.StatusBadRequest
				}
				return c.JSON(status, echo.Map{"error": err.Error()})
			}

			ctx := tenant.WithID(c.Request().Context(), id)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("tenant_id", id.String())
			return next(c)
		}
	}
}
