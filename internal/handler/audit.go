package handler

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketing-core/internal/audit"
	"github.com/iliyamo/ticketing-core/internal/tenant"
)

// AuditHandler serves the read side of the append-only audit trail.
type AuditHandler struct {
	DB *sql.DB
}

func NewAuditHandler(db *sql.DB) *AuditHandler { return &AuditHandler{DB: db} }

// Query handles GET /audit?object_type=&action=&since=&until=&limit=.
func (h *AuditHandler) Query(c echo.Context) error {
	tid, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	filter := audit.QueryFilter{
		ObjectType: c.QueryParam("object_type"),
		Action:     c.QueryParam("action"),
	}
	if s := c.QueryParam("since"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			filter.Since = t
		}
	}
	if s := c.QueryParam("until"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			filter.Until = t
		}
	}
	if s := c.QueryParam("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			filter.Limit = n
		}
	}
	var log audit.Log
	entries, err := log.Query(c.Request().Context(), h.DB, tid, filter)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}

// ForObject handles GET /audit/:objectType/:objectID.
func (h *AuditHandler) ForObject(c echo.Context) error {
	tid, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	var log audit.Log
	entries, err := log.ForObject(c.Request().Context(), h.DB, tid, c.Param("objectType"), c.Param("objectID"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}
