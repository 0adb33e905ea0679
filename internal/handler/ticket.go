package handler

import (
	"encoding/base64"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketing-core/internal/model"
	"github.com/iliyamo/ticketing-core/internal/tenant"
	"github.com/iliyamo/ticketing-core/internal/ticket"
)

// TicketHandler exposes gate-side ticket validation: a bare ticket number
// lookup, a sealed-QR-payload check, and a capped bulk variant for an
// offline scanner syncing a batch of scans.
type TicketHandler struct {
	Validator *ticket.Validator
}

func NewTicketHandler(v *ticket.Validator) *TicketHandler { return &TicketHandler{Validator: v} }

type validateReq struct {
	TicketNumber     string                 `json:"ticket_number"`
	SealedPayload    string                 `json:"sealed_payload"` // base64, mutually exclusive with TicketNumber
	Action           model.ValidationAction `json:"action"`
	EventStart       time.Time              `json:"event_start"`
	CheckEventTiming bool                   `json:"check_event_timing"`
}

// Validate handles POST /tickets/validate.
func (h *TicketHandler) Validate(c echo.Context) error {
	tid, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	var req validateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	var result ticket.Result
	if req.SealedPayload != "" {
		sealed, decErr := base64.StdEncoding.DecodeString(req.SealedPayload)
		if decErr != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed sealed_payload"})
		}
		result, err = h.Validator.ValidateSealed(c.Request().Context(), tid, sealed, req.Action, req.EventStart, req.CheckEventTiming)
	} else {
		result, err = h.Validator.Validate(c.Request().Context(), tid, req.TicketNumber, req.Action, req.EventStart, req.CheckEventTiming)
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

type bulkValidateReq struct {
	TicketNumbers    []string               `json:"ticket_numbers"`
	Action           model.ValidationAction `json:"action"`
	EventStart       time.Time              `json:"event_start"`
	CheckEventTiming bool                   `json:"check_event_timing"`
}

// BulkValidate handles POST /tickets/bulk-validate, capped upstream at
// 100 identifiers per call.
func (h *TicketHandler) BulkValidate(c echo.Context) error {
	tid, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	var req bulkValidateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	results, err := h.Validator.BulkValidate(c.Request().Context(), tid, req.TicketNumbers, req.Action, req.EventStart, req.CheckEventTiming)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, results)
}
