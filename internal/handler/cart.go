package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketing-core/internal/checkout"
	"github.com/iliyamo/ticketing-core/internal/customer"
	"github.com/iliyamo/ticketing-core/internal/inventory"
	"github.com/iliyamo/ticketing-core/internal/middleware"
	"github.com/iliyamo/ticketing-core/internal/model"
	"github.com/iliyamo/ticketing-core/internal/tenant"
)

// CartHandler exposes the cart/hold-to-transaction pipeline over HTTP:
// add/remove lines, then checkout against one of the two settlement
// paths (full payment or installment plan).
type CartHandler struct {
	Cart      *checkout.Cart
	Inventory *inventory.Manager
	Checkout  *checkout.Checkout
	Customers *customer.Registry
}

func NewCartHandler(cart *checkout.Cart, inv *inventory.Manager, co *checkout.Checkout, customers *customer.Registry) *CartHandler {
	return &CartHandler{Cart: cart, Inventory: inv, Checkout: co, Customers: customers}
}

type addLineReq struct {
	ZoneID   uint64  `json:"zone_id"`
	SeatID   *uint64 `json:"seat_id"`
	Quantity int     `json:"quantity"`
}

// AddLine handles POST /carts/:session/lines.
func (h *CartHandler) AddLine(c echo.Context) error {
	tid, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	session := c.Param("session")
	var req addLineReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}
	hold, err := h.Cart.AddLine(c.Request().Context(), h.Inventory, tid, session, inventory.HoldRequest{
		ZoneID: req.ZoneID, SeatID: req.SeatID, Quantity: req.Quantity, Scope: model.HoldScopeCart,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, hold)
}

// RemoveLine handles DELETE /carts/:session/lines/:holdID.
func (h *CartHandler) RemoveLine(c echo.Context) error {
	tid, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	session := c.Param("session")
	holdID, err := uuid.Parse(c.Param("holdID"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hold id"})
	}
	if err := h.Cart.RemoveLine(c.Request().Context(), h.Inventory, tid, session, holdID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListLines handles GET /carts/:session/lines.
func (h *CartHandler) ListLines(c echo.Context) error {
	session := c.Param("session")
	return c.JSON(http.StatusOK, h.Cart.Lines(session))
}

type checkoutReq struct {
	EventID       uint64         `json:"event_id"`
	UserID        uint64         `json:"user_id"`
	Currency      string         `json:"currency"`
	PaymentMethod string         `json:"payment_method"`
	Customer      customer.Input `json:"customer"`
	AlwaysFailPay bool           `json:"always_fail_pay"` // test-only knob for FakeProcessor
}

// Checkout handles POST /carts/:session/checkout: resolves or creates the
// customer, then runs the full-payment settlement sequence.
func (h *CartHandler) Checkout(c echo.Context) error {
	tid, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	session := c.Param("session")
	var req checkoutReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	cust, err := h.Customers.FindOrCreate(c.Request().Context(), tid, req.Customer)
	if err != nil {
		return fail(c, err)
	}
	outcome, err := h.Checkout.Checkout(c.Request().Context(), h.Cart, tid, checkout.Request{
		SessionID:     session,
		EventID:       req.EventID,
		CustomerID:    cust.ID,
		UserID:        req.UserID,
		Currency:      req.Currency,
		PaymentMethod: req.PaymentMethod,
		Payer:         &checkout.FakeProcessor{AlwaysFail: req.AlwaysFailPay},
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, outcome)
}

type reserveReq struct {
	EventID       uint64                  `json:"event_id"`
	UserID        uint64                  `json:"user_id"`
	Currency      string                  `json:"currency"`
	PaymentMethod string                  `json:"payment_method"`
	Customer      customer.Input          `json:"customer"`
	Schedule      []model.PaymentSchedule `json:"schedule"`
}

// Reserve handles POST /carts/:session/reserve: the installment path.
func (h *CartHandler) Reserve(c echo.Context) error {
	tid, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	session := c.Param("session")
	var req reserveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	cust, err := h.Customers.FindOrCreate(c.Request().Context(), tid, req.Customer)
	if err != nil {
		return fail(c, err)
	}
	txn, err := h.Checkout.Reserve(c.Request().Context(), h.Cart, tid, checkout.Request{
		SessionID: session, EventID: req.EventID, CustomerID: cust.ID, UserID: req.UserID,
		Currency: req.Currency, PaymentMethod: req.PaymentMethod,
	}, checkout.Schedule(req.Schedule))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, txn)
}

type settleInstallmentReq struct {
	EventID    uint64      `json:"event_id"`
	CustomerID uint64      `json:"customer_id"`
	UserID     uint64      `json:"user_id"`
	ScheduleID uint64      `json:"schedule_id"`
	HoldTokens []uuid.UUID `json:"hold_tokens"`
}

// SettleInstallment handles POST /transactions/:id/installments/settle.
func (h *CartHandler) SettleInstallment(c echo.Context) error {
	tid, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	txnID, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req settleInstallmentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	txn := model.Transaction{ID: txnID, TenantID: tid, EventID: req.EventID, CustomerID: req.CustomerID}
	outcome, err := h.Checkout.SettleInstallment(c.Request().Context(), tid, txn, req.ScheduleID, checkout.Request{
		EventID: req.EventID, CustomerID: req.CustomerID, UserID: req.UserID,
	}, req.HoldTokens)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, outcome)
}

// Refund handles POST /seats/:id/refund.
func (h *CartHandler) Refund(c echo.Context) error {
	tid, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	seatID, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req struct {
		SeriesID uuid.UUID `json:"series_id"`
		Reason   string    `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	by, _ := strconv.ParseUint(middleware.UserID(c), 10, 64)
	if err := h.Checkout.Refund(c.Request().Context(), tid, seatID, req.SeriesID, by, req.Reason); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
