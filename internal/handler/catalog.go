package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/ticketing-core/internal/apperr"
	"github.com/iliyamo/ticketing-core/internal/model"
	"github.com/iliyamo/ticketing-core/internal/repository"
	"github.com/iliyamo/ticketing-core/internal/tenant"
)

// CatalogHandler serves venue/event/zone/seat CRUD, the shape an
// operator's back office uses to build out an event before it goes on
// sale.
type CatalogHandler struct {
	Venues *repository.VenueRepo
	Events *repository.EventRepo
	Zones  *repository.ZoneRepo
	Seats  *repository.SeatRepo
	Stages *repository.PriceStageRepo
	Rows   *repository.RowPricingRepo
}

func NewCatalogHandler(v *repository.VenueRepo, e *repository.EventRepo, z *repository.ZoneRepo, s *repository.SeatRepo, st *repository.PriceStageRepo, rp *repository.RowPricingRepo) *CatalogHandler {
	return &CatalogHandler{Venues: v, Events: e, Zones: z, Seats: s, Stages: st, Rows: rp}
}

func fail(c echo.Context, err error) error {
	return c.JSON(apperr.HTTPStatus(err), echo.Map{"error": err.Error()})
}

// CreateVenue handles POST /venues.
func (h *CatalogHandler) CreateVenue(c echo.Context) error {
	tid, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	var v model.Venue
	if err := c.Bind(&v); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	v.TenantID = tid
	if err := h.Venues.Create(c.Request().Context(), &v); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create venue failed"})
	}
	return c.JSON(http.StatusCreated, v)
}

// ListVenues handles GET /venues.
func (h *CatalogHandler) ListVenues(c echo.Context) error {
	tid, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	out, err := h.Venues.List(c.Request().Context(), tid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list venues failed"})
	}
	return c.JSON(http.StatusOK, out)
}

// CreateEvent handles POST /events.
func (h *CatalogHandler) CreateEvent(c echo.Context) error {
	tid, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	var e model.Event
	if err := c.Bind(&e); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	e.TenantID = tid
	if e.Status == "" {
		e.Status = model.EventDraft
	}
	if err := h.Events.Create(c.Request().Context(), &e); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}
	return c.JSON(http.StatusCreated, e)
}

// GetEvent handles GET /events/:id.
func (h *CatalogHandler) GetEvent(c echo.Context) error {
	tid, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	e, err := h.Events.GetByID(c.Request().Context(), tid, id)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}
	return c.JSON(http.StatusOK, e)
}

// TransitionEvent handles POST /events/:id/transition.
func (h *CatalogHandler) TransitionEvent(c echo.Context) error {
	tid, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req struct {
		Status model.EventStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Events.Transition(c.Request().Context(), tid, id, req.Status); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateZone handles POST /events/:id/zones.
func (h *CatalogHandler) CreateZone(c echo.Context) error {
	tid, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	eventID, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var z model.Zone
	if err := c.Bind(&z); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	z.TenantID = tid
	z.EventID = eventID
	if err := h.Zones.Create(c.Request().Context(), &z); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create zone failed"})
	}
	return c.JSON(http.StatusCreated, z)
}

// ListZones handles GET /events/:id/zones.
func (h *CatalogHandler) ListZones(c echo.Context) error {
	tid, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	eventID, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	out, err := h.Zones.ListByEvent(c.Request().Context(), tid, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list zones failed"})
	}
	return c.JSON(http.StatusOK, out)
}

// GenerateSeats handles POST /zones/:id/seats/grid, laying out a regular
// rows x seatsPerRow numbered grid.
func (h *CatalogHandler) GenerateSeats(c echo.Context) error {
	tid, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	zoneID, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req struct {
		Rows        int `json:"rows"`
		SeatsPerRow int `json:"seats_per_row"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Seats.GenerateGrid(c.Request().Context(), tid, zoneID, req.Rows, req.SeatsPerRow); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate seats failed"})
	}
	return c.NoContent(http.StatusCreated)
}

// ListSeats handles GET /zones/:id/seats.
func (h *CatalogHandler) ListSeats(c echo.Context) error {
	tid, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	zoneID, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	out, err := h.Seats.ListByZone(c.Request().Context(), tid, zoneID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list seats failed"})
	}
	return c.JSON(http.StatusOK, out)
}

// BlockSeat handles POST /seats/:id/block and /seats/:id/unblock, gating
// a seat out of or back into the available state.
func (h *CatalogHandler) blockSeat(c echo.Context, blocked bool) error {
	tid, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	seatID, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Seats.SetBlocked(c.Request().Context(), tid, seatID, blocked); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update seat failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHandler) BlockSeat(c echo.Context) error   { return h.blockSeat(c, true) }
func (h *CatalogHandler) UnblockSeat(c echo.Context) error { return h.blockSeat(c, false) }

// CreatePriceStage handles POST /events/:id/price-stages.
func (h *CatalogHandler) CreatePriceStage(c echo.Context) error {
	tid, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	eventID, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var s model.PriceStage
	if err := c.Bind(&s); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	s.TenantID = tid
	s.EventID = eventID
	if err := h.Stages.Create(c.Request().Context(), &s); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, s)
}

// SetRowPricing handles PUT /zones/:id/row-pricing.
func (h *CatalogHandler) SetRowPricing(c echo.Context) error {
	tid, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	zoneID, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req struct {
		Row    string          `json:"row"`
		Offset decimal.Decimal `json:"offset"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	p := model.RowPricing{TenantID: tid, ZoneID: zoneID, Row: req.Row, Offset: req.Offset}
	if err := h.Rows.Upsert(c.Request().Context(), &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "set row pricing failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
