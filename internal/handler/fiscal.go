package handler

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/ticketing-core/internal/apperr"
	"github.com/iliyamo/ticketing-core/internal/fiscal"
	"github.com/iliyamo/ticketing-core/internal/middleware"
	"github.com/iliyamo/ticketing-core/internal/model"
	"github.com/iliyamo/ticketing-core/internal/repository"
	"github.com/iliyamo/ticketing-core/internal/tenant"
)

// FiscalHandler exposes fiscal-day open/close and X/Z report generation,
// plus tax-configuration management.
type FiscalHandler struct {
	DB         *sql.DB
	Days       *fiscal.DayManager
	Reports    *fiscal.ReportGenerator
	TaxConfigs *repository.TaxConfigRepo
}

func NewFiscalHandler(db *sql.DB, days *fiscal.DayManager, reports *fiscal.ReportGenerator, taxConfigs *repository.TaxConfigRepo) *FiscalHandler {
	return &FiscalHandler{DB: db, Days: days, Reports: reports, TaxConfigs: taxConfigs}
}

// CurrentDay handles GET /fiscal/day?user_id=.
func (h *FiscalHandler) CurrentDay(c echo.Context) error {
	tid, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	userID, err := uintQuery(c, "user_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id required"})
	}
	d, err := h.Days.Current(c.Request().Context(), tid, userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// GenerateXReport handles POST /fiscal/reports/x?user_id=.
func (h *FiscalHandler) GenerateXReport(c echo.Context) error {
	tid, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	userID, err := uintQuery(c, "user_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id required"})
	}
	r, err := h.Reports.GenerateX(c.Request().Context(), tid, userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// CloseDay handles POST /fiscal/day/close?user_id=: generates a Z report
// and closes the current fiscal day atomically in one transaction.
func (h *FiscalHandler) CloseDay(c echo.Context) error {
	tid, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	userID, err := strconv.ParseUint(middleware.UserID(c), 10, 64)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no authenticated user"})
	}

	ctx := c.Request().Context()
	day, err := h.Days.Current(ctx, tid, userID)
	if err != nil {
		return fail(c, err)
	}

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	report, err := h.Reports.GenerateZ(ctx, tx, tid, userID, day.Date)
	if err != nil {
		return fail(c, err)
	}
	if err := h.Days.Close(ctx, tx, tid, day.ID, report.ID); err != nil {
		return fail(c, err)
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit close failed"})
	}
	committed = true
	return c.JSON(http.StatusOK, report)
}

type taxConfigReq struct {
	Name        string          `json:"name"`
	Type        model.TaxType   `json:"type"`
	Rate        decimal.Decimal `json:"rate"`
	FixedAmount decimal.Decimal `json:"fixed_amount"`
	Active      bool            `json:"active"`
}

// CreateTaxConfig handles POST /events/:id/tax-configs. A zero :id means
// the config is tenant-wide rather than scoped to one event.
func (h *FiscalHandler) CreateTaxConfig(c echo.Context) error {
	tid, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	eventID, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req taxConfigReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	var scope *uint64
	if eventID != 0 {
		scope = &eventID
	}
	tc := model.TaxConfig{
		TenantID: tid, EventID: scope, Name: req.Name, Type: req.Type, Rate: req.Rate,
		FixedAmount: req.FixedAmount, Active: req.Active, EffectiveFrom: time.Now().UTC(),
	}
	if err := h.TaxConfigs.Create(c.Request().Context(), &tc); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create tax config failed"})
	}
	return c.JSON(http.StatusCreated, tc)
}

func uintQuery(c echo.Context, key string) (uint64, error) {
	s := c.QueryParam(key)
	if s == "" {
		return 0, apperr.New(apperr.Validation, key+" required")
	}
	return strconv.ParseUint(s, 10, 64)
}
