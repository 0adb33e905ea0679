package router // Router package

import (
	"github.com/labstack/echo/v4" // Echo framework
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/ticketing-core/internal/config"
	"github.com/iliyamo/ticketing-core/internal/handler" // Import handlers
	"github.com/iliyamo/ticketing-core/internal/middleware"
	"github.com/iliyamo/ticketing-core/internal/tenant"
)

// Handlers bundles every HTTP handler the router wires up, so main only
// constructs dependencies once and passes them through here.
type Handlers struct {
	Auth    *handler.AuthHandler
	Catalog *handler.CatalogHandler
	Cart    *handler.CartHandler
	Ticket  *handler.TicketHandler
	Fiscal  *handler.FiscalHandler
	Audit   *handler.AuditHandler
}

// RegisterRoutes wires every endpoint. Auth is public; everything else
// sits behind JWTAuth + TenantScoping, since every core operation is
// tenant-scoped.
func RegisterRoutes(e *echo.Echo, h Handlers, cfg config.Config, resolver tenant.Resolver, rdb *redis.Client) {
	e.GET("/healthz", handler.Health) // GET /healthz route

	e.POST("/auth/register", h.Auth.Register)
	e.POST("/auth/login", h.Auth.Login)
	e.POST("/auth/refresh", h.Auth.Refresh)
	e.POST("/auth/refresh-access", h.Auth.RefreshAccess)
	e.POST("/auth/logout", h.Auth.Logout)

	api := e.Group("", middleware.JWTAuth(cfg.JWTSecret), middleware.TenantScoping(resolver))
	api.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	api.GET("/me", h.Auth.Me)

	api.POST("/venues", h.Catalog.CreateVenue)
	api.GET("/venues", h.Catalog.ListVenues)

	api.POST("/events", h.Catalog.CreateEvent)
	api.GET("/events/:id", h.Catalog.GetEvent)
	api.POST("/events/:id/transition", h.Catalog.TransitionEvent)
	api.POST("/events/:id/zones", h.Catalog.CreateZone)
	api.GET("/events/:id/zones", h.Catalog.ListZones)
	api.POST("/events/:id/price-stages", h.Catalog.CreatePriceStage)
	api.POST("/events/:id/tax-configs", h.Fiscal.CreateTaxConfig)

	api.POST("/zones/:id/seats/grid", h.Catalog.GenerateSeats)
	api.GET("/zones/:id/seats", h.Catalog.ListSeats)
	api.PUT("/zones/:id/row-pricing", h.Catalog.SetRowPricing)

	api.POST("/seats/:id/block", h.Catalog.BlockSeat)
	api.POST("/seats/:id/unblock", h.Catalog.UnblockSeat)
	api.POST("/seats/:id/refund", h.Cart.Refund, middleware.RequireRole("OWNER"))

	api.POST("/carts/:session/lines", h.Cart.AddLine)
	api.GET("/carts/:session/lines", h.Cart.ListLines)
	api.DELETE("/carts/:session/lines/:holdID", h.Cart.RemoveLine)
	api.POST("/carts/:session/checkout", h.Cart.Checkout)
	api.POST("/carts/:session/reserve", h.Cart.Reserve)

	api.POST("/transactions/:id/installments/settle", h.Cart.SettleInstallment)

	api.POST("/tickets/validate", h.Ticket.Validate)
	api.POST("/tickets/bulk-validate", h.Ticket.BulkValidate)

	api.GET("/fiscal/day", h.Fiscal.CurrentDay)
	api.POST("/fiscal/reports/x", h.Fiscal.GenerateXReport)
	api.POST("/fiscal/day/close", h.Fiscal.CloseDay, middleware.RequireRole("OWNER"))

	api.GET("/audit", h.Audit.Query)
	api.GET("/audit/:objectType/:objectID", h.Audit.ForObject)
}
