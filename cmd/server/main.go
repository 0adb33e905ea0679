package main // Entry point package

import (
	"log" // Logging

	"github.com/joho/godotenv" // Load .env (dev/local)
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketing-core/internal/checkout"
	"github.com/iliyamo/ticketing-core/internal/config"
	"github.com/iliyamo/ticketing-core/internal/customer"
	"github.com/iliyamo/ticketing-core/internal/database"
	"github.com/iliyamo/ticketing-core/internal/fiscal"
	"github.com/iliyamo/ticketing-core/internal/handler"
	"github.com/iliyamo/ticketing-core/internal/inventory"
	"github.com/iliyamo/ticketing-core/internal/middleware"
	"github.com/iliyamo/ticketing-core/internal/pricing"
	"github.com/iliyamo/ticketing-core/internal/repository"
	"github.com/iliyamo/ticketing-core/internal/router"
	"github.com/iliyamo/ticketing-core/internal/ticket"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("info: .env not found; using defaults/env")
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is unreachable; middleware degrades to no-ops

	sealer, err := ticket.NewSealer([]byte(cfg.TicketKey))
	if err != nil {
		log.Fatalf("ticket sealer: %v", err)
	}

	// Repositories
	tenants := repository.NewTenantRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	venues := repository.NewVenueRepo(db)
	events := repository.NewEventRepo(db)
	zones := repository.NewZoneRepo(db)
	seats := repository.NewSeatRepo(db)
	stages := repository.NewPriceStageRepo(db)
	rows := repository.NewRowPricingRepo(db)
	taxConfigs := repository.NewTaxConfigRepo(db)
	transactions := repository.NewTransactionRepo(db)

	// Domain services
	priceResolver := pricing.New(stages, rows, zones)
	days := fiscal.NewDayManager(db)
	reports := fiscal.NewReportGenerator(db)
	inv := inventory.New(db)
	issuer := ticket.NewIssuer(sealer)
	validator := ticket.NewValidator(db, sealer)
	customers := customer.NewRegistry(db)

	co := checkout.New(db, inv, priceResolver, seats, taxConfigs, transactions, days, issuer)
	cart := checkout.NewCart()

	// Handlers
	handlers := router.Handlers{
		Auth:    handler.NewAuthHandler(cfg, users, tokens),
		Catalog: handler.NewCatalogHandler(venues, events, zones, seats, stages, rows),
		Cart:    handler.NewCartHandler(cart, inv, co, customers),
		Ticket:  handler.NewTicketHandler(validator),
		Fiscal:  handler.NewFiscalHandler(db, days, reports, taxConfigs),
		Audit:   handler.NewAuditHandler(db),
	}

	e := echo.New()
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterRoutes(e, handlers, cfg, tenants, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
