package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketing-core/internal/config"
	"github.com/iliyamo/ticketing-core/internal/database"
	"github.com/iliyamo/ticketing-core/internal/expirer"
	"github.com/iliyamo/ticketing-core/internal/inventory"
	"github.com/iliyamo/ticketing-core/internal/notification"
	"github.com/iliyamo/ticketing-core/internal/queue"
	"github.com/iliyamo/ticketing-core/internal/repository"
)

// cmd/worker runs the two background jobs described in internal/expirer
// against a live database, independently of cmd/server's HTTP process.
// Its own /healthz is unhealthy unless both jobs have ticked within the
// last minute, so an orchestrator restarts a worker that has wedged.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("info: .env not found; using defaults/env")
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("worker: connect db: %v", err)
	}
	defer db.Close()

	tenants := repository.NewTenantRepo(db)
	transactions := repository.NewTransactionRepo(db)
	inv := inventory.New(db)
	outbox := notification.NewOutbox(db)

	holdExpirer := expirer.NewHoldExpirer(db, inv, tenants)
	sweeper := expirer.NewReservationSweeper(db, transactions, outbox, tenants)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go holdExpirer.Run(ctx)
	go sweeper.Run(ctx)
	go func() {
		if err := queue.StartDispatchConsumer(); err != nil {
			log.Printf("worker: dispatch consumer exited: %v", err)
		}
	}()

	e := echo.New()
	e.GET("/healthz", func(c echo.Context) error {
		if !holdExpirer.Healthy() || !sweeper.Healthy() {
			return c.String(http.StatusServiceUnavailable, "unhealthy")
		}
		return c.String(http.StatusOK, "ok")
	})

	addr := ":" + cfg.WorkerPort
	log.Printf("worker listening on %s (env=%s)", addr, cfg.Env)
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("worker: healthz server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("worker: shutting down")
}
