package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/joho/godotenv"

	"github.com/Apurer/go-gin-checkout-server/internal/app/api"
	platformobservability "github.com/Apurer/go-gin-checkout-server/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-gin-checkout-server/internal/platform/postgres"
)

// One sweep of expired reservations, for cron-style deployments without Temporal.
func main() {
	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	instruments, shutdown, err := platformobservability.Init(ctx, "reservation-sweeper")
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()
	logger := instruments.Logger

	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot sweep reservations")
	}

	ledger, cleanupLedger := api.BuildLedger(cfg, db, instruments)
	defer cleanupLedger()
	report, err := ledger.ExpireStaleReservations(ctx, time.Now())
	if err != nil {
		log.Fatalf("failed to expire reservations: %v", err)
	}
	logger.Info("reservation sweep completed",
		slog.Int("scanned", report.Scanned),
		slog.Int("expired", report.Expired),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed),
	)
}
