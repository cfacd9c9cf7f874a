package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-checkout-server/internal/app/api"
	inventoryactivities "github.com/Apurer/go-gin-checkout-server/internal/durable/temporal/activities/inventory"
	inventoryworkflows "github.com/Apurer/go-gin-checkout-server/internal/durable/temporal/workflows/inventory"
	platformobservability "github.com/Apurer/go-gin-checkout-server/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-gin-checkout-server/internal/platform/postgres"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	const serviceName = "checkout-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	cfg, err := api.LoadConfig()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	db, cleanupDB := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanupDB()
	if db == nil {
		logger.Warn("worker ledger is in-memory; sweeps will not see reservations made by the API")
	}
	ledger, cleanupLedger := api.BuildLedger(cfg, db, instruments)
	defer cleanupLedger()
	expiryActivities := inventoryactivities.NewActivities(ledger)

	tracingInterceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{Tracer: instruments.Tracer("temporal-worker")})
	if err != nil {
		logger.Error("failed to configure Temporal tracing interceptor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clientOptions := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, inventoryworkflows.ReservationExpiryTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(inventoryworkflows.ReservationExpiryWorkflow, workflow.RegisterOptions{Name: inventoryworkflows.ReservationExpiryWorkflowName})
	w.RegisterActivityWithOptions(expiryActivities.ExpireStaleReservations, activity.RegisterOptions{Name: inventoryactivities.ExpireStaleReservationsActivityName})

	logger.Info("worker listening", slog.String("taskQueue", inventoryworkflows.ReservationExpiryTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
