package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	checkoutserver "github.com/Apurer/go-gin-checkout-server/go"

	checkoutcache "github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/adapters/cache/redis"
	checkoutmemory "github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/adapters/memory"
	checkoutobs "github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/adapters/observability"
	checkoutpostgres "github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/adapters/persistence/postgres"
	checkoutapp "github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/application"
	checkoutports "github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/ports"

	inventorykafka "github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/adapters/events/kafka"
	inventorymemory "github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/adapters/memory"
	inventoryobs "github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/adapters/observability"
	inventorypostgres "github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/adapters/persistence/postgres"
	inventoryworkflows "github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/adapters/workflows"
	inventoryapp "github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/application"
	inventoryports "github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/ports"

	pricingobs "github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/adapters/observability"
	pricingapp "github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/application"
	pricingdomain "github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/domain"

	platformobservability "github.com/Apurer/go-gin-checkout-server/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-gin-checkout-server/internal/platform/postgres"
)

const serviceName = "checkout-api"

// Run boots the checkout HTTP API with observability, repositories, and workflows wired.
// It returns when ctx is cancelled or the server fails.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	db, cleanupDB := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanupDB()

	ledger, cleanupLedger := BuildLedger(cfg, db, instruments)
	defer cleanupLedger()

	pricingService := pricingobs.New(
		pricingapp.NewService(pricingapp.WithDefaultRules(pricingRules(cfg)...)),
		pricingobs.WithLogger(logger),
		pricingobs.WithTracer(instruments.Tracer("internal.pricing.application")),
		pricingobs.WithMeter(instruments.Meter("internal.pricing.application")),
	)

	coupons, cleanupCoupons := buildCouponRepository(ctx, cfg, db, logger)
	defer cleanupCoupons()
	checkoutService := checkoutobs.New(
		checkoutapp.NewService(
			pricingService,
			coupons,
			checkoutapp.WithFreeShippingThreshold(cfg.FreeShippingThresholdMinor),
			checkoutapp.WithBaseShippingRate(cfg.BaseShippingRateMinor),
			checkoutapp.WithMaxDiscount(cfg.MaxDiscountMinor),
		),
		checkoutobs.WithLogger(logger),
		checkoutobs.WithTracer(instruments.Tracer("internal.checkout.application")),
		checkoutobs.WithMeter(instruments.Meter("internal.checkout.application")),
	)

	if cfg.ReservationTTL > 0 {
		scheduler, closeScheduler := selectExpiryScheduler(cfg, db != nil, ledger, logger, func() (client.Client, error) {
			return connectTemporalClient(cfg, instruments)
		})
		defer closeScheduler()
		if err := scheduler.StartExpirySweeps(ctx, cfg.ExpirySweepInterval); err != nil {
			logger.Warn("reservation expiry sweeps not started", slog.String("error", err.Error()))
		}
	}

	handlers := checkoutserver.ApiHandleFunctions{
		PricingAPI:   checkoutserver.NewPricingAPI(pricingService),
		CheckoutAPI:  checkoutserver.NewCheckoutAPI(checkoutService),
		InventoryAPI: checkoutserver.NewInventoryAPI(ledger),
	}
	router := checkoutserver.NewRouter(handlers)
	router.Use(otelgin.Middleware(serviceName))

	server := &http.Server{Addr: ":" + cfg.Port, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("checkout API listening", slog.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("checkout API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("checkout API shutting down")
		return server.Shutdown(shutdownCtx)
	}
}

// BuildLedger assembles the decorated reservation ledger over postgres when db is set, and
// publishes lifecycle events to Kafka when brokers are configured.
func BuildLedger(cfg Config, db *gorm.DB, instruments *platformobservability.Instruments) (inventoryports.Ledger, func()) {
	logger := instruments.Logger
	var repo inventoryports.Repository = inventorymemory.NewRepository()
	if db != nil {
		repo = inventorypostgres.NewRepository(db)
		logger.Info("inventory ledger configured with postgres")
	} else {
		logger.Warn("inventory ledger running on in-memory repository")
	}

	opts := []inventoryapp.LedgerOption{
		inventoryapp.WithReservationTTL(cfg.ReservationTTL),
		inventoryapp.WithPublishFailureHandler(func(ctx context.Context, err error) {
			logger.ErrorContext(ctx, "failed to publish reservation events", slog.String("error", err.Error()))
		}),
	}
	cleanup := func() {}
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := inventorykafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, inventorykafka.WithProducer(serviceName))
		if err != nil {
			logger.Warn("reservation events disabled", slog.String("error", err.Error()))
		} else {
			opts = append(opts, inventoryapp.WithEventPublisher(publisher))
			cleanup = func() { _ = publisher.Close() }
			logger.Info("reservation events publishing to kafka", slog.String("topic", cfg.KafkaTopic))
		}
	}

	ledger := inventoryobs.New(
		inventoryapp.NewLedger(repo, opts...),
		inventoryobs.WithLogger(logger),
		inventoryobs.WithTracer(instruments.Tracer("internal.inventory.application")),
		inventoryobs.WithMeter(instruments.Meter("internal.inventory.application")),
	)
	return ledger, cleanup
}

// selectExpiryScheduler prefers the Temporal sweep workflow. The worker only sees reservations
// the API made when both share postgres, so an in-memory ledger is always swept inline.
func selectExpiryScheduler(cfg Config, sharedStore bool, ledger inventoryports.Ledger, logger *slog.Logger, dial func() (client.Client, error)) (inventoryports.ExpiryScheduler, func()) {
	inline := inventoryworkflows.NewInlineExpirySweeper(ledger, logger)
	if !sharedStore {
		logger.Info("sweeping expired reservations inline; the in-memory ledger is not shared with the Temporal worker")
		return inline, func() {}
	}
	temporalClient, err := dial()
	if err != nil {
		logger.Warn("Temporal workflows unavailable, sweeping expired reservations inline", slog.String("error", err.Error()))
		return inline, func() {}
	}
	logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	return inventoryworkflows.NewTemporalExpiryWorkflows(temporalClient), temporalClient.Close
}

func buildCouponRepository(ctx context.Context, cfg Config, db *gorm.DB, logger *slog.Logger) (checkoutports.CouponRepository, func()) {
	var repo checkoutports.CouponRepository = checkoutmemory.NewRepository()
	if db != nil {
		repo = checkoutpostgres.NewRepository(db)
	}
	if cfg.RedisAddr == "" {
		return repo, func() {}
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, coupon cache disabled", slog.String("error", err.Error()))
		_ = rdb.Close()
		return repo, func() {}
	}
	logger.Info("coupon cache configured with redis", slog.String("addr", cfg.RedisAddr))
	cache := checkoutcache.NewCouponCache(repo, rdb,
		checkoutcache.WithTTL(cfg.CouponCacheTTL),
		checkoutcache.WithKeyPrefix(cfg.CouponCachePrefix),
	)
	return cache, func() { _ = rdb.Close() }
}

func pricingRules(cfg Config) []pricingdomain.ContextOption {
	var rules []pricingdomain.ContextOption
	if cfg.TaxBaseRate != nil {
		rules = append(rules, pricingdomain.WithBaseRate(*cfg.TaxBaseRate))
	}
	if len(cfg.TaxFreeJurisdictions) > 0 {
		rules = append(rules, pricingdomain.WithTaxFreeJurisdictions(cfg.TaxFreeJurisdictions...))
	}
	return rules
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: instruments.Tracer("temporal-client"),
	})
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(instruments.Logger),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}
