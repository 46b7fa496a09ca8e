package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/urbancart/urbancart-backend/api"
	"github.com/urbancart/urbancart-backend/api/routes"
	"github.com/urbancart/urbancart-backend/internal/admin"
	"github.com/urbancart/urbancart-backend/internal/auth"
	"github.com/urbancart/urbancart-backend/internal/cart"
	"github.com/urbancart/urbancart-backend/internal/media"
	"github.com/urbancart/urbancart-backend/internal/notifications"
	"github.com/urbancart/urbancart-backend/internal/orders"
	"github.com/urbancart/urbancart-backend/internal/products"
	"github.com/urbancart/urbancart-backend/internal/users"
	"github.com/urbancart/urbancart-backend/pkg/auth/session"
	"github.com/urbancart/urbancart-backend/pkg/config"
	"github.com/urbancart/urbancart-backend/pkg/db"
	"github.com/urbancart/urbancart-backend/pkg/events"
	"github.com/urbancart/urbancart-backend/pkg/logger"
	"github.com/urbancart/urbancart-backend/pkg/mailer"
	"github.com/urbancart/urbancart-backend/pkg/metrics"
	"github.com/urbancart/urbancart-backend/pkg/migrate"
	"github.com/urbancart/urbancart-backend/pkg/razorpay"
	"github.com/urbancart/urbancart-backend/pkg/redis"
	"github.com/urbancart/urbancart-backend/pkg/security"
	"github.com/urbancart/urbancart-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: cfg.App.ServiceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.Prepare(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	sender, err := mailer.NewSMTPSender(cfg.Email)
	if err != nil {
		return err
	}
	notifier, err := notifications.NewService(sender, appMetrics, logg, cfg.App.SiteURL)
	if err != nil {
		return err
	}

	publisher, err := events.New(cfg.Kafka)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logg.Error(context.Background(), "error closing event publisher", err)
		}
	}()

	// without a bucket the catalog still serves reads; uploads fail
	var store *gcs.Client
	if cfg.GCS.Enabled() {
		store, err = gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		if err != nil {
			return err
		}
	} else {
		logg.Warn(ctx, "gcs bucket not configured, media uploads disabled")
	}
	mediaService, err := media.NewService(store, cfg.GCS.MaxUploadMB, logg)
	if err != nil {
		return err
	}

	resetSecret := cfg.PasswordReset.Secret
	if resetSecret == "" {
		resetSecret = cfg.JWT.Secret
	}
	resetTokens, err := security.NewResetTokens(resetSecret, cfg.PasswordReset.TTL())
	if err != nil {
		return err
	}

	usersRepo := users.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())

	usersService, err := users.NewService(usersRepo)
	if err != nil {
		return err
	}
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		ResetTokens:    resetTokens,
		Notifier:       notifier,
		Logger:         logg,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		ResetTTL:       cfg.PasswordReset.TTL(),
		SiteURL:        cfg.App.SiteURL,
	})
	if err != nil {
		return err
	}
	productsService, err := products.NewService(products.NewRepository(dbClient.DB()), dbClient, mediaService, logg)
	if err != nil {
		return err
	}
	cartService, err := cart.NewService(cartRepo, dbClient, logg)
	if err != nil {
		return err
	}
	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:        ordersRepo,
		Carts:       cartRepo,
		Users:       usersRepo,
		Tx:          dbClient,
		Gateway:     razorpay.New(cfg.Razorpay, logg),
		Notifier:    notifier,
		Publisher:   publisher,
		Metrics:     appMetrics,
		Logger:      logg,
		Currency:    cfg.Razorpay.Currency,
		DeliveryFee: cfg.Razorpay.DeliveryFee,
	})
	if err != nil {
		return err
	}
	adminService, err := admin.NewService(ordersRepo, dbClient, notifier, publisher, logg)
	if err != nil {
		return err
	}

	handler := routes.NewRouter(routes.Dependencies{
		Config:           cfg,
		Logger:           logg,
		Metrics:          appMetrics,
		Database:         dbClient,
		Sessions:         sessionManager,
		RateLimitStore:   redisClient,
		IdempotencyStore: redisClient,
		MetricsHandler:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		Auth:             authService,
		Users:            usersService,
		Products:         productsService,
		Cart:             cartService,
		Orders:           ordersService,
		Admin:            adminService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "addr": addr})
	logg.Info(logCtx, "starting api server")

	return api.Serve(ctx, api.NewServer(addr, handler), logg)
}
