package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/kishan2613/Sarthi/config"
	"github.com/kishan2613/Sarthi/cron"
	"github.com/kishan2613/Sarthi/database/repository"
	"github.com/kishan2613/Sarthi/handlers"
	"github.com/kishan2613/Sarthi/routes"
	"github.com/kishan2613/Sarthi/services/booking"
	"github.com/kishan2613/Sarthi/services/notification"
	"github.com/kishan2613/Sarthi/services/slot"
	"github.com/kishan2613/Sarthi/services/tasks"
	"github.com/kishan2613/Sarthi/utils"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// repositories.
	stores, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to open %s store: %v", cfg.StoreDriver, err)
	}

	var redisClients []*redis.Client

	// slot listing cache.
	var listCache slot.ListCache
	if cfg.CacheEnabled {
		client, err := utils.InitCache()
		if err != nil {
			logger.Warn("main: slot cache disabled", zap.Error(err))
		} else {
			listCache = slot.NewRedisSlotCache(client, cfg.SlotCacheTTL)
			redisClients = append(redisClients, client)
		}
	}

	// notifications.
	var events booking.EventPublisher
	var queueClient *asynq.Client
	var inspector *asynq.Inspector
	if cfg.NotifyEnabled {
		queueClient = asynq.NewClient(cron.RedisOpt(cfg))
		inspector = asynq.NewInspector(cron.RedisOpt(cfg))
		events = tasks.NewAsynqPublisher(queueClient, inspector, cfg.Location(), logger)

		var notifier notification.Notifier = notification.LogNotifier{Logger: logger}
		if cfg.NotifyWebhookURL != "" {
			notifier = notification.NewWebhookNotifier(cfg.NotifyWebhookURL)
		}
		cron.InitNotificationWorker(ctx, cfg, notifier, stores.Bookings, logger)
	}

	// services.
	slotService := slot.NewDefaultSlotService(stores.Slots, listCache, logger)
	bookingService := &booking.DefaultBookingService{
		Repo:       stores.Bookings,
		Accountant: booking.NewCapacityAccountant(stores.Ledger, logger),
		Issuer:     booking.NewTicketIssuer(cfg.GateCount),
		Identity:   booking.IdentityProtector{Cost: cfg.AadhaarHashCost},
		Logger:     logger,
	}
	// Leave the interfaces nil rather than holding typed nils.
	if listCache != nil {
		bookingService.Cache = listCache
	}
	if events != nil {
		bookingService.Events = events
	}

	monitor := utils.NewHealthMonitor(stores.Driver, redisClients, stores.Mongo)
	monitor.Start(ctx)

	tokens := utils.NewTokenIssuer(cfg.JWTSecret)
	if cfg.AdminPasswordHash == "" {
		logger.Warn("main: ADMIN_PASSWORD_HASH is empty; admin login is disabled")
	}

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Slots:         handlers.NewSlotHandler(slotService),
		Bookings:      handlers.NewBookingHandler(bookingService),
		Admin:         handlers.NewAdminHandler(tokens, cfg.AdminUsername, cfg.AdminPasswordHash, cfg.AdminTokenTTL),
		HealthHandler: handlers.HealthHandler(monitor),
	}

	router := gin.New()
	routes.RegisterRoutes(router, handlerBundle, routes.Options{
		AllowedOrigins:    cfg.AllowedOrigins(),
		MaxRequestsPerMin: cfg.MaxRequestsPerMin,
		Tokens:            tokens,
		TrustedProxies:    cfg.TrustedProxies(),
	})

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	<-ctx.Done()
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	if queueClient != nil {
		_ = queueClient.Close()
	}
	if inspector != nil {
		_ = inspector.Close()
	}
	for _, c := range redisClients {
		_ = c.Close()
	}
	if err := stores.Close(shutdownCtx); err != nil {
		logger.Warn("main: failed to close store", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
