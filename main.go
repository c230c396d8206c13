package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bluebuff/storefront/internal/catalog"
	"github.com/bluebuff/storefront/internal/config"
	delivery "github.com/bluebuff/storefront/internal/delivery/http"
	"github.com/bluebuff/storefront/internal/messaging"
	"github.com/bluebuff/storefront/internal/messaging/kafka"
	busmem "github.com/bluebuff/storefront/internal/messaging/memory"
	"github.com/bluebuff/storefront/internal/pricing"
	"github.com/bluebuff/storefront/internal/repository"
	repomem "github.com/bluebuff/storefront/internal/repository/memory"
	"github.com/bluebuff/storefront/internal/repository/postgres"
	"github.com/bluebuff/storefront/internal/service"
	"github.com/bluebuff/storefront/internal/session"
	"github.com/bluebuff/storefront/internal/storeapi"
	"github.com/bluebuff/storefront/internal/upi"
)

func main() {
	slog.SetLogLoggerLevel(slog.LevelDebug)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Database ---
	var (
		eventStore    repository.EventStore
		gatewayOrders repository.GatewayOrderRepository
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.InitDB(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("Failed to init database", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		eventStore = postgres.NewEventStore(db)
		gatewayOrders = postgres.NewGatewayOrderRepository(db)
	} else {
		slog.Warn("DATABASE_URL not set, keeping checkouts in memory")
		eventStore = repomem.NewEventStore()
		gatewayOrders = repomem.NewGatewayOrderRepository()
	}

	// --- Sessions ---
	var sessionStore session.Store
	if cfg.RedisURL != "" {
		rs, err := session.NewRedisStore(ctx, cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			slog.Error("Failed to init Redis", "err", err)
			os.Exit(1)
		}
		defer rs.Close()
		sessionStore = rs
	} else {
		slog.Warn("REDIS_URL not set, keeping sessions in memory")
		sessionStore = session.NewMemoryStore(cfg.SessionTTL)
	}

	// --- Broker ---
	var (
		publisher  messaging.Publisher
		subscriber messaging.Subscriber
	)
	if len(cfg.KafkaBrokers) > 0 {
		broker := kafka.NewKafkaBroker(cfg.KafkaBrokers)
		defer broker.Close()
		publisher, subscriber = broker, broker
	} else {
		slog.Warn("KAFKA_BROKERS not set, delivering checkout events in process")
		bus := busmem.NewBus()
		defer bus.Close()
		publisher, subscriber = bus, bus
	}

	// --- Services ---
	api := storeapi.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamTimeout)
	projection := service.NewProjectionService(gatewayOrders)
	checkout := service.NewCheckoutService(
		eventStore,
		publisher,
		api,
		upi.NewEncoder(cfg.UPI.QRSize),
		service.Payee{Address: cfg.UPI.PayeeAddress, Name: cfg.UPI.PayeeName},
		pricing.DiscountTable(cfg.Discounts),
		cfg.KafkaTopic,
	)
	storefront := service.NewStorefrontService(api, catalog.NewBrowser(cfg.OutOfStockGames), cfg.OrdersPageSize, cfg.GridPageSize)

	listings, err := catalog.LoadListings(cfg.ListingsFile)
	if err != nil {
		slog.Error("Failed to load account listings", "file", cfg.ListingsFile, "err", err)
		os.Exit(1)
	}

	// --- HTTP API ---
	handler := delivery.NewHandler(storefront, checkout, projection, service.NewListingService(listings), session.NewManager(sessionStore), delivery.CookieConfig{
		Name:   cfg.SessionCookie,
		MaxAge: cfg.SessionTTL,
		Secure: os.Getenv("ENV") == "production",
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --- Start everything ---
	// Consumer: checkout.events → gateway_orders projection
	go subscriber.Consume(ctx, cfg.KafkaTopic, cfg.KafkaGroupID, projection.HandleMessage)

	go func() {
		slog.Info("HTTP server starting", "addr", cfg.HTTPAddr, "upstream", cfg.UpstreamBaseURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "err", err)
			cancel()
		}
	}()

	slog.Info("Checkout consumer started", "topic", cfg.KafkaTopic)

	<-ctx.Done()
	slog.Info("Shutting down...")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "err", err)
	}
}
