package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"bookpay/internal/app"
	"bookpay/internal/config"
	"bookpay/internal/domain"
	"bookpay/internal/gateway"
	"bookpay/internal/handler"
	internalRedis "bookpay/internal/redis"
	"bookpay/internal/repository/postgres"
	"bookpay/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	if cfg.Payment.GatewayURL != "" && (cfg.Payment.APISecret == "" || cfg.Payment.PublicKeyPEM == "") {
		log.Fatal("live gateway configured without GATEWAY_API_SECRET / GATEWAY_PUBLIC_KEY")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server := wireServer(db, redisClient, nrApp, cfg)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	// Initialize Redis stores.
	cacheStore := internalRedis.NewCacheStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)

	// Initialize repositories.
	purchaseRepo := postgres.NewPurchaseRepository(db)

	// Select the gateway: a configured endpoint means the live processor,
	// otherwise the sandbox simulator behind the same interface.
	var gw gateway.Gateway
	if cfg.Payment.GatewayURL != "" {
		gw = gateway.NewClient(gateway.ClientConfig{
			Endpoint:            cfg.Payment.GatewayURL,
			ServiceProviderCode: cfg.Payment.ServiceProviderCode,
			APISecret:           []byte(cfg.Payment.APISecret),
			PublicKeyPEM:        []byte(cfg.Payment.PublicKeyPEM),
			Timeout:             cfg.Payment.GatewayTimeout,
		})
		log.Printf("Using live payment gateway at %s", cfg.Payment.GatewayURL)
	} else {
		gw = gateway.NewSimulator(cfg.Payment.CarrierPrefixes, cfg.Payment.PINEntryDelay)
		log.Println("Using sandbox payment gateway simulator")
	}

	// Initialize services.
	validator := service.NewPhoneValidator(cfg.Payment.CarrierPrefixes)
	notificationService := service.NewNotificationService()
	methodsService := service.NewMethodsService(configuredMethods(cfg.Methods), cacheStore)
	checkoutService := service.NewCheckoutService(
		validator,
		gw,
		methodsService,
		purchaseRepo,
		notificationService,
		lockStore,
		cfg.Payment.Currency,
		cfg.Payment.ConfirmTimeout,
	)

	// Initialize handlers.
	checkoutHandler := handler.NewCheckoutHandler(checkoutService)
	methodsHandler := handler.NewMethodsHandler(methodsService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		CheckoutHandler: checkoutHandler,
		MethodsHandler:  methodsHandler,
		RedisClient:     redisClient,
		NewRelicApp:     nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

// configuredMethods builds the payment method catalog from configuration.
func configuredMethods(cfg config.MethodsConfig) []domain.PaymentMethod {
	return []domain.PaymentMethod{
		{
			ID:          "mpesa",
			DisplayName: "M-Pesa",
			Kind:        domain.PaymentMethodKindMobileMoney,
			Enabled:     cfg.MobileMoneyEnabled,
		},
		{
			ID:          "card",
			DisplayName: "Credit / Debit Card",
			Kind:        domain.PaymentMethodKindCard,
			Enabled:     cfg.CardEnabled,
		},
		{
			ID:          "simulated",
			DisplayName: "Test Payment",
			Kind:        domain.PaymentMethodKindSimulated,
			Enabled:     cfg.SimulatedEnabled,
		},
	}
}
