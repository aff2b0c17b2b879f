/**
 * @description
 * This is the main entry point for the PayPal dashboard service. It loads configuration,
 * builds the logger, wires the PayPal client, the optional Redis token cache and the
 * optional RabbitMQ producer into the application service, and serves the HTTP router
 * on all interfaces until SIGINT/SIGTERM.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files during local development.
 * - github.com/redis/go-redis/v9: Optional shared token cache.
 * - go.uber.org/zap: Structured logging.
 */

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/transfa/paypal-dashboard/internal/api"
	"github.com/transfa/paypal-dashboard/internal/app"
	"github.com/transfa/paypal-dashboard/internal/config"
	"github.com/transfa/paypal-dashboard/pkg/paypalclient"
	"github.com/transfa/paypal-dashboard/pkg/rabbitmq"
)

func main() {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := setupLogger(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if !cfg.DashboardCredentialsSet() {
		log.Warn("DASHBOARD_USER/DASHBOARD_PASS not set; every dashboard request will be refused")
	}
	if !cfg.PayPalCredentialsSet() {
		log.Warn("PAYPAL_CLIENT_ID/PAYPAL_CLIENT_SECRET not set; PayPal calls will fail")
	}

	paypal := paypalclient.NewClient(cfg.PayPalAPIBaseURL, cfg.PayPalClientID, cfg.PayPalClientSecret, cfg.PayPalTimeout(), log)
	tokens := app.NewTokenProvider(paypal, log)

	if cfg.RedisURL != "" {
		if redisClient := connectRedis(cfg.RedisURL, log); redisClient != nil {
			defer redisClient.Close()
			tokens.SetCache(app.NewRedisTokenCache(redisClient), app.TokenCacheKey(cfg.TokenCachePrefix, cfg.PayPalClientID))
			log.Info("paypal token cache enabled")
		}
	}

	var publisher app.EventPublisher = &rabbitmq.EventProducerFallback{Logger: log}
	if cfg.RabbitMQURL != "" {
		if producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL, cfg.PayoutEventExchange, log); err == nil {
			publisher = producer
			defer producer.Close()
			log.Info("rabbitmq producer connected", zap.String("exchange", cfg.PayoutEventExchange))
		} else {
			log.Warn("failed to connect to RabbitMQ, using fallback publisher", zap.Error(err))
		}
	}

	service := app.NewService(tokens, paypal, publisher, app.PayoutSettings{
		Currency:     cfg.PayoutCurrency,
		EmailSubject: cfg.PayoutEmailSubject,
	}, log)
	handlers := api.NewDashboardHandlers(service, log)
	if origins := cfg.AllowedOrigins(); len(origins) > 0 {
		log.Info("cross-origin access enabled", zap.Strings("origins", origins))
	}
	router := api.NewRouter(handlers, api.RouterOptions{
		Credentials: api.DashboardCredentials{
			Username: cfg.DashboardUser,
			Password: cfg.DashboardPass,
		},
		AllowedOrigins: cfg.AllowedOrigins(),
		RequestTimeout: cfg.RequestTimeout(),
	}, log)

	// Empty host binds all interfaces, as container platforms expect.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed to start", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("shutdown signal received, gracefully shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}

	log.Info("server stopped")
}

// connectRedis returns nil when Redis is unusable; the token provider then fetches
// a fresh token on every call.
func connectRedis(redisURL string, log *zap.Logger) *redis.Client {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn("redis url parse failed; token cache disabled", zap.Error(err))
		return nil
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis ping failed; token cache disabled", zap.Error(err))
		client.Close()
		return nil
	}
	return client
}

func setupLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLogLevel(level))

	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}

	return log
}

func parseLogLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
