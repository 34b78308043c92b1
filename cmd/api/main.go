// @title                       Class Booking API
// @version                     1.0
// @description                 Class enrollment backend: identities, classes, selections and payments.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lenslegacy/class-booking/docs"
	"github.com/lenslegacy/class-booking/internal/api"
	"github.com/lenslegacy/class-booking/internal/api/handler"
	"github.com/lenslegacy/class-booking/internal/core/service"
	mongodb "github.com/lenslegacy/class-booking/internal/infrastructure/db/mongo"
	redisdb "github.com/lenslegacy/class-booking/internal/infrastructure/db/redis"
	"github.com/lenslegacy/class-booking/internal/infrastructure/payments/stripe"
	"github.com/lenslegacy/class-booking/internal/pkg/config"
	"github.com/lenslegacy/class-booking/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// ─── Configuration & logging ───────────────────────────────────────
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "class-booking",
	})
	log.Info().
		Str("port", cfg.Port).
		Str("env", cfg.Env).
		Str("log_level", cfg.LogLevel).
		Msg("starting class booking API")

	if cfg.Stripe.SecretKey == "" {
		log.Warn().Msg("STRIPE_SECRET_KEY is empty; payment intents will be rejected by the processor")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─── MongoDB ───────────────────────────────────────────────────────
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("MongoDB disconnect")
		}
	}()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to create MongoDB indexes")
	}

	// ─── Redis ─────────────────────────────────────────────────────────
	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Repositories, adapters, services ──────────────────────────────
	users := mongodb.NewUserRepository(db)
	classes := mongodb.NewClassRepository(db)
	payments := mongodb.NewPaymentRepository(db)
	receipts := redisdb.NewReceiptGuard(rdb)
	gateway := stripe.NewClient(stripe.Config{
		SecretKey: cfg.Stripe.SecretKey,
		BaseURL:   cfg.Stripe.BaseURL,
		Currency:  cfg.Stripe.Currency,
	}, log.With().Str("component", "stripe").Logger())

	services := api.Services{
		Identity: service.NewIdentityService(users, cfg.JWTSecret, cfg.TokenTTL,
			log.With().Str("component", "identity").Logger()),
		Classes: service.NewClassService(classes, users,
			log.With().Str("component", "classes").Logger()),
		Enrollment: service.NewEnrollmentService(users, classes, payments, gateway, receipts,
			log.With().Str("component", "enrollment").Logger()),
	}

	// ─── HTTP ──────────────────────────────────────────────────────────
	router := api.NewRouter(api.RouterConfig{
		JWTSecret:        cfg.JWTSecret,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		HealthChecks: map[string]handler.HealthCheck{
			"mongodb": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
			"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
	}, services, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	// ─── Graceful shutdown ─────────────────────────────────────────────
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
		os.Exit(1)
	}

	log.Info().Msg("shutdown complete")
}
