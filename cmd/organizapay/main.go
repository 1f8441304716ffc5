package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"organizapay/internal/amqp"
	"organizapay/internal/auth"
	"organizapay/internal/cache"
	"organizapay/internal/cli"
	"organizapay/internal/finance"
	apphttp "organizapay/internal/http"
	"organizapay/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()

	be := cli.InitBackend(context.Background(), logger, cfg)
	store := be.Backend

	svc, err := auth.New(store, store, auth.Config{
		Secret:      []byte(cfg.JWTSecret),
		Issuer:      cfg.JWTIssuer,
		TTL:         cfg.SessionTTL,
		RevokedSize: cfg.RevokedSize,
	}, auth.WithLogger(logger))
	if err != nil {
		logger.Error("Failed to initialize auth service", log.FieldError, err)
		os.Exit(1)
	}

	opts := []finance.Option{finance.WithLogger(logger)}
	var publisher *amqp.Client
	if cfg.AMQPURL != "" {
		publisher, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			// Change events are best effort; the worker's sweep catches up.
			logger.Warn("AMQP unavailable, change events disabled", log.FieldError, err)
		} else {
			opts = append(opts, finance.WithPublisher(publisher))
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange)
		}
	}

	registry := finance.NewRegistry(store, cfg.ControllerCacheSize, cfg.ControllerCacheTTL, logger, opts...)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Auth:          svc,
		Registry:      registry,
		Ping:          be.Ping,
		Logger:        logger,
		RateLimit:     cfg.RateLimitPerMinute,
		AuthRateLimit: cfg.AuthRateLimit,
	})

	caches := cache.NewManager(logger.Logger.With(log.FieldComponent, log.ComponentCache))
	caches.Register(svc.Revoked())
	caches.Register(registry.Cleaner())
	for _, c := range srv.Cleaners() {
		caches.Register(c)
	}
	caches.StartCleanup(time.Minute)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		registry.Close()
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
		if be.Cleanup != nil {
			if err := be.Cleanup(); err != nil {
				logger.Warn("Backend close error", log.FieldError, err)
			}
		}
	})

	logger.Info("Starting organizapay server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
