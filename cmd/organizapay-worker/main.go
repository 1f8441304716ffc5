package main

import (
	"context"
	"errors"
	"os"
	"time"

	"organizapay/internal/amqp"
	"organizapay/internal/cli"
	"organizapay/internal/log"
	"organizapay/internal/sheets"
	"organizapay/internal/sheets/google"
	"organizapay/internal/sheets/memory"
	"organizapay/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()
	logger.Info("Starting organizapay-worker")

	be := cli.InitBackend(context.Background(), logger, cfg)

	var mirror sheets.Mirror
	if cfg.MirrorEnabled() {
		client, err := google.New(context.Background(), google.Config{
			SpreadsheetID:          cfg.GoogleSpreadsheetID,
			ServiceAccountJSON:     cfg.GoogleServiceAccountJSON,
			ServiceAccountFile:     cfg.GoogleServiceAccountFile,
			ApplicationCredentials: cfg.GoogleApplicationCredentials,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		mirror = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		mirror = memory.New()
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, mirroring in memory only")
	}

	syncWorker := worker.NewSyncWorker(be.Backend, mirror, cfg.SyncInterval, logger)

	var consumer *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		consumer, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
	} else {
		logger.Info("No AMQP_URL provided, relying on periodic sweeps only")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := syncWorker.Stop(ctx); err != nil {
			logger.Warn("Sync worker stop error", log.FieldError, err)
		}
		if consumer != nil {
			if err := consumer.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
		if be.Cleanup != nil {
			if err := be.Cleanup(); err != nil {
				logger.Warn("Backend close error", log.FieldError, err)
			}
		}
	})

	// The first sweep replays anything missed while the worker was down.
	if err := syncWorker.Start(ctx); err != nil {
		logger.Error("Failed to start sync worker", log.FieldError, err)
		os.Exit(1)
	}

	if consumer != nil {
		go func() {
			err := consumer.ConsumeChanges(ctx, cfg.SyncPrefetch, syncWorker.HandleChange)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
		}()
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
