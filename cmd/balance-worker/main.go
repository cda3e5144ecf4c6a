// Command balance-worker consumes balance recalculation requests published
// by the API when BALANCE_RECALC_MODE=amqp.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"flux/internal/config"
	"flux/internal/database"
	"flux/internal/events"
	"flux/internal/logger"
	"flux/internal/services"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Named("balance-worker")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.FromAppConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() { _ = dbManager.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := events.DialWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("failed to connect to AMQP: %w", err)
	}
	defer func() { _ = client.Close() }()

	balances := services.NewBalanceService(dbManager.DB())
	log.Infow("Consuming balance recalculation requests", "queue", cfg.AMQPQueue)

	if err := client.ConsumeRecalculate(ctx, events.RecalculateHandler(balances)); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("message consumption failed: %w", err)
	}
	log.Info("Worker stopped")
	return nil
}
