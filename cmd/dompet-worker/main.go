package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"dompet/internal/amqp"
	"dompet/internal/config"
	"dompet/internal/services"
	"dompet/internal/storage"
)

// dompet-worker consumes wallet consistency alerts and rebuilds the flagged
// wallets from their ledgers.
func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting dompet-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL must be set for the repair worker")
		os.Exit(1)
	}

	store, err := storage.New(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	categories, err := services.NewCategoryResolver(store)
	if err != nil {
		logger.Error("Failed to initialize category cache", "error", err)
		os.Exit(1)
	}

	// The worker repairs in place; no publisher, a failed repair requeues.
	ledger := services.NewLedgerService(store, categories, nil)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler := func(msg *amqp.ConsistencyAlertMessage) error {
		balance, err := ledger.RepairWallet(ctx, msg.UserID)
		if err != nil {
			return err
		}
		logger.Info("Wallet repaired",
			"user_id", msg.UserID,
			"op", msg.Op,
			"balance_cents", balance)
		return nil
	}

	if err := amqpClient.ConsumeConsistencyAlerts(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
