package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/openhaul/orderflow/internal/cache"
	"github.com/openhaul/orderflow/internal/config"
	"github.com/openhaul/orderflow/internal/domain"
	"github.com/openhaul/orderflow/internal/postgres"
	"github.com/openhaul/orderflow/internal/repository"
	"github.com/openhaul/orderflow/internal/workflow"
	"go.uber.org/zap"
)

// Submits a single order draft read from a JSON file, e.g.
//
//	orderflow draft.json
//
// The file holds one draft variant: {"create": {...}} or {"edit": {...}}.
// The workflow itself is a library; this entry exists for wiring checks
// and manual backfills.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type draftFile struct {
	Create *domain.CreateDraft `json:"create,omitempty"`
	Edit   *domain.EditDraft   `json:"edit,omitempty"`
}

func (f draftFile) draft() (domain.Draft, error) {
	switch {
	case f.Create != nil && f.Edit != nil:
		return nil, errors.New("draft file has both create and edit variants")
	case f.Create != nil:
		return *f.Create, nil
	case f.Edit != nil:
		return *f.Edit, nil
	default:
		return nil, errors.New("draft file has neither create nor edit variant")
	}
}

func run() error {
	if len(os.Args) != 2 {
		return fmt.Errorf("usage: %s <draft.json>", os.Args[0])
	}

	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("zap.NewProduction: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	raw, err := os.ReadFile(os.Args[1])
	if err != nil {
		return fmt.Errorf("os.ReadFile: %w", err)
	}

	var file draftFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	draft, err := file.draft()
	if err != nil {
		return err
	}

	ctx := context.Background()

	pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("postgres.Connect: %w", err)
	}
	defer pool.Close()

	rdb := cache.New(cfg.RedisAddr)
	defer func() { _ = rdb.Close() }()

	orders, err := repository.NewOrder(pool)
	if err != nil {
		return fmt.Errorf("repository.NewOrder: %w", err)
	}

	locations, err := repository.NewLocation(pool)
	if err != nil {
		return fmt.Errorf("repository.NewLocation: %w", err)
	}

	invalidator, err := cache.NewInvalidator(rdb)
	if err != nil {
		return fmt.Errorf("cache.NewInvalidator: %w", err)
	}

	writer, err := workflow.NewOrderWriter(orders, locations, invalidator, logger)
	if err != nil {
		return fmt.Errorf("workflow.NewOrderWriter: %w", err)
	}

	result, err := writer.Submit(ctx, draft)
	if err != nil {
		return fmt.Errorf("writer.Submit: %w", err)
	}

	logger.Info("order written",
		zap.String("service", cfg.ServiceName),
		zap.Int64("order_id", result.OrderID),
		zap.String("order_readable_id", result.OrderReadableID))

	return nil
}
