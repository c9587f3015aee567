package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/insightgate/insightgate/internal/config"
	"github.com/insightgate/insightgate/internal/demo"
	"github.com/insightgate/insightgate/internal/warehouse"
)

func main() {
	dbPath := flag.String("db", "insightgate.duckdb", "DuckDB file to create and seed")
	seed := flag.Int64("seed", 1, "random seed for deterministic data")
	facilities := flag.Int("facilities", 4, "number of facilities to generate")
	days := flag.Int("days", 60, "days of history to generate")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := warehouse.Open(ctx, config.WarehouseConfig{Driver: "duckdb", DSN: *dbPath})
	if err != nil {
		logger.Error("failed to open duckdb file", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	logger.Info(
		"seeding demo warehouse",
		slog.String("db", *dbPath),
		slog.Int64("seed", *seed),
		slog.Int("facilities", *facilities),
		slog.Int("days", *days),
	)

	err = demo.Seed(ctx, db, demo.SeedConfig{
		Seed:       *seed,
		Facilities: *facilities,
		Days:       *days,
	})
	if err != nil {
		logger.Error("seeding failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("demo warehouse ready", slog.String("db", *dbPath))
}
