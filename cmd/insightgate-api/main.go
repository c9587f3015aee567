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

	"github.com/insightgate/insightgate/internal/allowlist"
	"github.com/insightgate/insightgate/internal/analysis"
	"github.com/insightgate/insightgate/internal/api"
	"github.com/insightgate/insightgate/internal/ask"
	"github.com/insightgate/insightgate/internal/audit"
	"github.com/insightgate/insightgate/internal/auth"
	"github.com/insightgate/insightgate/internal/config"
	"github.com/insightgate/insightgate/internal/nl2sql"
	"github.com/insightgate/insightgate/internal/observability"
	"github.com/insightgate/insightgate/internal/patterncache"
	sqlitecache "github.com/insightgate/insightgate/internal/patterncache/sqlite"
	"github.com/insightgate/insightgate/internal/sqlguard"
	s3store "github.com/insightgate/insightgate/internal/storage/s3"
	"github.com/insightgate/insightgate/internal/warehouse"
)

func main() {
	cfg, err := config.LoadFromEnv("insightgate-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	registry := allowlist.Default()
	if cfg.Guard.AllowlistPath != "" {
		registry, err = allowlist.LoadFile(cfg.Guard.AllowlistPath)
		if err != nil {
			logger.Error("failed to load allowlist", slog.Any("error", err))
			os.Exit(1)
		}
	}
	validator := sqlguard.NewValidator(registry)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	warehouseDB, err := warehouse.Open(ctx, cfg.Warehouse)
	if err != nil {
		logger.Error("failed to open warehouse", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = warehouseDB.Close() }()

	recorder := audit.NewRecorder(logger, cfg.Archive.BufferLimit)

	var archiver *audit.Archiver
	if cfg.Archive.Enabled {
		objectStore, err := s3store.New(ctx, s3store.Config{
			Endpoint:         cfg.Archive.Endpoint,
			Region:           cfg.Archive.Region,
			Bucket:           cfg.Archive.Bucket,
			AccessKeyID:      cfg.Archive.AccessKeyID,
			SecretAccessKey:  cfg.Archive.SecretAccessKey,
			UseSSL:           cfg.Archive.UseSSL,
			Prefix:           cfg.Archive.Prefix,
			AutoCreateBucket: cfg.Archive.AutoCreateBucket,
		})
		if err != nil {
			logger.Error("failed to initialize audit archive store", slog.Any("error", err))
			os.Exit(1)
		}
		archiver, err = audit.NewArchiver(recorder, objectStore, cfg.Archive.FlushInterval, logger)
		if err != nil {
			logger.Error("failed to initialize audit archiver", slog.Any("error", err))
			os.Exit(1)
		}
		go archiver.Run(ctx)
	}

	var cache patterncache.Store
	if cfg.Cache.SQLitePath != "" {
		sqliteStore, err := sqlitecache.Open(cfg.Cache.SQLitePath, cfg.Cache.MaxSize, cfg.Cache.TTL, logger)
		if err != nil {
			logger.Error("failed to open pattern cache store", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = sqliteStore.Close() }()
		cache = sqliteStore
	} else {
		cache = patterncache.New(cfg.Cache.MaxSize, cfg.Cache.TTL)
	}

	var translator nl2sql.Translator
	var summarizer nl2sql.Summarizer
	if cfg.AI.TranslateEnabled {
		aiClient, err := nl2sql.NewOpenAIClient(nl2sql.OpenAIConfig{
			BaseURL:      cfg.AI.BaseURL,
			APIKey:       cfg.AI.APIKey,
			Model:        cfg.AI.Model,
			Temperature:  cfg.AI.Temperature,
			Timeout:      cfg.AI.Timeout,
			SchemaPrompt: registry.SchemaPrompt(),
		})
		if err != nil {
			logger.Error("failed to initialize query translator", slog.Any("error", err))
			os.Exit(1)
		}
		translator = aiClient
		summarizer = aiClient
	}

	executor, err := warehouse.NewExecutor(warehouseDB, recorder, cfg.Guard.ExecTimeout, logger)
	if err != nil {
		logger.Error("failed to initialize executor", slog.Any("error", err))
		os.Exit(1)
	}

	askService, err := ask.NewService(translator, summarizer, cache, validator, executor, cfg.Guard.MaxRows, logger)
	if err != nil {
		logger.Error("failed to initialize ask service", slog.Any("error", err))
		os.Exit(1)
	}

	coordinator, err := analysis.NewCoordinator(executor, validator, summarizer, logger)
	if err != nil {
		logger.Error("failed to initialize analysis coordinator", slog.Any("error", err))
		os.Exit(1)
	}

	deps := api.Dependencies{
		Logger:    logger,
		Ask:       askService,
		Analysis:  coordinator,
		Executor:  executor,
		Validator: validator,
		MaxRows:   cfg.Guard.MaxRows,
		Cache:     cache,
		Readiness: api.CombineReadinessChecks(
			api.CheckWarehouseDSN(cfg),
			api.CheckArchiveConfig(cfg),
			warehouseDB.PingContext,
		),
		DependencyTimeout: time.Second,
	}
	if archiver != nil {
		deps.Archiver = archiver
	}
	if cfg.Auth.Required {
		keyValidator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, keyValidator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
