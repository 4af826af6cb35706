package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aljonleynes11/media-coding-exam-backend/analysis"
	"github.com/aljonleynes11/media-coding-exam-backend/auth"
	"github.com/aljonleynes11/media-coding-exam-backend/config"
	"github.com/aljonleynes11/media-coding-exam-backend/database"
	handler "github.com/aljonleynes11/media-coding-exam-backend/handlers"
	"github.com/aljonleynes11/media-coding-exam-backend/logging"
	"github.com/aljonleynes11/media-coding-exam-backend/queue"
	"github.com/aljonleynes11/media-coding-exam-backend/repository"
	"github.com/aljonleynes11/media-coding-exam-backend/router"
	"github.com/aljonleynes11/media-coding-exam-backend/storage"
	gormlogger "gorm.io/gorm/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.New(cfg.LogLevel)

	db, err := database.Open(cfg.DatabaseURL, gormLogLevel(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Error(context.Background(), "closing the database connection", "error", err)
		}
	}()
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	objects, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	if closer, ok := objects.(io.Closer); ok {
		defer closer.Close()
	}

	var cache storage.URLCache
	rdb, err := storage.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Warn(ctx, "redis unavailable, signed URLs will not be cached", "error", err)
	} else if rdb != nil {
		defer rdb.Close()
		cache = storage.NewRedisCache(rdb)
	}
	signer := storage.NewSigner(objects, cache, logger.With("component", "signer"))

	users := repository.NewUsers(db)
	images := repository.NewImages(db)
	metadata := repository.NewMetadata(db)

	accounts := auth.NewService(users, auth.Options{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		TokenTTL: cfg.TokenTTL,
	})

	provider, err := analysis.NewProvider(cfg.Analysis, nil)
	if err != nil {
		return err
	}
	dispatcher := analysis.NewFunctionDispatcher(
		cfg.Analysis.AnalyzeFunctionURL(),
		cfg.Analysis.FunctionsAnonKey,
		&http.Client{Timeout: 30 * time.Second},
	)
	orchestrator := analysis.NewOrchestrator(metadata, signer, analysis.Options{
		Mode:         cfg.Analysis.Mode,
		SignedURLTTL: cfg.Analysis.SignedURLTTL,
		Provider:     provider,
		Dispatcher:   dispatcher,
		Logger:       logger.With("component", "analysis"),
	})

	pool := queue.NewPool(cfg.Analysis.Workers, cfg.Analysis.QueueSize, logger.With("component", "queue"))
	defer pool.Close()

	h := handler.New(handler.Deps{
		Accounts:         accounts,
		Images:           images,
		Metadata:         metadata,
		Objects:          objects,
		Signer:           signer,
		Analyzer:         orchestrator,
		Queue:            pool,
		Logger:           logger.With("component", "http"),
		Bucket:           cfg.Storage.UploadBucket,
		ExposeSignedURLs: cfg.ExposeSignedURLs,
		SignedURLTTL:     cfg.Analysis.SignedURLTTL,
	})
	app := router.New(h, accounts, router.Options{
		CORSOrigins: cfg.CORSOrigins,
		AccessLog:   true,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server is listening", "port", cfg.Port,
			"storage", cfg.Storage.Driver, "analysis_mode", cfg.Analysis.Mode, "provider", cfg.Analysis.Provider)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "debug":
		return gormlogger.Info
	case "error":
		return gormlogger.Error
	default:
		return gormlogger.Warn
	}
}
