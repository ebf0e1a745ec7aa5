// Command server runs the talent-flow HTTP service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/talent-flow/talent-flow/internal/api"
	"github.com/talent-flow/talent-flow/internal/completion"
	"github.com/talent-flow/talent-flow/internal/config"
	"github.com/talent-flow/talent-flow/internal/database"
	"github.com/talent-flow/talent-flow/internal/embedding"
	"github.com/talent-flow/talent-flow/internal/observability"
	"github.com/talent-flow/talent-flow/internal/recommend"
	"github.com/talent-flow/talent-flow/internal/repository"
	"github.com/talent-flow/talent-flow/internal/summarizer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Service.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	db, err := database.Connect(connectCtx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db, cfg.Database, logger); err != nil {
		return err
	}

	vectorRepo := repository.NewVectorRepository(db, logger)
	recordRepo := repository.NewRecordRepository(db, logger)

	embedder, err := embedding.NewOpenAIClient(embedding.Config{
		Endpoint:       cfg.Embedding.Endpoint,
		APIKey:         cfg.Embedding.APIKey,
		Model:          cfg.Embedding.Model,
		RequestTimeout: cfg.Embedding.RequestTimeout,
		MaxRetries:     cfg.Embedding.MaxRetries,
		RetryDelayBase: cfg.Embedding.RetryDelayBase,
		RetryDelayMax:  cfg.Embedding.RetryDelayMax,
		RateLimitRPM:   cfg.Embedding.RateLimitRPM,
	})
	if err != nil {
		return fmt.Errorf("failed to create embedding client: %w", err)
	}

	completer, err := completion.NewOpenAIClient(completion.Config{
		Endpoint:       cfg.Completion.Endpoint,
		APIKey:         cfg.Completion.APIKey,
		Model:          cfg.Completion.Model,
		RequestTimeout: cfg.Completion.RequestTimeout,
		BreakerTimeout: cfg.Completion.BreakerTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create completion client: %w", err)
	}

	composer := recommend.NewComposer(completer, cfg.Completion.MaxOutputTokens, logger)
	recommender := recommend.NewService(vectorRepo, recordRepo, composer, cfg.Recommend.TopN, logger)
	indexer := recommend.NewIndexer(
		summarizer.New(completer, cfg.Completion.MaxOutputTokens, logger),
		embedder, vectorRepo, recordRepo, logger)

	handler := api.NewHandler(recordRepo, recommender, indexer, cfg.Auth, logger)
	server := api.NewServer(cfg.Service, handler, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", nil)
	if err := server.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
