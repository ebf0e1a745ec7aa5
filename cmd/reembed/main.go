// Command reembed rebuilds stored vectors from the current records,
// for model changes or backfills.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

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
	employees := flag.Bool("employees", false, "reembed all employee vectors")
	jobs := flag.Bool("jobs", false, "reembed all job post vectors")
	flag.Parse()

	if !*employees && !*jobs {
		fmt.Fprintln(os.Stderr, "reembed: pass -employees, -jobs, or both")
		os.Exit(2)
	}

	if err := run(*employees, *jobs); err != nil {
		fmt.Fprintf(os.Stderr, "reembed: %v\n", err)
		os.Exit(1)
	}
}

func run(employees, jobs bool) error {
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

	indexer := recommend.NewIndexer(
		summarizer.New(completer, cfg.Completion.MaxOutputTokens, logger),
		embedder,
		vectorRepo, recordRepo, logger)

	if employees {
		count, err := indexer.ReindexAllEmployees(ctx)
		if err != nil {
			return err
		}
		logger.Info("employee reindex complete", map[string]interface{}{"indexed": count})
	}

	if jobs {
		count, err := indexer.ReindexAllJobPosts(ctx)
		if err != nil {
			return err
		}
		logger.Info("job post reindex complete", map[string]interface{}{"indexed": count})
	}

	return nil
}
