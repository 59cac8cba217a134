// Package main provides the entry point for the paper metasearch server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/scholarmesh/paper-metasearch/internal/config"
	"github.com/scholarmesh/paper-metasearch/internal/history"
	"github.com/scholarmesh/paper-metasearch/internal/llm"
	"github.com/scholarmesh/paper-metasearch/internal/observability"
	"github.com/scholarmesh/paper-metasearch/internal/pipeline"
	httpserver "github.com/scholarmesh/paper-metasearch/internal/server/http"
	"github.com/scholarmesh/paper-metasearch/internal/sources"
	"github.com/scholarmesh/paper-metasearch/internal/sources/arxiv"
	"github.com/scholarmesh/paper-metasearch/internal/sources/core"
	"github.com/scholarmesh/paper-metasearch/internal/sources/openalex"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("paper-metasearch server starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics("metasearch")

	// Build enabled source adapters.
	var srcs []sources.SearchSource
	if cfg.Sources.ArXiv.Enabled {
		srcs = append(srcs, arxiv.New(arxiv.Config{
			BaseURL:   cfg.Sources.ArXiv.BaseURL,
			Timeout:   cfg.Sources.ArXiv.Timeout,
			RateLimit: cfg.Sources.ArXiv.RateLimit,
			BurstSize: cfg.Sources.ArXiv.BurstSize,
		}))
	}
	if cfg.Sources.OpenAlex.Enabled {
		srcs = append(srcs, openalex.New(openalex.Config{
			BaseURL:   cfg.Sources.OpenAlex.BaseURL,
			Email:     cfg.Sources.MailTo,
			Timeout:   cfg.Sources.OpenAlex.Timeout,
			RateLimit: cfg.Sources.OpenAlex.RateLimit,
			BurstSize: cfg.Sources.OpenAlex.BurstSize,
		}))
	}
	if cfg.Sources.CORE.Enabled {
		coreClient, err := core.New(core.Config{
			BaseURL:   cfg.Sources.CORE.BaseURL,
			APIKey:    cfg.Sources.CORE.APIKey,
			Timeout:   cfg.Sources.CORE.Timeout,
			RateLimit: cfg.Sources.CORE.RateLimit,
			BurstSize: cfg.Sources.CORE.BurstSize,
		})
		if err != nil {
			return fmt.Errorf("create CORE client: %w", err)
		}
		srcs = append(srcs, coreClient)
	}
	if len(srcs) == 0 {
		return errors.New("no paper sources enabled")
	}

	// Create the LLM planner and embedder.
	llmCfg := llm.FactoryConfig{
		Provider:          cfg.LLM.Provider,
		EmbeddingProvider: cfg.LLM.EmbeddingProvider,
		Temperature:       cfg.LLM.Temperature,
		Timeout:           cfg.LLM.Timeout,
		MaxRetries:        cfg.LLM.MaxRetries,
		OpenAI: llm.OpenAIConfig{
			APIKey:         cfg.LLM.OpenAI.APIKey,
			Model:          cfg.LLM.OpenAI.Model,
			EmbeddingModel: cfg.LLM.OpenAI.EmbeddingModel,
			BaseURL:        cfg.LLM.OpenAI.BaseURL,
		},
		Gemini: llm.GeminiConfig{
			APIKey:         cfg.LLM.Gemini.APIKey,
			Model:          cfg.LLM.Gemini.Model,
			EmbeddingModel: cfg.LLM.Gemini.EmbeddingModel,
			BaseURL:        cfg.LLM.Gemini.BaseURL,
		},
	}

	planner, err := llm.NewQueryPlanner(llmCfg)
	if err != nil {
		return fmt.Errorf("create query planner: %w", err)
	}
	embedder, err := llm.NewEmbedder(llmCfg)
	if err != nil {
		return fmt.Errorf("create embedder: %w", err)
	}

	// Assemble the search pipeline.
	dispatcher := pipeline.NewDispatcher(pipeline.DispatcherConfig{
		MaxResults:      cfg.Search.MaxResults,
		SubQueryTimeout: cfg.Search.SubQueryTimeout,
	}, logger, metrics, srcs...)

	ranker := pipeline.NewRanker(embedder, logger, metrics)
	searchPipeline := pipeline.New(planner, dispatcher, ranker, logger, metrics)

	logger.Info().
		Int("sources", len(srcs)).
		Str("llm_provider", cfg.LLM.Provider).
		Msg("search pipeline assembled")

	// Create the optional search-history publisher.
	var publisher httpserver.HistoryPublisher
	var historyPublisher *history.Publisher
	if cfg.Kafka.Enabled {
		historyPublisher = history.NewPublisher(history.Config{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			BatchSize:    cfg.Kafka.BatchSize,
			BatchTimeout: cfg.Kafka.BatchTimeout,
			WriteTimeout: cfg.Kafka.WriteTimeout,
		}, logger)
		publisher = historyPublisher
		logger.Info().
			Strs("brokers", cfg.Kafka.Brokers).
			Str("topic", cfg.Kafka.Topic).
			Msg("search history publisher enabled")
	}

	// Create the HTTP REST API server.
	httpCfg := httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		MetricsEnabled:  cfg.Metrics.Enabled,
		MetricsPath:     cfg.Metrics.Path,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	httpSrv := httpserver.NewServer(httpCfg, searchPipeline, publisher, logger)

	// Channel to collect server errors.
	errCh := make(chan error, 1)

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info().
		Str("http_address", httpCfg.Address).
		Msg("paper-metasearch is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	logger.Info().Msg("shutting down paper-metasearch")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if historyPublisher != nil {
		if err := historyPublisher.Close(); err != nil {
			logger.Error().Err(err).Msg("history publisher close error")
		}
	}

	logger.Info().Msg("paper-metasearch shutdown complete")
	return nil
}
