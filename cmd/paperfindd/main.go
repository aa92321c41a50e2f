package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/knoguchi/paperfind/internal/config"
	"github.com/knoguchi/paperfind/internal/denseindex"
	"github.com/knoguchi/paperfind/internal/embedder"
	"github.com/knoguchi/paperfind/internal/encoder"
	"github.com/knoguchi/paperfind/internal/extraction"
	"github.com/knoguchi/paperfind/internal/llm"
	"github.com/knoguchi/paperfind/internal/loader"
	"github.com/knoguchi/paperfind/internal/objectstore"
	"github.com/knoguchi/paperfind/internal/ready"
	"github.com/knoguchi/paperfind/internal/retrieval"
	"github.com/knoguchi/paperfind/internal/server"
	"github.com/knoguchi/paperfind/internal/sparseindex"
)

func main() {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("failed to run server", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("starting paperfind retrieval service",
		"http_port", cfg.HTTPPort,
		"environment", cfg.Environment,
	)

	store, err := objectstore.NewMinioStore(ctx, objectstore.Config{
		Endpoint:  cfg.ObjectStoreEndpoint,
		AccessKey: cfg.ObjectStoreAccessKey,
		SecretKey: cfg.ObjectStoreSecretKey,
		UseSSL:    cfg.ObjectStoreUseSSL,
		Bucket:    cfg.ObjectStoreBucket,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to object storage: %w", err)
	}
	slog.Info("connected to object storage", "bucket", cfg.ObjectStoreBucket)

	gate := ready.New()
	resourceLoader := loader.New(store, cfg, slog.Default())

	extractionLLM := llm.NewOpenAIChatClient(
		llm.WithChatBaseURL(cfg.ExtractionBaseURL),
		llm.WithChatAPIKey(cfg.ExtractionAPIKey),
		llm.WithChatModel(cfg.ExtractionModel),
	)

	textSource := extraction.NewObjectStoreTextSource(store)
	extractionClient := extraction.NewLLMClient(
		extractionLLM,
		textSource,
		cfg.ExtractionModel,
		cfg.ExtractionConcurrency,
		cfg.ExtractionTimeout,
	)

	handlers := server.NewSearchHandlers(slog.Default(), cfg.DefaultTopK)

	// Resource loading runs in the background; the server starts serving
	// /healthz and /readyz immediately, and the readiness gate keeps every
	// search/extract route at 503 until the service is wired in below. The
	// gate only opens after handlers.SetService, so a request can never
	// observe a ready gate with a nil service.
	go func() {
		resources := resourceLoader.Run(ctx)
		if resources == nil {
			return
		}
		svc := retrieval.New(resources.SparseScorer, resources.DenseIndex, resources.Encoder, resources.Embedder, extractionClient)
		handlers.SetService(svc)
		gate.MarkReady()
	}()

	httpServer, err := server.NewHTTPServer(server.HTTPServerConfig{
		Port:           cfg.HTTPPort,
		Logger:         slog.Default(),
		AllowedOrigins: []string{"*"},
		Gate:           gate,
		Handlers:       handlers,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
	}

	slog.Info("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown HTTP server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}

// Ensure interfaces are satisfied at compile time.
var (
	_ sparseindex.Scorer    = (*sparseindex.SQLiteScorer)(nil)
	_ denseindex.Index      = (*denseindex.HNSWIndex)(nil)
	_ encoder.SparseEncoder = (*encoder.SpladeEncoder)(nil)
	_ embedder.Embedder     = (*embedder.HTTPClient)(nil)
	_ embedder.Embedder     = (*embedder.CachedEmbedder)(nil)
	_ extraction.Client     = (*extraction.LLMClient)(nil)
	_ llm.LLM               = (*llm.OpenAIChatClient)(nil)
)
