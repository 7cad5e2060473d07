package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/vintra/vintra/db"
	"github.com/vintra/vintra/internal/api"
	"github.com/vintra/vintra/internal/chat"
	"github.com/vintra/vintra/internal/config"
	"github.com/vintra/vintra/internal/gemini"
	"github.com/vintra/vintra/internal/log"
	"github.com/vintra/vintra/internal/retrieval"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP chat server",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(log.Config{
		Level: parseLogLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting vintra", "version", AppVersion, "model", cfg.ModelName)

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return fmt.Errorf("creating connection pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}

	model, err := gemini.New(ctx, gemini.Config{
		APIKey:        cfg.GeminiAPIKey,
		Model:         cfg.ModelName,
		EmbedderModel: cfg.EmbedderModel,
		EmbedDim:      cfg.EmbedDim,
		Temperature:   cfg.Temperature,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating gemini client: %w", err)
	}

	store, err := retrieval.NewStore(pool, logger)
	if err != nil {
		return fmt.Errorf("creating retrieval store: %w", err)
	}

	agg := retrieval.NewAggregator(retrieval.Config{
		TieEpsilon: cfg.TieEpsilon,
		VolumeCap:  cfg.VolumeCap,
	}, logger)

	engine, err := chat.New(chat.Config{
		Generator:           model,
		Embedder:            model,
		Searcher:            store,
		Aggregator:          agg,
		Logger:              logger,
		SimilarityThreshold: cfg.SimilarityThreshold,
		MatchCount:          cfg.MatchCount,
		Grounding:           cfg.Grounding,
		ModelRate:           cfg.ModelRate,
	})
	if err != nil {
		return fmt.Errorf("creating chat engine: %w", err)
	}

	server := api.NewServer(
		api.NewChatHandler(engine, logger),
		api.NewDebugHandler(model, store, agg, logger),
		api.NewHealthHandler(pool, store, logger),
		logger,
	)
	return server.Run(ctx, cfg.ListenAddr)
}

// parseLogLevel maps the config string to a slog level, defaulting to
// info. DEBUG in the environment forces debug regardless.
func parseLogLevel(s string) slog.Level {
	if os.Getenv("DEBUG") != "" {
		return slog.LevelDebug
	}
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
