// Package app wires the application together: configuration in,
// ready-to-serve collaborators out.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Chiragbhatt711/ai-jarvis/db"
	"github.com/Chiragbhatt711/ai-jarvis/internal/chat"
	"github.com/Chiragbhatt711/ai-jarvis/internal/compose"
	"github.com/Chiragbhatt711/ai-jarvis/internal/config"
	"github.com/Chiragbhatt711/ai-jarvis/internal/embed"
	"github.com/Chiragbhatt711/ai-jarvis/internal/history"
	"github.com/Chiragbhatt711/ai-jarvis/internal/index"
	"github.com/Chiragbhatt711/ai-jarvis/internal/llm"
	"github.com/Chiragbhatt711/ai-jarvis/internal/websearch"
)

// App holds the wired application.
type App struct {
	Logger  *slog.Logger
	Store   history.Store
	Index   *index.Index
	Service *chat.Service

	pool *pgxpool.Pool
}

// Setup builds the full dependency graph from validated configuration.
// Call Close when done.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Logger: logger}

	store, pool, err := provideStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.pool = pool

	embedder, err := provideEmbedder(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	// The semantic index lives for the process lifetime and is shared by
	// every request; deep search grows it, retrieval reads it.
	a.Index = index.New(logger)

	searcher := websearch.New(websearch.Config{
		ShallowBaseURL: cfg.ShallowSearchURL,
		SearxBaseURL:   cfg.SearxURL,
		Timeout:        cfg.SearchTimeout(),
	}, logger)

	composer, err := compose.New(compose.Config{
		Searcher:      searcher,
		Embedder:      embedder,
		Index:         a.Index,
		Logger:        logger,
		SystemPrompt:  cfg.SystemPrompt,
		HistoryWindow: cfg.HistoryWindow,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating composer: %w", err)
	}

	gateway, err := llm.New(llm.Config{
		BaseURL:           cfg.CompletionBaseURL,
		APIKey:            cfg.GroqAPIKey,
		Model:             cfg.ModelName,
		RequestsPerMinute: cfg.RequestsPerMinute,
		Logger:            logger,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating completion client: %w", err)
	}

	service, err := chat.New(chat.Config{
		Store:    store,
		Composer: composer,
		Gateway:  gateway,
		Logger:   logger,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating chat service: %w", err)
	}
	a.Service = service

	return a, nil
}

// Close releases held resources.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// provideStore selects PostgreSQL when a DATABASE_URL is configured and
// falls back to the in-memory store for dev runs.
func provideStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (history.Store, *pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("no DATABASE_URL configured, conversations are kept in memory")
		return history.NewMemory(), nil, nil
	}

	if err := db.Migrate(cfg.DatabaseURL, logger); err != nil {
		return nil, nil, fmt.Errorf("migrating database: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("connected to PostgreSQL")
	return history.NewPostgres(pool), pool, nil
}

// provideEmbedder initializes Genkit with the Google AI plugin and wraps
// the configured embedding model. The plugin reads GEMINI_API_KEY from
// the environment.
func provideEmbedder(ctx context.Context, cfg *config.Config, logger *slog.Logger) (embed.Embedder, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit")
	}

	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}
	return embed.NewGenkit(embedder, logger), nil
}
