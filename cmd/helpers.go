package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ziadkadry99/manualview/internal/config"
	"github.com/ziadkadry99/manualview/internal/db"
	"github.com/ziadkadry99/manualview/internal/llm"
	"github.com/ziadkadry99/manualview/internal/manuals"
	"github.com/ziadkadry99/manualview/internal/qa"
	"github.com/ziadkadry99/manualview/internal/search"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `manualview init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// openStore opens the manual database named by cfg.
func openStore(cfg *config.Config) (*db.DB, *manuals.Store, error) {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return database, manuals.NewStore(database), nil
}

// createLLMProviderFromConfig returns nil without error when no provider is
// configured, which leaves question answering disabled.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	if cfg.LLM.Provider == config.ProviderNone {
		return nil, nil
	}
	return llm.NewProvider(cfg.LLMOptions())
}

// createEmbedderFromConfig creates the embedder used for the passage index.
func createEmbedderFromConfig(cfg *config.Config) (search.Embedder, error) {
	return search.NewEmbedder(string(cfg.Embedding.Provider), cfg.Embedding.Model, cfg.Embedding.BaseURL)
}

// loadIndex opens the persisted passage index. It returns nil when
// retrieval is disabled or the index cannot be used, in which case
// questions fall back to the whole-library context.
func loadIndex(cfg *config.Config, logger *slog.Logger) *search.Index {
	if !cfg.Embedding.Enabled {
		return nil
	}
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		logger.Warn("semantic search disabled", "error", err)
		return nil
	}
	if _, err := os.Stat(cfg.Embedding.IndexPath); errors.Is(err, os.ErrNotExist) {
		logger.Warn("passage index not built yet, run `manualview index`", "path", cfg.Embedding.IndexPath)
		return nil
	}
	idx, err := search.NewIndex(embedder)
	if err != nil {
		logger.Warn("semantic search disabled", "error", err)
		return nil
	}
	if err := idx.Load(cfg.Embedding.IndexPath); err != nil {
		logger.Warn("could not load passage index", "path", cfg.Embedding.IndexPath, "error", err)
		return nil
	}
	logger.Info("passage index loaded", "path", cfg.Embedding.IndexPath, "passages", idx.Count())
	return idx
}

// buildEngine wires the question answering engine. A missing provider is
// logged and leaves the engine disabled rather than failing the command.
func buildEngine(cfg *config.Config, database *db.DB, store *manuals.Store, idx *search.Index, logger *slog.Logger) *qa.Engine {
	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		logger.Warn("question answering disabled", "error", err)
	}
	return qa.NewEngine(store, qa.Options{
		Provider:          provider,
		Model:             cfg.LLM.Model,
		Index:             idx,
		Passages:          cfg.QA.Passages,
		MaxKnowledgeChars: cfg.QA.MaxKnowledgeChars,
		MaxTokens:         cfg.LLM.MaxTokens,
		Log:               qa.NewLog(database),
		Logger:            logger,
	})
}
