package cmd

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ziadkadry99/manualview/internal/config"
)

func withConfigFile(t *testing.T, path string) {
	t.Helper()
	old := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = old })
}

func TestLoadConfigDefaults(t *testing.T) {
	withConfigFile(t, filepath.Join(t.TempDir(), "missing.yml"))
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server.Addr != ":5001" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manualview.yml")
	if err := os.WriteFile(path, []byte("assets:\n  naming: random\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	withConfigFile(t, path)
	_, err := loadConfig()
	if err == nil || !strings.Contains(err.Error(), "assets.naming") {
		t.Errorf("err = %v", err)
	}
}

func TestBuildEngineWithoutProvider(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "manuals.db")
	cfg.LLM.Provider = config.ProviderNone
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	database, store, err := openStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	idx := loadIndex(cfg, logger)
	if idx != nil {
		t.Error("index should be nil when embedding is disabled")
	}
	if buildEngine(cfg, database, store, idx, logger).Enabled() {
		t.Error("engine should be disabled without a provider")
	}
}

func TestLoadIndexMissingFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test")
	cfg := config.DefaultConfig()
	cfg.Embedding.Enabled = true
	cfg.Embedding.IndexPath = filepath.Join(t.TempDir(), "index.gob")
	if idx := loadIndex(cfg, slog.New(slog.NewTextHandler(io.Discard, nil))); idx != nil {
		t.Error("expected nil index when the file does not exist")
	}
}
