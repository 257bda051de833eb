package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ziadkadry99/manualview/internal/assets"
	"github.com/ziadkadry99/manualview/internal/llm"
	"github.com/ziadkadry99/manualview/internal/logging"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// nested keys: MANUALVIEW_LLM__MODEL sets llm.model.
const EnvPrefix = "MANUALVIEW_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (MANUALVIEW_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKey maps MANUALVIEW_QA__MAX_KNOWLEDGE_CHARS to qa.max_knowledge_chars.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized provider values.
var validProviders = map[ProviderType]bool{
	ProviderOpenAI: true,
	ProviderGoogle: true,
	ProviderOllama: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}

	switch assets.Naming(c.Assets.Naming) {
	case assets.NamingByID, assets.NamingByTemplate:
	default:
		return fmt.Errorf("invalid assets.naming %q: must be id or template", c.Assets.Naming)
	}

	if c.LLM.Provider != ProviderNone {
		if !validProviders[c.LLM.Provider] {
			return fmt.Errorf("invalid llm.provider %q: must be one of openai, google, ollama", c.LLM.Provider)
		}
		if c.LLM.Model == "" {
			return fmt.Errorf("llm.model is required")
		}
	}
	if c.LLM.RequestsPerMinute < 0 {
		return fmt.Errorf("llm.requests_per_minute must be non-negative")
	}

	if c.Embedding.Enabled {
		if c.Embedding.Provider != ProviderOpenAI && c.Embedding.Provider != ProviderOllama {
			return fmt.Errorf("invalid embedding.provider %q: must be openai or ollama", c.Embedding.Provider)
		}
		if c.Embedding.IndexPath == "" {
			return fmt.Errorf("embedding.index_path is required")
		}
	}

	if c.QA.MaxKnowledgeChars < 0 {
		return fmt.Errorf("qa.max_knowledge_chars must be non-negative")
	}
	if c.Import.Concurrency < 0 {
		return fmt.Errorf("import.concurrency must be non-negative")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// LLMOptions converts the llm section into provider options.
func (c *Config) LLMOptions() llm.Options {
	return llm.Options{
		Provider:          string(c.LLM.Provider),
		Model:             c.LLM.Model,
		BaseURL:           c.LLM.BaseURL,
		RequestsPerMinute: c.LLM.RequestsPerMinute,
	}
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGoogle:
		return "GOOGLE_API_KEY"
	default:
		return ""
	}
}
