package config

import "github.com/ziadkadry99/manualview/internal/assets"

// Preset names the default models of a provider.
type Preset struct {
	Model          string
	EmbeddingModel string
}

var presets = map[ProviderType]Preset{
	ProviderOpenAI: {Model: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-small"},
	ProviderGoogle: {Model: "gemini-1.5-flash-latest", EmbeddingModel: "text-embedding-3-small"},
	ProviderOllama: {Model: "llama3", EmbeddingModel: "nomic-embed-text"},
}

// DefaultInclude matches the converter's output files.
var DefaultInclude = []string{"**/*.json"}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":5001",
			CORSOrigins: []string{"*"},
		},
		DBPath: "data/manuals.db",
		Assets: AssetsConfig{
			ImageDir: "manual_images",
			AudioDir: "manual_audio",
			Naming:   string(assets.NamingByID),
			ImageExt: ".png",
			AudioExt: ".wav",
		},
		LLM: LLMConfig{
			Provider:  ProviderGoogle,
			Model:     presets[ProviderGoogle].Model,
			MaxTokens: 1024,
		},
		Embedding: EmbeddingConfig{
			Provider:  ProviderOpenAI,
			Model:     presets[ProviderOpenAI].EmbeddingModel,
			IndexPath: "data/index.gob",
		},
		QA: QAConfig{
			MaxKnowledgeChars: 150000,
			Passages:          8,
		},
		Viewer: ViewerConfig{
			APIURL:       "http://localhost:5001",
			AudioEnabled: true,
			AudioCommand: []string{"aplay", "-q"},
		},
		Import: ImportConfig{
			Include:     append([]string(nil), DefaultInclude...),
			Concurrency: 4,
		},
		Log: LogConfig{Level: "info"},
	}
}

// GetPreset returns the preset of provider. Unknown providers get the
// OpenAI preset.
func GetPreset(provider ProviderType) Preset {
	if p, ok := presets[provider]; ok {
		return p
	}
	return presets[ProviderOpenAI]
}

// Resolver builds the asset resolver served by the API.
func (c *Config) Resolver() assets.Resolver {
	r := assets.DefaultResolver()
	if c.Assets.Naming != "" {
		r.Naming = assets.Naming(c.Assets.Naming)
	}
	if c.Assets.ImageExt != "" {
		r.ImageExt = c.Assets.ImageExt
	}
	if c.Assets.AudioExt != "" {
		r.AudioExt = c.Assets.AudioExt
	}
	return r
}
