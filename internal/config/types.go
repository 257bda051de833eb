package config

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderNone   ProviderType = ""
	ProviderOpenAI ProviderType = "openai"
	ProviderGoogle ProviderType = "google"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level manualview configuration, corresponding to
// manualview.yml.
type Config struct {
	Server    ServerConfig    `yaml:"server" koanf:"server"`
	DBPath    string          `yaml:"db_path" koanf:"db_path"`
	Assets    AssetsConfig    `yaml:"assets" koanf:"assets"`
	LLM       LLMConfig       `yaml:"llm" koanf:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding" koanf:"embedding"`
	QA        QAConfig        `yaml:"qa" koanf:"qa"`
	Viewer    ViewerConfig    `yaml:"viewer" koanf:"viewer"`
	Import    ImportConfig    `yaml:"import" koanf:"import"`
	Log       LogConfig       `yaml:"log" koanf:"log"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr        string   `yaml:"addr" koanf:"addr"`
	CORSOrigins []string `yaml:"cors_origins" koanf:"cors_origins"`
}

// AssetsConfig locates step images and narration clips.
type AssetsConfig struct {
	ImageDir string `yaml:"image_dir" koanf:"image_dir"`
	AudioDir string `yaml:"audio_dir" koanf:"audio_dir"`
	// Naming is "id" or "template".
	Naming   string `yaml:"naming" koanf:"naming"`
	ImageExt string `yaml:"image_ext" koanf:"image_ext"`
	AudioExt string `yaml:"audio_ext" koanf:"audio_ext"`
}

// LLMConfig selects the model answering questions. An empty provider
// disables question answering.
type LLMConfig struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	BaseURL           string       `yaml:"base_url" koanf:"base_url"`
	RequestsPerMinute int          `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	MaxTokens         int          `yaml:"max_tokens" koanf:"max_tokens"`
}

// EmbeddingConfig enables retrieval of manual passages instead of sending
// the whole library with every question.
type EmbeddingConfig struct {
	Enabled   bool         `yaml:"enabled" koanf:"enabled"`
	Provider  ProviderType `yaml:"provider" koanf:"provider"`
	Model     string       `yaml:"model" koanf:"model"`
	BaseURL   string       `yaml:"base_url" koanf:"base_url"`
	IndexPath string       `yaml:"index_path" koanf:"index_path"`
}

// QAConfig bounds the context sent with each question.
type QAConfig struct {
	MaxKnowledgeChars int `yaml:"max_knowledge_chars" koanf:"max_knowledge_chars"`
	Passages          int `yaml:"passages" koanf:"passages"`
}

// ViewerConfig configures the terminal viewer.
type ViewerConfig struct {
	APIURL       string   `yaml:"api_url" koanf:"api_url"`
	AudioEnabled bool     `yaml:"audio_enabled" koanf:"audio_enabled"`
	AudioCommand []string `yaml:"audio_command" koanf:"audio_command"`
}

// ImportConfig configures batch import of converted manuals.
type ImportConfig struct {
	Include     []string `yaml:"include" koanf:"include"`
	Exclude     []string `yaml:"exclude" koanf:"exclude"`
	Concurrency int      `yaml:"concurrency" koanf:"concurrency"`
}

// LogConfig selects log sinks.
type LogConfig struct {
	Level   string `yaml:"level" koanf:"level"`
	File    string `yaml:"file" koanf:"file"`
	Journal bool   `yaml:"journal" koanf:"journal"`
}
