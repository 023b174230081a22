package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"docrag/internal/domain"
)

// EnvPrefix is the prefix of environment variables that override the file.
const EnvPrefix = "DOCRAG"

// ProviderOpenAI selects the OpenAI-compatible chat completion client.
const ProviderOpenAI = "openai"

// Config holds all configuration for the document RAG tool.
type Config struct {
	Corpus     CorpusConfig          `yaml:"corpus"`
	Chunking   ChunkingConfig        `yaml:"chunking"`
	Categories []domain.CategoryRule `yaml:"categories,omitempty"` // Ordered; empty uses the built-in table
	Retrieve   RetrieveConfig        `yaml:"retrieve"`
	Generation GenerationConfig      `yaml:"generation"`
	Logging    LoggingConfig         `yaml:"logging"`
}

// CorpusConfig holds document loading configuration.
type CorpusConfig struct {
	DataPath string   `yaml:"data_path"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
	Workers  int      `yaml:"workers"` // Parallel file reads
}

// ChunkingConfig holds heading split configuration.
type ChunkingConfig struct {
	MaxHeadingDepth int `yaml:"max_heading_depth"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK int `yaml:"top_k"`
}

// GenerationConfig holds the chat completion client configuration.
type GenerationConfig struct {
	Provider        string  `yaml:"provider"` // ProviderOpenAI (any OpenAI-compatible endpoint)
	Model           string  `yaml:"model"`
	BaseURL         string  `yaml:"base_url"`
	APIKeyEnv       string  `yaml:"api_key_env"` // Environment variable for API key
	Temperature     float32 `yaml:"temperature"`
	MaxTokens       int     `yaml:"max_tokens"`
	MaxContextChars int     `yaml:"max_context_chars"`
	Stream          bool    `yaml:"stream"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// envOverrides lists the settings that may come from the environment.
// Nil fields were not set.
type envOverrides struct {
	DataPath     *string `envconfig:"DATA_PATH"`
	Workers      *int    `envconfig:"WORKERS"`
	TopK         *int    `envconfig:"TOP_K"`
	LLMModel     *string `envconfig:"LLM_MODEL"`
	LLMBaseURL   *string `envconfig:"LLM_BASE_URL"`
	LogLevel     *string `envconfig:"LOG_LEVEL"`
	HeadingDepth *int    `envconfig:"MAX_HEADING_DEPTH"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			DataPath: "docs",
			Includes: []string{"**/*.md"},
			Excludes: []string{"**/.git/**", "**/node_modules/**", "**/.docrag/**"},
			Workers:  8,
		},
		Chunking: ChunkingConfig{
			MaxHeadingDepth: 3,
		},
		Retrieve: RetrieveConfig{
			TopK: 5,
		},
		Generation: GenerationConfig{
			Provider:        ProviderOpenAI,
			Model:           "kimi-k2-0711-preview",
			BaseURL:         "https://api.moonshot.cn/v1",
			APIKeyEnv:       "MOONSHOT_API_KEY",
			Temperature:     0.1,
			MaxTokens:       2048,
			MaxContextChars: 4000,
			Stream:          false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file and applies environment overrides.
// A .env file next to the config file is read first.
func Load(path string) (*Config, error) {
	return load(path, filepath.Dir(path))
}

func load(path, envDir string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(envDir); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromDir loads configuration from a workspace directory (looks for
// docrag.yaml, then .docrag/config.yaml). The workspace .env is read in
// every case.
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "docrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return load(path, dir)
	}

	path = filepath.Join(dir, ".docrag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return load(path, dir)
	}

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(dir); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv loads envDir/.env if present and overlays DOCRAG_* variables.
// Variables already set in the process environment win over the file.
func (c *Config) ApplyEnv(envDir string) error {
	if envDir != "" {
		_ = godotenv.Load(filepath.Join(envDir, ".env"))
	}

	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to process environment: %w", err)
	}

	if env.DataPath != nil {
		c.Corpus.DataPath = *env.DataPath
	}
	if env.Workers != nil {
		c.Corpus.Workers = *env.Workers
	}
	if env.TopK != nil {
		c.Retrieve.TopK = *env.TopK
	}
	if env.LLMModel != nil {
		c.Generation.Model = *env.LLMModel
	}
	if env.LLMBaseURL != nil {
		c.Generation.BaseURL = *env.LLMBaseURL
	}
	if env.LogLevel != nil {
		c.Logging.Level = *env.LogLevel
	}
	if env.HeadingDepth != nil {
		c.Chunking.MaxHeadingDepth = *env.HeadingDepth
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if d := c.Chunking.MaxHeadingDepth; d < 1 || d > 6 {
		return fmt.Errorf("chunking.max_heading_depth must be between 1 and 6, got %d", d)
	}
	if c.Corpus.Workers < 1 {
		return fmt.Errorf("corpus.workers must be at least 1, got %d", c.Corpus.Workers)
	}
	if c.Retrieve.TopK < 1 {
		return fmt.Errorf("retrieve.top_k must be at least 1, got %d", c.Retrieve.TopK)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Generation.Provider {
	case "", ProviderOpenAI:
	default:
		return fmt.Errorf("generation.provider %q is not supported (use %q)", c.Generation.Provider, ProviderOpenAI)
	}
	for i, r := range c.Categories {
		if r.Key == "" || r.Label == "" {
			return fmt.Errorf("categories[%d] needs both key and label", i)
		}
	}
	return nil
}

// APIKey returns the generation API key from the configured variable.
func (c *Config) APIKey() string {
	return os.Getenv(c.Generation.APIKeyEnv)
}

// DataDir returns the directory holding the corpus snapshot and search index.
func DataDir(dir string) string {
	return filepath.Join(dir, ".docrag")
}

// IndexDBPath returns the path to the corpus snapshot database.
func IndexDBPath(dir string) string {
	return filepath.Join(DataDir(dir), "corpus.db")
}

// SearchIndexPath returns the path to the chunk search index.
func SearchIndexPath(dir string) string {
	return filepath.Join(DataDir(dir), "search.bleve")
}

// EnsureDataDir ensures the .docrag directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(DataDir(dir), 0755)
}
