package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backend selectors.
const (
	StoreChromem  = "chromem"
	StorePostgres = "postgres"
)

// LLMConfig describes one OpenAI-compatible or Ollama endpoint.
type LLMConfig struct {
	Provider    string `yaml:"provider"` // "openai" or "ollama"
	BaseURL     string `yaml:"base_url"`
	Key         string `yaml:"key"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// StoreConfig selects and configures the vector store backend.
type StoreConfig struct {
	Type        string `yaml:"type"` // "chromem" or "postgres"
	Path        string `yaml:"path"`
	Collection  string `yaml:"collection"`
	InMemory    bool   `yaml:"in_memory"`
	DSN         string `yaml:"dsn"`
	Password    string `yaml:"password"`
	Debug       bool   `yaml:"debug"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

type ServerConfig struct {
	Addr   string `yaml:"addr"`
	APIKey string `yaml:"api_key"`
}

// RAGConfig holds the retrieval knobs shared by both pipelines.
type RAGConfig struct {
	TopK             int `yaml:"top_k"`
	MaxPages         int `yaml:"max_pages"`
	EmbedConcurrency int `yaml:"embed_concurrency"`
}

type Config struct {
	Server   ServerConfig `yaml:"server"`
	Store    StoreConfig  `yaml:"store"`
	EmbedLLM LLMConfig    `yaml:"embedding"`
	ChatLLM  LLMConfig    `yaml:"chat"`
	RAG      RAGConfig    `yaml:"rag"`
}

// LoadConfig reads the YAML config, applies env overrides for secrets and
// connection targets, then fills defaults. Validation is separate so callers
// can decide what is fatal.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// Secrets never have to live in the config file; the environment wins.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.EmbedLLM.Key = v
		cfg.ChatLLM.Key = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		cfg.Store.Password = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = StoreChromem
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "./chromemdb"
	}
	if cfg.Store.Collection == "" {
		cfg.Store.Collection = "documents"
	}
	if cfg.Store.TimeoutSecs == 0 {
		cfg.Store.TimeoutSecs = 10
	}
	if cfg.EmbedLLM.Provider == "" {
		cfg.EmbedLLM.Provider = "openai"
	}
	if cfg.EmbedLLM.Dimensions == 0 {
		cfg.EmbedLLM.Dimensions = 768
	}
	if cfg.EmbedLLM.TimeoutSecs == 0 {
		cfg.EmbedLLM.TimeoutSecs = 30
	}
	if cfg.ChatLLM.Provider == "" {
		cfg.ChatLLM.Provider = "openai"
	}
	if cfg.ChatLLM.TimeoutSecs == 0 {
		cfg.ChatLLM.TimeoutSecs = 120
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 5
	}
	if cfg.RAG.MaxPages == 0 {
		cfg.RAG.MaxPages = 20
	}
	if cfg.RAG.EmbedConcurrency == 0 {
		cfg.RAG.EmbedConcurrency = 4
	}
}

// Validate checks the values the server cannot run without. Called once at
// startup; a failure here is fatal, never a per-request error.
func (cfg *Config) Validate() error {
	if cfg.Server.APIKey == "" {
		return fmt.Errorf("server.api_key (or API_KEY) is required")
	}
	if cfg.EmbedLLM.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if cfg.ChatLLM.Model == "" {
		return fmt.Errorf("chat.model is required")
	}
	switch cfg.Store.Type {
	case StoreChromem:
		if !cfg.Store.InMemory && cfg.Store.Path == "" {
			return fmt.Errorf("store.path is required for the chromem store")
		}
	case StorePostgres:
		if cfg.Store.DSN == "" {
			return fmt.Errorf("store.dsn (or DATABASE_URL) is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store.type %q", cfg.Store.Type)
	}
	return nil
}

func (c *LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

func (c *StoreConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}
