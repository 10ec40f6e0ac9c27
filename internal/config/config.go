package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port          int              `json:"port"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Database      DatabaseConfig   `json:"database"`
	JWTSecret     string           `json:"jwt_secret"`
	WebhookSecret string           `json:"webhook_secret"`
	AdminKey      string           `json:"admin_key"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	Embed         EmbedderConfig   `json:"embed"`
	Queue         QueueConfig      `json:"queue"`
	Search        SearchConfig     `json:"search"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type EmbedderConfig struct {
	Provider        string                 `json:"provider"`
	Model           string                 `json:"model"`
	Dimensions      int                    `json:"dimensions"`
	Data            map[string]interface{} `json:"data"`
	CacheSize       int                    `json:"cache_size"`
	CacheTTLSeconds int                    `json:"cache_ttl_seconds"`
}

type QueueConfig struct {
	Embedder   EmbedderConfig `json:"embedder"`
	BatchSize  int            `json:"batch_size"`
	CronSpec   string         `json:"cron_spec"`
	MaxRetries int            `json:"max_retries"`
}

type SearchConfig struct {
	DefaultLimit     int     `json:"default_limit"`
	DefaultThreshold float64 `json:"default_threshold"`
	MaxContentChars  int     `json:"max_content_chars"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if err := validateEmbedder("embed", &cfg.Embed, 768); err != nil {
		return nil, err
	}
	if cfg.Queue.Embedder.Provider == "" {
		// queue falls back to the interactive embedder
		cfg.Queue.Embedder = cfg.Embed
	}
	if err := validateEmbedder("queue.embedder", &cfg.Queue.Embedder, cfg.Embed.Dimensions); err != nil {
		return nil, err
	}
	// A single corpus must hold vectors of one length, so both the ingest
	// path and the queue path have to produce the same dimensionality.
	if cfg.Queue.Embedder.Dimensions != cfg.Embed.Dimensions {
		return nil, fmt.Errorf("queue.embedder.dimensions (%d) must match embed.dimensions (%d)",
			cfg.Queue.Embedder.Dimensions, cfg.Embed.Dimensions)
	}
	if cfg.Queue.BatchSize <= 0 {
		cfg.Queue.BatchSize = 10
	}
	if cfg.Queue.MaxRetries <= 0 {
		cfg.Queue.MaxRetries = 3
	}
	if cfg.Queue.CronSpec == "" {
		cfg.Queue.CronSpec = "*/5 * * * *"
	}
	if cfg.Search.DefaultLimit <= 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.DefaultThreshold <= 0 {
		cfg.Search.DefaultThreshold = 0.5
	}
	if cfg.Search.MaxContentChars <= 0 {
		cfg.Search.MaxContentChars = 10000
	}
	return &cfg, nil
}

func validateEmbedder(section string, cfg *EmbedderConfig, defaultDims int) error {
	if cfg.Provider == "" {
		return fmt.Errorf("%s.provider is required", section)
	}
	if cfg.Model == "" {
		return fmt.Errorf("%s.model is required", section)
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = defaultDims
	}
	return nil
}
