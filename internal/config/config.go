package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"content_spider/internal/models"
)

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type DBConfig struct {
	// Driver selects the store backend: "mongo" or "memory".
	Driver      string `yaml:"driver"`
	Connection  string `yaml:"connection"`
	Database    string `yaml:"database"`
	Collections struct {
		Documents string `yaml:"documents"`
		URLs      string `yaml:"urls"`
	} `yaml:"collections"`
}

type CrawlerConfig struct {
	TimeoutSec    int    `yaml:"timeout_sec"`
	DelayMS       int    `yaml:"delay_ms"`
	MaxDepth      int    `yaml:"max_depth"`
	UserAgent     string `yaml:"user_agent"`
	RespectRobots bool   `yaml:"respect_robots"`
}

type FallbackConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
}

type SearchConfig struct {
	Fallback FallbackConfig `yaml:"fallback"`
}

type SchedulerConfig struct {
	FetchIntervalHours   int `yaml:"fetch_interval_hours"`
	CleanupIntervalHours int `yaml:"cleanup_interval_hours"`
	RetentionDays        int `yaml:"retention_days"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	DB        DBConfig        `yaml:"db"`
	Crawler   CrawlerConfig   `yaml:"crawler"`
	Search    SearchConfig    `yaml:"search"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Sources   []models.Source `yaml:"sources"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Load reads the YAML config at path and applies environment overrides.
// A .env file next to the binary is honored when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	for _, src := range cfg.Sources {
		if !models.ValidType(src.Type) {
			return nil, fmt.Errorf("source %s: unknown type %q", src.URL, src.Type)
		}
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.DB.Driver == "" {
		c.DB.Driver = "mongo"
	}
	if c.DB.Database == "" {
		c.DB.Database = "content_spider"
	}
	if c.DB.Collections.Documents == "" {
		c.DB.Collections.Documents = "documents"
	}
	if c.DB.Collections.URLs == "" {
		c.DB.Collections.URLs = "urls"
	}
	if c.Crawler.TimeoutSec <= 0 {
		c.Crawler.TimeoutSec = 10
	}
	if c.Crawler.DelayMS <= 0 {
		c.Crawler.DelayMS = 1000
	}
	if c.Crawler.MaxDepth <= 0 {
		c.Crawler.MaxDepth = 3
	}
	if c.Crawler.UserAgent == "" {
		c.Crawler.UserAgent = defaultUserAgent
	}
	if c.Search.Fallback.Model == "" {
		c.Search.Fallback.Model = "gpt-4o-mini"
	}
	if c.Scheduler.CleanupIntervalHours <= 0 {
		c.Scheduler.CleanupIntervalHours = 24
	}
	if c.Scheduler.RetentionDays <= 0 {
		c.Scheduler.RetentionDays = 30
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MONGO_URI"); v != "" {
		c.DB.Connection = v
	}
	if v := os.Getenv("MONGO_DATABASE"); v != "" {
		c.DB.Database = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.Search.Fallback.BaseURL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Search.Fallback.APIKey = v
	}
}
