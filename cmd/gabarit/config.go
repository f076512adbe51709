// CLAUDE:SUMMARY Defines the gabarit server configuration: YAML file plus environment overrides.
package main

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// serverConfig is the top-level gabarit configuration. Every value can come
// from the YAML file; environment variables override the file.
type serverConfig struct {
	Port         string          `yaml:"port"`
	DBPath       string          `yaml:"db_path"`
	LogLevel     string          `yaml:"log_level"`
	MaxFileSize  int64           `yaml:"max_file_size"`
	AuthUser     string          `yaml:"auth_user"`
	AuthPassword string          `yaml:"auth_password"`
	Retention    int             `yaml:"retention_days"`
	RateLimit    rateLimitConfig `yaml:"rate_limit"`
	OpenAI       openAIConfig    `yaml:"openai"`
}

type rateLimitConfig struct {
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
}

type openAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// loadConfig reads the optional YAML file, then applies environment
// overrides and defaults.
func loadConfig(path string) (*serverConfig, error) {
	var cfg serverConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}

	envOverride(&cfg.Port, "PORT")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.LogLevel, "LOG_LEVEL")
	envOverride(&cfg.AuthUser, "AUTH_USER")
	envOverride(&cfg.AuthPassword, "AUTH_PASSWORD")
	envOverride(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	envOverride(&cfg.OpenAI.BaseURL, "OPENAI_BASE_URL")
	envOverride(&cfg.OpenAI.Model, "OPENAI_MODEL")

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *serverConfig) applyDefaults() {
	if c.Port == "" {
		c.Port = "8086"
	}
	if c.DBPath == "" {
		c.DBPath = "db/gabarit.db"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 32 << 20
	}
	if c.AuthUser == "" {
		c.AuthUser = "gabarit"
	}
	if c.RateLimit.MaxRequests <= 0 {
		c.RateLimit.MaxRequests = 120
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = time.Minute
	}
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
