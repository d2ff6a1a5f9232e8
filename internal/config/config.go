package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the decision engine.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Rules    RulesConfig    `yaml:"rules"`
	Provider ProviderConfig `yaml:"provider"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host               string   `yaml:"host"`
	Port               int      `yaml:"port"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// GetHost returns the server host, with container detection.
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	// Allow override via environment
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// Addr returns the listen address in host:port form.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	URL                    string `yaml:"url"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// ConnMaxLifetime returns the configured connection lifetime as a duration.
func (c DatabaseConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(c.ConnMaxLifetimeMinutes) * time.Minute
}

// RulesConfig locates the rule catalog: a local path or s3://bucket/key.
type RulesConfig struct {
	Path string `yaml:"path"`
}

// ProviderConfig selects and configures the message provider.
type ProviderConfig struct {
	Kind           string    `yaml:"kind"` // "log" or "ses"
	MessageLogPath string    `yaml:"message_log_path"`
	SES            SESConfig `yaml:"ses"`
}

// SESConfig holds AWS SES delivery configuration. Empty access/secret keys
// fall back to the default credential chain (IAM role on ECS).
type SESConfig struct {
	Region           string `yaml:"region"`
	AccessKey        string `yaml:"access_key"`
	SecretKey        string `yaml:"secret_key"`
	FromAddress      string `yaml:"from_address"`
	ConfigurationSet string `yaml:"configuration_set"`
}

// MetricsConfig holds the optional Redis decision-feed settings.
type MetricsConfig struct {
	RedisAddr   string `yaml:"redis_addr"`
	RedisDB     int    `yaml:"redis_db"`
	RecentLimit int    `yaml:"recent_limit"`
}

// Enabled reports whether the metrics publisher should run.
func (c MetricsConfig) Enabled() bool {
	return c.RedisAddr != ""
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.CORSAllowedOrigins) == 0 {
		cfg.Server.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetimeMinutes == 0 {
		cfg.Database.ConnMaxLifetimeMinutes = 30
	}
	if cfg.Rules.Path == "" {
		cfg.Rules.Path = "config/rules.yaml"
	}
	if cfg.Provider.Kind == "" {
		cfg.Provider.Kind = "log"
	}
	if cfg.Provider.MessageLogPath == "" {
		cfg.Provider.MessageLogPath = "messages.log"
	}
	if cfg.Provider.SES.Region == "" {
		cfg.Provider.SES.Region = "us-east-1"
	}
	if cfg.Metrics.RecentLimit == 0 {
		cfg.Metrics.RecentLimit = 100
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS. A missing
// config file is not an error: defaults plus environment apply, which is how
// container deployments run.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		cfg = &Config{}
		applyDefaults(cfg)
	}

	// Override with environment variables if present
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.CORSAllowedOrigins = splitCommaList(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("RULES_PATH"); v != "" {
		cfg.Rules.Path = v
	}
	if v := os.Getenv("PROVIDER_KIND"); v != "" {
		cfg.Provider.Kind = v
	}
	if v := os.Getenv("MESSAGE_LOG_PATH"); v != "" {
		cfg.Provider.MessageLogPath = v
	}
	if v := os.Getenv("SES_REGION"); v != "" {
		cfg.Provider.SES.Region = v
	}
	if v := os.Getenv("SES_ACCESS_KEY"); v != "" {
		cfg.Provider.SES.AccessKey = v
	}
	if v := os.Getenv("SES_SECRET_KEY"); v != "" {
		cfg.Provider.SES.SecretKey = v
	}
	if v := os.Getenv("SES_FROM_ADDRESS"); v != "" {
		cfg.Provider.SES.FromAddress = v
	}
	if v := os.Getenv("SES_CONFIGURATION_SET"); v != "" {
		cfg.Provider.SES.ConfigurationSet = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Metrics.RedisAddr = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.RedisDB = db
		}
	}

	return cfg, nil
}

func splitCommaList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
