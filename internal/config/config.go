// Package config handles configuration for the talent-flow backend.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete configuration for the service.
type Config struct {
	Service    ServiceConfig    `mapstructure:"service"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding"`
	Completion CompletionConfig `mapstructure:"completion"`
	Recommend  RecommendConfig  `mapstructure:"recommend"`
}

// ServiceConfig contains service-level configuration.
type ServiceConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	LogLevel        string        `mapstructure:"log_level"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode"`
	MaxConns       int    `mapstructure:"max_conns"`
	MaxIdleConns   int    `mapstructure:"max_idle_conns"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

// DSN builds the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.Username, c.Password, c.SSLMode)
}

// AuthConfig contains JWT settings for the token endpoint.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// EmbeddingConfig contains embedding service settings.
type EmbeddingConfig struct {
	Endpoint       string        `mapstructure:"endpoint"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	RetryDelayMax  time.Duration `mapstructure:"retry_delay_max"`
	RateLimitRPM   int           `mapstructure:"rate_limit_rpm"`
}

// CompletionConfig contains generative text service settings.
type CompletionConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	APIKey          string        `mapstructure:"api_key"`
	Model           string        `mapstructure:"model"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
}

// RecommendConfig contains ranking settings for the read path.
type RecommendConfig struct {
	TopN int `mapstructure:"top_n"`
}

// Load loads configuration from environment and config files.
func Load() (*Config, error) {
	viper.SetConfigName("talent-flow")
	viper.SetConfigType("yaml")

	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/configs")

	setDefaults()
	bindEnvVars()

	if err := viper.ReadInConfig(); err != nil {
		// Defaults and env vars are enough when no config file exists.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default values for configuration.
func setDefaults() {
	viper.SetDefault("service.port", 8000)
	viper.SetDefault("service.shutdown_timeout", "30s")
	viper.SetDefault("service.log_level", "info")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.database", "talentflow_development")
	viper.SetDefault("database.username", "talentflow")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_conns", 10)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.migrations_path", "migrations")

	viper.SetDefault("auth.token_ttl", "30m")

	viper.SetDefault("embedding.endpoint", "https://api.openai.com/v1")
	viper.SetDefault("embedding.model", "text-embedding-3-large")
	viper.SetDefault("embedding.request_timeout", "30s")
	viper.SetDefault("embedding.max_retries", 3)
	viper.SetDefault("embedding.retry_delay_base", "1s")
	viper.SetDefault("embedding.retry_delay_max", "30s")
	viper.SetDefault("embedding.rate_limit_rpm", 100)

	viper.SetDefault("completion.endpoint", "https://api.openai.com/v1")
	viper.SetDefault("completion.model", "gpt-4o")
	viper.SetDefault("completion.max_output_tokens", 2000)
	viper.SetDefault("completion.request_timeout", "60s")
	viper.SetDefault("completion.breaker_timeout", "30s")

	viper.SetDefault("recommend.top_n", 5)
}

// bindEnvVars binds environment variables to configuration keys.
func bindEnvVars() {
	viper.AutomaticEnv()

	_ = viper.BindEnv("service.port", "TALENT_FLOW_PORT")
	_ = viper.BindEnv("service.log_level", "LOG_LEVEL")

	_ = viper.BindEnv("database.host", "DATABASE_HOST")
	_ = viper.BindEnv("database.port", "DATABASE_PORT")
	_ = viper.BindEnv("database.database", "DATABASE_NAME")
	_ = viper.BindEnv("database.username", "DATABASE_USER")
	_ = viper.BindEnv("database.password", "DATABASE_PASSWORD")
	_ = viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	_ = viper.BindEnv("auth.jwt_secret", "JWT_SECRET")

	_ = viper.BindEnv("embedding.api_key", "OPENAI_API_KEY")
	_ = viper.BindEnv("embedding.endpoint", "EMBEDDING_ENDPOINT")
	_ = viper.BindEnv("embedding.model", "EMBEDDING_MODEL")

	_ = viper.BindEnv("completion.api_key", "OPENAI_API_KEY")
	_ = viper.BindEnv("completion.endpoint", "COMPLETION_ENDPOINT")
	_ = viper.BindEnv("completion.model", "COMPLETION_MODEL")
}

// validate validates the configuration.
func validate(cfg *Config) error {
	if cfg.Service.Port <= 0 || cfg.Service.Port > 65535 {
		return fmt.Errorf("invalid service port: %d", cfg.Service.Port)
	}
	if cfg.Recommend.TopN <= 0 {
		return fmt.Errorf("recommend.top_n must be positive, got %d", cfg.Recommend.TopN)
	}
	if cfg.Embedding.MaxRetries < 0 {
		return fmt.Errorf("embedding.max_retries must not be negative, got %d", cfg.Embedding.MaxRetries)
	}
	return nil
}
