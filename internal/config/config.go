// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Store backends understood by store.Open.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendGCS      = "gcs"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"APP_ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	StoreBackend string `mapstructure:"STORE_BACKEND"`
	DataFile     string `mapstructure:"DATA_FILE"`
	StoreKey     string `mapstructure:"STORE_KEY"`

	RedisURL          string `mapstructure:"REDIS_URL"`
	BroadcastViaRedis bool   `mapstructure:"BROADCAST_VIA_REDIS"`
	BroadcastBuffer   int    `mapstructure:"BROADCAST_BUFFER"`
	MaxWSConnections  int    `mapstructure:"MAX_WS_CONNECTIONS"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`
	SQLitePath string `mapstructure:"SQLITE_PATH"`

	GCSBucket          string `mapstructure:"GCS_BUCKET"`
	GCSObject          string `mapstructure:"GCS_OBJECT"`
	GCSCredentialsFile string `mapstructure:"GCS_CREDENTIALS_FILE"`

	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	AdminToken     string `mapstructure:"ADMIN_TOKEN"`
	AdminTokenHash string `mapstructure:"ADMIN_TOKEN_HASH"`

	RateLimitMax           int `mapstructure:"RATE_LIMIT_MAX"`
	RateLimitWindowSeconds int `mapstructure:"RATE_LIMIT_WINDOW_SECONDS"`
	GlobalRateLimitMax     int `mapstructure:"GLOBAL_RATE_LIMIT_MAX"`

	TracingEnabled      bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint        string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSamplerRatio float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from config.yml, the
// profile-specific config.<APP_ENV>.yml and environment variables.
func LoadConfig() (*Config, error) {
	return Load(viper.New(), ".", "..", "../..")
}

// Load reads configuration into v using the given search paths.
func Load(v *viper.Viper, paths ...string) (*Config, error) {
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()

	// The base file is optional.
	_ = v.ReadInConfig()

	env := v.GetString("APP_ENV")
	if env != "" && env != "development" && env != "test" {
		v.SetConfigName("config." + env)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_BACKEND", BackendFile)
	v.SetDefault("DATA_FILE", "posts.json")
	v.SetDefault("STORE_KEY", "pepeboard:posts")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("BROADCAST_VIA_REDIS", false)
	v.SetDefault("BROADCAST_BUFFER", 1024)
	v.SetDefault("MAX_WS_CONNECTIONS", 10000)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "pepeboard")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("SQLITE_PATH", "pepeboard.db")
	v.SetDefault("GCS_BUCKET", "")
	v.SetDefault("GCS_OBJECT", "posts.json")
	v.SetDefault("GCS_CREDENTIALS_FILE", "")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080")
	v.SetDefault("ADMIN_TOKEN", "")
	v.SetDefault("ADMIN_TOKEN_HASH", "")
	v.SetDefault("RATE_LIMIT_MAX", 20)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	v.SetDefault("GLOBAL_RATE_LIMIT_MAX", 300)
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_EXPORTER", "stdout")
	v.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	v.SetDefault("TRACING_SAMPLER_RATIO", 1.0)
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
}

// IsProduction reports whether the production profile is active.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}

	switch c.StoreBackend {
	case BackendMemory:
	case BackendFile:
		if c.DataFile == "" {
			return errors.New("DATA_FILE is required for the file store")
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis store")
		}
	case BackendPostgres:
		if c.DBHost == "" || c.DBName == "" {
			return errors.New("DB_HOST and DB_NAME are required for the postgres store")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite store")
		}
	case BackendGCS:
		if c.GCSBucket == "" {
			return errors.New("GCS_BUCKET is required for the gcs store")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.BroadcastViaRedis && c.RedisURL == "" {
		return errors.New("BROADCAST_VIA_REDIS requires REDIS_URL")
	}
	if c.BroadcastBuffer <= 0 {
		return errors.New("BROADCAST_BUFFER must be positive")
	}
	if c.RateLimitMax <= 0 || c.RateLimitWindowSeconds <= 0 {
		return errors.New("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW_SECONDS must be positive")
	}
	if c.TracingSamplerRatio < 0 || c.TracingSamplerRatio > 1 {
		return errors.New("TRACING_SAMPLER_RATIO must be between 0 and 1")
	}

	if c.IsProduction() {
		if c.AdminToken != "" && c.AdminTokenHash == "" && len(c.AdminToken) < 16 {
			return errors.New("ADMIN_TOKEN must be at least 16 characters in production (or use ADMIN_TOKEN_HASH)")
		}
		if c.StoreBackend == BackendPostgres && (c.DBPassword == "password" || c.DBPassword == "") {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.StoreBackend == BackendMemory {
			log.Println("WARNING: STORE_BACKEND is 'memory' in production. Posts will be lost on restart.")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
		if c.AdminToken == "" && c.AdminTokenHash == "" {
			log.Println("WARNING: no ADMIN_TOKEN configured. DELETE /posts/:id is open to everyone.")
		}
	}

	return nil
}

// PostgresDSN builds the connection string for the postgres store.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}
