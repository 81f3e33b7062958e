// Package config manages environment variables.
//
// It reads variables from the `.env` file,
// loads them into structured Go types (struct), and
// validates that required values are present so they
// can be reused across the application runtime.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values so the app fails fast on bad/missing config.
//   - Provide defaults for optional config blocks (log store, observability).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: if a `.env` file exists, it gets loaded into the
	// process env before anything below reads env vars.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix every application env var carries.
//
// Nesting uses a double underscore so single underscores stay inside keys:
//
//	SHALOM_SERVER__READ_TIMEOUT -> server.read_timeout -> Config.Server.ReadTimeout
const EnvPrefix = "SHALOM_"

// Runtime environments understood by the application.
const (
	EnvProduction  = "production"
	EnvTest        = "test"
	EnvDevelopment = "development"
)

// DefaultPort is used when neither server.port nor PORT is set.
const DefaultPort = "5000"

// Config is the root configuration object for the application.
//
// Observability and Auth are pointers because they are optional.
// Missing observability gets defaults, missing auth disables auth.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis"`
	LogStore      LogStoreConfig       `koanf:"log_store" validate:"required"`
	Integration   IntegrationConfig    `koanf:"integration"`
	Auth          *AuthConfig          `koanf:"auth"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
// It selects the log store target and switches the development-only and
// production-only middleware.
type Primary struct {
	Env string `koanf:"env" validate:"required,oneof=production test development"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are seconds.
type ServerConfig struct {
	Port               string   `koanf:"port"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"min=0"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"min=0"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"min=0"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
	StaticDir          string   `koanf:"static_dir"`
}

// DatabaseConfig contains PostgreSQL connection parameters for the invoice store.
type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password" validate:"required"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int    `koanf:"max_open_conns"`
	MaxIdleConns    int    `koanf:"max_idle_conns"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time"`
}

// RedisConfig contains Redis connection details.
// An empty Address disables background jobs.
type RedisConfig struct {
	Address string `koanf:"address"`
}

// LogStoreConfig describes the MongoDB store that receives validation error
// records, plus the local file that mirrors them.
//
// In production the connection URI is composed from Host (the URI scheme,
// e.g. "mongodb+srv"), DBName (the cluster name), ClusterDomain and two
// credentials. User and Pass are NOT the credentials themselves: they are
// the names of the env variables holding them.
type LogStoreConfig struct {
	Host          string        `koanf:"host"`
	DBName        string        `koanf:"db_name"`
	User          string        `koanf:"user"`
	Pass          string        `koanf:"pass"`
	ClusterDomain string        `koanf:"cluster_domain"`
	Database      string        `koanf:"database" validate:"required"`
	Collection    string        `koanf:"collection" validate:"required"`
	FilePath      string        `koanf:"file_path" validate:"required"`
	WriteTimeout  time.Duration `koanf:"write_timeout" validate:"min=0"`
}

// IntegrationConfig stores third-party API credentials.
type IntegrationConfig struct {
	ResendAPIKey string `koanf:"resend_api_key"`
	EmailFrom    string `koanf:"email_from"`
}

// AuthConfig stores authentication-related secrets.
type AuthConfig struct {
	SecretKey string `koanf:"secret_key" validate:"required"`
}

// IsProduction reports whether the app runs with env=production.
func (c *Config) IsProduction() bool {
	return c.Primary.Env == EnvProduction
}

// IsDevelopment reports whether the app runs with env=development.
func (c *Config) IsDevelopment() bool {
	return c.Primary.Env == EnvDevelopment
}

// AuthEnabled reports whether a Clerk secret key was provided.
func (c *Config) AuthEnabled() bool {
	return c.Auth != nil && c.Auth.SecretKey != ""
}

// LoadConfig loads configuration from the process environment.
//
// Behavior summary:
//   - Loads env vars with prefix SHALOM_
//   - Converts env keys into koanf keys ("__" becomes ".")
//   - Unmarshals into Config and applies defaults
//   - Validates struct tags and the observability block
func LoadConfig() (*Config, error) {
	return Load(EnvPrefix, os.Getenv)
}

// Load is LoadConfig with an explicit prefix and a lookup for the
// unprefixed PORT fallback. Tests use it with their own prefix.
func Load(prefix string, getenv func(string) string) (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(prefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, prefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	applyDefaults(mainConfig, getenv)

	validate := validator.New()
	if err := validate.Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Service name and environment always follow the primary config.
	mainConfig.Observability.ServiceName = "shalom-ministry"
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}

func applyDefaults(cfg *Config, getenv func(string) string) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = getenv("PORT")
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60
	}
	if len(cfg.Server.CORSAllowedOrigins) == 0 {
		cfg.Server.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = "public"
	}

	if cfg.LogStore.ClusterDomain == "" {
		cfg.LogStore.ClusterDomain = "gg9r8ag.mongodb.net"
	}
	if cfg.LogStore.Database == "" {
		cfg.LogStore.Database = "shalom-ministry"
	}
	if cfg.LogStore.Collection == "" {
		cfg.LogStore.Collection = "shalom-ministry_logs"
	}
	if cfg.LogStore.FilePath == "" {
		cfg.LogStore.FilePath = "logs/responses.log"
	}
	if cfg.LogStore.WriteTimeout == 0 {
		cfg.LogStore.WriteTimeout = 10 * time.Second
	}

	if cfg.Integration.EmailFrom == "" {
		cfg.Integration.EmailFrom = "Shalom Ministry <invoices@resend.dev>"
	}
}
