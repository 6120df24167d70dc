// Package config loads the server settings from the environment, an optional
// .env file and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the server settings.
type Config struct {
	HTTPPort        int           `mapstructure:"http_port"`
	DBDriver        string        `mapstructure:"db_driver"`
	DBPath          string        `mapstructure:"db_path"`
	DatabaseURL     string        `mapstructure:"database_url"`
	DBDebug         bool          `mapstructure:"db_debug"`
	JWTSecretKey    string        `mapstructure:"jwt_secret_key"`
	JWTIssuer       string        `mapstructure:"jwt_issuer"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	AuthRateLimit   int           `mapstructure:"auth_rate_limit"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DefaultSecretKey is used when JWT_SECRET_KEY is unset. It is only fit for
// local development.
const DefaultSecretKey = "change-me-in-production"

var keys = []string{
	"http_port", "db_driver", "db_path", "database_url", "db_debug",
	"jwt_secret_key", "jwt_issuer", "access_token_ttl", "refresh_token_ttl",
	"redis_addr", "auth_rate_limit", "shutdown_timeout",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_port", 3000)
	v.SetDefault("db_driver", DriverSQLite)
	v.SetDefault("db_path", "tasks.db")
	v.SetDefault("database_url", "")
	v.SetDefault("db_debug", false)
	v.SetDefault("jwt_secret_key", DefaultSecretKey)
	v.SetDefault("jwt_issuer", "task-manager")
	v.SetDefault("access_token_ttl", 24*time.Hour)
	v.SetDefault("refresh_token_ttl", 30*24*time.Hour)
	v.SetDefault("redis_addr", "")
	v.SetDefault("auth_rate_limit", 20)
	v.SetDefault("shutdown_timeout", 30*time.Second)
}

// Load reads .env (if present), then CONFIG_FILE (if set), then environment
// variables. Later sources win.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range keys {
		if err := v.BindEnv(k, strings.ToUpper(k)); err != nil {
			return nil, fmt.Errorf("binding %s: %w", k, err)
		}
	}

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	return decode(v)
}

// FromMap builds a Config from explicit values on top of the defaults.
func FromMap(values map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver))
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d", c.HTTPPort))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be positive"))
	}
	if c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("REFRESH_TOKEN_TTL must be positive"))
	}
	if c.AuthRateLimit <= 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT must be positive"))
	}
	if c.JWTSecretKey == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY cannot be empty"))
	}
	return errors.Join(errs...)
}

// UsesDefaultSecret reports whether tokens are signed with the development key.
func (c *Config) UsesDefaultSecret() bool {
	return c.JWTSecretKey == DefaultSecretKey
}

// ListenAddr is the Fiber listen address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
