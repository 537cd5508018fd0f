// Package config assembles the process configuration once at startup.
// The resulting Config is treated as immutable and handed to the router and
// services explicitly.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/ovaphlow/pitchfork/service-community/pkg/database"
	"github.com/ovaphlow/pitchfork/service-community/pkg/utilities"
)

type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	Database      database.Config     `yaml:"database"`
	Log           utilities.LogConfig `yaml:"log"`
	Auth          AuthConfig          `yaml:"auth"`
	SnowflakeNode int64               `yaml:"snowflake_node"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	BasePath        string        `yaml:"base_path"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type AuthConfig struct {
	Secret     string        `yaml:"secret"`
	Issuer     string        `yaml:"issuer"`
	AccessTTL  time.Duration `yaml:"access_ttl"`
	RefreshTTL time.Duration `yaml:"refresh_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            "0.0.0.0:8431",
			BasePath:        "/api",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Database: database.DefaultConfig(),
		Log:      utilities.LogConfig{Level: "info"},
		Auth: AuthConfig{
			Issuer:     "community-api",
			AccessTTL:  5 * time.Minute,
			RefreshTTL: 24 * time.Hour,
			BcryptCost: bcrypt.DefaultCost,
		},
		SnowflakeNode: 1,
	}
}

// Load builds the configuration from defaults, then the optional YAML file at
// path, then environment variables. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	var errs []error
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	integer := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			*dst = v == "1" || v == "true"
		}
	}

	str("HTTP_ADDR", &cfg.HTTP.Addr)
	str("HTTP_BASE_PATH", &cfg.HTTP.BasePath)
	dur("HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout)
	dur("HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout)
	dur("HTTP_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout)

	str("DATABASE_URL", &cfg.Database.DSN)
	integer("DATABASE_MAX_CONNS", &cfg.Database.MaxConns)
	dur("DATABASE_TIMEOUT", &cfg.Database.Timeout)
	str("DATABASE_TIMEZONE", &cfg.Database.TimeZone)
	str("DATABASE_CLIENT_ENCODING", &cfg.Database.ClientEncoding)
	boolean("DATABASE_AUTO_MIGRATE", &cfg.Database.AutoMigrate)

	boolean("LOG_DEV", &cfg.Log.Dev)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FILE", &cfg.Log.File)
	dur("LOG_ROTATION_TIME", &cfg.Log.RotationTime)
	dur("LOG_MAX_AGE", &cfg.Log.MaxAge)
	if cfg.Log.Dev && os.Getenv("LOG_LEVEL") == "" {
		cfg.Log.Level = "debug"
	}

	str("JWT_SECRET", &cfg.Auth.Secret)
	str("JWT_ISSUER", &cfg.Auth.Issuer)
	dur("JWT_ACCESS_TTL", &cfg.Auth.AccessTTL)
	dur("JWT_REFRESH_TTL", &cfg.Auth.RefreshTTL)
	integer("BCRYPT_COST", &cfg.Auth.BcryptCost)

	if v := os.Getenv("SNOWFLAKE_NODE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("SNOWFLAKE_NODE: %w", err))
		} else {
			cfg.SnowflakeNode = n
		}
	}
	return errors.Join(errs...)
}

// Validate reports configuration that would make the service unusable.
func (c Config) Validate() error {
	var errs []error
	if c.Auth.Secret == "" {
		errs = append(errs, errors.New("auth secret is required (JWT_SECRET)"))
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token ttls must be positive"))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be within %d..%d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http addr is required"))
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, errors.New("database max conns must be positive"))
	}
	return errors.Join(errs...)
}
