// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads authcore configuration.
//
// Layers are applied in order, each overriding the last:
//
//  1. built-in defaults ([Default])
//  2. an optional YAML file, validated against the generated JSON Schema
//  3. environment variables (DATABASE_URL, AUTHCORE_TOKEN_SECRET, ...)
//  4. command-line flags that were explicitly set
package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// OTP store backends.
const (
	OTPStoreMemory   = "memory"
	OTPStorePostgres = "postgres"
	OTPStoreRedis    = "redis"
)

// Config is the complete authcore configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http" json:"http,omitempty"`
	Database DatabaseConfig `koanf:"database" json:"database,omitempty"`
	OTP      OTPConfig      `koanf:"otp" json:"otp,omitempty"`
	Redis    RedisConfig    `koanf:"redis" json:"redis,omitempty"`
	Token    TokenConfig    `koanf:"token" json:"token,omitempty"`
	Log      LogConfig      `koanf:"log" json:"log,omitempty"`
	Metrics  MetricsConfig  `koanf:"metrics" json:"metrics,omitempty"`
	Sweep    SweepConfig    `koanf:"sweep" json:"sweep,omitempty"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr            string        `koanf:"addr" json:"addr,omitempty" env:"AUTHCORE_HTTP_ADDR"`
	ReadTimeout     time.Duration `koanf:"read_timeout" json:"read_timeout,omitempty" jsonschema:"oneof_type=string;integer"`
	WriteTimeout    time.Duration `koanf:"write_timeout" json:"write_timeout,omitempty" jsonschema:"oneof_type=string;integer"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout,omitempty" jsonschema:"oneof_type=string;integer"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL            string        `koanf:"url" json:"url,omitempty" env:"DATABASE_URL"`
	MaxConns       int32         `koanf:"max_conns" json:"max_conns,omitempty" jsonschema:"minimum=1"`
	ConnectTimeout time.Duration `koanf:"connect_timeout" json:"connect_timeout,omitempty" jsonschema:"oneof_type=string;integer"`
	HealthInterval time.Duration `koanf:"health_interval" json:"health_interval,omitempty" jsonschema:"oneof_type=string;integer"`
}

// OTPConfig selects where login challenges live.
type OTPConfig struct {
	Store string `koanf:"store" json:"store,omitempty" env:"AUTHCORE_OTP_STORE" jsonschema:"enum=memory,enum=postgres,enum=redis"`
}

// RedisConfig configures the Redis OTP store.
type RedisConfig struct {
	URL string `koanf:"url" json:"url,omitempty" env:"REDIS_URL"`
}

// TokenConfig configures session token signing.
type TokenConfig struct {
	Secret string `koanf:"secret" json:"secret,omitempty" env:"AUTHCORE_TOKEN_SECRET"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `koanf:"level" json:"level,omitempty" env:"AUTHCORE_LOG_LEVEL" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	Format string `koanf:"format" json:"format,omitempty" env:"AUTHCORE_LOG_FORMAT" jsonschema:"enum=json,enum=text"`
}

// MetricsConfig configures the observability listener. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty" env:"AUTHCORE_METRICS_ADDR"`
}

// SweepConfig configures the expired-record sweeper.
type SweepConfig struct {
	Interval time.Duration `koanf:"interval" json:"interval,omitempty" jsonschema:"oneof_type=string;integer"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            ":3000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			MaxConns:       10,
			ConnectTimeout: 30 * time.Second,
			HealthInterval: 30 * time.Second,
		},
		OTP:     OTPConfig{Store: OTPStorePostgres},
		Log:     LogConfig{Level: "info", Format: "json"},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9100"},
		Sweep:   SweepConfig{Interval: 5 * time.Minute},
	}
}

// minSecretLen mirrors the token issuer's requirement.
const minSecretLen = 32

// Validate checks that the configuration is usable by serve.
func (c *Config) Validate() error {
	switch {
	case c.HTTP.Addr == "":
		return invalid("http.addr", "is required")
	case c.Database.URL == "":
		return invalid("database.url", "is required (set DATABASE_URL)")
	case c.Database.MaxConns < 1:
		return invalid("database.max_conns", "must be at least 1")
	case len(c.Token.Secret) < minSecretLen:
		return invalid("token.secret", "must be at least 32 bytes (set AUTHCORE_TOKEN_SECRET)")
	case c.Log.Format != "json" && c.Log.Format != "text":
		return invalid("log.format", "must be 'json' or 'text'")
	}

	switch c.OTP.Store {
	case OTPStoreMemory, OTPStorePostgres:
	case OTPStoreRedis:
		if c.Redis.URL == "" {
			return invalid("redis.url", "is required when otp.store is redis")
		}
	default:
		return invalid("otp.store", "must be memory, postgres or redis")
	}
	return nil
}

func invalid(field, msg string) error {
	return oops.Code("CONFIG_INVALID").With("field", field).Errorf("%s %s", field, msg)
}

// LoadOptions controls Load.
type LoadOptions struct {
	// Path is an optional YAML file.
	Path string
	// Flags holds command-line overrides registered with RegisterFlags.
	Flags *pflag.FlagSet
	// Environ replaces the process environment when non-nil.
	Environ map[string]string
}

// Load builds a Config from defaults, file, environment and flags.
// The result is not validated; call Validate before serving.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	if opts.Path != "" {
		if err := ValidateFile(opts.Path); err != nil {
			return cfg, err
		}
		k := koanf.New(".")
		if err := k.Load(file.Provider(opts.Path), yaml.Parser()); err != nil {
			return cfg, oops.Code("CONFIG_LOAD_FAILED").With("path", opts.Path).Wrap(err)
		}
		if err := k.Unmarshal("", &cfg); err != nil {
			return cfg, oops.Code("CONFIG_LOAD_FAILED").With("path", opts.Path).Wrap(err)
		}
	}

	envOpts := env.Options{}
	if opts.Environ != nil {
		envOpts.Environment = opts.Environ
	}
	if err := env.ParseWithOptions(&cfg, envOpts); err != nil {
		return cfg, oops.Code("CONFIG_LOAD_FAILED").With("layer", "env").Wrap(err)
	}

	if opts.Flags != nil {
		k := koanf.New(".")
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return flagKey(f.Name), posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return cfg, oops.Code("CONFIG_LOAD_FAILED").With("layer", "flags").Wrap(err)
		}
		if err := k.Unmarshal("", &cfg); err != nil {
			return cfg, oops.Code("CONFIG_LOAD_FAILED").With("layer", "flags").Wrap(err)
		}
	}

	return cfg, nil
}

// flagKey maps a flag name such as "database-url" to its config key.
func flagKey(name string) string {
	return strings.Replace(name, "-", ".", 1)
}

// RegisterFlags defines the override flags understood by Load.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("http-addr", d.HTTP.Addr, "API listen address")
	fs.String("database-url", "", "PostgreSQL connection URL (default: $DATABASE_URL)")
	fs.String("otp-store", d.OTP.Store, "OTP challenge store (memory, postgres or redis)")
	fs.String("redis-url", "", "Redis URL for the redis OTP store")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("log-format", d.Log.Format, "log format (json or text)")
	fs.String("metrics-addr", d.Metrics.Addr, "metrics/health HTTP address (empty = disabled)")
	fs.Duration("sweep-interval", d.Sweep.Interval, "how often expired challenges and reset tokens are purged")
}
