// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"admingate/internal/capability"
	"admingate/internal/observability"

	"github.com/spf13/viper"
)

const defaultSandboxSecret = "sandbox-secret-change-me"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	AdminAPIURL            string `mapstructure:"ADMIN_API_URL"`
	AdminAPIToken          string `mapstructure:"ADMIN_API_TOKEN"`
	AdminAPITimeoutSeconds int    `mapstructure:"ADMIN_API_TIMEOUT_SECONDS"`
	LoginURL               string `mapstructure:"LOGIN_URL"`
	Env                    string `mapstructure:"APP_ENV"`
	LogLevel               string `mapstructure:"LOG_LEVEL"`
	OutputFormat           string `mapstructure:"OUTPUT_FORMAT"`

	RedisURL                  string `mapstructure:"REDIS_URL"`
	CapabilityCacheTTLSeconds int    `mapstructure:"CAPABILITY_CACHE_TTL_SECONDS"`
	CapabilityModes           string `mapstructure:"CAPABILITY_MODES"`

	TracingEnabled     bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter    string  `mapstructure:"TRACING_EXPORTER"`
	TracingSampleRatio float64 `mapstructure:"TRACING_SAMPLE_RATIO"`
	OTLPEndpoint       string  `mapstructure:"OTLP_ENDPOINT"`

	SandboxPort      string `mapstructure:"SANDBOX_PORT"`
	SandboxDBDriver  string `mapstructure:"SANDBOX_DB_DRIVER"`
	SandboxDSN       string `mapstructure:"SANDBOX_DSN"`
	SandboxJWTSecret string `mapstructure:"SANDBOX_JWT_SECRET"`
	SandboxSeedUsers int    `mapstructure:"SANDBOX_SEED_USERS"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env != "" && env != "development" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		observability.GlobalLogger.Info("loaded profile-specific configuration", "file", "config."+env+".yml")
	}

	viper.SetDefault("ADMIN_API_URL", "http://localhost:8390")
	viper.SetDefault("ADMIN_API_TOKEN", "")
	viper.SetDefault("ADMIN_API_TIMEOUT_SECONDS", 8)
	viper.SetDefault("LOGIN_URL", "/login")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("OUTPUT_FORMAT", "json")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("CAPABILITY_CACHE_TTL_SECONDS", 300)
	viper.SetDefault("CAPABILITY_MODES", "")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("TRACING_SAMPLE_RATIO", 1.0)
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("SANDBOX_PORT", "8390")
	viper.SetDefault("SANDBOX_DB_DRIVER", "sqlite")
	viper.SetDefault("SANDBOX_DSN", "file::memory:?cache=shared")
	viper.SetDefault("SANDBOX_JWT_SECRET", defaultSandboxSecret)
	viper.SetDefault("SANDBOX_SEED_USERS", 25)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *Config) normalize() {
	c.AdminAPIURL = strings.TrimRight(strings.TrimSpace(c.AdminAPIURL), "/")
	c.AdminAPIToken = strings.TrimSpace(c.AdminAPIToken)
	c.OutputFormat = strings.ToLower(strings.TrimSpace(c.OutputFormat))
	c.SandboxDBDriver = strings.ToLower(strings.TrimSpace(c.SandboxDBDriver))
	c.TracingExporter = strings.ToLower(strings.TrimSpace(c.TracingExporter))
}

// Validate ensures that required configuration values are present and well formed.
func (c *Config) Validate() error {
	u, err := url.Parse(c.AdminAPIURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("ADMIN_API_URL must be an absolute http(s) URL, got %q", c.AdminAPIURL)
	}
	if c.AdminAPITimeoutSeconds <= 0 {
		return errors.New("ADMIN_API_TIMEOUT_SECONDS must be positive")
	}
	if c.CapabilityCacheTTLSeconds < 0 {
		return errors.New("CAPABILITY_CACHE_TTL_SECONDS must not be negative")
	}
	switch c.OutputFormat {
	case "json", "yaml":
	default:
		return fmt.Errorf("OUTPUT_FORMAT must be json or yaml, got %q", c.OutputFormat)
	}
	switch c.SandboxDBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("SANDBOX_DB_DRIVER must be sqlite or postgres, got %q", c.SandboxDBDriver)
	}
	if c.TracingSampleRatio < 0 || c.TracingSampleRatio > 1 {
		return errors.New("TRACING_SAMPLE_RATIO must be between 0 and 1")
	}
	if err := validateModes(c.CapabilityModes); err != nil {
		return err
	}

	if c.IsProduction() {
		if u.Scheme != "https" {
			return errors.New("ADMIN_API_URL must use https in production")
		}
		if c.SandboxJWTSecret == defaultSandboxSecret || len(c.SandboxJWTSecret) < 32 {
			return errors.New("SANDBOX_JWT_SECRET must be changed and at least 32 characters in production")
		}
	} else if len(c.SandboxJWTSecret) < 32 {
		observability.GlobalLogger.Warn("SANDBOX_JWT_SECRET is shorter than 32 characters")
	}

	return nil
}

// validateModes rejects override pairs the policy parser would silently skip.
func validateModes(raw string) error {
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, mode, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return fmt.Errorf("CAPABILITY_MODES entry %q must be KEY=mode", pair)
		}
		if _, ok := capability.ParseMode(mode); !ok {
			return fmt.Errorf("CAPABILITY_MODES entry %q has unknown mode", pair)
		}
	}
	return nil
}

// IsProduction reports whether the production profile is active.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Timeout is the per-request admin API timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.AdminAPITimeoutSeconds) * time.Second
}

// CacheTTL is how long a capability snapshot stays in the shared cache.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CapabilityCacheTTLSeconds) * time.Second
}

// Policy builds the capability approval policy from CAPABILITY_MODES.
func (c *Config) Policy() *capability.Policy {
	return capability.NewPolicy(c.CapabilityModes)
}

// Tracing returns the tracer settings for the named service.
func (c *Config) Tracing(service string) observability.TracingConfig {
	return observability.TracingConfig{
		ServiceName:    service,
		ServiceVersion: "0.1.0",
		Environment:    c.Env,
		Enabled:        c.TracingEnabled,
		Exporter:       c.TracingExporter,
		OTLPEndpoint:   c.OTLPEndpoint,
		SamplerRatio:   c.TracingSampleRatio,
	}
}
