// Package config handles configuration loading for the server: a yaml file
// with environment-variable overrides.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values for the application.
type Config struct {
	// Database connection string
	DatabaseURL string `mapstructure:"database_url"`

	// HTTP server port
	HTTPPort int `mapstructure:"http_port"`

	// Secret used to verify identity-provider bearer tokens
	JWTSecret string `mapstructure:"jwt_secret"`

	// Administrator identity for refund operations. A single static
	// allow-listed address, not a role system.
	AdminEmail string `mapstructure:"admin_email"`

	// Payment gateway
	GatewayBaseURL    string `mapstructure:"gateway_base_url"`
	GatewaySecret     string `mapstructure:"gateway_secret"`
	GatewaySecretFile string `mapstructure:"gateway_secret_file"`
	Currency          string `mapstructure:"currency"`

	// External identity provider used for credential verification.
	IdentityBaseURL string `mapstructure:"identity_base_url"`

	// Email delivery service
	MailBaseURL string `mapstructure:"mail_base_url"`
	MailAPIKey  string `mapstructure:"mail_api_key"`
	MailFrom    string `mapstructure:"mail_from"`

	// Throttle ledger policy
	PaymentMaxAttempts int           `mapstructure:"payment_max_attempts"`
	PaymentLockout     time.Duration `mapstructure:"payment_lockout"`
	LoginMaxAttempts   int           `mapstructure:"login_max_attempts"`
	LoginLockout       time.Duration `mapstructure:"login_lockout"`

	// Transport-level per-user rate limit (requests/second, burst)
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`

	// OTLP collector endpoint for traces; empty disables tracing
	OTELEndpoint string `mapstructure:"otel_endpoint"`
}

// Load reads configuration from the given yaml file (optional) and from
// TALENTBRIDGE_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("http_port", 8080)
	v.SetDefault("currency", "jpy")
	v.SetDefault("payment_max_attempts", 5)
	v.SetDefault("payment_lockout", 30*time.Minute)
	v.SetDefault("login_max_attempts", 5)
	v.SetDefault("login_lockout", 15*time.Minute)
	v.SetDefault("rate_limit", 10.0)
	v.SetDefault("rate_limit_burst", 20)
	v.SetDefault("mail_from", "noreply@talentbridge.example")

	v.SetEnvPrefix("TALENTBRIDGE")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{
		"database_url", "jwt_secret", "admin_email",
		"gateway_base_url", "gateway_secret", "gateway_secret_file",
		"identity_base_url",
		"mail_base_url", "mail_api_key", "otel_endpoint",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if c.AdminEmail == "" {
		return fmt.Errorf("admin_email is required")
	}
	if c.GatewayBaseURL == "" {
		return fmt.Errorf("gateway_base_url is required")
	}
	if c.GatewaySecret == "" && c.GatewaySecretFile == "" {
		return fmt.Errorf("one of gateway_secret or gateway_secret_file is required")
	}
	if c.IdentityBaseURL == "" {
		return fmt.Errorf("identity_base_url is required")
	}
	if c.PaymentMaxAttempts <= 0 || c.LoginMaxAttempts <= 0 {
		return fmt.Errorf("attempt limits must be positive")
	}
	return nil
}
