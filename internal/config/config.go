package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sparkserve/bookingapi/internal/domain"
)

type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	Auth        AuthConfig
	AMQP        AMQPConfig
	Notify      NotifyConfig
	Outbox      OutboxConfig
	Policy      PolicyConfig
	TaxRate     float64
	LogLevel    string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type AMQPConfig struct {
	URL     string
	Enabled bool
}

type NotifyConfig struct {
	WebhookURL string
}

type OutboxConfig struct {
	PollInterval time.Duration
	MaxAttempts  int
}

// PolicyConfig is the immutable policy snapshot threaded into the service
// resolver and checkout checks. No component reads policy from the
// environment directly.
type PolicyConfig struct {
	// ProvisioningEnabled gates catalog auto-provisioning per dynamic kind.
	ProvisioningEnabled map[domain.DynamicKind]bool
	// ServiceableAreaCheck enables the checkout pincode check.
	ServiceableAreaCheck bool
	// ServiceablePincodes is the allowlist used when the check is enabled.
	ServiceablePincodes []string
}

// AllowsProvisioning reports whether auto-provisioning is enabled for the
// given dynamic kind. Kinds absent from the map default to enabled.
func (p PolicyConfig) AllowsProvisioning(kind domain.DynamicKind) bool {
	enabled, ok := p.ProvisioningEnabled[kind]
	if !ok {
		return true
	}
	return enabled
}

// PincodeServiceable reports whether the pincode passes the serviceable-area
// policy. The check is a no-op when disabled.
func (p PolicyConfig) PincodeServiceable(pincode string) bool {
	if !p.ServiceableAreaCheck {
		return true
	}
	for _, pc := range p.ServiceablePincodes {
		if pc == pincode {
			return true
		}
	}
	return false
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("TAX_RATE", "0.18")
	viper.SetDefault("TOKEN_TTL", "24h")
	viper.SetDefault("OUTBOX_POLL_INTERVAL", "5s")
	viper.SetDefault("OUTBOX_MAX_ATTEMPTS", "5")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	tokenTTL, err := time.ParseDuration(getEnvOrViper("TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	pollInterval, err := time.ParseDuration(getEnvOrViper("OUTBOX_POLL_INTERVAL", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid OUTBOX_POLL_INTERVAL: %w", err)
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "bookingapi"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnvOrViper("JWT_SECRET", ""),
			TokenTTL:  tokenTTL,
		},
		AMQP: AMQPConfig{
			URL:     getEnvOrViper("AMQP_URL", ""),
			Enabled: getEnvOrViper("AMQP_URL", "") != "",
		},
		Notify: NotifyConfig{
			WebhookURL: getEnvOrViper("NOTIFY_WEBHOOK_URL", ""),
		},
		Outbox: OutboxConfig{
			PollInterval: pollInterval,
			MaxAttempts:  viper.GetInt("OUTBOX_MAX_ATTEMPTS"),
		},
		Policy:   loadPolicy(),
		TaxRate:  viper.GetFloat64("TAX_RATE"),
		LogLevel: getEnvOrViper("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// loadPolicy builds the policy snapshot once at startup. Per-kind flags use
// DISABLE_PROVISIONING as a comma-separated kind list; kinds not named stay
// enabled.
func loadPolicy() PolicyConfig {
	disabled := map[domain.DynamicKind]bool{}
	for _, raw := range strings.Split(getEnvOrViper("DISABLE_PROVISIONING", ""), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		disabled[domain.DynamicKind(strings.ToUpper(raw))] = true
	}

	enabled := make(map[domain.DynamicKind]bool, len(domain.AllDynamicKinds))
	for _, kind := range domain.AllDynamicKinds {
		enabled[kind] = !disabled[kind]
	}

	var pincodes []string
	for _, raw := range strings.Split(getEnvOrViper("SERVICEABLE_PINCODES", ""), ",") {
		raw = strings.TrimSpace(raw)
		if raw != "" {
			pincodes = append(pincodes, raw)
		}
	}

	return PolicyConfig{
		ProvisioningEnabled:  enabled,
		ServiceableAreaCheck: getEnvOrViper("SERVICEABLE_AREA_CHECK", "") == "true",
		ServiceablePincodes:  pincodes,
	}
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}
