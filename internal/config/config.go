package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Payment  PaymentConfig
	Methods  MethodsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// PaymentConfig holds gateway and transaction configuration. Secrets and key
// material are injected from the environment, never compiled in.
type PaymentConfig struct {
	// GatewayURL is the live processor endpoint. Empty selects the sandbox
	// simulator.
	GatewayURL string

	// ServiceProviderCode identifies this merchant to the processor.
	ServiceProviderCode string

	// APISecret is the shared secret wrapped per attempt; required for the
	// live gateway.
	APISecret string

	// PublicKeyPEM is the processor's RSA public key; required for the
	// live gateway.
	PublicKeyPEM string

	Currency string

	// CarrierPrefixes are the two-digit MSISDN prefixes accepted for
	// mobile-money payments.
	CarrierPrefixes []string

	// PINEntryDelay is the simulator's artificial customer-PIN window.
	PINEntryDelay time.Duration

	// ConfirmTimeout bounds how long a submitted transaction may wait for
	// confirmation before erroring out.
	ConfirmTimeout time.Duration

	// GatewayTimeout bounds a single HTTP call to the live processor.
	GatewayTimeout time.Duration
}

// MethodsConfig toggles the configured payment methods.
type MethodsConfig struct {
	MobileMoneyEnabled bool
	CardEnabled        bool
	SimulatedEnabled   bool
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "bookpay"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "bookpay-service"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Payment: PaymentConfig{
			GatewayURL:          getEnv("GATEWAY_URL", ""),
			ServiceProviderCode: getEnv("GATEWAY_PROVIDER_CODE", "171717"),
			APISecret:           getEnv("GATEWAY_API_SECRET", ""),
			PublicKeyPEM:        getEnv("GATEWAY_PUBLIC_KEY", ""),
			Currency:            getEnv("PAYMENT_CURRENCY", "MZN"),
			CarrierPrefixes:     getListEnv("CARRIER_PREFIXES", []string{"84", "85"}),
			PINEntryDelay:       getDurationEnv("PIN_ENTRY_DELAY", 10*time.Second),
			ConfirmTimeout:      getDurationEnv("CONFIRM_TIMEOUT", 90*time.Second),
			GatewayTimeout:      getDurationEnv("GATEWAY_TIMEOUT", 30*time.Second),
		},
		Methods: MethodsConfig{
			MobileMoneyEnabled: getBoolEnv("METHOD_MOBILE_MONEY_ENABLED", true),
			CardEnabled:        getBoolEnv("METHOD_CARD_ENABLED", false),
			SimulatedEnabled:   getBoolEnv("METHOD_SIMULATED_ENABLED", true),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
