/**
 * @description
 * This package handles the configuration management for the dashboard service. It uses
 * Viper to read configuration from environment variables (and an optional .env file),
 * producing a single immutable Config value that is passed explicitly to the components
 * that need it.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultServerPort         = "10000"
	DefaultPayPalAPIBaseURL   = "https://api-m.paypal.com"
	DefaultPayoutCurrency     = "EUR"
	DefaultPayoutEmailSubject = "Hai ricevuto un pagamento!"
	DefaultTokenCachePrefix   = "dashboard:paypal_token"
	DefaultPayoutExchange     = "dashboard.events"
	DefaultPayPalTimeout      = 30 * time.Second

	requestTimeoutMargin = 10 * time.Second
)

// Config holds all the configuration variables for the dashboard service.
type Config struct {
	ServerPort          string `mapstructure:"SERVER_PORT"`
	LogLevel            string `mapstructure:"LOG_LEVEL"`
	PayPalClientID      string `mapstructure:"PAYPAL_CLIENT_ID"`
	PayPalClientSecret  string `mapstructure:"PAYPAL_CLIENT_SECRET"`
	PayPalAPIBaseURL    string `mapstructure:"PAYPAL_API_BASE_URL"`
	PayPalTimeoutSecs   int    `mapstructure:"PAYPAL_HTTP_TIMEOUT_SECONDS"`
	DashboardUser       string `mapstructure:"DASHBOARD_USER"`
	DashboardPass       string `mapstructure:"DASHBOARD_PASS"`
	PayoutCurrency      string `mapstructure:"PAYOUT_CURRENCY"`
	PayoutEmailSubject  string `mapstructure:"PAYOUT_EMAIL_SUBJECT"`
	RedisURL            string `mapstructure:"REDIS_URL"`
	TokenCachePrefix    string `mapstructure:"TOKEN_CACHE_PREFIX"`
	RabbitMQURL         string `mapstructure:"RABBITMQ_URL"`
	PayoutEventExchange string `mapstructure:"PAYOUT_EVENT_EXCHANGE"`
	CORSAllowedOrigins  string `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

// PayPalTimeout returns the outbound timeout applied to every PayPal call.
func (c Config) PayPalTimeout() time.Duration {
	if c.PayPalTimeoutSecs <= 0 {
		return DefaultPayPalTimeout
	}
	return time.Duration(c.PayPalTimeoutSecs) * time.Second
}

// RequestTimeout bounds a whole dashboard request. It covers the token call and the
// business call at their full PayPal timeout plus a margin, so the PayPal timeout
// always fires first and the handler writes its own 500.
func (c Config) RequestTimeout() time.Duration {
	return 2*c.PayPalTimeout() + requestTimeoutMargin
}

// DashboardCredentialsSet reports whether both gate credentials are configured.
func (c Config) DashboardCredentialsSet() bool {
	return c.DashboardUser != "" && c.DashboardPass != ""
}

// PayPalCredentialsSet reports whether both service credentials are configured.
func (c Config) PayPalCredentialsSet() bool {
	return c.PayPalClientID != "" && c.PayPalClientSecret != ""
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas. Empty means no cross-origin
// access.
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSAllowedOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// LoadConfig reads configuration from environment variables, falling back to an
// optional .env file in the given path.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("SERVER_PORT", DefaultServerPort)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("PAYPAL_API_BASE_URL", DefaultPayPalAPIBaseURL)
	viper.SetDefault("PAYPAL_HTTP_TIMEOUT_SECONDS", int(DefaultPayPalTimeout/time.Second))
	viper.SetDefault("PAYOUT_CURRENCY", DefaultPayoutCurrency)
	viper.SetDefault("PAYOUT_EMAIL_SUBJECT", DefaultPayoutEmailSubject)
	viper.SetDefault("TOKEN_CACHE_PREFIX", DefaultTokenCachePrefix)
	viper.SetDefault("PAYOUT_EVENT_EXCHANGE", DefaultPayoutExchange)

	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("LOG_LEVEL")
	_ = viper.BindEnv("PAYPAL_CLIENT_ID")
	_ = viper.BindEnv("PAYPAL_CLIENT_SECRET")
	_ = viper.BindEnv("PAYPAL_API_BASE_URL")
	_ = viper.BindEnv("PAYPAL_HTTP_TIMEOUT_SECONDS")
	_ = viper.BindEnv("DASHBOARD_USER")
	_ = viper.BindEnv("DASHBOARD_PASS")
	_ = viper.BindEnv("PAYOUT_CURRENCY")
	_ = viper.BindEnv("PAYOUT_EMAIL_SUBJECT")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("TOKEN_CACHE_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("PAYOUT_EVENT_EXCHANGE")
	_ = viper.BindEnv("CORS_ALLOWED_ORIGINS")

	// A missing .env file is fine; anything else is reported to the caller.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}

	config.ServerPort = strings.TrimSpace(config.ServerPort)
	if config.ServerPort == "" {
		config.ServerPort = DefaultServerPort
	}
	config.PayPalClientID = strings.TrimSpace(config.PayPalClientID)
	config.PayPalClientSecret = strings.TrimSpace(config.PayPalClientSecret)
	config.PayPalAPIBaseURL = strings.TrimSuffix(strings.TrimSpace(config.PayPalAPIBaseURL), "/")
	if config.PayPalAPIBaseURL == "" {
		config.PayPalAPIBaseURL = DefaultPayPalAPIBaseURL
	}
	if config.PayPalTimeoutSecs <= 0 {
		config.PayPalTimeoutSecs = int(DefaultPayPalTimeout / time.Second)
	}
	config.PayoutCurrency = strings.ToUpper(strings.TrimSpace(config.PayoutCurrency))
	if config.PayoutCurrency == "" {
		config.PayoutCurrency = DefaultPayoutCurrency
	}
	if strings.TrimSpace(config.PayoutEmailSubject) == "" {
		config.PayoutEmailSubject = DefaultPayoutEmailSubject
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.TokenCachePrefix = strings.TrimSuffix(strings.TrimSpace(config.TokenCachePrefix), ":")
	if config.TokenCachePrefix == "" {
		config.TokenCachePrefix = DefaultTokenCachePrefix
	}
	config.RabbitMQURL = strings.TrimSpace(config.RabbitMQURL)
	config.PayoutEventExchange = strings.TrimSpace(config.PayoutEventExchange)
	if config.PayoutEventExchange == "" {
		config.PayoutEventExchange = DefaultPayoutExchange
	}

	return
}
