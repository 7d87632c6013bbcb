package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Payment provider settings.
	StripeKey           string `mapstructure:"STRIPE_KEY"`
	WebhookSecret       string `mapstructure:"WEBHOOK_SECRET"`
	InternalTokenSecret string `mapstructure:"INTERNAL_TOKEN_SECRET"`
	AdminTokenSecret    string `mapstructure:"ADMIN_TOKEN_SECRET"`

	// Payment request policy defaults.
	DefaultDepositPercent int    `mapstructure:"DEFAULT_DEPOSIT_PERCENT"`
	PaymentDueDays        int    `mapstructure:"PAYMENT_DUE_DAYS"`
	DefaultCurrency       string `mapstructure:"DEFAULT_CURRENCY"`

	// Duplicate guard schedule, in minutes. 0 disables the background scan.
	GuardScanIntervalMin int `mapstructure:"GUARD_SCAN_INTERVAL_MIN"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "clinicbook")
	viper.SetDefault("STRIPE_KEY", "")
	viper.SetDefault("WEBHOOK_SECRET", "")
	viper.SetDefault("INTERNAL_TOKEN_SECRET", "")
	viper.SetDefault("ADMIN_TOKEN_SECRET", "")
	viper.SetDefault("DEFAULT_DEPOSIT_PERCENT", 20)
	viper.SetDefault("PAYMENT_DUE_DAYS", 3)
	viper.SetDefault("DEFAULT_CURRENCY", "EUR")
	viper.SetDefault("GUARD_SCAN_INTERVAL_MIN", 60)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
