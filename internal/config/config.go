/**
 * @description
 * This package handles the configuration management for the service. It uses
 * the Viper library to read configuration from environment variables (and an
 * optional .env file), providing a centralized way to manage settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the transfer-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort                 string `mapstructure:"SERVER_PORT"`
	DatabaseURL                string `mapstructure:"DATABASE_URL"`
	RabbitMQURL                string `mapstructure:"RABBITMQ_URL"`
	RedisURL                   string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix       string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	TransferEventExchange      string `mapstructure:"TRANSFER_EVENT_EXCHANGE"`
	TransferEventQueue         string `mapstructure:"TRANSFER_EVENT_QUEUE"`
	TransferRoutingKey         string `mapstructure:"TRANSFER_ROUTING_KEY"`
	AuthTokenSecret            string `mapstructure:"AUTH_TOKEN_SECRET"`
	DefaultCurrency            string `mapstructure:"DEFAULT_CURRENCY"`
	SagaStepTimeoutSeconds     int    `mapstructure:"SAGA_STEP_TIMEOUT_SECONDS"`
	SagaMaxStepRetries         int    `mapstructure:"SAGA_MAX_STEP_RETRIES"`
	SagaRetryBackoffMillis     int    `mapstructure:"SAGA_RETRY_BACKOFF_MS"`
	TransferRateLimitPerMinute int    `mapstructure:"TRANSFER_RATE_LIMIT_PER_MINUTE"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "corebank:rate_limit")
	viper.SetDefault("TRANSFER_EVENT_EXCHANGE", "corebank.events")
	viper.SetDefault("TRANSFER_EVENT_QUEUE", "transfer_service.transfer_requests")
	viper.SetDefault("TRANSFER_ROUTING_KEY", "transfer.requested")
	viper.SetDefault("DEFAULT_CURRENCY", "JPY")
	viper.SetDefault("SAGA_STEP_TIMEOUT_SECONDS", 15)
	viper.SetDefault("SAGA_MAX_STEP_RETRIES", 3)
	viper.SetDefault("SAGA_RETRY_BACKOFF_MS", 50)
	viper.SetDefault("TRANSFER_RATE_LIMIT_PER_MINUTE", 0) // 0 disables limiting

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("TRANSFER_EVENT_EXCHANGE")
	_ = viper.BindEnv("TRANSFER_EVENT_QUEUE")
	_ = viper.BindEnv("TRANSFER_ROUTING_KEY")
	_ = viper.BindEnv("AUTH_TOKEN_SECRET")
	_ = viper.BindEnv("DEFAULT_CURRENCY")
	_ = viper.BindEnv("SAGA_STEP_TIMEOUT_SECONDS")
	_ = viper.BindEnv("SAGA_MAX_STEP_RETRIES")
	_ = viper.BindEnv("SAGA_RETRY_BACKOFF_MS")
	_ = viper.BindEnv("TRANSFER_RATE_LIMIT_PER_MINUTE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.DefaultCurrency = strings.ToUpper(strings.TrimSpace(config.DefaultCurrency))
	if config.DefaultCurrency == "" {
		config.DefaultCurrency = "JPY"
	}
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "corebank:rate_limit"
	}

	if config.SagaStepTimeoutSeconds <= 0 {
		config.SagaStepTimeoutSeconds = 15
	}
	if config.SagaMaxStepRetries <= 0 {
		config.SagaMaxStepRetries = 3
	}
	if config.SagaRetryBackoffMillis <= 0 {
		config.SagaRetryBackoffMillis = 50
	}
	if config.TransferRateLimitPerMinute < 0 {
		log.Printf("level=warn component=config msg=\"negative transfer rate limit configured; disabling\" limit=%d", config.TransferRateLimitPerMinute)
		config.TransferRateLimitPerMinute = 0
	}

	return
}
