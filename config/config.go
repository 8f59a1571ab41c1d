package config

import (
	"strings"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/spf13/viper"
)

type Config struct {
	GeneralVersion         string `mapstructure:"GENERAL_VERSION"`
	Environment            string `mapstructure:"ENVIRONMENT"`
	ServerPort             int    `mapstructure:"SERVER_PORT"`
	DatabaseHost           string `mapstructure:"DB_HOST"`
	DatabasePort           int    `mapstructure:"DB_PORT"`
	DatabaseName           string `mapstructure:"DB_NAME"`
	DatabaseUser           string `mapstructure:"DB_USER"`
	DatabasePassword       string `mapstructure:"DB_PASSWORD"`
	DatabaseCacheAddress   string `mapstructure:"DB_CACHE_ADDRESS"`
	DatabaseCachePort      int    `mapstructure:"DB_CACHE_PORT"`
	DatabaseCacheReset     int    `mapstructure:"DB_CACHE_RESET"`
	CorsAllowOrigins       string `mapstructure:"CORS_ALLOW_ORIGINS"`
	AuthJWTSecret          string `mapstructure:"AUTH_JWT_SECRET"`
	AuthJWTIssuer          string `mapstructure:"AUTH_JWT_ISSUER"`
	EncryptionKey          string `mapstructure:"ENCRYPTION_KEY"`
	SendGridAPIKey         string `mapstructure:"SENDGRID_API_KEY"`
	EmailFromAddress       string `mapstructure:"EMAIL_FROM_ADDRESS"`
	EmailFromName          string `mapstructure:"EMAIL_FROM_NAME"`
	AppBaseURL             string `mapstructure:"APP_BASE_URL"`
	CurrencyAPIURL         string `mapstructure:"CURRENCY_API_URL"`
	SchedulerEnabled       bool   `mapstructure:"SCHEDULER_ENABLED"`
	CalendarSyncTimeoutSec int    `mapstructure:"CALENDAR_SYNC_TIMEOUT_SEC"`
	CalendarSyncRatePerSec int    `mapstructure:"CALENDAR_SYNC_RATE_PER_SEC"`
	GuestTokenTTLHours     int    `mapstructure:"GUEST_TOKEN_TTL_HOURS"`
}

const (
	DefaultCalendarSyncTimeoutSec = 15
	DefaultCalendarSyncRatePerSec = 2
	DefaultGuestTokenTTLHours     = 72
	DefaultCurrencyAPIURL         = "https://open.er-api.com/v6/latest"
)

var envVars = []string{
	"GENERAL_VERSION", "ENVIRONMENT", "SERVER_PORT",
	"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
	"DB_CACHE_ADDRESS", "DB_CACHE_PORT", "DB_CACHE_RESET",
	"CORS_ALLOW_ORIGINS",
	"AUTH_JWT_SECRET", "AUTH_JWT_ISSUER", "ENCRYPTION_KEY",
	"SENDGRID_API_KEY", "EMAIL_FROM_ADDRESS", "EMAIL_FROM_NAME", "APP_BASE_URL",
	"CURRENCY_API_URL", "SCHEDULER_ENABLED",
	"CALENDAR_SYNC_TIMEOUT_SEC", "CALENDAR_SYNC_RATE_PER_SEC", "GUEST_TOKEN_TTL_HOURS",
}

var ConfigInstance Config

func New() (Config, error) {
	log := logger.New("config").Function("New")
	log.Info("Initializing config")

	viper.AutomaticEnv()

	for _, env := range envVars {
		if err := viper.BindEnv(env); err != nil {
			log.Warn("Failed to bind environment variable", "env", env, "error", err)
		}
	}

	viper.SetDefault("DB_CACHE_RESET", -1)
	viper.SetDefault("CURRENCY_API_URL", DefaultCurrencyAPIURL)
	viper.SetDefault("CALENDAR_SYNC_TIMEOUT_SEC", DefaultCalendarSyncTimeoutSec)
	viper.SetDefault("CALENDAR_SYNC_RATE_PER_SEC", DefaultCalendarSyncRatePerSec)
	viper.SetDefault("GUEST_TOKEN_TTL_HOURS", DefaultGuestTokenTTLHours)
	viper.SetDefault("EMAIL_FROM_NAME", "Hostly")

	if viper.IsSet("SERVER_PORT") && viper.IsSet("DB_HOST") {
		log.Info("Environment variables detected, skipping file loading")
	} else {
		log.Info("Environment variables not found, attempting to load from files")

		viper.SetConfigFile(".env")
		viper.SetConfigType("env")
		if err := viper.ReadInConfig(); err != nil {
			log.Warn("Could not find .env file", "error", err)
		} else {
			log.Info("Loaded .env file")
		}

		viper.SetConfigFile(".env.local")
		if err := viper.MergeInConfig(); err != nil {
			log.Debug("No .env.local file found", "error", err)
		} else {
			log.Info("Loaded .env.local overrides")
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, log.Err("Fatal error: could not unmarshal config", err)
	}

	if err := Validate(config); err != nil {
		return Config{}, err
	}

	ConfigInstance = config
	log.Info(
		"Successfully initialized config",
		"environment", config.Environment,
		"port", config.ServerPort,
		"schedulerEnabled", config.SchedulerEnabled,
	)
	return config, nil
}

func GetConfig() Config {
	return ConfigInstance
}

func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

func Validate(config Config) error {
	log := logger.New("config").Function("Validate")

	if config.ServerPort <= 0 {
		return log.Error("Fatal error: invalid server port", "port", config.ServerPort)
	}

	if config.AuthJWTSecret == "" {
		return log.ErrMsg("Fatal error: AUTH_JWT_SECRET is required")
	}

	if config.EncryptionKey == "" && !config.IsDevelopment() {
		return log.ErrMsg("Fatal error: ENCRYPTION_KEY is required outside development")
	}

	if config.CalendarSyncTimeoutSec < 0 || config.CalendarSyncRatePerSec < 0 {
		return log.Error(
			"Fatal error: calendar sync settings must not be negative",
			"timeout", config.CalendarSyncTimeoutSec,
			"rate", config.CalendarSyncRatePerSec,
		)
	}

	return nil
}
