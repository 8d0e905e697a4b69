package config

import (
	"errors"

	"github.com/spf13/viper"
)

// Config holds every runtime setting the API server needs. Values come
// from environment variables, optionally seeded from an app.env file.
type Config struct {
	ServerPort   string `mapstructure:"SERVER_PORT"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	RedisAddr    string `mapstructure:"REDIS_ADDR"`
	JWTSecret    string `mapstructure:"JWT_SECRET"`
	ClientOrigin string `mapstructure:"CLIENT_ORIGIN"`

	GoogleMapsAPIKey string `mapstructure:"GOOGLE_MAPS_API_KEY"`
	OptimizerURL     string `mapstructure:"OPTIMIZER_URL"`
	OptimizerAPIKey  string `mapstructure:"OPTIMIZER_API_KEY"`

	// Depot used as the fixed start location for date-wide optimization.
	DepotLatitude  float64 `mapstructure:"DEPOT_LATITUDE"`
	DepotLongitude float64 `mapstructure:"DEPOT_LONGITUDE"`
	DepotAddress   string  `mapstructure:"DEPOT_ADDRESS"`

	AWSRegion string `mapstructure:"AWS_REGION"`
	EmailFrom string `mapstructure:"EMAIL_FROM"`

	GoogleOAuthClientID     string `mapstructure:"GOOGLE_OAUTH_CLIENT_ID"`
	GoogleOAuthClientSecret string `mapstructure:"GOOGLE_OAUTH_CLIENT_SECRET"`
	GoogleOAuthRedirectURL  string `mapstructure:"GOOGLE_OAUTH_REDIRECT_URL"`
}

// LoadConfig reads configuration from app.env in the given path (if
// present) and from the environment, environment taking precedence.
func LoadConfig(path string) (cfg Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("DEPOT_LATITUDE", 28.6139)
	viper.SetDefault("DEPOT_LONGITUDE", 77.2090)
	viper.SetDefault("DEPOT_ADDRESS", "Central Depot")

	if err = viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		// No app.env: environment variables alone are fine.
		err = nil
	}

	if err = viper.Unmarshal(&cfg); err != nil {
		return
	}

	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}
