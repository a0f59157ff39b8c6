package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config defines the full application configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"CARBURAPP_HTTP_PORT"`
	} `yaml:"http"`
	Postgres struct {
		DSN string `yaml:"dsn" env:"POSTGRES_DSN"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
	} `yaml:"redis"`
	JWT struct {
		Secret       string `yaml:"secret" env:"CARBURAPP_JWT_SECRET"`
		ExpiresHours int    `yaml:"expiresHours" env:"CARBURAPP_JWT_EXPIRES_HOURS"`
	} `yaml:"jwt"`
	Places struct {
		APIKey         string `yaml:"apiKey" env:"PLACES_API_KEY"`
		BaseURL        string `yaml:"baseUrl" env:"PLACES_BASE_URL"`
		Language       string `yaml:"language" env:"PLACES_LANGUAGE"`
		RadiusMeters   int    `yaml:"radiusMeters" env:"PLACES_RADIUS_METERS"`
		TimeoutSeconds int    `yaml:"timeoutSeconds" env:"PLACES_HTTP_TIMEOUT"`
		CacheTTLMin    int    `yaml:"cacheTtlMinutes" env:"PLACES_CACHE_TTL_MINUTES"`
	} `yaml:"places"`
	SMTP struct {
		Host      string `yaml:"host" env:"SMTP_HOST"`
		Port      int    `yaml:"port" env:"SMTP_PORT"`
		Username  string `yaml:"username" env:"SMTP_USERNAME"`
		Password  string `yaml:"password" env:"SMTP_PASSWORD"`
		FromName  string `yaml:"fromName" env:"SMTP_FROM_NAME"`
		FromEmail string `yaml:"fromEmail" env:"SMTP_FROM_EMAIL"`
	} `yaml:"smtp"`
	RateLimit struct {
		PerMinute int `yaml:"perMinute" env:"CARBURAPP_RATE_PER_MINUTE"`
		Burst     int `yaml:"burst" env:"CARBURAPP_RATE_BURST"`
	} `yaml:"rateLimit"`
}

// Load hydrates configuration from the optional YAML file plus env overrides.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8080"
	cfg.Places.BaseURL = "https://maps.googleapis.com/maps/api/place"
	cfg.Places.Language = "it"
	cfg.Places.RadiusMeters = 5000
	cfg.Places.TimeoutSeconds = 5
	cfg.Places.CacheTTLMin = 30
	cfg.JWT.ExpiresHours = 24
	cfg.RateLimit.PerMinute = 30
	cfg.RateLimit.Burst = 10

	if err := hydrate(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, errors.New("config: jwt secret required")
	}
	if strings.TrimSpace(cfg.Postgres.DSN) == "" {
		return nil, errors.New("config: postgres dsn required")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// JWTExpiry returns token lifetime.
func (c *Config) JWTExpiry() time.Duration {
	if c.JWT.ExpiresHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.JWT.ExpiresHours) * time.Hour
}

// PlacesTimeout returns the HTTP timeout for the places client.
func (c *Config) PlacesTimeout() time.Duration {
	if c.Places.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Places.TimeoutSeconds) * time.Second
}

// PlacesCacheTTL returns how long cached search results remain valid.
func (c *Config) PlacesCacheTTL() time.Duration {
	if c.Places.CacheTTLMin <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Places.CacheTTLMin) * time.Minute
}
