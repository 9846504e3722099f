package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultJWTSecret = "change-this-in-production"

// Load reads the application configuration from the given yaml file (falling
// back to ./config.yml), applies environment overrides and defaults, and
// validates the result.
func Load(path string) (AppConfig, error) {
	_ = godotenv.Load()

	paths := []string{path, "config.yml"}
	var data []byte
	var err error
	for _, p := range paths {
		if p == "" {
			continue
		}
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		return AppConfig{}, err
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, err
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return AppConfig{}, err
	}
	if cfg.IsProduction() && cfg.Auth.JWTSecret == defaultJWTSecret {
		return AppConfig{}, errors.New("auth.jwtSecret must be configured in production")
	}
	if _, err := time.ParseDuration(cfg.Auth.TokenTTL); err != nil {
		return AppConfig{}, errors.New("auth.tokenTTL must be a valid duration, e.g. 168h")
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("CLIENT_ORIGIN"); v != "" {
		origins := strings.Split(v, ",")
		cfg.Server.ClientOrigins = cfg.Server.ClientOrigins[:0]
		for _, o := range origins {
			if o = strings.TrimSpace(o); o != "" {
				cfg.Server.ClientOrigins = append(cfg.Server.ClientOrigins, o)
			}
		}
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if len(cfg.Server.ClientOrigins) == 0 {
		cfg.Server.ClientOrigins = []string{"http://localhost:5173"}
	}
	if cfg.Database.ConnectAttempts == 0 {
		cfg.Database.ConnectAttempts = 10
	}
	if cfg.Database.RetryDelayMS == 0 {
		cfg.Database.RetryDelayMS = 2000
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = defaultJWTSecret
	}
	if cfg.Auth.TokenTTL == "" {
		cfg.Auth.TokenTTL = "168h"
	}
	if cfg.Tracking.BroadcastWindowMS == 0 {
		cfg.Tracking.BroadcastWindowMS = 250
	}
	if cfg.Tracking.RetentionDays == 0 {
		cfg.Tracking.RetentionDays = 30
	}
	if cfg.RateLimit.WindowMS == 0 {
		cfg.RateLimit.WindowMS = 15 * 60 * 1000
	}
	if cfg.RateLimit.Max == 0 {
		cfg.RateLimit.Max = 300
	}
	if cfg.RateLimit.AuthMax == 0 {
		cfg.RateLimit.AuthMax = 30
	}
	if cfg.RateLimit.IngestPerMin == 0 {
		cfg.RateLimit.IngestPerMin = 240
	}
}

// BroadcastWindow returns the coalescing window as a duration.
func (c AppConfig) BroadcastWindow() time.Duration {
	return time.Duration(c.Tracking.BroadcastWindowMS) * time.Millisecond
}

// RetentionAge returns the history retention window as a duration.
func (c AppConfig) RetentionAge() time.Duration {
	return time.Duration(c.Tracking.RetentionDays) * 24 * time.Hour
}

// TokenTTL returns the parsed bearer-token lifetime.
func (c AppConfig) TokenTTL() time.Duration {
	d, err := time.ParseDuration(c.Auth.TokenTTL)
	if err != nil {
		return 168 * time.Hour
	}
	return d
}
