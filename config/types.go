package config

// ServerConfig contains the HTTP/websocket listener configuration.
type ServerConfig struct {
	Port          int      `yaml:"port" validate:"gt=0"`
	ClientOrigins []string `yaml:"clientOrigins" validate:"dive,required"`
}

// DatabaseConfig contains the Postgres connection settings.
type DatabaseConfig struct {
	DSN             string `yaml:"dsn" validate:"required"`
	ConnectAttempts int    `yaml:"connectAttempts" validate:"gte=0"`
	RetryDelayMS    int    `yaml:"retryDelayMS" validate:"gte=0"`
}

// AuthConfig contains bearer-token settings.
type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
	TokenTTL  string `yaml:"tokenTTL" validate:"omitempty"`
}

// TrackingConfig tunes the tracking engine.
type TrackingConfig struct {
	BroadcastWindowMS int `yaml:"broadcastWindowMS" validate:"gte=0"`
	RetentionDays     int `yaml:"retentionDays" validate:"gte=0"`
}

// RateLimitConfig contains the per-IP request budgets.
type RateLimitConfig struct {
	WindowMS     int `yaml:"windowMS" validate:"gte=0"`
	Max          int `yaml:"max" validate:"gte=0"`
	AuthMax      int `yaml:"authMax" validate:"gte=0"`
	IngestPerMin int `yaml:"ingestPerMinute" validate:"gte=0"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Env       string          `yaml:"env"`
	Server    ServerConfig    `yaml:"server" validate:"required"`
	Database  DatabaseConfig  `yaml:"database" validate:"required"`
	Auth      AuthConfig      `yaml:"auth"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
}

// IsProduction reports whether the app runs with production hardening.
func (c AppConfig) IsProduction() bool { return c.Env == "production" }
