package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/database"
	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/tracing"
	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/validator"
)

// Storage drivers for the cart snapshot slot.
const (
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds all configuration for the cart service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	// HTTP server
	HTTPPort        int           `env:"CART_HTTP_PORT" envDefault:"8003" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `env:"CART_SHUTDOWN_TIMEOUT" envDefault:"15s" validate:"gt=0"`

	// Snapshot storage
	StorageDriver string `env:"CART_STORAGE_DRIVER" envDefault:"redis" validate:"oneof=redis postgres memory"`
	StorageKey    string `env:"CART_STORAGE_KEY" envDefault:"deskly:cart" validate:"required"`

	// Redis
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379" validate:"hostname_port"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0" validate:"gte=0"`

	// PostgreSQL
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432" validate:"min=1,max=65535"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"deskly"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"deskly_secret"`
	PostgresSSLMode  string `env:"POSTGRES_SSL_MODE" envDefault:"disable" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	DBName           string `env:"CART_DB_NAME" envDefault:"deskly_cart"`

	// Kafka
	KafkaBrokers  []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	EventsEnabled bool     `env:"CART_EVENTS_ENABLED" envDefault:"true"`

	// Catalog API
	CatalogBaseURL string        `env:"CATALOG_BASE_URL" envDefault:"http://localhost:8001/api/v1" validate:"required,http_url"`
	CatalogTimeout time.Duration `env:"CATALOG_TIMEOUT" envDefault:"10s" validate:"gt=0"`

	// Auth. An empty secret disables bearer-token verification.
	JWTSecret string `env:"JWT_SECRET"`

	DefaultDurationMonths int `env:"DEFAULT_DURATION_MONTHS" envDefault:"12" validate:"min=1"`

	// OpenTelemetry
	OTelEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTelSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0" validate:"gte=0,lte=1"`

	// Browser origins allowed to call the API; "*" allows any.
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Profiling and abuse protection
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.0/8,::1/128" envSeparator:"," validate:"dive,cidr"`
	RateLimitRPS      float64  `env:"RATE_LIMIT_RPS" envDefault:"20" validate:"gte=0"`
	RateLimitBurst    int      `env:"RATE_LIMIT_BURST" envDefault:"40" validate:"gte=0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("load cart config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid cart config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if err := validator.Validate(c); err != nil {
		return err
	}
	if c.EventsEnabled && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required when CART_EVENTS_ENABLED is set")
	}
	return nil
}

// AuthEnabled reports whether cart routes require a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// Postgres returns pool settings for the snapshot database.
func (c *Config) Postgres() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.PostgresHost
	pg.Port = c.PostgresPort
	pg.User = c.PostgresUser
	pg.Password = c.PostgresPassword
	pg.DBName = c.DBName
	pg.SSLMode = c.PostgresSSLMode
	return pg
}

// Redis returns client settings for the snapshot slot.
func (c *Config) Redis() database.RedisConfig {
	rc := database.DefaultRedisConfig()
	rc.Addr = c.RedisAddr
	rc.Password = c.RedisPassword
	rc.DB = c.RedisDB
	return rc
}

// Tracing returns exporter settings for serviceName.
func (c *Config) Tracing(serviceName string) tracing.Config {
	tc := tracing.DefaultConfig(serviceName)
	tc.Environment = c.Environment
	tc.Enabled = c.OTelEnabled
	tc.OTLPEndpoint = c.OTelEndpoint
	tc.SampleRate = c.OTelSampleRate
	return tc
}
