package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	LogFile   string `env:"LOG_FILE"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Tracking TrackingConfig
	Notify   NotifyConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=trip_monitor"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// TrackingConfig holds the location and monitoring tunables.
type TrackingConfig struct {
	LocationMinInterval time.Duration `env:"LOCATION_MIN_INTERVAL, default=5s"`
	PollInterval        time.Duration `env:"GPS_POLL_INTERVAL,     default=60s"`
	AcquireTimeout      time.Duration `env:"GPS_ACQUIRE_TIMEOUT,   default=10s"`
	FailureThreshold    int           `env:"GPS_FAILURE_THRESHOLD, default=3"`
	IncidentCooldown    time.Duration `env:"INCIDENT_COOLDOWN,     default=2h"`
	SignalLossThreshold time.Duration `env:"SIGNAL_LOSS_THRESHOLD, default=90s"`
	SignalLossGrace     time.Duration `env:"SIGNAL_LOSS_GRACE,     default=60s"`
	FixMaxAge           time.Duration `env:"FIX_MAX_AGE,           default=2m"`
	LegacyLocationTTL   time.Duration `env:"LEGACY_LOCATION_TTL,   default=30m"`
	ReconcileSchedule   string        `env:"RECONCILE_SCHEDULE,    default=@every 1m"`
	TripEventWorkers    int           `env:"TRIP_EVENT_WORKERS,    default=8"`
	TripCacheTTL        time.Duration `env:"TRIP_CACHE_TTL,        default=10m"`
}

// NotifyConfig holds the notification queue and operator e-mail settings.
// Operator e-mails are disabled when SESFrom is empty.
type NotifyConfig struct {
	SESRegion      string   `env:"SES_REGION, default=us-east-1"`
	SESFrom        string   `env:"SES_FROM"`
	OperatorEmails []string `env:"OPERATOR_EMAILS"`
	Consumers      int      `env:"NOTIFY_CONSUMERS, default=2"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from the given lookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	return &cfg, nil
}
