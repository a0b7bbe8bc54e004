package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "CINEMA"

type Config struct {
	Port int
	Env  string

	DB struct {
		DSN          string
		MaxOpenConns int
		MaxIdleTime  time.Duration
		LockTimeout  time.Duration
	}

	Redis struct {
		URL             string
		MaxOpenConns    int
		MaxIdleConns    int
		MaxIdleTime     time.Duration
		AvailabilityTTL time.Duration
	}

	AMQP struct {
		URL   string
		Queue string
	}

	JWTSecret        string
	OtelCollectorUrl string
	Timezone         string

	ScheduleGenerationInterval time.Duration

	Payment struct {
		SuccessRate float64
		MinDelay    time.Duration
		MaxDelay    time.Duration
	}
}

// RegisterFlags declares every configuration key on fs with its default.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Int("port", 3000, "server port")
	fs.String("env", "dev", "Environment (dev|staging|prod)")

	fs.String("db-dsn", "", "PostgreSQL DSN; empty runs on the in-memory store")
	fs.Int("db-max-open-conns", 25, "PostgreSQL max open connections")
	fs.Duration("db-max-idle-time", 15*time.Minute, "PostgreSQL max idle time for connections")
	fs.Duration("db-lock-timeout", 5*time.Second, "Maximum wait for a row lock")

	fs.String("redis-url", "", "Redis address; empty disables the availability cache")
	fs.Int("redis-max-open-conns", 25, "Redis max open connections")
	fs.Int("redis-max-idle-conns", 10, "Redis max idle connections")
	fs.Duration("redis-max-idle-time", 2*time.Minute, "Redis max idle time for connections")
	fs.Duration("availability-ttl", 5*time.Second, "Lifetime of cached seat availability")

	fs.String("amqp-url", "", "RabbitMQ URL; empty disables event publishing")
	fs.String("amqp-queue", "reservation.events", "Queue reservation events are published to")

	fs.String("jwt-secret", "", "HMAC secret for access tokens")
	fs.String("otel-collector-url", "", "OpenTelemetry collector gRPC endpoint")
	fs.String("timezone", "UTC", "Time zone schedule times are interpreted in")
	fs.Duration("schedule-generation-interval", time.Hour, "Interval of the showing generation job; 0 disables it")

	fs.Float64("payment-success-rate", 0.9, "Approval probability of the simulated authorizer")
	fs.Duration("payment-min-delay", time.Second, "Minimum simulated authorization latency")
	fs.Duration("payment-max-delay", 3*time.Second, "Maximum simulated authorization latency")
}

// Load resolves the configuration from flags and CINEMA_* environment
// variables. Explicitly set flags win over the environment.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("failed to bind flags: %w", err)
	}

	var cfg Config

	cfg.Port = v.GetInt("port")
	cfg.Env = v.GetString("env")

	cfg.DB.DSN = v.GetString("db-dsn")
	cfg.DB.MaxOpenConns = v.GetInt("db-max-open-conns")
	cfg.DB.MaxIdleTime = v.GetDuration("db-max-idle-time")
	cfg.DB.LockTimeout = v.GetDuration("db-lock-timeout")

	cfg.Redis.URL = v.GetString("redis-url")
	cfg.Redis.MaxOpenConns = v.GetInt("redis-max-open-conns")
	cfg.Redis.MaxIdleConns = v.GetInt("redis-max-idle-conns")
	cfg.Redis.MaxIdleTime = v.GetDuration("redis-max-idle-time")
	cfg.Redis.AvailabilityTTL = v.GetDuration("availability-ttl")

	cfg.AMQP.URL = v.GetString("amqp-url")
	cfg.AMQP.Queue = v.GetString("amqp-queue")

	cfg.JWTSecret = v.GetString("jwt-secret")
	cfg.OtelCollectorUrl = v.GetString("otel-collector-url")
	cfg.Timezone = v.GetString("timezone")
	cfg.ScheduleGenerationInterval = v.GetDuration("schedule-generation-interval")

	cfg.Payment.SuccessRate = v.GetFloat64("payment-success-rate")
	cfg.Payment.MinDelay = v.GetDuration("payment-min-delay")
	cfg.Payment.MaxDelay = v.GetDuration("payment-max-delay")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var problems []string

	if c.Port < 1 || c.Port > 65535 {
		problems = append(problems, "port must be between 1 and 65535")
	}
	if c.DB.LockTimeout <= 0 {
		problems = append(problems, "db-lock-timeout must be positive")
	}
	if c.Payment.SuccessRate < 0 || c.Payment.SuccessRate > 1 {
		problems = append(problems, "payment-success-rate must be between 0 and 1")
	}
	if c.Payment.MaxDelay < c.Payment.MinDelay {
		problems = append(problems, "payment-max-delay must not be below payment-min-delay")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("unknown timezone %q", c.Timezone))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	return nil
}

func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}

	return loc
}
