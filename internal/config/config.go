package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds service configuration.
type Config struct {
	DatabaseURL   string
	StoreDriver   string
	MigrationsDir string
	ServerAddr    string
	LogLevel      string

	JWTSecret string
	JWTTTL    time.Duration

	HeartbeatInterval time.Duration
	RosterLogInterval time.Duration

	AdvisoryURL          string
	AdvisoryTimeout      time.Duration
	NegotiationTTL       time.Duration
	ExpirySweepInterval  time.Duration
	ConvergenceThreshold float64
	AIAgentUsername      string
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "event_market")
		pass := getenv("POSTGRES_PASSWORD", "event_market_pass")
		db := getenv("POSTGRES_DB", "event_market")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}

	cfg := &Config{
		DatabaseURL:          dsn,
		StoreDriver:          getenv("STORE_DRIVER", DriverPostgres),
		MigrationsDir:        getenv("MIGRATIONS_DIR", "internal/migrations"),
		ServerAddr:           getenv("SERVER_ADDR", "0.0.0.0:8080"),
		LogLevel:             getenv("LOG_LEVEL", "info"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		JWTTTL:               parseDuration(getenv("JWT_TTL", "24h"), 24*time.Hour),
		HeartbeatInterval:    parseDuration(getenv("HEARTBEAT_INTERVAL", "30s"), 30*time.Second),
		RosterLogInterval:    parseDuration(getenv("ROSTER_LOG_INTERVAL", "5m"), 5*time.Minute),
		AdvisoryURL:          os.Getenv("ADVISORY_URL"),
		AdvisoryTimeout:      parseDuration(getenv("ADVISORY_TIMEOUT", "3s"), 3*time.Second),
		NegotiationTTL:       parseDuration(getenv("NEGOTIATION_TTL", "168h"), 168*time.Hour),
		ExpirySweepInterval:  parseDuration(getenv("EXPIRY_SWEEP_INTERVAL", "1m"), time.Minute),
		ConvergenceThreshold: parseFloat(getenv("CONVERGENCE_THRESHOLD", "5000"), 5000),
		AIAgentUsername:      getenv("AI_AGENT_USERNAME", "ai-negotiator"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 bytes")
	}
	return nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

func parseFloat(val string, def float64) float64 {
	if val == "" {
		return def
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}
