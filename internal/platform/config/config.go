package config

import (
	"os"
	"time"
)

// Config captures process-level configuration.
type Config struct {
	Addr          string
	JWTSigningKey string

	// PostgresURL selects the durable will store when set; empty means the
	// in-memory registry (tests, local development).
	PostgresURL string

	Redis RedisConfig

	// EventBuffer > 0 switches the audit publisher to async mode with that
	// channel capacity.
	EventBuffer int

	RequestTimeout time.Duration
}

// RedisConfig configures the shared Redis client used by the ledger and the
// audit stream sink. Empty URL means Redis is not configured.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("TESTAMENT_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Config{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		PostgresURL:   os.Getenv("TESTAMENT_POSTGRES_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("TESTAMENT_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		EventBuffer:    256,
		RequestTimeout: 30 * time.Second,
	}
}
