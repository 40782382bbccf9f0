package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration. Values come from the
// environment so main stays lean; dev defaults apply when unset.
type Server struct {
	Addr string

	// DatabaseURL selects the durable store. Empty means in-memory stores,
	// which is the dev/test mode.
	DatabaseURL string

	Redis RedisConfig

	// JWTSigningKey signs admin session tokens.
	JWTSigningKey string
	// AdminPasswordHash is the bcrypt hash the /admin/login endpoint checks.
	AdminPasswordHash string
	// AdminSessionTTL bounds how long an operator token stays valid.
	AdminSessionTTL time.Duration

	// CredentialCodeLength is the length of issued voter codes. Minimum 8;
	// 10 from a 36-symbol alphabet gives a >2^51 space.
	CredentialCodeLength int

	// TallyCacheTTL bounds staleness of cached provisional tallies.
	TallyCacheTTL time.Duration
}

// RedisConfig holds connection settings for the optional tally cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:                 getenv("QUORUM_ADDR", ":8080"),
		DatabaseURL:          os.Getenv("QUORUM_DATABASE_URL"),
		JWTSigningKey:        getenv("QUORUM_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		AdminPasswordHash:    os.Getenv("QUORUM_ADMIN_PASSWORD_HASH"),
		AdminSessionTTL:      getduration("QUORUM_ADMIN_SESSION_TTL", 8*time.Hour),
		CredentialCodeLength: getint("QUORUM_CREDENTIAL_CODE_LENGTH", 10),
		TallyCacheTTL:        getduration("QUORUM_TALLY_CACHE_TTL", 30*time.Second),
		Redis: RedisConfig{
			URL:          os.Getenv("QUORUM_REDIS_URL"),
			PoolSize:     getint("QUORUM_REDIS_POOL_SIZE", 10),
			MinIdleConns: getint("QUORUM_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getduration("QUORUM_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getduration("QUORUM_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getduration("QUORUM_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}
	if cfg.CredentialCodeLength < 8 {
		cfg.CredentialCodeLength = 8
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
