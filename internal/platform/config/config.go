// Package config builds runtime configuration from the environment so main
// stays lean. Backends degrade gracefully: unset DATABASE_URL, REDIS_URL, or
// KAFKA_BROKERS select the in-memory implementations.
package config

import (
	"os"
	"strings"
	"time"

	id "agritrace/pkg/domain"
)

// Server captures the full runtime configuration.
type Server struct {
	Addr     string
	LogLevel string

	// DatabaseURL selects the PostgreSQL product store when set.
	DatabaseURL string

	// RedisURL selects the Redis farmer store when set.
	RedisURL string

	// KafkaBrokers selects the Kafka notifier when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	JWTSigningKey string

	// AdminPrincipal is the only caller allowed to verify farmers.
	AdminPrincipal id.Principal

	// RequireVerifiedFarmers gates product registration on the farmer
	// registry when true.
	RequireVerifiedFarmers bool

	ShutdownTimeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("AGRITRACE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	logLevel := os.Getenv("AGRITRACE_LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "agritrace.ledger.events"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development fallback; override in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	admin := os.Getenv("AGRITRACE_ADMIN_PRINCIPAL")
	if admin == "" {
		admin = "registry-admin"
	}

	return Server{
		Addr:                   addr,
		LogLevel:               logLevel,
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RedisURL:               os.Getenv("REDIS_URL"),
		KafkaBrokers:           splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:             topic,
		JWTSigningKey:          jwtSigningKey,
		AdminPrincipal:         id.Principal(admin),
		RequireVerifiedFarmers: os.Getenv("AGRITRACE_REQUIRE_VERIFIED_FARMERS") == "true",
		ShutdownTimeout:        10 * time.Second,
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
