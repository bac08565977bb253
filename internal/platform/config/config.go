package config

import (
	"os"
	"strings"
	"time"
)

// Config captures everything the server reads from the environment so main
// stays lean.
type Config struct {
	Addr string

	// Snapshot persistence. When RedisURL is set the snapshot lives under a
	// single redis key; otherwise it falls back to a local JSON file.
	RedisURL     string
	SnapshotFile string

	JWTSigningKey string
	TokenTTL      time.Duration

	// Static service-manager credential pair. The portal deliberately has no
	// credential store for this role.
	ServiceUsername string
	ServicePassword string

	// Text-generation collaborator for drafting request details.
	DraftingAPIKey  string
	DraftingModel   string
	DraftingBaseURL string

	// Audit event publishing. Empty brokers disable kafka and audit events
	// stay on the in-process worker only.
	KafkaBrokers []string
	AuditTopic   string
}

// FromEnv builds a Config from environment variables, applying development
// defaults where unset.
func FromEnv() Config {
	cfg := Config{
		Addr:            getenv("ONESTOP_ADDR", ":8080"),
		RedisURL:        os.Getenv("ONESTOP_REDIS_URL"),
		SnapshotFile:    getenv("ONESTOP_SNAPSHOT_FILE", "onestop-state.json"),
		JWTSigningKey:   getenv("ONESTOP_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TokenTTL:        12 * time.Hour,
		ServiceUsername: getenv("ONESTOP_SERVICE_USERNAME", "Adminuse"),
		ServicePassword: getenv("ONESTOP_SERVICE_PASSWORD", "Adminuse"),
		DraftingAPIKey:  os.Getenv("ONESTOP_DRAFTING_API_KEY"),
		DraftingModel:   getenv("ONESTOP_DRAFTING_MODEL", "gemini-3-flash-preview"),
		DraftingBaseURL: getenv("ONESTOP_DRAFTING_BASE_URL", "https://generativelanguage.googleapis.com"),
		AuditTopic:      getenv("ONESTOP_AUDIT_TOPIC", "onestop.audit"),
	}

	if brokers := os.Getenv("ONESTOP_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	if ttl := os.Getenv("ONESTOP_TOKEN_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.TokenTTL = d
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
