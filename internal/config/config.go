// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// DatabaseURL is the Postgres DSN for policy config, audit and record storage.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// AntiPassbackWindowSeconds is the system default anti-passback window used
	// when an area config does not set one (default 300).
	AntiPassbackWindowSeconds int `mapstructure:"ANTI_PASSBACK_WINDOW_SECONDS"`
	// InterlockTimeoutSeconds is the default interlock lock TTL (default 60).
	InterlockTimeoutSeconds int `mapstructure:"INTERLOCK_TIMEOUT_SECONDS"`
	// MultiPersonTimeoutSeconds is the default multi-person session expiry (default 60).
	MultiPersonTimeoutSeconds int `mapstructure:"MULTI_PERSON_TIMEOUT_SECONDS"`

	// AreaConfigCacheTTL is how long resolved area configs stay cached (e.g. "1h").
	AreaConfigCacheTTL string `mapstructure:"AREA_CONFIG_CACHE_TTL"`
	// EligibilityCacheTTL is how long user eligibility lookups stay cached (e.g. "30m", max 1h).
	EligibilityCacheTTL string `mapstructure:"ELIGIBILITY_CACHE_TTL"`
	// PassbackRecordCacheTTL is how long the latest anti-passback record stays cached (e.g. "10m").
	PassbackRecordCacheTTL string `mapstructure:"PASSBACK_RECORD_CACHE_TTL"`
	// RemoteCallTimeout bounds every cache/DB/directory call made on the decision path (e.g. "2s").
	RemoteCallTimeout string `mapstructure:"REMOTE_CALL_TIMEOUT"`

	// KafkaBrokers is a comma-separated list of Kafka broker addresses. When set,
	// accessd consumes access attempts from AccessEventsTopic.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// AccessEventsTopic is the Kafka topic carrying inbound access attempts.
	AccessEventsTopic string `mapstructure:"ACCESS_EVENTS_TOPIC"`
	// DecisionEventsTopic is the Kafka topic decisions are mirrored to; empty disables mirroring.
	DecisionEventsTopic string `mapstructure:"DECISION_EVENTS_TOPIC"`
	// KafkaGroupID is the consumer group ID for the attempt consumer.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty disables telemetry export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("ANTI_PASSBACK_WINDOW_SECONDS", 300)
	v.SetDefault("INTERLOCK_TIMEOUT_SECONDS", 60)
	v.SetDefault("MULTI_PERSON_TIMEOUT_SECONDS", 60)
	v.SetDefault("AREA_CONFIG_CACHE_TTL", "1h")
	v.SetDefault("ELIGIBILITY_CACHE_TTL", "30m")
	v.SetDefault("PASSBACK_RECORD_CACHE_TTL", "10m")
	v.SetDefault("REMOTE_CALL_TIMEOUT", "2s")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("ACCESS_EVENTS_TOPIC", "door-access-attempts")
	v.SetDefault("DECISION_EVENTS_TOPIC", "")
	v.SetDefault("KAFKA_GROUP_ID", "door-access-verifier")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.AntiPassbackWindowSeconds <= 0 {
		return nil, errors.New("config: ANTI_PASSBACK_WINDOW_SECONDS must be positive")
	}
	if cfg.InterlockTimeoutSeconds <= 0 {
		return nil, errors.New("config: INTERLOCK_TIMEOUT_SECONDS must be positive")
	}
	if cfg.MultiPersonTimeoutSeconds <= 0 {
		return nil, errors.New("config: MULTI_PERSON_TIMEOUT_SECONDS must be positive")
	}

	return &cfg, nil
}

// AreaConfigTTL parses AreaConfigCacheTTL. Returns 1h if unset or invalid.
func (c *Config) AreaConfigTTL() time.Duration {
	return parseDuration(c.AreaConfigCacheTTL, time.Hour)
}

// EligibilityTTL parses EligibilityCacheTTL, capped at 1h. Returns 30m if unset or invalid.
func (c *Config) EligibilityTTL() time.Duration {
	d := parseDuration(c.EligibilityCacheTTL, 30*time.Minute)
	if d > time.Hour {
		return time.Hour
	}
	return d
}

// PassbackRecordTTL parses PassbackRecordCacheTTL. Returns 10m if unset or invalid.
func (c *Config) PassbackRecordTTL() time.Duration {
	return parseDuration(c.PassbackRecordCacheTTL, 10*time.Minute)
}

// CallTimeout parses RemoteCallTimeout. Returns 2s if unset or invalid.
func (c *Config) CallTimeout() time.Duration {
	return parseDuration(c.RemoteCallTimeout, 2*time.Second)
}

// KafkaBrokersList returns broker addresses from the comma-separated config.
// Used to decide if Kafka ingest is enabled (non-empty list) and to create the reader.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
