package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration so main stays lean. Provider
// credentials are injected here and passed into the adapters; the research
// core never sees them.
type Config struct {
	Addr       string
	RunTimeout time.Duration

	Redis RedisConfig
	Kafka KafkaConfig

	Providers ProviderConfig

	// Scoring policy overrides; zero values keep the documented defaults.
	MergeThreshold      float64
	SufficientThreshold float64
	EscalationFloor     float64

	EvidenceTTL time.Duration
	ResultTTL   time.Duration
}

// RedisConfig configures the shared cache. An empty URL selects the
// in-memory cache instead.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the escalation publisher. Empty brokers select the
// in-process channel sink instead.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// ProviderConfig carries the per-source endpoints and credentials.
type ProviderConfig struct {
	RegistryBaseURL    string
	FlightTrackBaseURL string
	FlightTrackAPIKey  string
	WebSearchBaseURL   string
	WebSearchAPIKey    string
	FastTimeout        time.Duration
	SlowTimeout        time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:       envOr("TAILTRACE_ADDR", ":8080"),
		RunTimeout: envDuration("TAILTRACE_RUN_TIMEOUT", 60*time.Second),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			Topic:   envOr("KAFKA_ESCALATION_TOPIC", "research.escalations"),
		},
		Providers: ProviderConfig{
			RegistryBaseURL:    envOr("FAA_REGISTRY_BASE_URL", "https://registry.faa.gov/api"),
			FlightTrackBaseURL: envOr("FLIGHTTRACK_BASE_URL", "https://aeroapi.flightaware.com/aeroapi"),
			FlightTrackAPIKey:  os.Getenv("FLIGHTTRACK_API_KEY"),
			WebSearchBaseURL:   envOr("WEBSEARCH_BASE_URL", "https://api.tavily.com"),
			WebSearchAPIKey:    os.Getenv("WEBSEARCH_API_KEY"),
			FastTimeout:        envDuration("PROVIDER_FAST_TIMEOUT", 5*time.Second),
			SlowTimeout:        envDuration("PROVIDER_SLOW_TIMEOUT", 20*time.Second),
		},
		MergeThreshold:      envFloat("RESEARCH_MERGE_THRESHOLD", 0),
		SufficientThreshold: envFloat("RESEARCH_SUFFICIENT_THRESHOLD", 0),
		EscalationFloor:     envFloat("RESEARCH_ESCALATION_FLOOR", 0),
		EvidenceTTL:         envDuration("RESEARCH_EVIDENCE_TTL", 6*time.Hour),
		ResultTTL:           envDuration("RESEARCH_RESULT_TTL", 24*time.Hour),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitNonEmpty(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
