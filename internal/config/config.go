package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrAPIKeyMissing is returned when CONGRESS_API_KEY is not set.
var ErrAPIKeyMissing = errors.New("API key not configured")

// Common contains upstream API parameters shared by every service.
type Common struct {
	CongressAPIKey     string
	CongressAPIBaseURL string
	Congress           int
	// UpstreamTimeout bounds each outbound call. Zero means no timeout.
	UpstreamTimeout time.Duration
	// EnrichConcurrency caps candidates enriched at once. Zero means unlimited.
	EnrichConcurrency int
}

// RequireAPIKey reports ErrAPIKeyMissing when no credential was configured.
func (c Common) RequireAPIKey() error {
	if strings.TrimSpace(c.CongressAPIKey) == "" {
		return ErrAPIKeyMissing
	}
	return nil
}

// API describes HTTP-layer configuration.
type API struct {
	Common
	BindAddr             string
	CacheMaxAge          time.Duration
	StaleWhileRevalidate time.Duration
}

// Watcher holds configuration for the digest -> Kafka watcher.
type Watcher struct {
	Common
	KafkaBrokers     []string
	Topic            string
	Interval         time.Duration
	DedupeCapacity   int
	DedupeTTL        time.Duration
	AnnounceExisting bool
}

// LoadAPI builds an API config from environment variables.
// A missing API key is not an error here; the handler answers 500 for it.
func LoadAPI() (*API, error) {
	common, err := loadCommon()
	if err != nil {
		return nil, err
	}

	c := &API{
		Common:               common,
		BindAddr:             getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		CacheMaxAge:          getDuration("API_CACHE_MAX_AGE", "1h"),
		StaleWhileRevalidate: getDuration("API_CACHE_STALE", "24h"),
	}

	if c.CacheMaxAge < 0 {
		return nil, fmt.Errorf("API_CACHE_MAX_AGE cannot be negative")
	}
	if c.StaleWhileRevalidate < 0 {
		return nil, fmt.Errorf("API_CACHE_STALE cannot be negative")
	}

	return c, nil
}

// LoadWatcher builds a Watcher config from environment variables.
func LoadWatcher() (*Watcher, error) {
	common, err := loadCommon()
	if err != nil {
		return nil, err
	}
	if err := common.RequireAPIKey(); err != nil {
		return nil, fmt.Errorf("CONGRESS_API_KEY: %w", err)
	}

	c := &Watcher{
		Common:           common,
		KafkaBrokers:     splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		Topic:            getEnv("AMENDMENTS_TOPIC", "amendments"),
		Interval:         getDuration("WATCHER_INTERVAL", "1h"),
		DedupeCapacity:   getInt("WATCHER_DEDUPE_CAPACITY", 5000),
		DedupeTTL:        getDuration("WATCHER_DEDUPE_TTL", "720h"),
		AnnounceExisting: getBool("WATCHER_ANNOUNCE_EXISTING", false),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.Interval <= 0 {
		return nil, fmt.Errorf("WATCHER_INTERVAL must be positive")
	}
	if c.DedupeCapacity <= 0 {
		return nil, fmt.Errorf("WATCHER_DEDUPE_CAPACITY must be positive")
	}
	// Marks are refreshed once per interval and must outlive the gap.
	if c.DedupeTTL <= c.Interval {
		return nil, fmt.Errorf("WATCHER_DEDUPE_TTL must exceed WATCHER_INTERVAL")
	}

	return c, nil
}

func loadCommon() (Common, error) {
	c := Common{
		CongressAPIKey:     strings.TrimSpace(os.Getenv("CONGRESS_API_KEY")),
		CongressAPIBaseURL: strings.TrimRight(getEnv("CONGRESS_API_BASE_URL", "https://api.congress.gov/v3"), "/"),
		Congress:           getInt("CONGRESS_NUMBER", 119),
		UpstreamTimeout:    getDuration("CONGRESS_API_TIMEOUT", "0s"),
		EnrichConcurrency:  getInt("ENRICH_CONCURRENCY", 0),
	}

	if c.Congress <= 0 {
		return Common{}, fmt.Errorf("CONGRESS_NUMBER must be positive")
	}
	if c.UpstreamTimeout < 0 {
		return Common{}, fmt.Errorf("CONGRESS_API_TIMEOUT cannot be negative")
	}
	if c.EnrichConcurrency < 0 {
		return Common{}, fmt.Errorf("ENRICH_CONCURRENCY cannot be negative")
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
