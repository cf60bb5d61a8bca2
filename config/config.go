package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings. Every field has a working default so the
// server can start with nothing but the upstream API keys configured.
type Config struct {
	// Server
	Port string

	// Store. Empty RedisAddr selects the in-memory store.
	RedisAddr string
	RedisPass string
	RedisDB   int

	// Discovery
	DiscoveryProvider string // "serper" or "google"
	SerperAPIKey      string
	SerperBaseURL     string
	SerperResultCount int
	GoogleCSEKey      string
	GoogleCSECX       string
	ReviewFeeds       []string // supplemental review-site RSS feeds

	// Extraction
	ScrapeWorkers int
	ScrapeTimeout time.Duration

	// Synthesis
	CohereAPIKey string
	CohereModel  string

	// Pipeline
	RunTimeout time.Duration

	// Optional S3 archival of scraped pages. Disabled when bucket is empty.
	S3Bucket       string
	S3Region       string
	S3Prefix       string
	S3UsePathStyle bool

	// Optional Kafka analysis-request worker. Disabled when brokers is empty.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// Optional re-analysis sweep. Disabled when cron spec is empty.
	RefreshCron   string
	RefreshMaxAge time.Duration
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPass:         os.Getenv("REDIS_PASS"),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		DiscoveryProvider: getEnv("DISCOVERY_PROVIDER", "serper"),
		SerperAPIKey:      os.Getenv("SERPER_API_KEY"),
		SerperBaseURL:     getEnv("SERPER_BASE_URL", "https://google.serper.dev/search"),
		SerperResultCount: getEnvInt("SERPER_RESULTS_COUNT", 10),
		GoogleCSEKey:      os.Getenv("GOOGLE_CSE_KEY"),
		GoogleCSECX:       os.Getenv("GOOGLE_CSE_CX"),
		ScrapeWorkers:     getEnvInt("SCRAPE_WORKERS", 4),
		ScrapeTimeout:     getEnvDuration("SCRAPE_TIMEOUT", 30*time.Second),
		CohereAPIKey:      os.Getenv("COHERE_API_KEY"),
		CohereModel:       getEnv("COHERE_MODEL", "command-r-plus-08-2024"),
		RunTimeout:        getEnvDuration("RUN_TIMEOUT", 10*time.Minute),
		S3Bucket:          strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3Region:          strings.TrimSpace(os.Getenv("S3_REGION")),
		S3UsePathStyle:    strings.EqualFold(os.Getenv("S3_USE_PATH_STYLE"), "true"),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "analysis-requests"),
		KafkaGroupID:      getEnv("KAFKA_GROUP_ID", "reviewlens-pipeline"),
		RefreshCron:       os.Getenv("REFRESH_CRON"),
		RefreshMaxAge:     getEnvDuration("REFRESH_MAX_AGE", 30*24*time.Hour),
	}

	if prefix := strings.Trim(os.Getenv("S3_PREFIX"), "/"); prefix != "" {
		cfg.S3Prefix = prefix + "/"
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitList(brokers)
	}
	if feeds := os.Getenv("REVIEW_FEEDS"); feeds != "" {
		cfg.ReviewFeeds = splitList(feeds)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
