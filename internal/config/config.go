package config

import (
	"os"
	"strings"
	"time"

	"github.com/onnwee/repulse/internal/errorreporting"
	"github.com/onnwee/repulse/internal/force"
	"github.com/onnwee/repulse/internal/tracing"
	"github.com/onnwee/repulse/internal/utils"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	// Force engine. The grid index is floor(sqrt(n)/GridQuotient).
	Dimensions           int `validate:"oneof=2 3"`
	GridQuotient         int `validate:"gte=0"`
	MultithreadThreshold int `validate:"gte=0"`
	Workers              int `validate:"gte=0"`
	MaxNodes             int `validate:"gte=0"`
	MaxGridCells         int `validate:"gte=0"`

	// Perturbation seed, 0 = time based.
	Seed uint64

	// HTTP server
	HTTPAddr           string        `validate:"required"`
	RequestTimeout     time.Duration `validate:"gte=0"`
	CORSAllowedOrigins []string

	// Security settings, rates are requests per second
	EnableRateLimit      bool
	RateLimitGlobal      float64 `validate:"gte=0"`
	RateLimitGlobalBurst int     `validate:"gte=0"`
	RateLimitPerIP       float64 `validate:"gte=0"`
	RateLimitPerIPBurst  int     `validate:"gte=0"`

	// Response cache
	CacheMaxSizeMB  int64         `validate:"gt=0"`
	CacheMaxEntries int64         `validate:"gt=0"`
	CacheTTL        time.Duration `validate:"gte=0"`

	// Position source for the CLI
	DatabaseURL string

	// Observability settings
	LogLevel          string  `validate:"oneof=debug info warn warning error"`
	OTELSampleRate    float64 `validate:"gte=0,lte=1"`
	SentrySampleRate  float64 `validate:"gte=0,lte=1"`
	OTELEnabled       bool
	OTELEndpoint      string
	SentryDSN         string
	SentryEnvironment string
	SentryRelease     string
}

var cached *Config

// Load reads env vars once and caches them.
func Load() *Config {
	if cached != nil {
		return cached
	}
	cached = &Config{
		Dimensions:           utils.GetEnvAsInt("FORCE_DIMENSIONS", 2),
		GridQuotient:         utils.GetEnvAsInt("FORCE_GRID_QUOTIENT", force.DefaultGridQuotient),
		MultithreadThreshold: utils.GetEnvAsInt("FORCE_MULTITHREAD_THRESHOLD", force.DefaultMultithreadThreshold),
		Workers:              utils.GetEnvAsInt("FORCE_WORKERS", 0),
		Seed:                 utils.GetEnvAsUint64("FORCE_SEED", 0),
		MaxNodes:             utils.GetEnvAsInt("FORCE_MAX_NODES", 50000),
		MaxGridCells:         utils.GetEnvAsInt("FORCE_MAX_GRID_CELLS", 1<<20),
		HTTPAddr:             utils.GetEnvString("HTTP_ADDR", ":8000"),
		RequestTimeout:       time.Duration(utils.GetEnvAsInt("HTTP_REQUEST_TIMEOUT_MS", 30000)) * time.Millisecond,
		CORSAllowedOrigins:   utils.GetEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}, ","),
		EnableRateLimit:      utils.GetEnvAsBool("ENABLE_RATE_LIMIT", true),
		RateLimitGlobal:      utils.GetEnvAsFloat("RATE_LIMIT_GLOBAL", 50.0),
		RateLimitGlobalBurst: utils.GetEnvAsInt("RATE_LIMIT_GLOBAL_BURST", 100),
		RateLimitPerIP:       utils.GetEnvAsFloat("RATE_LIMIT_PER_IP", 10.0),
		RateLimitPerIPBurst:  utils.GetEnvAsInt("RATE_LIMIT_PER_IP_BURST", 20),
		CacheMaxSizeMB:       int64(utils.GetEnvAsInt("CACHE_MAX_SIZE_MB", 64)),
		CacheMaxEntries:      int64(utils.GetEnvAsInt("CACHE_MAX_ENTRIES", 1024)),
		CacheTTL:             time.Duration(utils.GetEnvAsInt("CACHE_TTL_SECONDS", 30)) * time.Second,
		DatabaseURL:          strings.TrimSpace(os.Getenv("DATABASE_URL")),
		LogLevel:             strings.ToLower(utils.GetEnvString("LOG_LEVEL", "info")),
		OTELEnabled:          utils.GetEnvAsBool("OTEL_ENABLED", false),
		OTELEndpoint:         utils.GetEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		OTELSampleRate:       utils.GetEnvAsFloat("OTEL_TRACE_SAMPLE_RATE", 0.1),
		SentryDSN:            strings.TrimSpace(os.Getenv("SENTRY_DSN")),
		SentryEnvironment:    strings.TrimSpace(os.Getenv("SENTRY_ENVIRONMENT")),
		SentryRelease:        strings.TrimSpace(os.Getenv("SENTRY_RELEASE")),
		SentrySampleRate:     utils.GetEnvAsFloat("SENTRY_SAMPLE_RATE", 1.0),
	}
	if cached.SentryEnvironment == "" {
		cached.SentryEnvironment = utils.GetEnvString("ENV", "development")
	}
	return cached
}

// ResetForTest clears cached config; for use in tests only.
func ResetForTest() { cached = nil }

// EngineOptions returns the force engine options described by c.
func (c *Config) EngineOptions() force.Options {
	return force.Options{
		Dimensions:           c.Dimensions,
		MultithreadThreshold: c.MultithreadThreshold,
		Workers:              c.Workers,
		Seed:                 c.Seed,
	}
}

// TracingSettings returns the OTLP exporter settings.
func (c *Config) TracingSettings() tracing.Settings {
	return tracing.Settings{
		Enabled:    c.OTELEnabled,
		Endpoint:   c.OTELEndpoint,
		SampleRate: c.OTELSampleRate,
		Version:    c.SentryRelease,
	}
}

// SentrySettings returns the error reporting settings.
func (c *Config) SentrySettings() errorreporting.Settings {
	return errorreporting.Settings{
		DSN:         c.SentryDSN,
		Environment: c.SentryEnvironment,
		Release:     c.SentryRelease,
		SampleRate:  c.SentrySampleRate,
	}
}
