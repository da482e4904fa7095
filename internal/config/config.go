// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, rate limiting, the AI provider credentials, the realtime
// WebSocket tunables and observability settings.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings. The same
// allow-list gates WebSocket upgrades.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// AIConfig holds the OpenAI-compatible provider settings. An empty Token
// means no provider is configured and every reply comes from the local
// fallback generator.
type AIConfig struct {
	Token        string        // GITHUB_TOKEN
	Endpoint     string        // AI_ENDPOINT
	Timeout      time.Duration // AI_TIMEOUT, per provider call
	ChatModel    string        // AI_CHAT_MODEL, selector used when a request names none
	CodeModel    string        // AI_CODE_MODEL
	Temperature  float64       // AI_TEMPERATURE
	TopP         float64       // AI_TOP_P
	MaxTokens    int           // AI_MAX_TOKENS
	FallbackSeed int64         // FALLBACK_SEED, 0 seeds from the clock
}

// RealtimeConfig tunes the WebSocket endpoint and the delayed assistant
// replies.
type RealtimeConfig struct {
	Path            string        // WS_PATH
	ReplyDelay      time.Duration // WS_REPLY_DELAY, fixed part of the reply delay
	ReplyJitter     time.Duration // WS_REPLY_JITTER, random part in [0, jitter)
	ReplyTimeout    time.Duration // WS_REPLY_TIMEOUT, budget for generating one reply
	SendBuffer      int           // WS_SEND_BUFFER, queued frames per connection
	WriteTimeout    time.Duration // WS_WRITE_TIMEOUT
	PongTimeout     time.Duration // WS_PONG_TIMEOUT
	MaxMessageBytes int64         // WS_MAX_MESSAGE_BYTES
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Store
	SeedDemoData bool // SEED_DEMO_DATA

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	AI       AIConfig
	Realtime RealtimeConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
//
// Behavior:
//   - Unset or unparsable variables fall back to their defaults.
//   - An unknown GIN_MODE becomes "release"; an invalid LOG_LEVEL is an error.
//   - The first failed check is returned together with the partial Config.
func Load() (Config, error) {
	cfg := Config{
		Port:              getenv("PORT", "5000"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		SeedDemoData: getbool("SEED_DEMO_DATA", true),

		RateRPS:   getfloat("RATE_RPS", 10.0),
		RateBurst: getint("RATE_BURST", 20),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		AI: AIConfig{
			Token:        strings.TrimSpace(getenv("GITHUB_TOKEN", "")),
			Endpoint:     strings.TrimRight(getenv("AI_ENDPOINT", "https://models.github.ai/inference"), "/"),
			Timeout:      getdur("AI_TIMEOUT", 30*time.Second),
			ChatModel:    getenv("AI_CHAT_MODEL", "gpt-4"),
			CodeModel:    getenv("AI_CODE_MODEL", "mistral"),
			Temperature:  getfloat("AI_TEMPERATURE", 0.7),
			TopP:         getfloat("AI_TOP_P", 0.9),
			MaxTokens:    getint("AI_MAX_TOKENS", 2000),
			FallbackSeed: getint64("FALLBACK_SEED", 0),
		},

		Realtime: RealtimeConfig{
			Path:            normalizeBasePath(getenv("WS_PATH", "/ws")),
			ReplyDelay:      getdur("WS_REPLY_DELAY", time.Second),
			ReplyJitter:     getdur("WS_REPLY_JITTER", 2*time.Second),
			ReplyTimeout:    getdur("WS_REPLY_TIMEOUT", 45*time.Second),
			SendBuffer:      getint("WS_SEND_BUFFER", 64),
			WriteTimeout:    getdur("WS_WRITE_TIMEOUT", 10*time.Second),
			PongTimeout:     getdur("WS_PONG_TIMEOUT", 60*time.Second),
			MaxMessageBytes: getint64("WS_MAX_MESSAGE_BYTES", 64<<10),
		},

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "wolfoman-studio"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.AI.Endpoint == "" {
		return cfg, errors.New("AI_ENDPOINT must not be empty")
	}
	if cfg.AI.Timeout <= 0 {
		return cfg, errors.New("AI_TIMEOUT must be > 0")
	}
	if cfg.AI.Temperature < 0 || cfg.AI.Temperature > 2 {
		return cfg, errors.New("AI_TEMPERATURE must be in [0,2]")
	}
	if cfg.AI.TopP < 0 || cfg.AI.TopP > 1 {
		return cfg, errors.New("AI_TOP_P must be in [0,1]")
	}
	if cfg.AI.MaxTokens <= 0 {
		return cfg, errors.New("AI_MAX_TOKENS must be > 0")
	}
	if cfg.Realtime.ReplyDelay < 0 || cfg.Realtime.ReplyJitter < 0 {
		return cfg, errors.New("WS_REPLY_DELAY and WS_REPLY_JITTER must be >= 0")
	}
	if cfg.Realtime.ReplyTimeout <= 0 || cfg.Realtime.WriteTimeout <= 0 || cfg.Realtime.PongTimeout <= 0 {
		return cfg, errors.New("WS timeouts must be positive durations")
	}
	if cfg.Realtime.SendBuffer < 1 {
		return cfg, errors.New("WS_SEND_BUFFER must be >= 1")
	}
	if cfg.Realtime.MaxMessageBytes <= 0 {
		return cfg, errors.New("WS_MAX_MESSAGE_BYTES must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----
//
// Each getX reads one variable and returns def when it is unset or invalid.

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
