package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

func TestMustLoad_Success_NoPanic(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("MustLoad should not panic on valid defaults, got: %v", r)
		}
	}()
	cfg := MustLoad()
	if cfg.APIBasePath == "" {
		t.Fatalf("unexpected empty config from MustLoad")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "5000" || cfg.APIBasePath != "/api" || !cfg.SeedDemoData {
		t.Fatalf("server defaults unexpected: port=%q base=%q seed=%v", cfg.Port, cfg.APIBasePath, cfg.SeedDemoData)
	}
	if cfg.AI.Token != "" || cfg.AI.Endpoint != "https://models.github.ai/inference" {
		t.Fatalf("ai defaults unexpected: %+v", cfg.AI)
	}
	if cfg.AI.ChatModel != "gpt-4" || cfg.AI.CodeModel != "mistral" {
		t.Fatalf("model selector defaults unexpected: %+v", cfg.AI)
	}
	if cfg.AI.Temperature != 0.7 || cfg.AI.TopP != 0.9 || cfg.AI.MaxTokens != 2000 {
		t.Fatalf("sampling defaults unexpected: %+v", cfg.AI)
	}
	rt := cfg.Realtime
	if rt.Path != "/ws" || rt.ReplyDelay != time.Second || rt.ReplyJitter != 2*time.Second {
		t.Fatalf("realtime defaults unexpected: %+v", rt)
	}
	if rt.SendBuffer != 64 || rt.MaxMessageBytes != 64<<10 {
		t.Fatalf("realtime buffer defaults unexpected: %+v", rt)
	}
	if cfg.OTEL.ServiceName != "wolfoman-studio" {
		t.Fatalf("otel service default unexpected: %q", cfg.OTEL.ServiceName)
	}
}

func TestLoad_Success_Overrides(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // normalizes to "release"

	t.Setenv("LOG_LEVEL", "warning") // normalizes to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("SWAGGER_ENABLED", "on")
	t.Setenv("API_BASE_PATH", "studio/api/")

	t.Setenv("SEED_DEMO_DATA", "off")

	t.Setenv("RATE_RPS", "x")      // default 10
	t.Setenv("RATE_BURST", "nope") // default 20

	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")
	t.Setenv("IDEMPOTENCY_TTL", "48h")

	t.Setenv("GITHUB_TOKEN", "  ghp_secret ")
	t.Setenv("AI_ENDPOINT", "http://localhost:9999/v1/")
	t.Setenv("AI_TIMEOUT", "5s")
	t.Setenv("AI_CHAT_MODEL", "mistral")
	t.Setenv("AI_CODE_MODEL", "gpt-4")
	t.Setenv("AI_MAX_TOKENS", "512")
	t.Setenv("FALLBACK_SEED", "42")

	t.Setenv("WS_PATH", "realtime")
	t.Setenv("WS_REPLY_DELAY", "10ms")
	t.Setenv("WS_REPLY_JITTER", "0s")
	t.Setenv("WS_SEND_BUFFER", "8")
	t.Setenv("WS_MAX_MESSAGE_BYTES", "1024")

	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}
	if cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.SwaggerEnabled || cfg.APIBasePath != "/studio/api" {
		t.Fatalf("logging/docs unexpected: %+v", cfg)
	}
	if cfg.SeedDemoData {
		t.Fatalf("SEED_DEMO_DATA=off should disable seeding")
	}
	if cfg.RateRPS != 10.0 || cfg.RateBurst != 20 {
		t.Fatalf("rate limiting unexpected: rps=%v burst=%d", cfg.RateRPS, cfg.RateBurst)
	}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security unexpected: %+v", cfg.Security)
	}
	if cfg.IdempotencyTTL != 48*time.Hour {
		t.Fatalf("idempotency ttl unexpected: %v", cfg.IdempotencyTTL)
	}

	ai := cfg.AI
	if ai.Token != "ghp_secret" || ai.Endpoint != "http://localhost:9999/v1" || ai.Timeout != 5*time.Second {
		t.Fatalf("ai unexpected: %+v", ai)
	}
	if ai.ChatModel != "mistral" || ai.CodeModel != "gpt-4" || ai.MaxTokens != 512 || ai.FallbackSeed != 42 {
		t.Fatalf("ai models unexpected: %+v", ai)
	}

	rt := cfg.Realtime
	if rt.Path != "/realtime" || rt.ReplyDelay != 10*time.Millisecond || rt.ReplyJitter != 0 {
		t.Fatalf("realtime unexpected: %+v", rt)
	}
	if rt.SendBuffer != 8 || rt.MaxMessageBytes != 1024 {
		t.Fatalf("realtime buffers unexpected: %+v", rt)
	}

	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name, key, val, want string
	}{
		{"invalid LOG_LEVEL", "LOG_LEVEL", "verbose", "LOG_LEVEL"},
		{"empty PORT", "PORT", "   ", "PORT must not be empty"},
		{"non-positive timeouts", "READ_TIMEOUT", "0s", "timeouts must be positive"},
		{"max header bytes", "MAX_HEADER_BYTES", "0", "MAX_HEADER_BYTES"},
		{"rate rps negative", "RATE_RPS", "-1", "RATE_RPS"},
		{"rate burst", "RATE_BURST", "0", "RATE_BURST"},
		{"hsts max age negative", "HSTS_MAX_AGE", "-1s", "HSTS_MAX_AGE"},
		{"idempotency ttl", "IDEMPOTENCY_TTL", "0s", "IDEMPOTENCY_TTL"},
		{"ai timeout", "AI_TIMEOUT", "-2s", "AI_TIMEOUT"},
		{"ai temperature", "AI_TEMPERATURE", "3", "AI_TEMPERATURE"},
		{"ai top p", "AI_TOP_P", "1.5", "AI_TOP_P"},
		{"ai max tokens", "AI_MAX_TOKENS", "0", "AI_MAX_TOKENS"},
		{"reply delay negative", "WS_REPLY_DELAY", "-1s", "WS_REPLY_DELAY"},
		{"ws pong timeout", "WS_PONG_TIMEOUT", "0s", "WS timeouts"},
		{"ws send buffer", "WS_SEND_BUFFER", "0", "WS_SEND_BUFFER"},
		{"ws max message", "WS_MAX_MESSAGE_BYTES", "0", "WS_MAX_MESSAGE_BYTES"},
		{"otel sample ratio", "OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); err == nil || !containsErr(err, tc.want) {
				t.Fatalf("expected %q validation error, got: %v", tc.want, err)
			}
		})
	}
}

func TestHelpers_getenv(t *testing.T) {
	t.Setenv("X_EMPTY", "")
	if getenv("X_EMPTY", "d") != "d" {
		t.Fatalf("getenv should fall back to default on empty var")
	}
	t.Setenv("X_SET", "val")
	if getenv("X_SET", "d") != "val" {
		t.Fatalf("getenv should read set value")
	}
}

func TestHelpers_numbersAndDurations(t *testing.T) {
	t.Setenv("F_VALID", "3.14")
	if getfloat("F_VALID", 0) != 3.14 {
		t.Fatalf("getfloat parse failed")
	}
	t.Setenv("F_BAD", "nope")
	if getfloat("F_BAD", 1.23) != 1.23 {
		t.Fatalf("getfloat default on bad parse failed")
	}

	t.Setenv("I_VALID", "42")
	if getint("I_VALID", 0) != 42 {
		t.Fatalf("getint parse failed")
	}
	t.Setenv("I_BAD", "x")
	if getint("I_BAD", 7) != 7 {
		t.Fatalf("getint default on bad parse failed")
	}

	t.Setenv("I64_VALID", " 9000000000 ")
	if getint64("I64_VALID", 0) != 9000000000 {
		t.Fatalf("getint64 parse failed")
	}
	t.Setenv("I64_BAD", "1e3")
	if getint64("I64_BAD", 5) != 5 {
		t.Fatalf("getint64 default on bad parse failed")
	}

	t.Setenv("D_VALID", "150ms")
	if getdur("D_VALID", time.Second) != 150*time.Millisecond {
		t.Fatalf("getdur parse failed")
	}
	t.Setenv("D_BAD", "zzz")
	if getdur("D_BAD", 2*time.Second) != 2*time.Second {
		t.Fatalf("getdur default on bad parse failed")
	}
}

func TestHelpers_getbool(t *testing.T) {
	for i, v := range []string{"1", "true", "TRUE", " yes ", "Y", "on", "On"} {
		k := "B_T_" + string(rune('a'+i))
		t.Setenv(k, v)
		if !getbool(k, false) {
			t.Fatalf("getbool(%q) = false; want true", v)
		}
	}
	for i, v := range []string{"0", "false", "FALSE", " no ", "N", "off", "Off"} {
		k := "B_F_" + string(rune('a'+i))
		t.Setenv(k, v)
		if getbool(k, true) {
			t.Fatalf("getbool(%q) = true; want false", v)
		}
	}
	t.Setenv("B_JUNK", "maybe")
	if !getbool("B_JUNK", true) || getbool("B_JUNK", false) {
		t.Fatalf("getbool should keep default on unknown values")
	}
}

func TestHelpers_splitCSV_and_normalizeBasePath(t *testing.T) {
	if out := splitCSV(""); out != nil {
		t.Fatalf("splitCSV empty should return nil")
	}
	if got := splitCSV(" a, ,b ,  c  ,"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("splitCSV mismatch: got %#v", got)
	}

	for in, want := range map[string]string{"": "/", "ws": "/ws", "/api/": "/api", " / ": "/"} {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestMain(m *testing.M) {
	os.Unsetenv("PORT")
	os.Unsetenv("GITHUB_TOKEN")
	os.Exit(m.Run())
}

func containsErr(err error, want string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), want)
}
