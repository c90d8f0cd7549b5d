package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort              = "8000"
	defaultGeminiModel       = "gemini-2.0-flash"
	defaultGeminiBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	defaultGroqModel         = "llama-3.3-70b-versatile"
	defaultGroqBaseURL       = "https://api.groq.com/openai/v1"
	defaultSearchBaseURL     = "https://api.search.brave.com/res/v1"
	defaultMemoryDBPath      = "./data/memory.db"
	defaultMemoryMaxEntries  = 100
	defaultMaxIterations     = 10
	defaultAgentTimeoutSecs  = 180
	defaultMaxSources        = 8
	defaultTemperature       = 0.7
	defaultMaxTokens         = 2000
	defaultSearchMinInterval = time.Second
)

type Config struct {
	Port           string
	Environment    string
	FrontendOrigin string
	AllowedOrigins []string

	GoogleAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	GroqAPIKey    string
	GroqModel     string
	GroqBaseURL   string
	Temperature   float64
	MaxTokens     int

	SearchAPIKey      string
	SearchBaseURL     string
	SearchMinInterval time.Duration

	MemoryDBPath     string
	MemoryMaxEntries int

	AgentMaxIterations int
	AgentTimeout       time.Duration
	DefaultMaxSources  int

	LogLevel  string
	LogFormat string
}

func (c Config) ListenAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func Load() (Config, error) {
	cfg := Config{
		Port:               envOrDefault("PORT", defaultPort),
		Environment:        envOrDefault("APP_ENV", "development"),
		FrontendOrigin:     envOrDefault("FRONTEND_ORIGIN", "http://localhost:5173"),
		GoogleAPIKey:       strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")),
		GeminiModel:        envOrDefault("GEMINI_MODEL", defaultGeminiModel),
		GeminiBaseURL:      envOrDefault("GEMINI_BASE_URL", defaultGeminiBaseURL),
		GroqAPIKey:         strings.TrimSpace(os.Getenv("GROQ_API_KEY")),
		GroqModel:          envOrDefault("GROQ_MODEL", defaultGroqModel),
		GroqBaseURL:        envOrDefault("GROQ_BASE_URL", defaultGroqBaseURL),
		Temperature:        floatOrDefault("LLM_TEMPERATURE", defaultTemperature),
		MaxTokens:          intOrDefault("LLM_MAX_TOKENS", defaultMaxTokens),
		SearchAPIKey:       strings.TrimSpace(os.Getenv("SEARCH_API_KEY")),
		SearchBaseURL:      envOrDefault("SEARCH_BASE_URL", defaultSearchBaseURL),
		MemoryDBPath:       envOrDefault("MEMORY_DB_PATH", defaultMemoryDBPath),
		MemoryMaxEntries:   intOrDefault("MEMORY_MAX_ENTRIES", defaultMemoryMaxEntries),
		AgentMaxIterations: intOrDefault("AGENT_MAX_ITERATIONS", defaultMaxIterations),
		DefaultMaxSources:  intOrDefault("DEFAULT_MAX_SOURCES", defaultMaxSources),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "text"),
	}

	timeoutSecs := intOrDefault("AGENT_TIMEOUT_SECONDS", defaultAgentTimeoutSecs)
	if timeoutSecs <= 0 {
		return Config{}, errors.New("AGENT_TIMEOUT_SECONDS must be > 0")
	}
	cfg.AgentTimeout = time.Duration(timeoutSecs) * time.Second

	intervalMillis := intOrDefault("SEARCH_MIN_INTERVAL_MS", int(defaultSearchMinInterval/time.Millisecond))
	cfg.SearchMinInterval = time.Duration(intervalMillis) * time.Millisecond

	origins := parseList(envOrDefault("CORS_ALLOWED_ORIGINS", cfg.FrontendOrigin))
	if len(origins) == 0 {
		return Config{}, errors.New("CORS_ALLOWED_ORIGINS must include at least one origin")
	}
	cfg.AllowedOrigins = origins

	if cfg.GoogleAPIKey == "" && cfg.GroqAPIKey == "" {
		return Config{}, errors.New("no LLM provider configured: set GOOGLE_API_KEY or GROQ_API_KEY")
	}
	if cfg.MemoryMaxEntries < 1 {
		return Config{}, errors.New("MEMORY_MAX_ENTRIES must be >= 1")
	}
	if cfg.AgentMaxIterations < 1 {
		return Config{}, errors.New("AGENT_MAX_ITERATIONS must be >= 1")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func intOrDefault(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func floatOrDefault(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
