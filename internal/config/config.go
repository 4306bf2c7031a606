package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	LLM          LLMConfig
	Triage       TriageConfig
	KB           KBConfig
	Chat         ChatConfig
	Router       RouterConfig
	Cache        CacheConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values. An empty DSN runs the service
// without a relational store; reads degrade and writes fail explicitly.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// LLMConfig selects and bounds the language-model provider.
type LLMConfig struct {
	Provider       string // anthropic | openai | none
	APIKey         string
	BaseURL        string
	Model          string
	MaxTokens      int
	TimeoutSeconds int
	RatePerSecond  float64
	Burst          int
}

// TriageConfig holds the categorization constants.
type TriageConfig struct {
	ConfidenceMultiplier float64
	ConfidenceCap        float64
	MaxCandidates        int
	AutoApplyThreshold   float64
	SuggestThreshold     float64
	// EscalationKeywords overrides the built-in chat hand-off keywords when set.
	EscalationKeywords []string
}

// Hard ceilings of the knowledge-base ranker.
const (
	MaxKBCandidatePool = 100
	MaxKBTopK          = 5
)

// KBConfig bounds the knowledge-base ranker.
type KBConfig struct {
	CandidatePool int
	TopK          int
	RerankDepth   int
}

// ChatConfig holds the fixed chat-response confidences.
type ChatConfig struct {
	LLMConfidence       float64
	FallbackConfidence  float64
	EscalationThreshold float64
	HistoryTTLHours     int
	HistoryLimit        int
}

// RouterConfig configures agent routing.
type RouterConfig struct {
	// MaxWorkload skips skilled agents at or above this count. Zero disables it.
	MaxWorkload int
}

// CacheConfig controls snapshot caching and the warm-up schedule.
type CacheConfig struct {
	SnapshotTTLMinutes int
	WarmSchedule       string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "servicedesk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		LLM: LLMConfig{
			Provider:       strings.ToLower(getEnv("LLM_PROVIDER", "none")),
			APIKey:         os.Getenv("LLM_API_KEY"),
			BaseURL:        os.Getenv("LLM_BASE_URL"),
			Model:          os.Getenv("LLM_MODEL"),
			MaxTokens:      getEnvAsInt("LLM_MAX_TOKENS", 1024),
			TimeoutSeconds: getEnvAsInt("LLM_TIMEOUT_SECONDS", 8),
			RatePerSecond:  getEnvAsFloat("LLM_RATE_PER_SECOND", 5),
			Burst:          getEnvAsInt("LLM_BURST", 10),
		},
		Triage: TriageConfig{
			ConfidenceMultiplier: getEnvAsFloat("TRIAGE_CONFIDENCE_MULTIPLIER", 0.2),
			ConfidenceCap:        getEnvAsFloat("TRIAGE_CONFIDENCE_CAP", 0.95),
			MaxCandidates:        getEnvAsInt("TRIAGE_MAX_CANDIDATES", 3),
			AutoApplyThreshold:   getEnvAsFloat("TRIAGE_AUTO_APPLY_THRESHOLD", 0.8),
			SuggestThreshold:     getEnvAsFloat("TRIAGE_SUGGEST_THRESHOLD", 0.5),
			EscalationKeywords:   getEnvAsList("TRIAGE_ESCALATION_KEYWORDS"),
		},
		KB: KBConfig{
			CandidatePool: getEnvAsInt("KB_CANDIDATE_POOL", 100),
			TopK:          getEnvAsInt("KB_TOP_K", 5),
			RerankDepth:   getEnvAsInt("KB_RERANK_DEPTH", 10),
		},
		Chat: ChatConfig{
			LLMConfidence:       getEnvAsFloat("CHAT_LLM_CONFIDENCE", 0.8),
			FallbackConfidence:  getEnvAsFloat("CHAT_FALLBACK_CONFIDENCE", 0.3),
			EscalationThreshold: getEnvAsFloat("CHAT_ESCALATION_THRESHOLD", 0.5),
			HistoryTTLHours:     getEnvAsInt("CHAT_HISTORY_TTL_HOURS", 72),
			HistoryLimit:        getEnvAsInt("CHAT_HISTORY_LIMIT", 200),
		},
		Router: RouterConfig{
			MaxWorkload: getEnvAsInt("ROUTER_MAX_WORKLOAD", 0),
		},
		Cache: CacheConfig{
			SnapshotTTLMinutes: getEnvAsInt("CACHE_SNAPSHOT_TTL_MINUTES", 60),
			WarmSchedule:       getEnv("CACHE_WARM_SCHEDULE", "@every 5m"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engines cannot honour.
func (c *Config) Validate() error {
	var errs []error
	t := c.Triage
	if t.ConfidenceMultiplier <= 0 {
		errs = append(errs, errors.New("TRIAGE_CONFIDENCE_MULTIPLIER must be positive"))
	}
	if t.ConfidenceCap <= 0 || t.ConfidenceCap > 1 {
		errs = append(errs, errors.New("TRIAGE_CONFIDENCE_CAP must be in (0,1]"))
	}
	if t.MaxCandidates <= 0 {
		errs = append(errs, errors.New("TRIAGE_MAX_CANDIDATES must be positive"))
	}
	if t.SuggestThreshold < 0 || t.SuggestThreshold > t.AutoApplyThreshold || t.AutoApplyThreshold > 1 {
		errs = append(errs, errors.New("triage thresholds must satisfy 0 <= suggest <= auto-apply <= 1"))
	}
	if c.KB.CandidatePool <= 0 || c.KB.CandidatePool > MaxKBCandidatePool {
		errs = append(errs, fmt.Errorf("KB_CANDIDATE_POOL must be in [1,%d]", MaxKBCandidatePool))
	}
	if c.KB.TopK <= 0 || c.KB.TopK > MaxKBTopK {
		errs = append(errs, fmt.Errorf("KB_TOP_K must be in [1,%d]", MaxKBTopK))
	}
	if c.LLM.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("LLM_TIMEOUT_SECONDS must be positive"))
	}
	switch c.LLM.Provider {
	case "none", "":
	case "anthropic", "openai":
		if c.LLM.APIKey == "" {
			errs = append(errs, fmt.Errorf("LLM_API_KEY is required for provider %q", c.LLM.Provider))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider))
	}
	if c.Router.MaxWorkload < 0 {
		errs = append(errs, errors.New("ROUTER_MAX_WORKLOAD must not be negative"))
	}
	return errors.Join(errs...)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the per-call ceiling for provider requests.
func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// Enabled reports whether a provider is configured.
func (l LLMConfig) Enabled() bool {
	return l.Provider == "anthropic" || l.Provider == "openai"
}

func (c CacheConfig) SnapshotTTL() time.Duration {
	return time.Duration(c.SnapshotTTLMinutes) * time.Minute
}

func (c ChatConfig) HistoryTTL() time.Duration {
	return time.Duration(c.HistoryTTLHours) * time.Hour
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
