package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the gateway.
type Config struct {
	App        AppConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Admin      AdminConfig
	Gatekeeper GatekeeperConfig
	AI         AIConfig
	Catalog    CatalogConfig
	Cache      CacheConfig
	Notify     NotifyConfig
}

// NotifyConfig holds the optional operator webhook endpoint.
type NotifyConfig struct {
	WebhookURL string
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

// PostgresConfig holds DB connection values. An empty DSN switches the
// ticket store to the in-memory implementation.
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

// AdminConfig gates the ticket issuance API. Secret is the shared secret
// presented at login; when SecretHash is set it takes precedence and the
// secret is verified against the bcrypt hash instead.
type AdminConfig struct {
	Secret          string
	SecretHash      string
	JWTSecret       string
	TokenTTLMinutes int
}

// GatekeeperConfig tunes ticket issuance and expiry handling.
type GatekeeperConfig struct {
	KeyPrefix            string
	DefaultLifetimeDays  int
	SweepIntervalMinutes int
}

// AIConfig holds language model provider settings. Gemini is the primary
// provider, Groq the fallback.
type AIConfig struct {
	GeminiKey      string
	GeminiModel    string
	GeminiBaseURL  string
	GroqKey        string
	GroqModel      string
	GroqBaseURL    string
	TimeoutSeconds int
}

// CatalogConfig holds content catalog credentials.
type CatalogConfig struct {
	GoogleBooksKey      string
	GoogleBooksBaseURL  string
	TMDBKey             string
	TMDBBaseURL         string
	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyBaseURL      string
	SpotifyTokenURL     string
}

// CacheConfig bounds the response cache.
type CacheConfig struct {
	TTLMinutes int
	MaxEntries int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "recs-gateway"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 60),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Admin: AdminConfig{
			Secret:          os.Getenv("ADMIN_SECRET"),
			SecretHash:      os.Getenv("ADMIN_SECRET_HASH"),
			JWTSecret:       getEnv("ADMIN_JWT_SECRET", "dev-secret"),
			TokenTTLMinutes: getEnvAsInt("ADMIN_TOKEN_TTL_MINUTES", 60),
		},
		Gatekeeper: GatekeeperConfig{
			KeyPrefix:            getEnv("GATEKEEPER_KEY_PREFIX", "GK"),
			DefaultLifetimeDays:  getEnvAsInt("GATEKEEPER_DEFAULT_LIFETIME_DAYS", 1),
			SweepIntervalMinutes: getEnvAsInt("GATEKEEPER_SWEEP_INTERVAL_MINUTES", 10),
		},
		AI: AIConfig{
			GeminiKey:      os.Getenv("GEMINI_API_KEY"),
			GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash-lite"),
			GeminiBaseURL:  getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			GroqKey:        os.Getenv("GROQ_API_KEY"),
			GroqModel:      getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
			GroqBaseURL:    getEnv("GROQ_BASE_URL", "https://api.groq.com"),
			TimeoutSeconds: getEnvAsInt("AI_TIMEOUT_SECONDS", 30),
		},
		Catalog: CatalogConfig{
			GoogleBooksKey:      os.Getenv("GOOGLE_BOOKS_API_KEY"),
			GoogleBooksBaseURL:  getEnv("GOOGLE_BOOKS_BASE_URL", "https://www.googleapis.com"),
			TMDBKey:             os.Getenv("TMDB_API_KEY"),
			TMDBBaseURL:         getEnv("TMDB_BASE_URL", "https://api.themoviedb.org"),
			SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
			SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
			SpotifyBaseURL:      getEnv("SPOTIFY_BASE_URL", "https://api.spotify.com"),
			SpotifyTokenURL:     getEnv("SPOTIFY_TOKEN_URL", "https://accounts.spotify.com/api/token"),
		},
		Cache: CacheConfig{
			TTLMinutes: getEnvAsInt("CACHE_TTL_MINUTES", 15),
			MaxEntries: getEnvAsInt("CACHE_MAX_ENTRIES", 100),
		},
		Notify: NotifyConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	if cfg.Admin.Secret == "" && cfg.Admin.SecretHash == "" {
		return nil, fmt.Errorf("ADMIN_SECRET or ADMIN_SECRET_HASH must be set")
	}

	return cfg, nil
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

// Timeout returns the upstream call deadline.
func (c AIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SweepInterval returns the expiry sweeper period.
func (g GatekeeperConfig) SweepInterval() time.Duration {
	if g.SweepIntervalMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(g.SweepIntervalMinutes) * time.Minute
}

// TTL returns the response cache lifetime.
func (c CacheConfig) TTL() time.Duration {
	if c.TTLMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.TTLMinutes) * time.Minute
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
