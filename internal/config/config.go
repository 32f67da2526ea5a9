package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	AppEnv                 string
	LogLevel               slog.Level
	ApiServicePort         string
	PostgreSQLHost         string
	PostgreSQLPort         int64
	PostgreSQLUser         string
	PostgreSQLPassword     string
	PostgreSQLDatabase     string
	JWTSecret              string
	AccessTokenExpiration  int64
	RefreshTokenExpiration int64
	GoogleClientIDs        []string
	AllowUnsafeToken       bool
	GoogleVerifyTimeout    int64
	RedisHost              string
	RedisPort              int64
	RedisPassword          string
	RedisDatabase          int64
	RecentCacheTTL         int64 // Recent-entries cache TTL in seconds
	OpenAIAPIKey           string
	OpenAIModel            string
	OpenAITimeout          int64
	TokenCleanupInterval   int64
}

func LoadConfig() *Config {
	return &Config{
		AppEnv:                 getEnv("APP_ENV", "development"),                        // Default development
		LogLevel:               getLogLevel(),                                           // Default INFO
		ApiServicePort:         getEnv("API_SERVICE_PORT", "8080"),                      // Default 8080
		PostgreSQLHost:         getEnv("POSTGRESQL_HOST", "db"),                         // Default db
		PostgreSQLPort:         getEnvAsInt64("POSTGRESQL_PORT", 5432),                  // Default 5432
		PostgreSQLUser:         getEnv("POSTGRESQL_USER", "illusion_note_user"),         // Default user
		PostgreSQLPassword:     getEnv("POSTGRESQL_PASSWORD", "illusion_note_password"), // Default password
		PostgreSQLDatabase:     getEnv("POSTGRESQL_DATABASE", "illusion_note_db"),       // Default database name
		JWTSecret:              getEnv("JWT_SECRET", "illusion-note-jwt-secret-key"),    // Default secret key
		AccessTokenExpiration:  getEnvAsInt64("ACCESS_TOKEN_EXPIRATION", 3600),          // Default 1 hour
		RefreshTokenExpiration: getEnvAsInt64("REFRESH_TOKEN_EXPIRATION", 604800),       // Default 7 days
		GoogleClientIDs:        getGoogleClientIDs(),                                    // Web + Android client IDs
		AllowUnsafeToken:       getEnvAsBool("ALLOW_UNSAFE_TOKEN", false),               // Default false
		GoogleVerifyTimeout:    getEnvAsInt64("GOOGLE_VERIFY_TIMEOUT", 10),              // Default 10 seconds
		RedisHost:              getEnv("REDIS_HOST", "redis"),                           // Default redis
		RedisPort:              getEnvAsInt64("REDIS_PORT", 6379),                       // Default 6379
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),                            // Default empty
		RedisDatabase:          getEnvAsInt64("REDIS_DATABASE", 0),                      // Default 0
		RecentCacheTTL:         getEnvAsInt64("RECENT_CACHE_TTL", 300),                  // Default 5 minutes
		OpenAIAPIKey:           getEnv("OPENAI_API_KEY", ""),                            // No default
		OpenAIModel:            getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),                 // Default gpt-3.5-turbo
		OpenAITimeout:          getEnvAsInt64("OPENAI_TIMEOUT", 30),                     // Default 30 seconds
		TokenCleanupInterval:   getEnvAsInt64("TOKEN_CLEANUP_INTERVAL", 3600),           // Default 1 hour
	}
}

// IsProduction reports whether the process runs with production hardening.
// The unsafe token-verification fallback is never honored in production.
func (c *Config) IsProduction() bool {
	return strings.ToLower(c.AppEnv) == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
			return value
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return fallback
}

func getLogLevel() slog.Level {
	levelStr := getEnv("LOG_LEVEL", "INFO")

	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// getGoogleClientIDs collects the registered OAuth client IDs. The web and
// Android apps each carry their own client ID, so verification must accept
// either audience.
func getGoogleClientIDs() []string {
	candidates := []string{
		getEnv("GOOGLE_CLIENT_ID", ""),
		getEnv("GOOGLE_CLIENT_ID_ANDROID", ""),
	}

	ids := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}
