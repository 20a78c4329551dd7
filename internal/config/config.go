package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseDriver string
	DatabaseURL    string
	ServerPort     string
	Environment    string

	JWTSecret           string
	JWTExpiry           time.Duration
	ConfirmationCodeTTL time.Duration

	// Mail delivery for signup confirmation codes
	MailBackend  string
	MailFrom     string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	// Rate limiting on /v1/auth; REDIS_URL empty means an in-process limiter
	RedisURL             string
	RateLimitMaxRequests int
	RateLimitWindow      time.Duration

	CORSOrigins []string
	PageSize    int

	// cmd/seed and cmd/importcsv
	AdminUsername string
	AdminEmail    string
	ImportDir     string
}

func Load() *Config {
	// Try to load .env file, but don't fail if it doesn't exist
	// (Docker containers use environment variables directly)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded, using process environment")
	}

	cfg := &Config{
		DatabaseDriver: getEnv("DATABASE_DRIVER", "postgres"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ServerPort:     getEnv("SERVER_PORT", ":8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),

		JWTSecret:           os.Getenv("JWT_SECRET"),
		JWTExpiry:           getEnvAsDuration("JWT_EXPIRY", "24h"),
		ConfirmationCodeTTL: getEnvAsDuration("CONFIRMATION_CODE_TTL", "72h"),

		MailBackend:  getEnv("MAIL_BACKEND", "log"),
		MailFrom:     getEnv("MAIL_FROM", "noreply@yamdb.local"),
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),

		RedisURL:             os.Getenv("REDIS_URL"),
		RateLimitMaxRequests: getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 20),
		RateLimitWindow:      getEnvAsDuration("RATE_LIMIT_WINDOW", "1m"),

		CORSOrigins: getEnvAsList("CORS_ORIGINS", "http://localhost:3000"),
		PageSize:    getEnvAsInt("PAGE_SIZE", 10),

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		ImportDir:     getEnv("IMPORT_DIR", "static/data"),
	}

	if cfg.JWTSecret == "" {
		log.Println("JWT_SECRET is empty, tokens will be signed with an empty key")
	}

	return cfg
}

// IsProduction reports whether ENVIRONMENT is "production"
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvAsInt retrieves environment variable as int with default value
func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid %s value, using default: %d", key, defaultVal)
		return defaultVal
	}
	return val
}

// getEnvAsDuration retrieves environment variable as duration with default value
func getEnvAsDuration(key string, defaultVal string) time.Duration {
	valStr := os.Getenv(key)
	if valStr == "" {
		valStr = defaultVal
	}
	duration, err := time.ParseDuration(valStr)
	if err != nil {
		log.Printf("Invalid %s value, using default: %s", key, defaultVal)
		duration, _ = time.ParseDuration(defaultVal)
	}
	return duration
}

// getEnvAsList splits a comma separated variable, dropping empty items
func getEnvAsList(key string, defaultVal string) []string {
	raw := getEnv(key, defaultVal)
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
