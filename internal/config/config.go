package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve on hosts without zoneinfo

	"github.com/joho/godotenv"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds application configuration
type Config struct {
	// Server
	Env                string
	Port               string
	CORSAllowedOrigins []string

	// Database
	DBDriver       string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSSLMode      string
	SQLitePath     string
	MigrationsPath string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Summary
	Location        *time.Location
	DailyWindowDays int
	RecentLimit     int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if present; real environment variables take precedence
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Env:                getEnv("ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		// Database
		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "spendwise"),
		DBPassword:     getEnv("DB_PASSWORD", "spendwise"),
		DBName:         getEnv("DB_NAME", "spendwise"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
		SQLitePath:     getEnv("SQLITE_PATH", "spendwise.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", ""),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
	}

	switch config.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (use %s or %s)", config.DBDriver, DriverPostgres, DriverSQLite)
	}

	expStr := getEnv("JWT_EXPIRES_IN", "24h")
	expDur, err := time.ParseDuration(expStr)
	if err != nil || expDur <= 0 {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 24h\n", expStr)
		expDur = 24 * time.Hour
	}
	config.JWTExpirationDur = expDur

	tz := getEnv("TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}
	config.Location = loc

	config.DailyWindowDays = getPositiveInt("SUMMARY_DAILY_WINDOW_DAYS", 30)
	config.RecentLimit = getPositiveInt("SUMMARY_RECENT_LIMIT", 5)

	return config, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getPositiveInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
