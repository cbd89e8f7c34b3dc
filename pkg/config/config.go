package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional: screening works without it)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Market data
	Yahoo YahooConfig

	// Screening
	Screener ScreenerConfig

	// Universe
	Universe UniverseConfig

	// Local run history
	SQLitePath string

	// Scheduler
	Schedule ScheduleConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a PostgreSQL connection was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// YahooConfig holds the daily bar source configuration
type YahooConfig struct {
	BaseURL      string
	SymbolSuffix string // ".JK" for IDX listings
	Range        string // chart range, e.g. "1y"
	AnalyzeRange string // longer range for cycle projection
	Timeout      time.Duration
}

// ScreenerConfig holds screening engine settings
type ScreenerConfig struct {
	Workers         int
	FetchTimeout    time.Duration
	RateLimit       int // symbol fetches per second, 0 = unlimited
	DefaultStrategy string
	MinScore        int
	MinGainPct      float64
}

// UniverseConfig holds where the symbol universe comes from
type UniverseConfig struct {
	File    string   // YAML or HTML file
	Symbols []string // inline override (UNIVERSE_SYMBOLS=BBCA,BBRI)
}

// ScheduleConfig holds cron specs (with seconds field)
type ScheduleConfig struct {
	ScreenCron  string
	CollectCron string
}

var validStrategies = map[string]bool{
	"breakout":         true,
	"swing_trade_day":  true,
	"swing_trade_week": true,
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Yahoo: YahooConfig{
			BaseURL:      getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			SymbolSuffix: getEnv("YAHOO_SYMBOL_SUFFIX", ".JK"),
			Range:        getEnv("YAHOO_RANGE", "1y"),
			AnalyzeRange: getEnv("YAHOO_ANALYZE_RANGE", "5y"),
			Timeout:      getEnvAsDuration("YAHOO_TIMEOUT", "15s"),
		},

		Screener: ScreenerConfig{
			Workers:         getEnvAsInt("SCREENER_WORKERS", 4),
			FetchTimeout:    getEnvAsDuration("SCREENER_FETCH_TIMEOUT", "20s"),
			RateLimit:       getEnvAsInt("SCREENER_RATE_LIMIT", 5),
			DefaultStrategy: getEnv("SCREENER_STRATEGY", "swing_trade_week"),
			MinScore:        getEnvAsInt("SCREENER_MIN_SCORE", 60),
			MinGainPct:      getEnvAsFloat("SCREENER_MIN_GAIN", 2),
		},

		Universe: UniverseConfig{
			File:    getEnv("UNIVERSE_FILE", ""),
			Symbols: getEnvAsList("UNIVERSE_SYMBOLS"),
		},

		SQLitePath: getEnv("SQLITE_PATH", ""),

		Schedule: ScheduleConfig{
			// after the 17:00 WIB bar cutoff, Mon-Fri
			ScreenCron:  getEnv("SCHEDULE_SCREEN_CRON", "0 30 17 * * 1-5"),
			CollectCron: getEnv("SCHEDULE_COLLECT_CRON", "0 15 17 * * 1-5"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Screener.Workers <= 0 {
		return fmt.Errorf("SCREENER_WORKERS must be positive, got %d", c.Screener.Workers)
	}

	if c.Screener.RateLimit < 0 {
		return fmt.Errorf("SCREENER_RATE_LIMIT must not be negative, got %d", c.Screener.RateLimit)
	}

	if !validStrategies[c.Screener.DefaultStrategy] {
		return fmt.Errorf("SCREENER_STRATEGY must be one of: breakout, swing_trade_day, swing_trade_week")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, dropping blanks
func getEnvAsList(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
