package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	Env string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External sources
	Kiwoom KiwoomConfig
	Toss   TossConfig

	// Collection tuning
	Collect CollectConfig

	// Status API
	StatusPort string

	// Logging
	LogLevel  string
	LogFormat string

	// Session window definitions (YAML), empty = built-in defaults
	SessionsFile string
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

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// KiwoomConfig holds Kiwoom REST/WebSocket API configuration
type KiwoomConfig struct {
	APIKey       string
	APISecretKey string
	BaseURL      string
	SocketURL    string
	IsMock       bool // 모의투자 여부
}

// TossConfig holds Toss Invest front-end configuration
type TossConfig struct {
	BaseURL string
}

// CollectConfig holds collection/upsert tuning knobs
type CollectConfig struct {
	FlowBatchSize int // flow ranking upsert 배치 크기
	TickBatchSize int // websocket tick upsert 배치 크기
	MinTurnover   int // 거래대금 상위 수집 최소 성공 행수
	RankingTarget int // 투자자 그룹당 필요한 최소 랭킹 행수
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Kiwoom: KiwoomConfig{
			APIKey:       getEnv("API_KEY", ""),
			APISecretKey: getEnv("API_SECRET_KEY", ""),
			BaseURL:      getEnv("KIWOOM_BASE_URL", "https://mockapi.kiwoom.com"),
			SocketURL:    getEnv("KIWOOM_SOCKET_URL", "wss://mockapi.kiwoom.com:10000/api/dostk/websocket"),
			IsMock:       getEnvAsBool("KIWOOM_IS_MOCK", true),
		},

		Toss: TossConfig{
			BaseURL: getEnv("TOSS_BASE_URL", "https://www.tossinvest.com"),
		},

		Collect: CollectConfig{
			FlowBatchSize: getEnvAsInt("FLOW_BATCH_SIZE", 100),
			TickBatchSize: getEnvAsInt("TICK_BATCH_SIZE", 1000),
			MinTurnover:   getEnvAsInt("MIN_TURNOVER_ROWS", 80),
			RankingTarget: getEnvAsInt("RANKING_TARGET_ROWS", 20),
		},

		StatusPort: getEnv("STATUS_PORT", "8089"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		SessionsFile: getEnv("SESSIONS_FILE", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	return nil
}

// ValidateKiwoom checks the credentials the Kiwoom commands need.
// 키 누락은 루프 시작 전에 치명 오류로 처리
func (c *Config) ValidateKiwoom() error {
	if c.Kiwoom.APIKey == "" || c.Kiwoom.APISecretKey == "" {
		return fmt.Errorf("API_KEY and API_SECRET_KEY are required")
	}
	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
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
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
