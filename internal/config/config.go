package config

import (
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// Config cognify-data（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string
	}
	DBEnabled bool
	Database  DatabaseConfig
	Redis     struct {
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	Transcribe TranscribeConfig
	Analysis   AnalysisConfig
	Session    SessionConfig
}

// TranscribeConfig 转写中继服务配置
type TranscribeConfig struct {
	BaseURL      string // 中继服务地址（POST /transcribe + GET /transcription/:jobName）
	PollInterval int    // 轮询间隔（秒）
	MaxAttempts  int    // 最大轮询次数（超过则放弃并写降级记录）
}

// AnalysisConfig 文本分析服务配置
type AnalysisConfig struct {
	BaseURL string
}

// SessionConfig 游戏会话配置
type SessionConfig struct {
	SpeechTimeLimit int // 语音类游戏倒计时（秒）
	BufferTTL       int // 进行中会话在 Redis 的保留时间（秒）
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	// Default to true for local dev: if DB is unavailable, cognify-data will fall back
	// to the in-memory document store so patient pages are not empty with plain `go run`.
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "cognify")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "25"), 25)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	// 转写中继配置
	cfg.Transcribe.BaseURL = getEnv("TRANSCRIBE_BASE_URL", "http://localhost:5001")
	cfg.Transcribe.PollInterval = parseInt(getEnv("TRANSCRIBE_POLL_INTERVAL", "5"), 5)
	cfg.Transcribe.MaxAttempts = parseInt(getEnv("TRANSCRIBE_MAX_ATTEMPTS", "60"), 60)

	// 文本分析配置
	cfg.Analysis.BaseURL = getEnv("ANALYSIS_BASE_URL", "http://127.0.0.1:5000")

	// 会话配置
	cfg.Session.SpeechTimeLimit = parseInt(getEnv("SESSION_SPEECH_TIME_LIMIT", "900"), 900)
	cfg.Session.BufferTTL = parseInt(getEnv("SESSION_BUFFER_TTL", "3600"), 3600)

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
