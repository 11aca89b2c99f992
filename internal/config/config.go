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
	Port             string
	DatabaseURL      string
	SessionSecret    string
	RedisURL         string // 为空时不启用 redis 缓存
	Store            string // postgres 或 memory
	LogLevel         string
	LogPretty        bool
	DBConnectTimeout time.Duration
	StatusCacheTTL   time.Duration
	HideCacheTTL     time.Duration
	DefaultPerPage   int
}

// Load 读取 .env 与环境变量
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}
	return FromEnv()
}

// FromEnv 只读环境变量，不加载 .env
func FromEnv() Config {
	return Config{
		Port:             getenv("PORT", "8080"),
		DatabaseURL:      getenv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=opinions port=5432 sslmode=disable"),
		SessionSecret:    getenv("SESSION_SECRET", "secret_key_change_me"),
		RedisURL:         getenv("REDIS_URL", ""),
		Store:            strings.ToLower(getenv("STORE", "postgres")),
		LogLevel:         getenv("LOG_LEVEL", "info"),
		LogPretty:        getenvBool("LOG_PRETTY", false),
		DBConnectTimeout: time.Duration(getenvInt("DB_CONNECT_TIMEOUT", 30)) * time.Second,
		StatusCacheTTL:   time.Duration(getenvInt("STATUS_CACHE_TTL", 600)) * time.Second,
		HideCacheTTL:     time.Duration(getenvInt("HIDE_CACHE_TTL", 300)) * time.Second,
		DefaultPerPage:   getenvInt("DEFAULT_PER_PAGE", 10),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
