package config

import (
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv        string
	Port          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	AIBaseURL     string
	AIAPIKey      string
	LogLevel      string
	LogFormat     string
}

var (
	cfg  *Config
	once sync.Once
)

// LoadConfig reads configuration from .env (when present) and the environment.
func LoadConfig() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: .env file not found. Relying on environment variables.")
		}
		redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
		if err != nil {
			redisDB = 0
		}
		cfg = &Config{
			AppEnv:        os.Getenv("APP_ENV"),
			Port:          getEnv("PORT", "8080"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       redisDB,
			AIBaseURL:     os.Getenv("AI_BASE_URL"),
			AIAPIKey:      os.Getenv("AI_API_KEY"),
			LogLevel:      getEnv("LOG_LEVEL", "info"),
			LogFormat:     getEnv("LOG_FORMAT", "json"),
		}
	})
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
