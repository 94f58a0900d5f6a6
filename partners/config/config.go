package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	StaticDir string
	LogDir    string

	// AI backend
	AIProvider  string // "workers" or "openai"
	AIModel     string
	AIBaseURL   string // overrides the provider default endpoint
	AIAPIKey    string
	CFAccountID string
	AIMaxTokens int

	// Knowledge table sources
	KnowledgeFile string

	// Optional bearer auth on /api/chat; empty secret disables it
	JWTSecret string

	// Optional DB-backed knowledge source; empty host disables it
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return Config{
		Port:      getEnv("PORT", "8080"),
		StaticDir: getEnv("STATIC_DIR", "./public"),
		LogDir:    getEnv("LOG_DIR", "./logs"),

		AIProvider:  getEnv("AI_PROVIDER", "workers"),
		AIModel:     getEnv("AI_MODEL", "@cf/meta/llama-3.3-70b-instruct-fp8-fast"),
		AIBaseURL:   getEnv("AI_BASE_URL", ""),
		AIAPIKey:    getEnv("AI_API_KEY", ""),
		CFAccountID: getEnv("CF_ACCOUNT_ID", ""),
		AIMaxTokens: getEnvInt("AI_MAX_TOKENS", 1024),

		KnowledgeFile: getEnv("KNOWLEDGE_FILE", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),

		DBUser:     getEnv("DB_USER", ""),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBHost:     getEnv("DB_HOST", ""),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBName:     getEnv("DB_NAME", ""),
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
