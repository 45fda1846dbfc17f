package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort string
	LogLevel string

	// Identity provider. When IdentityURL is set, credentials and tokens are
	// handled by the external provider; otherwise a local JWT provider backed
	// by JWTSecret is used.
	IdentityURL    string
	IdentityAPIKey string
	JWTSecret      string

	// Completion service.
	GeminiAPIKey   string
	GeminiEndpoint string
	ChatModel      string
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "INFO"),
		IdentityURL:    getEnv("IDENTITY_URL", ""),
		IdentityAPIKey: getEnv("IDENTITY_API_KEY", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiEndpoint: getEnv("GEMINI_ENDPOINT", ""),
		ChatModel:      getEnv("CHAT_MODEL", "gemini-1.5-flash-latest"),
	}

	if AppConfig.GeminiAPIKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable is required")
	}

	if AppConfig.IdentityURL == "" && AppConfig.JWTSecret == "" {
		log.Fatal("Either IDENTITY_URL or JWT_SECRET must be set")
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
