package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	DBHost           string
	DBPort           string
	DBUser           string
	DBPassword       string
	DBName           string
	JWTSecret        string
	DefaultProjectID uint64
	UploadDir        string
	GinMode          string
	SeedDemo         bool
}

func Load() *Config {
	// Missing .env is fine; plain environment variables still apply.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load .env file: %v", err)
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "tablero"),
		DBPassword:       getEnv("DB_PASSWORD", "tablero"),
		DBName:           getEnv("DB_NAME", "tablero"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		DefaultProjectID: getEnvUint("DEFAULT_PROJECT_ID", 0),
		UploadDir:        getEnv("UPLOAD_DIR", "./uploads"),
		GinMode:          getEnv("GIN_MODE", "debug"),
		SeedDemo:         getEnv("SEED_DEMO", "") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvUint(key string, defaultValue uint64) uint64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		log.Printf("Invalid value for %s: %v", key, err)
		return defaultValue
	}
	return parsed
}
