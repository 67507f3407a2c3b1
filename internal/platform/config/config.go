package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Rate limiter backends selectable via RATE_LIMIT_BACKEND.
const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

type Config struct {
	APIPort string

	SecretKey   []byte
	Algorithm   string
	TokenTTL    time.Duration
	TokenLeeway time.Duration

	MaxRequests         int
	Window              time.Duration
	RateLimitBackend    string
	RateLimitMaxClients int

	BcryptCost int

	UploadDir string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	secret := os.Getenv("SECRET_KEY")
	if secret == "" {
		log.Fatal("SECRET_KEY must be set")
	}

	cfg := &Config{
		APIPort:             getEnv("API_PORT", "8080"),
		SecretKey:           []byte(secret),
		Algorithm:           getEnv("ALGORITHM", "HS256"),
		TokenTTL:            time.Duration(getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
		TokenLeeway:         time.Duration(getEnvAsInt("TOKEN_LEEWAY_SECONDS", 0)) * time.Second,
		MaxRequests:         getEnvAsInt("MAX_REQUESTS", 10),
		Window:              time.Duration(getEnvAsInt("WINDOW", 60)) * time.Second,
		RateLimitBackend:    getEnv("RATE_LIMIT_BACKEND", RateLimitBackendMemory),
		RateLimitMaxClients: getEnvAsInt("RATE_LIMIT_MAX_CLIENTS", 10000),
		BcryptCost:          getEnvAsInt("BCRYPT_COST", 0),
		UploadDir:           getEnv("UPLOAD_DIR", "uploads"),
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBPort:              getEnv("DB_PORT", "5432"),
		DBUser:              getEnv("DB_USER", "user"),
		DBPassword:          getEnv("DB_PASSWORD", "password"),
		DBName:              getEnv("DB_NAME", "authgate_db"),
		DBSslMode:           getEnv("DB_SSLMODE", "disable"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvAsInt("REDIS_DB", 0),
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode

	return cfg
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
