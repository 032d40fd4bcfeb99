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
	APIPort   string
	JWTKey    []byte
	CookieTTL time.Duration

	LeaveAPIBaseURL string
	BackendTimeout  time.Duration

	SessionBackend string // memory, redis or postgres
	SessionTTL     time.Duration

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

	SweepInterval       time.Duration
	SweepLockKey        string
	SweepLockTTLSeconds int

	CORSAllowedOrigins []string
	PolicyFile         string
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:             getEnv("API_PORT", "3000"),
		JWTKey:              []byte(getEnv("JWT_SECRET", "defaultsecret")),
		CookieTTL:           time.Duration(getEnvAsInt("COOKIE_TTL_HOURS", 24*30)) * time.Hour,
		LeaveAPIBaseURL:     strings.TrimRight(getEnv("LEAVE_API_BASE_URL", "http://localhost:8000"), "/"),
		BackendTimeout:      time.Duration(getEnvAsInt("BACKEND_TIMEOUT_SECONDS", 30)) * time.Second,
		SessionBackend:      strings.ToLower(getEnv("SESSION_BACKEND", "memory")),
		SessionTTL:          time.Duration(getEnvAsInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBPort:              getEnv("DB_PORT", "5432"),
		DBUser:              getEnv("DB_USER", "user"),
		DBPassword:          getEnv("DB_PASSWORD", "password"),
		DBName:              getEnv("DB_NAME", "leave_portal"),
		DBSslMode:           getEnv("DB_SSLMODE", "disable"),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvAsInt("REDIS_DB", 0),
		SweepInterval:       time.Duration(getEnvAsInt("SESSION_SWEEP_INTERVAL_SECONDS", 300)) * time.Second,
		SweepLockKey:        getEnv("SESSION_SWEEP_LOCK_KEY", "portal_session_sweep_lock"),
		SweepLockTTLSeconds: getEnvAsInt("SESSION_SWEEP_LOCK_TTL_SECONDS", 60),
		CORSAllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		PolicyFile:          getEnv("LEAVE_POLICY_FILE", "configs/leave_policy.yaml"),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
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

func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
