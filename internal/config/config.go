package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config 应用配置
type Config struct {
	Env                 string
	AppSecret           string
	DBDriver            string
	DatabaseURL         string
	JWTExpiry           time.Duration
	Port                string
	RedisAddr           string
	RedisPassword       string
	ConfirmationCodeTTL time.Duration
	SignupRateLimit     int
	LogLevel            string
	LogFilePath         string
	DataDir             string
	MailFrom            string
}

// Load 加载配置
func Load() *Config {
	expiryHours, _ := strconv.Atoi(getEnv("JWT_EXPIRY_HOURS", "72"))
	codeTTLMinutes, _ := strconv.Atoi(getEnv("CONFIRMATION_CODE_TTL_MINUTES", "30"))
	signupLimit, _ := strconv.Atoi(getEnv("SIGNUP_RATE_LIMIT_PER_MINUTE", "5"))

	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbName := getEnv("DB_NAME", "yamdb")
	dbSSL := getEnv("DB_SSLMODE", "disable")

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbUser, dbPass, dbHost, dbPort, dbName, dbSSL)

	driver := getEnv("DB_DRIVER", "postgres")
	if driver == "sqlite" {
		dbURL = getEnv("SQLITE_PATH", "yamdb.sqlite3") + "?_foreign_keys=on"
	}

	appSecret := getEnv("APP_SECRET", getEnv("JWT_SECRET", "your-secret-key-change-in-production"))

	if getEnv("APP_ENV", "development") == "production" && appSecret == "your-secret-key-change-in-production" {
		fmt.Println("【严重警告】生产环境正在使用默认密钥！请立即设置 APP_SECRET 环境变量。")
	}

	return &Config{
		Env:                 getEnv("APP_ENV", "development"),
		AppSecret:           appSecret,
		DBDriver:            driver,
		DatabaseURL:         dbURL,
		JWTExpiry:           time.Duration(expiryHours) * time.Hour,
		Port:                getEnv("PORT", "8000"),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		ConfirmationCodeTTL: time.Duration(codeTTLMinutes) * time.Minute,
		SignupRateLimit:     signupLimit,
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFilePath:         getEnv("LOG_FILE_PATH", ""),
		DataDir:             getEnv("DATA_DIR", "./static/data"),
		MailFrom:            getEnv("MAIL_FROM", "noreply@yamdb.local"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
