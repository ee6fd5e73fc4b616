package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Environment string
	Port        string
	LogLevel    string

	DatabaseDSN string

	IdentitySecret string
	AllowedOrigins []string

	StorageDir          string
	StoragePublicPrefix string

	AutoCreateCategory bool

	CancelFromAnyState  bool
	OrderNumberPrefix   string
	OrderNumberAttempts int
	OrderRatePerMinute  int

	NotifyTimeout   time.Duration
	TelegramToken   string
	TelegramChatIDs []string
	TelegramAPIBase string
	NotifySQSQueue  string
	AWSRegion       string
}

// Load reads the configuration from environment variables.
func Load() *Config {
	chatIDs := getEnv("TELEGRAM_CHAT_IDS", "")
	if strings.TrimSpace(chatIDs) == "" {
		chatIDs = getEnv("TELEGRAM_CHAT_ID", "")
	}
	return &Config{
		Environment: strings.ToLower(getEnv("APP_ENV", "development")),
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DatabaseDSN: databaseDSN(),

		IdentitySecret: getEnv("IDENTITY_JWT_SECRET", ""),
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		StorageDir:          getEnv("STORAGE_DIR", "uploads"),
		StoragePublicPrefix: getEnv("STORAGE_PUBLIC_PREFIX", "/uploads"),

		AutoCreateCategory: getEnvAsBool("CATALOG_AUTO_CREATE_CATEGORY", false),

		CancelFromAnyState:  getEnvAsBool("ORDER_CANCEL_FROM_ANY_STATE", false),
		OrderNumberPrefix:   getEnv("ORDER_NUMBER_PREFIX", "ORD-"),
		OrderNumberAttempts: getEnvAsInt("ORDER_NUMBER_ATTEMPTS", 5),
		OrderRatePerMinute:  getEnvAsInt("ORDER_RATE_PER_MINUTE", 10),

		NotifyTimeout:   getEnvAsDuration("NOTIFY_TIMEOUT", 5*time.Second),
		TelegramToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatIDs: splitList(chatIDs),
		TelegramAPIBase: getEnv("TELEGRAM_API_BASE", "https://api.telegram.org"),
		NotifySQSQueue:  getEnv("NOTIFY_SQS_QUEUE_URL", ""),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == "development" || c.Environment == "dev"
}

// databaseDSN prefers DB_DSN and otherwise builds a postgres DSN from parts.
func databaseDSN() string {
	if dsn := strings.TrimSpace(os.Getenv("DB_DSN")); dsn != "" {
		return dsn
	}
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", getEnv("POSTGRES_USER", "postgres"))
	pass := getEnv("DB_PASSWORD", getEnv("POSTGRES_PASSWORD", "postgres"))
	name := getEnv("DB_NAME", getEnv("POSTGRES_DB", "storefront"))
	ssl := getEnv("DB_SSLMODE", "disable")
	return "host=" + host + " user=" + user + " password=" + pass + " dbname=" + name + " port=" + port + " sslmode=" + ssl
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
