package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// TargetURL is the ready-made Avito search URL to paginate over.
	TargetURL    string
	PagesToScan  int
	TitlePattern string

	// Courtesy delay band applied before every page fetch.
	DelayMinMs     int
	DelayMaxMs     int
	ScrollAttempts int

	PredictorURL    string
	ProfitThreshold int64

	TelegramBotToken string
	TelegramChatID   string
	NotifyGapMs      int
	NotifyRetries    int

	ListenAddr string
	ChromeBin  string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "dealfinder"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "dealfinder123"),
		PostgresDB:       getEnv("POSTGRES_DB", "ads_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		TargetURL:    getEnv("AVITO_TARGET_URL", ""),
		PagesToScan:  getEnvInt("PAGES_TO_SCAN", 1),
		TitlePattern: getEnv("TITLE_PATTERN", `^(iPhone[^,]*), (\d+ ГБ)$`),

		DelayMinMs:     getEnvInt("FETCH_DELAY_MIN_MS", 3000),
		DelayMaxMs:     getEnvInt("FETCH_DELAY_MAX_MS", 5000),
		ScrollAttempts: getEnvInt("SCROLL_ATTEMPTS", 3),

		PredictorURL:    getEnv("PREDICTOR_URL", ""),
		ProfitThreshold: int64(getEnvInt("PROFIT_THRESHOLD", 5000)),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		NotifyGapMs:      getEnvInt("NOTIFY_GAP_MS", 1000),
		NotifyRetries:    getEnvInt("NOTIFY_RETRIES", 3),

		ListenAddr: getEnv("API_LISTEN_ADDR", ":8080"),
		ChromeBin:  getEnv("CHROME_BIN", ""),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
