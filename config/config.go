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

	HTTPAddr string

	Headless   bool
	ChromeBin  string
	CookieFile string
	BaseURL    string

	// RegionCode backs the location fallback ("..., OH"). The marketplace
	// never labels the location row, so the trailing region code is the only
	// reliable marker.
	RegionCode string

	NavTimeoutSec  int
	WaitTimeoutSec int

	ImageDir       string
	DownloadImages bool

	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int

	Debug bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "tracker"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "tracker123"),
		PostgresDB:       getEnv("POSTGRES_DB", "cars_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		HTTPAddr: getEnv("HTTP_ADDR", ":5000"),

		Headless:   getEnvBool("HEADLESS", true),
		ChromeBin:  getEnv("CHROME_BIN", ""),
		CookieFile: getEnv("COOKIE_FILE", "facebook_cookies.json"),
		BaseURL:    getEnv("MARKETPLACE_BASE_URL", "https://www.facebook.com"),

		RegionCode: getEnv("REGION_CODE", "OH"),

		NavTimeoutSec:  getEnvInt("NAV_TIMEOUT_SECONDS", 60),
		WaitTimeoutSec: getEnvInt("WAIT_TIMEOUT_SECONDS", 10),

		ImageDir:       getEnv("IMAGE_DIR", "./output/images"),
		DownloadImages: getEnvBool("DOWNLOAD_IMAGES", false),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 2),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 2000),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),

		Debug: getEnvBool("DEBUG", false),
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

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
