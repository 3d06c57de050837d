package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	APIBaseURL    string
	TerminalID    string
	StoreName     string
	StorePhone    string
	DataDir       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Optional operator credentials for non-interactive login.
	Username string
	Password string

	// Catalog freshness policy. The exact values are operator policy,
	// not tuned for any specific scanner hardware.
	PollInterval     time.Duration
	QuietWindow      time.Duration
	ProductsPageSize int

	// Minimum input length before an exact barcode match auto-selects.
	ExactCodeMinLength int

	PrintRetryDelays  []time.Duration
	PrintCloseTimeout time.Duration
}

// profile is the optional YAML terminal profile (VICTORIA_PROFILE).
// Environment variables take precedence over profile values.
type profile struct {
	APIBaseURL string `yaml:"api_base_url"`
	TerminalID string `yaml:"terminal_id"`
	StoreName  string `yaml:"store_name"`
	StorePhone string `yaml:"store_phone"`
	DataDir    string `yaml:"data_dir"`
	RedisAddr  string `yaml:"redis_addr"`
}

func Load() Config {
	// .env is optional; missing file is not an error.
	_ = godotenv.Load()

	var p profile
	if path := strings.TrimSpace(os.Getenv("VICTORIA_PROFILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Printf("[config] profile %s unreadable: %v", path, err)
		} else if err := yaml.Unmarshal(raw, &p); err != nil {
			log.Printf("[config] profile %s invalid: %v", path, err)
		}
	}

	cfg := Config{
		APIBaseURL:         getEnv("API_BASE_URL", defaultString(p.APIBaseURL, "http://127.0.0.1:5000/api")),
		TerminalID:         getEnv("TERMINAL_ID", defaultString(p.TerminalID, "terminal-1")),
		StoreName:          getEnv("STORE_NAME", defaultString(p.StoreName, "Victoria Store")),
		StorePhone:         getEnv("STORE_PHONE", p.StorePhone),
		DataDir:            getEnv("DATA_DIR", defaultString(p.DataDir, ".")),
		RedisAddr:          getEnv("REDIS_ADDR", p.RedisAddr),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		Username:           os.Getenv("POS_USERNAME"),
		Password:           os.Getenv("POS_PASSWORD"),
		PollInterval:       getEnvDuration("CATALOG_POLL_INTERVAL", 3*time.Second),
		QuietWindow:        getEnvDuration("CATALOG_QUIET_WINDOW", 30*time.Second),
		ProductsPageSize:   getEnvInt("PRODUCTS_PAGE_SIZE", 1000),
		ExactCodeMinLength: getEnvInt("EXACT_CODE_MIN_LENGTH", 8),
		PrintRetryDelays:   []time.Duration{time.Second, 3 * time.Second},
		PrintCloseTimeout:  getEnvDuration("PRINT_CLOSE_TIMEOUT", 15*time.Second),
	}

	if cfg.PollInterval < time.Second {
		cfg.PollInterval = time.Second
	}
	if cfg.QuietWindow < cfg.PollInterval {
		cfg.QuietWindow = cfg.PollInterval
	}
	if cfg.ExactCodeMinLength < 1 {
		cfg.ExactCodeMinLength = 8
	}
	if cfg.ProductsPageSize < 1 {
		cfg.ProductsPageSize = 1000
	}

	return cfg
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getEnvInt(key string, fallback int) int {
	val, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return val
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val, err := time.ParseDuration(os.Getenv(key))
	if err != nil || val <= 0 {
		return fallback
	}
	return val
}

func defaultString(val string, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}
