package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the API and supporting services.
type Config struct {
	BotToken           string
	MySQLDSN           string
	AdminID            int64
	ListenAddr         string
	OhMyGPTAPIKey      string
	OhMyGPTBaseURL     string
	OhMyGPTModel       string
	OhMyGPTPremium     string
	RequestTimeout     time.Duration
	FreeRequestsOnJoin int
	// AllowDirectUserID accepts a raw user id from the X-User-Id header or the
	// user_id query parameter, bypassing initData signature verification.
	// Trusted/test deployments only; must stay false in production.
	AllowDirectUserID  bool
	YooMoneyReceiver   string
	YooMoneyQuickpay   string
	YooMoneySuccessURL string
	ForbiddenTopics    string
	GrantNotifications bool
}

// Load reads configuration from environment variables, applying sane defaults.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		ListenAddr:         getEnv("LISTEN_ADDR", ":8080"),
		OhMyGPTBaseURL:     getEnv("OHMYGPT_BASE_URL", "https://api.ohmygpt.com"),
		OhMyGPTModel:       getEnv("OHMYGPT_MODEL", "gpt-4o-mini"),
		OhMyGPTPremium:     getEnv("OHMYGPT_PREMIUM_MODEL", "gpt-4o"),
		RequestTimeout:     time.Second * time.Duration(getInt("HTTP_TIMEOUT_SECONDS", 90)),
		FreeRequestsOnJoin: getInt("FREE_REQUESTS_ON_JOIN", 3),
		AllowDirectUserID:  getBool("ALLOW_DIRECT_USER_ID", false),
		YooMoneyQuickpay:   getEnv("YOOMONEY_QUICKPAY_URL", "https://yoomoney.ru/quickpay/confirm.xml"),
		YooMoneySuccessURL: getEnv("YOOMONEY_SUCCESS_URL", "https://t.me"),
		ForbiddenTopics:    os.Getenv("FORBIDDEN_TOPICS"),
		GrantNotifications: getBool("GRANT_NOTIFICATIONS", true),
	}

	cfg.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.MySQLDSN = os.Getenv("MYSQL_DSN")
	cfg.AdminID = getInt64("ADMIN_ID", 0)
	cfg.OhMyGPTAPIKey = os.Getenv("OHMYGPT_API_KEY")
	cfg.YooMoneyReceiver = os.Getenv("YOOMONEY_RECEIVER")

	var missing []string
	if cfg.BotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if cfg.MySQLDSN == "" {
		missing = append(missing, "MYSQL_DSN")
	}
	if cfg.AdminID == 0 {
		missing = append(missing, "ADMIN_ID")
	}
	if cfg.OhMyGPTAPIKey == "" {
		missing = append(missing, "OHMYGPT_API_KEY")
	}
	if cfg.YooMoneyReceiver == "" {
		missing = append(missing, "YOOMONEY_RECEIVER")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %v", missing)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// loadEnvFile loads the first .env file found. Unlike a bot deployment the
// API can run on ambient environment alone, so a missing file is not fatal.
func loadEnvFile() error {
	candidates := []string{}
	if custom, ok := os.LookupEnv("CONFIG_ENV_PATH"); ok && custom != "" {
		candidates = append(candidates, custom)
	}
	candidates = append(candidates, filepath.Join("configs", ".env"), ".env")

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("access env file %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		if err := godotenv.Overload(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	return nil
}
