package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the gateway and supporting services.
type Config struct {
	ListenAddr        string
	MySQLDSN          string
	JWTSecret         string
	TokenTTL          time.Duration
	StartingCredits   int
	ClipDropAPIKey    string
	ClipDropBaseURL   string
	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayBaseURL   string
	PaymentCurrency   string
	RequestTimeout    time.Duration
}

// Load reads configuration from environment variables, applying sane defaults.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		ListenAddr:      getEnv("LISTEN_ADDR", ":4000"),
		TokenTTL:        time.Hour * time.Duration(getInt("TOKEN_TTL_HOURS", 168)),
		StartingCredits: getInt("STARTING_CREDITS", 5),
		ClipDropBaseURL: strings.TrimRight(getEnv("CLIPDROP_BASE_URL", "https://clipdrop-api.co"), "/"),
		RazorpayBaseURL: strings.TrimRight(getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com"), "/"),
		PaymentCurrency: getEnv("PAYMENT_CURRENCY", "INR"),
		RequestTimeout:  time.Second * time.Duration(getInt("HTTP_TIMEOUT_SECONDS", 60)),
	}

	cfg.MySQLDSN = os.Getenv("MYSQL_DSN")
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.ClipDropAPIKey = os.Getenv("CLIPDROP_API_KEY")
	cfg.RazorpayKeyID = os.Getenv("RAZORPAY_KEY_ID")
	cfg.RazorpayKeySecret = os.Getenv("RAZORPAY_KEY_SECRET")

	var missing []string
	if cfg.MySQLDSN == "" {
		missing = append(missing, "MYSQL_DSN")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if cfg.ClipDropAPIKey == "" {
		missing = append(missing, "CLIPDROP_API_KEY")
	}
	if cfg.RazorpayKeyID == "" {
		missing = append(missing, "RAZORPAY_KEY_ID")
	}
	if cfg.RazorpayKeySecret == "" {
		missing = append(missing, "RAZORPAY_KEY_SECRET")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %v", missing)
	}

	if cfg.StartingCredits < 0 {
		return Config{}, fmt.Errorf("STARTING_CREDITS must not be negative")
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

func loadEnvFile() error {
	candidates := []string{}
	if custom, ok := os.LookupEnv("CONFIG_ENV_PATH"); ok && custom != "" {
		candidates = append(candidates, custom)
	}
	candidates = append(candidates,
		filepath.Join("configs", ".env"),
		".env",
	)

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
	// No .env file is fine; environment-only configuration.
	return nil
}
