package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration, loaded from environment
// variables (optionally via a .env file in development).
type Config struct {
	ServerPort string
	DataDir    string
	Env        string

	JWTSecret          string
	JWTExpirationHours int64

	SessionTimeout time.Duration

	SignupBonusPoints   int
	ListingRewardPoints int

	// AdminPhone and AdminPassword form the out-of-band admin
	// credential. There is no admin record in the users collection and
	// no default value: both must be provided explicitly.
	AdminPhone    string
	AdminPassword string
}

// Load reads configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DataDir:    getEnv("DATA_DIR", "data"),
		Env:        getEnv("APP_ENV", "development"),
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET_KEY")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY not set in environment")
	}

	cfg.AdminPhone = os.Getenv("ADMIN_PHONE")
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	if cfg.AdminPhone == "" || cfg.AdminPassword == "" {
		return nil, fmt.Errorf("ADMIN_PHONE and ADMIN_PASSWORD must be set in environment")
	}

	var err error
	cfg.JWTExpirationHours, err = getEnvInt64("JWT_EXPIRATION_HOURS", 24)
	if err != nil {
		return nil, err
	}

	timeoutSeconds, err := getEnvInt64("SESSION_TIMEOUT_SECONDS", 1800)
	if err != nil {
		return nil, err
	}
	cfg.SessionTimeout = time.Duration(timeoutSeconds) * time.Second

	signupBonus, err := getEnvInt64("SIGNUP_BONUS_POINTS", 0)
	if err != nil {
		return nil, err
	}
	cfg.SignupBonusPoints = int(signupBonus)

	listingReward, err := getEnvInt64("LISTING_REWARD_POINTS", 10)
	if err != nil {
		return nil, err
	}
	cfg.ListingRewardPoints = int(listingReward)

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
