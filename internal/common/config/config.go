package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/AlibekovAA/sessionauth/internal/common/constants"
	commonerrors "github.com/AlibekovAA/sessionauth/internal/common/errors"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type AuthConfig struct {
	HTTPPort            string
	StorageDriver       string
	DatabaseURL         string
	RunMigrations       bool
	RequestTimeout      time.Duration
	BcryptCost          int
	HashConcurrency     int
	SessionCookieName   string
	SessionCookieSecure bool
	LogDir              string
	LogLevel            string
}

// LoadEnvFile seeds the process environment from path. Variables that are
// already set are left alone, and a missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func LoadAuthConfig() (AuthConfig, error) {
	if err := LoadEnvFile(os.Getenv("AUTH_ENV_FILE")); err != nil {
		return AuthConfig{}, err
	}

	driver := strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverPostgres))
	if driver != StorageDriverPostgres && driver != StorageDriverMemory {
		return AuthConfig{}, commonerrors.ErrInvalidConfig.WithCause(
			fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageDriverPostgres, StorageDriverMemory, driver),
		)
	}

	var databaseURL string
	if driver == StorageDriverPostgres {
		v, err := mustEnv("DATABASE_URL")
		if err != nil {
			return AuthConfig{}, err
		}
		databaseURL = v
	}

	return AuthConfig{
		HTTPPort:            getEnv("AUTH_HTTP_PORT", constants.DefaultAuthHTTPPort),
		StorageDriver:       driver,
		DatabaseURL:         databaseURL,
		RunMigrations:       getBoolEnv("AUTH_RUN_MIGRATIONS", true),
		RequestTimeout:      getDurationEnv("AUTH_REQUEST_TIMEOUT", constants.DefaultAuthRequestTimeout),
		BcryptCost:          bcryptCost(getIntEnv("BCRYPT_COST", constants.DefaultBcryptCost)),
		HashConcurrency:     positive(getIntEnv("HASH_CONCURRENCY", runtime.NumCPU()), runtime.NumCPU()),
		SessionCookieName:   getEnv("SESSION_COOKIE_NAME", constants.DefaultSessionCookieName),
		SessionCookieSecure: getBoolEnv("SESSION_COOKIE_SECURE", false),
		LogDir:              os.Getenv("LOG_DIR"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}, nil
}

func bcryptCost(v int) int {
	if v < bcrypt.MinCost || v > bcrypt.MaxCost {
		return constants.DefaultBcryptCost
	}
	return v
}

func positive(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", commonerrors.ErrMissingRequiredEnv.WithCause(fmt.Errorf("%s is not set", key))
	}
	return v, nil
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getIntEnv(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getBoolEnv(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
