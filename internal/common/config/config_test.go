package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AlibekovAA/sessionauth/internal/common/constants"
	commonerrors "github.com/AlibekovAA/sessionauth/internal/common/errors"
)

func clearAuthEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AUTH_ENV_FILE", "STORAGE_DRIVER", "DATABASE_URL", "AUTH_HTTP_PORT", "AUTH_RUN_MIGRATIONS",
		"AUTH_REQUEST_TIMEOUT", "BCRYPT_COST", "HASH_CONCURRENCY", "SESSION_COOKIE_NAME",
		"SESSION_COOKIE_SECURE", "LOG_DIR", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("AUTH_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadAuthConfig_MemoryDefaults(t *testing.T) {
	clearAuthEnv(t)
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := LoadAuthConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.StorageDriver != StorageDriverMemory {
		t.Errorf("expected memory driver, got %s", cfg.StorageDriver)
	}
	if cfg.HTTPPort != constants.DefaultAuthHTTPPort {
		t.Errorf("expected default port, got %s", cfg.HTTPPort)
	}
	if cfg.RequestTimeout != constants.DefaultAuthRequestTimeout {
		t.Errorf("expected default timeout, got %v", cfg.RequestTimeout)
	}
	if cfg.BcryptCost != constants.DefaultBcryptCost {
		t.Errorf("expected default bcrypt cost, got %d", cfg.BcryptCost)
	}
	if cfg.SessionCookieName != constants.DefaultSessionCookieName {
		t.Errorf("expected default cookie name, got %s", cfg.SessionCookieName)
	}
	if !cfg.RunMigrations {
		t.Error("expected migrations to be enabled by default")
	}
	if cfg.HashConcurrency <= 0 {
		t.Errorf("expected positive hash concurrency, got %d", cfg.HashConcurrency)
	}
}

func TestLoadAuthConfig_PostgresRequiresDatabaseURL(t *testing.T) {
	clearAuthEnv(t)

	_, err := LoadAuthConfig()
	if !errors.Is(err, commonerrors.ErrMissingRequiredEnv) {
		t.Fatalf("expected ErrMissingRequiredEnv, got %v", err)
	}
}

func TestLoadAuthConfig_UnknownDriver(t *testing.T) {
	clearAuthEnv(t)
	t.Setenv("STORAGE_DRIVER", "mongo")

	_, err := LoadAuthConfig()
	if !errors.Is(err, commonerrors.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadAuthConfig_Overrides(t *testing.T) {
	clearAuthEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/auth")
	t.Setenv("AUTH_HTTP_PORT", "9000")
	t.Setenv("AUTH_REQUEST_TIMEOUT", "2s")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("HASH_CONCURRENCY", "2")
	t.Setenv("SESSION_COOKIE_SECURE", "true")
	t.Setenv("AUTH_RUN_MIGRATIONS", "false")

	cfg, err := LoadAuthConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DatabaseURL != "postgres://localhost/auth" {
		t.Errorf("unexpected database url %s", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != "9000" {
		t.Errorf("expected port 9000, got %s", cfg.HTTPPort)
	}
	if cfg.RequestTimeout != 2*time.Second {
		t.Errorf("expected 2s, got %v", cfg.RequestTimeout)
	}
	if cfg.BcryptCost != 10 {
		t.Errorf("expected cost 10, got %d", cfg.BcryptCost)
	}
	if cfg.HashConcurrency != 2 {
		t.Errorf("expected concurrency 2, got %d", cfg.HashConcurrency)
	}
	if !cfg.SessionCookieSecure {
		t.Error("expected secure cookie")
	}
	if cfg.RunMigrations {
		t.Error("expected migrations disabled")
	}
}

func TestLoadAuthConfig_InvalidValuesFallBack(t *testing.T) {
	clearAuthEnv(t)
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("AUTH_REQUEST_TIMEOUT", "soon")
	t.Setenv("BCRYPT_COST", "99")
	t.Setenv("HASH_CONCURRENCY", "-1")
	t.Setenv("SESSION_COOKIE_SECURE", "maybe")

	cfg, err := LoadAuthConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.RequestTimeout != constants.DefaultAuthRequestTimeout {
		t.Errorf("expected default timeout, got %v", cfg.RequestTimeout)
	}
	if cfg.BcryptCost != constants.DefaultBcryptCost {
		t.Errorf("expected default cost, got %d", cfg.BcryptCost)
	}
	if cfg.HashConcurrency <= 0 {
		t.Errorf("expected positive concurrency, got %d", cfg.HashConcurrency)
	}
	if cfg.SessionCookieSecure {
		t.Error("expected insecure cookie fallback")
	}
}

func TestLoadAuthConfig_EnvFile(t *testing.T) {
	clearAuthEnv(t)
	os.Unsetenv("STORAGE_DRIVER")
	os.Unsetenv("AUTH_HTTP_PORT")

	path := filepath.Join(t.TempDir(), "auth.env")
	content := "STORAGE_DRIVER=memory\nAUTH_HTTP_PORT=7070\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("AUTH_ENV_FILE", path)
	t.Cleanup(func() {
		os.Unsetenv("STORAGE_DRIVER")
		os.Unsetenv("AUTH_HTTP_PORT")
	})

	cfg, err := LoadAuthConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StorageDriver != StorageDriverMemory {
		t.Errorf("expected driver from env file, got %s", cfg.StorageDriver)
	}
	if cfg.HTTPPort != "7070" {
		t.Errorf("expected port from env file, got %s", cfg.HTTPPort)
	}
}
