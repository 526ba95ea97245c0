package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SECRET_KEY", "")
	t.Setenv("CSRF_TTL", "12h")
	t.Setenv("RATE_LIMIT_MESSAGE", "5s")
	t.Setenv("BCRYPT_COST", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SecretKey == "" {
		t.Error("development should fall back to a secret key")
	}
	if cfg.CSRFTTL != 12*time.Hour {
		t.Errorf("CSRFTTL = %v", cfg.CSRFTTL)
	}
	if cfg.RateLimitMessage != 5*time.Second {
		t.Errorf("RateLimitMessage = %v", cfg.RateLimitMessage)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("CSRF_TTL", "soon")
	if _, err := Load(); err == nil {
		t.Error("expected error for invalid CSRF_TTL")
	}

	t.Setenv("CSRF_TTL", "1h")
	t.Setenv("BCRYPT_COST", "high")
	if _, err := Load(); err == nil {
		t.Error("expected error for invalid BCRYPT_COST")
	}
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SECRET_KEY", "")
	if _, err := Load(); err == nil {
		t.Error("production without SECRET_KEY should fail")
	}
}
