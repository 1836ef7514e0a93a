package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "LOG_LEVEL", "MARKET_ADDR", "DATABASE_URL", "STORE", "DB_TIMEOUT", "LOCK_TTL", "CHECKOUT_MAX_CONCURRENT"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr :8080, got %q", cfg.Addr)
	}
	if cfg.Store != StoreMemory {
		t.Fatalf("expected memory store without DATABASE_URL, got %q", cfg.Store)
	}
	if cfg.CheckoutMaxConcurrent != 10 {
		t.Fatalf("expected default concurrency 10, got %d", cfg.CheckoutMaxConcurrent)
	}
	if cfg.DBTimeout != 5*time.Second {
		t.Fatalf("unexpected db timeout %v", cfg.DBTimeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/market")
	t.Setenv("STORE", "")
	t.Setenv("CHECKOUT_MAX_CONCURRENT", "3")
	t.Setenv("LOCK_TTL", "2s")
	t.Setenv("APP_ENV", "production")

	cfg := Load()
	if cfg.Store != StorePostgres {
		t.Fatalf("expected postgres store when DATABASE_URL is set, got %q", cfg.Store)
	}
	if cfg.CheckoutMaxConcurrent != 3 {
		t.Fatalf("expected 3, got %d", cfg.CheckoutMaxConcurrent)
	}
	if cfg.LockTTL != 2*time.Second {
		t.Fatalf("expected 2s, got %v", cfg.LockTTL)
	}
	if !cfg.IsProduction() {
		t.Fatalf("expected production env")
	}
}
