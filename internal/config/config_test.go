package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DSN", "REDIS_ADDR", "CHAT_HISTORY", "COOKIE_SECURE", "WEBHOOK_SECRET"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "8080" || cfg.DBDSN != "encore.db" || cfg.ChatHistory != 200 || cfg.CookieSecure {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.RedisAddr != "" {
		t.Fatalf("redis should be off by default: %q", cfg.RedisAddr)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CHAT_HISTORY", "50")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("WEBHOOK_SECRET", "whsec")
	cfg := Load()
	if cfg.Port != "9090" || cfg.RedisAddr != "localhost:6379" || cfg.ChatHistory != 50 || !cfg.CookieSecure || cfg.WebhookSecret != "whsec" {
		t.Fatalf("overrides = %+v", cfg)
	}

	t.Setenv("CHAT_HISTORY", "-3")
	if Load().ChatHistory != 200 {
		t.Fatal("negative history should fall back to default")
	}
}
