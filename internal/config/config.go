package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port          string
	DBDSN         string
	MediaDir      string
	LogFile       string
	TemplatesDir  string
	WebhookSecret string
	RedisAddr     string
	ChatHistory   int
	CookieSecure  bool
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return def
	}
	return b
}

func Load() Config {
	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		DBDSN:         getEnv("DB_DSN", "encore.db"), // sqlite file in project root
		MediaDir:      getEnv("MEDIA_DIR", "./web/media"),
		LogFile:       getEnv("LOG_FILE", "./encore.log"),
		TemplatesDir:  getEnv("TEMPLATES_DIR", "./web/templates"),
		WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		ChatHistory:   getInt("CHAT_HISTORY", 200),
		CookieSecure:  getBool("COOKIE_SECURE", false),
	}
	// never log the webhook secret itself
	log.Printf("[config] PORT=%s DB_DSN=%s MEDIA_DIR=%s LOG_FILE=%s TEMPLATES_DIR=%s REDIS_ADDR=%q CHAT_HISTORY=%d webhook_secret_set=%t",
		cfg.Port, cfg.DBDSN, cfg.MediaDir, cfg.LogFile, cfg.TemplatesDir, cfg.RedisAddr, cfg.ChatHistory, cfg.WebhookSecret != "")
	return cfg
}
