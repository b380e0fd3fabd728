package config

import (
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	BotToken        string
	AdminTelegramID int64
	SessionSecret   string
	HTTPAddr        string
	SeedFile        string
}

// Telegram bot tokens look like 123456789:ABCdefGhIJKlmNoPQRsTUVwxyZ.
var tokenPattern = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)

// ValidBotToken reports whether tok can be used to start polling. Placeholder
// tokens containing "..." (the masked form the dashboard returns) never pass.
func ValidBotToken(tok string) bool {
	if tok == "" || strings.Contains(tok, "...") {
		return false
	}
	return tokenPattern.MatchString(tok)
}

// Load reads configuration from .env / environment variables. A missing or
// invalid BOT_TOKEN is not fatal: the shop runs in demo mode with polling
// disabled and only the dashboard API active.
func Load() *AppConfig {
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, relying on environment variables")
	}

	cfg := &AppConfig{
		BotToken:      os.Getenv("BOT_TOKEN"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		HTTPAddr:      os.Getenv("HTTP_ADDR"),
		SeedFile:      os.Getenv("SEED_FILE"),
	}

	if raw := os.Getenv("ADMIN_TELEGRAM_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			log.Printf("invalid ADMIN_TELEGRAM_ID %q, admin notifications disabled", raw)
		} else {
			cfg.AdminTelegramID = id
		}
	}

	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.SessionSecret == "" {
		log.Println("SESSION_SECRET not set, using insecure default")
		cfg.SessionSecret = "bot-shop-secret"
	}

	return cfg
}
