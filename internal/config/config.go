package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the configuration for the application.
type Config struct {
	// Storage
	StorageDriver string
	DatabasePath  string
	PostgresDSN   string
	DataDir       string
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	S3Prefix      string
	S3PathStyle   bool

	// Reference data
	CatalogPath      string
	CatalogURL       string
	RulesPath        string
	RulesURL         string
	CategoriesURL    string
	SubstitutionsURL string
	UnitAliasesURL   string
	PantryURL        string

	// Recipe clipping
	LLMProvider  string
	GeminiAPIKey string
	GeminiModel  string
	GroqAPIKey   string

	// Publishing
	GhostURL      string
	GhostAdminKey string

	// Telegram Config
	TelegramBotToken   string
	TelegramWebhookURL string
	AllowedUserIDs     []int64
	AdminTelegramID    int64

	Port          string
	DefaultBudget float64
}

// NewFromEnv creates a new Config object from environment variables. A .env
// file in the working directory is loaded first; variables already set in
// the environment win.
func NewFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		StorageDriver:      strings.ToLower(getEnv("STORAGE_DRIVER", "sqlite")),
		DatabasePath:       getEnv("DATABASE_PATH", "data/smartmeal.db"),
		PostgresDSN:        os.Getenv("POSTGRES_DSN"),
		DataDir:            getEnv("DATA_DIR", "data"),
		S3Bucket:           os.Getenv("S3_BUCKET"),
		S3Region:           getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:         os.Getenv("S3_ENDPOINT"),
		S3Prefix:           os.Getenv("S3_PREFIX"),
		CatalogPath:        os.Getenv("CATALOG_PATH"),
		CatalogURL:         os.Getenv("CATALOG_URL"),
		RulesPath:          os.Getenv("RULES_PATH"),
		RulesURL:           os.Getenv("RULES_URL"),
		CategoriesURL:      os.Getenv("CATEGORIES_URL"),
		SubstitutionsURL:   os.Getenv("SUBSTITUTIONS_URL"),
		UnitAliasesURL:     os.Getenv("UNIT_ALIASES_URL"),
		PantryURL:          os.Getenv("PANTRY_URL"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        os.Getenv("GEMINI_MODEL"),
		GroqAPIKey:         os.Getenv("GROQ_API_KEY"),
		GhostURL:           strings.TrimRight(os.Getenv("GHOST_API_URL"), "/"),
		GhostAdminKey:      os.Getenv("GHOST_ADMIN_API_KEY"),
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL: os.Getenv("TELEGRAM_WEBHOOK_URL"),
		Port:               getEnv("PORT", "8080"),
	}

	switch cfg.StorageDriver {
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("POSTGRES_DSN environment variable not set")
		}
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET environment variable not set")
		}
	}

	if v := os.Getenv("S3_PATH_STYLE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid S3_PATH_STYLE %q: %w", v, err)
		}
		cfg.S3PathStyle = b
	}

	cfg.LLMProvider = strings.ToLower(os.Getenv("LLM_PROVIDER"))
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "gemini"
		if cfg.GeminiAPIKey == "" && cfg.GroqAPIKey != "" {
			cfg.LLMProvider = "groq"
		}
	}

	if v := os.Getenv("DEFAULT_BUDGET"); v != "" {
		budget, err := strconv.ParseFloat(v, 64)
		if err != nil || budget < 0 {
			return nil, fmt.Errorf("invalid DEFAULT_BUDGET %q", v)
		}
		cfg.DefaultBudget = budget
	}

	ids, err := parseIDs(os.Getenv("TELEGRAM_ALLOWED_USER_IDS"))
	if err != nil {
		return nil, err
	}
	cfg.AllowedUserIDs = ids

	if v := os.Getenv("TELEGRAM_ADMIN_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_ADMIN_ID %q: %w", v, err)
		}
		cfg.AdminTelegramID = id
	}

	return cfg, nil
}

// CanClip reports whether a language model is configured for recipe clipping.
func (c *Config) CanClip() bool {
	switch c.LLMProvider {
	case "groq":
		return c.GroqAPIKey != ""
	default:
		return c.GeminiAPIKey != ""
	}
}

// CanPublish reports whether Ghost publishing is configured.
func (c *Config) CanPublish() bool {
	return c.GhostURL != "" && c.GhostAdminKey != ""
}

// IsAllowed reports whether a Telegram user may talk to the bot. An empty
// allow list admits everyone.
func (c *Config) IsAllowed(userID int64) bool {
	if len(c.AllowedUserIDs) == 0 || userID == c.AdminTelegramID {
		return true
	}
	for _, id := range c.AllowedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS entry %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
