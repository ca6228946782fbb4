package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

type Config struct {
	Mode Mode

	Port string

	GCPProjectID string
	GCPLocation  string
	ModelName    string

	StorageBackend string // "memory" or "firestore"
	UseMockLLM     bool   // true = use the scripted client even on GCP
	PushEnabled    bool   // false = log pushes instead of sending

	JWTSecret string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

// Load reads .env (if present) and all env vars, and builds the config.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	modeStr := getEnv("KOKORON_MODE", "local")
	var mode Mode
	switch modeStr {
	case "gcp":
		mode = ModeGCP
	default:
		mode = ModeLocal
	}

	cfg := &Config{
		Mode: mode,

		Port: getEnv("PORT", "8080"),

		GCPProjectID: getEnv("KOKORON_GCP_PROJECT", ""),
		GCPLocation:  getEnv("KOKORON_GCP_LOCATION", "asia-northeast1"),
		ModelName:    getEnv("KOKORON_MODEL_NAME", "gemini-2.5-flash"),

		StorageBackend: getEnv("KOKORON_STORAGE_BACKEND", "memory"),
		UseMockLLM:     getBoolEnv("KOKORON_USE_MOCK_LLM", mode == ModeLocal),
		PushEnabled:    getBoolEnv("KOKORON_PUSH_ENABLED", mode == ModeGCP),

		JWTSecret: getEnv("KOKORON_JWT_SECRET", ""),
	}

	if cfg.Mode == ModeGCP && cfg.GCPProjectID == "" {
		log.Fatal("KOKORON_GCP_PROJECT must be set in gcp mode")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("KOKORON_JWT_SECRET must be set")
	}

	return cfg
}
