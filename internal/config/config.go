package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	StoryPath      string        `env:"VN_STORY"            envDefault:"data/dialogue.json"`
	AssetsDir      string        `env:"VN_ASSETS_DIR"       envDefault:"assets"`
	TypingInterval time.Duration `env:"VN_TYPING_INTERVAL"  envDefault:"30ms"`
	FadeDuration   time.Duration `env:"VN_FADE_DURATION"    envDefault:"500ms"`
	SkipGuard      time.Duration `env:"VN_SKIP_GUARD"       envDefault:"150ms"`
	LogFile        string        `env:"VN_LOG_FILE"         envDefault:"debug.log"`
	PreloadWorkers int           `env:"VN_PRELOAD_WORKERS"  envDefault:"4"`

	// Only the story generator needs these.
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"VN_GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
}

// LoadConfig loads the configuration from a .env file, if present, and then
// from environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the player cannot run with.
func (c *Config) Validate() error {
	if c.StoryPath == "" {
		return fmt.Errorf("VN_STORY must not be empty")
	}
	if c.TypingInterval <= 0 {
		return fmt.Errorf("VN_TYPING_INTERVAL must be positive, got %v", c.TypingInterval)
	}
	if c.FadeDuration < 0 {
		return fmt.Errorf("VN_FADE_DURATION must not be negative, got %v", c.FadeDuration)
	}
	if c.SkipGuard < 0 {
		return fmt.Errorf("VN_SKIP_GUARD must not be negative, got %v", c.SkipGuard)
	}
	if c.PreloadWorkers < 1 {
		return fmt.Errorf("VN_PRELOAD_WORKERS must be at least 1, got %d", c.PreloadWorkers)
	}
	return nil
}

// RequireGemini checks that the story generator can reach Gemini.
func (c *Config) RequireGemini() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}
	return nil
}
