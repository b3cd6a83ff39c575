package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, key := range []string{"VN_STORY", "VN_ASSETS_DIR", "VN_TYPING_INTERVAL", "VN_FADE_DURATION", "VN_SKIP_GUARD", "VN_LOG_FILE", "VN_PRELOAD_WORKERS", "GEMINI_API_KEY", "VN_GEMINI_MODEL"} {
		// Setenv restores the original value when the test ends.
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.StoryPath != "data/dialogue.json" {
		t.Errorf("Expected default story path, got %q", cfg.StoryPath)
	}
	if cfg.TypingInterval != 30*time.Millisecond {
		t.Errorf("Expected 30ms typing interval, got %v", cfg.TypingInterval)
	}
	if cfg.FadeDuration != 500*time.Millisecond || cfg.SkipGuard != 150*time.Millisecond {
		t.Errorf("Unexpected fade/skip defaults: %v %v", cfg.FadeDuration, cfg.SkipGuard)
	}
	if err := cfg.RequireGemini(); err == nil {
		t.Errorf("Expected missing Gemini key to be reported")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("VN_STORY", "stories/dreams.yaml")
	t.Setenv("VN_TYPING_INTERVAL", "10ms")
	t.Setenv("GEMINI_API_KEY", "key")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.StoryPath != "stories/dreams.yaml" || cfg.TypingInterval != 10*time.Millisecond {
		t.Errorf("Expected env overrides, got %+v", cfg)
	}
	if err := cfg.RequireGemini(); err != nil {
		t.Errorf("Expected Gemini key to be accepted, got %v", err)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("VN_TYPING_INTERVAL", "0s")
	if _, err := LoadConfig(); err == nil || !strings.Contains(err.Error(), "VN_TYPING_INTERVAL") {
		t.Errorf("Expected typing interval error, got %v", err)
	}

	t.Setenv("VN_TYPING_INTERVAL", "soon")
	if _, err := LoadConfig(); err == nil {
		t.Errorf("Expected parse error for bad duration")
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
