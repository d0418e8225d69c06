package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalizeDefaults(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "x", RunMode: " Polling "}}
	cfg.RateLimit.ExcludeUpdates = []string{" Callback "}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q, want %q", cfg.Telegram.RunMode, RunModeLongpoll)
	}
	if cfg.RateLimit.ExcludeUpdates[0] != UpdateCallback {
		t.Fatalf("exclude = %q", cfg.RateLimit.ExcludeUpdates[0])
	}
}

func TestNormalizeErrors(t *testing.T) {
	cases := map[string]Config{
		"missing token": {},
		"bad run mode":  {Telegram: TelegramConfig{Token: "x", RunMode: "carrier-pigeon"}},
		"webhook url":   {Telegram: TelegramConfig{Token: "x", RunMode: RunModeWebhook}},
		"negative poll": {Telegram: TelegramConfig{Token: "x", LongPollTimeoutSeconds: -1}},
		"negative workers": {
			Telegram: TelegramConfig{Token: "x"},
			Sender:   SenderConfig{Workers: -1},
		},
		"bad exclude": {
			Telegram:  TelegramConfig{Token: "x"},
			RateLimit: RateLimitConfig{ExcludeUpdates: []string{"inline"}},
		},
	}
	for name, cfg := range cases {
		cfg := cfg
		if err := Normalize(&cfg); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if err := Normalize(nil); err == nil {
		t.Error("nil config: expected error")
	}
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := strings.Join([]string{
		"telegram:",
		"  token: from-yaml",
		"  run_mode: longpoll",
		"logging:",
		"  level: info",
	}, "\n")
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Fatalf("token = %q, want from-env", cfg.Telegram.Token)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
