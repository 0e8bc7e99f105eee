package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalizeDefaultsToLongpoll(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "t", RunMode: " Polling "}}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q, want %q", cfg.Telegram.RunMode, RunModeLongpoll)
	}
}

func TestNormalizeRejects(t *testing.T) {
	cases := map[string]Config{
		"missing token":    {},
		"unknown run mode": {Telegram: TelegramConfig{Token: "t", RunMode: "push"}},
		"webhook no url":   {Telegram: TelegramConfig{Token: "t", RunMode: "webhook"}},
		"negative timeout": {Telegram: TelegramConfig{Token: "t", LongPollTimeoutSeconds: -1}},
		"negative workers": {Telegram: TelegramConfig{Token: "t"}, Sender: SenderConfig{Workers: -2}},
	}
	for name, cfg := range cases {
		cfg := cfg
		if err := Normalize(&cfg); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadOverlaysEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := strings.Join([]string{
		"telegram:",
		"  token: from-file",
		"  operator_chat_id: 42",
		"metrics:",
		"  listen: ':9100'",
	}, "\n")
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("BOT_TOKEN", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Fatalf("token = %q, want env override", cfg.Telegram.Token)
	}
	if cfg.Telegram.OperatorChatID != 42 {
		t.Fatalf("operator chat = %d, want 42", cfg.Telegram.OperatorChatID)
	}
	if cfg.Metrics.Listen != ":9100" {
		t.Fatalf("metrics listen = %q", cfg.Metrics.Listen)
	}
}
