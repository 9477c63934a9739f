package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.BaseURL != "http://localhost:8000" {
		t.Errorf("base_url = %q", cfg.Server.BaseURL)
	}
	if cfg.Server.Timeout != 10*time.Second {
		t.Errorf("timeout = %v", cfg.Server.Timeout)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" || cfg.Log.Output != "stderr" {
		t.Errorf("log defaults = %+v", cfg.Log)
	}
	if cfg.Chat.DeepThinkingMode || cfg.Chat.SearchBeforePlanning || cfg.Chat.Debug {
		t.Errorf("chat defaults = %+v", cfg.Chat)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  base_url: https://manus.example.com/api-root
  timeout: 30s
chat:
  deep_thinking_mode: true
log:
  level: debug
  format: json
  output: file
  file_path: /tmp/manusctl.log
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.BaseURL != "https://manus.example.com/api-root" {
		t.Errorf("base_url = %q", cfg.Server.BaseURL)
	}
	if cfg.Server.Timeout != 30*time.Second {
		t.Errorf("timeout = %v", cfg.Server.Timeout)
	}
	if !cfg.Chat.DeepThinkingMode {
		t.Error("deep_thinking_mode not applied")
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" || cfg.Log.FilePath != "/tmp/manusctl.log" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad log level", content: "log:\n  level: loud\n"},
		{name: "bad log format", content: "log:\n  format: xml\n"},
		{name: "file output without path", content: "log:\n  output: file\n"},
		{name: "zero timeout", content: "server:\n  timeout: 0s\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}
