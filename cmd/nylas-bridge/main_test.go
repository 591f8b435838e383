package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{level: "debug", wantDebug: true, wantInfo: true},
		{level: "info", wantDebug: false, wantInfo: true},
		{level: "warn", wantDebug: false, wantInfo: false},
		{level: "bogus", wantDebug: false, wantInfo: true},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		setupLogger(tt.level, &buf)

		ctx := context.Background()
		if got := slog.Default().Enabled(ctx, slog.LevelDebug); got != tt.wantDebug {
			t.Errorf("level %q debug enabled: got %v, want %v", tt.level, got, tt.wantDebug)
		}
		if got := slog.Default().Enabled(ctx, slog.LevelInfo); got != tt.wantInfo {
			t.Errorf("level %q info enabled: got %v, want %v", tt.level, got, tt.wantInfo)
		}

		slog.Error("probe")
		if !strings.Contains(buf.String(), `"msg":"probe"`) {
			t.Errorf("level %q: expected JSON output, got %q", tt.level, buf.String())
		}
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "nylas:\n  api_key: file-key\n  grant_id: file-grant\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("NYLAS_API_KEY", "")
	t.Setenv("NYLAS_GRANT_ID", "")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.NylasConfigured() {
		t.Error("expected Nylas to be configured from file")
	}
	if cfg.Nylas.APIKey != "file-key" {
		t.Errorf("APIKey: got %q, want %q", cfg.Nylas.APIKey, "file-key")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := loadConfig("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}
