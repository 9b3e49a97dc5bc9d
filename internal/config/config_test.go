package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadFromDir_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TELECOST_PORT", "")
	t.Setenv("TELECOST_DATA_DIR", "")
	t.Setenv("TELECOST_LOG_LEVEL", "")
	t.Setenv("TELECOST_MAX_UPLOAD_MB", "")

	cfg, info, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("LoadFromDir: %v", err)
	}
	if info.PortSpecified {
		t.Fatalf("port should not be specified")
	}
	if *cfg != *DefaultConfig() {
		t.Fatalf("cfg=%+v, want defaults", cfg)
	}
}

func TestLoadFromDir_TomlAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TELECOST_PORT", "")
	t.Setenv("TELECOST_DATA_DIR", "")
	t.Setenv("TELECOST_MAX_UPLOAD_MB", "")
	t.Setenv("TELECOST_LOG_LEVEL", "debug")

	writeFile(t, filepath.Join(dir, "config.toml"), `
[server]
port = 8088
dev_mode = true

[data]
data_dir = "/var/lib/telecost"

[import]
max_upload_mb = 5

[log]
level = "warn"
pretty = true
`)

	cfg, info, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("LoadFromDir: %v", err)
	}
	if !info.PortSpecified || cfg.Server.Port != 8088 || !cfg.Server.DevMode {
		t.Fatalf("unexpected server config: %+v info=%+v", cfg.Server, info)
	}
	if cfg.Data.DataDir != "/var/lib/telecost" || cfg.Import.MaxUploadMB != 5 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.Pretty {
		t.Fatalf("env override not applied: %+v", cfg.Log)
	}
	if got := cfg.Import.MaxUploadBytes(); got != 5<<20 {
		t.Fatalf("MaxUploadBytes=%d", got)
	}
}

func TestLoadFromDir_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TELECOST_PORT", "")
	t.Setenv("TELECOST_DATA_DIR", "")
	t.Setenv("TELECOST_LOG_LEVEL", "")
	t.Setenv("TELECOST_MAX_UPLOAD_MB", "")
	// godotenv 不覆盖已存在的变量
	os.Unsetenv("TELECOST_MAX_UPLOAD_MB")
	writeFile(t, filepath.Join(dir, ".env"), "TELECOST_MAX_UPLOAD_MB=7\n")

	cfg, _, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("LoadFromDir: %v", err)
	}
	if cfg.Import.MaxUploadMB != 7 {
		t.Fatalf("MaxUploadMB=%d, want 7 from .env", cfg.Import.MaxUploadMB)
	}
}

func TestLoadFromDir_InvalidPort(t *testing.T) {
	t.Setenv("TELECOST_PORT", "eighty")

	if _, _, err := LoadFromDir(t.TempDir()); err == nil {
		t.Fatalf("expected error for invalid port")
	}
}

func TestEnsureDataDir(t *testing.T) {
	t.Parallel()

	dataDir := filepath.Join(t.TempDir(), "data")
	cfg := DefaultConfig()
	cfg.Data.DataDir = dataDir

	got, err := EnsureDataDir(cfg)
	if err != nil {
		t.Fatalf("EnsureDataDir: %v", err)
	}
	if got != dataDir {
		t.Fatalf("dataDir=%s, want %s", got, dataDir)
	}
	if st, err := os.Stat(UploadDir(got)); err != nil || !st.IsDir() {
		t.Fatalf("uploads dir missing: %v", err)
	}
	if DBPath(got) != filepath.Join(dataDir, "telecost.db") {
		t.Fatalf("DBPath=%s", DBPath(got))
	}
}

func TestNewLogger_Level(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn"}, &buf)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected log output: %s", out)
	}
	if NewLogger(LogConfig{Level: "nope"}, &buf).GetLevel() != zerolog.InfoLevel {
		t.Fatalf("invalid level should fall back to info")
	}
}
