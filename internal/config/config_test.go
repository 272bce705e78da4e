package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.URL != DefaultURL {
		t.Errorf("want url %q, got %q", DefaultURL, cfg.URL)
	}
	if cfg.Limit != DefaultLimit {
		t.Errorf("want limit %d, got %d", DefaultLimit, cfg.Limit)
	}
	if cfg.HTTP.Timeout != 30*time.Second {
		t.Errorf("want 30s timeout, got %v", cfg.HTTP.Timeout)
	}
	if !cfg.Clipboard.OSC52 || !cfg.UI.DaySeparators {
		t.Errorf("want osc52 and day separators enabled, got %+v", cfg)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("want info level, got %q", cfg.Log.Level)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "apilog.yaml")
	content := "url: http://files.test/logs/ui\nlimit: 50\nhttp:\n  timeout: 5s\nui:\n  day_separators: false\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("APILOG_LIMIT", "75")
	t.Setenv("APILOG_LOG_LEVEL", "debug")

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.URL != "http://files.test/logs/ui" {
		t.Errorf("want url from file, got %q", cfg.URL)
	}
	if cfg.Limit != 75 {
		t.Errorf("want env to override file limit, got %d", cfg.Limit)
	}
	if cfg.HTTP.Timeout != 5*time.Second {
		t.Errorf("want 5s timeout, got %v", cfg.HTTP.Timeout)
	}
	if cfg.UI.DaySeparators {
		t.Error("want day separators disabled by file")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("want debug level from env, got %q", cfg.Log.Level)
	}
	if cfg.File != path {
		t.Errorf("want config file %q, got %q", path, cfg.File)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("APILOG_URL=http://dotenv.test/api\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("APILOG_URL") })

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.URL != "http://dotenv.test/api" {
		t.Errorf("want url from .env, got %q", cfg.URL)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	chdir(t, t.TempDir())
	if _, err := Load(viper.New(), "nope.yaml"); err == nil {
		t.Error("want error for a missing config file")
	}
}

func TestLoadInvalidLimit(t *testing.T) {
	chdir(t, t.TempDir())
	v := viper.New()
	v.Set("limit", -4)
	cfg, err := Load(v, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Limit != DefaultLimit {
		t.Errorf("want default limit, got %d", cfg.Limit)
	}
}
