package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestSetLevel(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)

	tests := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{"INFO", log.InfoLevel},
		{"warn", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"", log.InfoLevel},
		{"loud", log.InfoLevel},
	}
	for _, tt := range tests {
		SetLevel(tt.in)
		if got := log.GetLevel(); got != tt.want {
			t.Errorf("SetLevel(%q): want %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestSetupWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")
	closer, err := Setup("debug", path)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer log.SetOutput(os.Stderr)

	log.Debugf("[test] hello %s", "file")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "[test] hello file") {
		t.Errorf("want message in log file, got %q", data)
	}
}
