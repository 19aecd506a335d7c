package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWithWriterFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(zapcore.WarnLevel, &buf)
	log.Info("quiet")
	log.Warn("no route", zap.String("transport", "T1"))
	_ = log.Sync()

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Fatalf("info logged at warn level: %q", out)
	}
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "no route") || !strings.Contains(out, "T1") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestNewWritesFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "server.log")
	log, err := New(Config{Level: "debug", File: p, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	log.Debug("hello file")
	_ = log.Sync()
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), "hello file") {
		t.Fatalf("file=%q", b)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Fatalf("expected error")
	}
}
