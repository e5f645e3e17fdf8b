package logger

import (
	"testing"
)

func TestNewWithDefaultConfig(t *testing.T) {
	log, err := New(nil)
	if err != nil {
		t.Fatalf("New(nil) returned error: %v", err)
	}
	if log == nil {
		t.Fatal("New(nil) returned nil logger")
	}
	if log.Config().Level != "info" {
		t.Errorf("expected default level info, got %s", log.Config().Level)
	}
}

func TestNewWithInvalidLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "verbose"

	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

func TestNewWithInvalidOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output = "syslog"

	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for invalid output")
	}
}

func TestConfigValidateFileOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output = "file"
	cfg.File.Filename = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when file output has no filename")
	}
}

func TestGlobalLoggerFallback(t *testing.T) {
	globalLogger = nil
	if L() == nil {
		t.Fatal("L() should lazily create a default logger")
	}
}
