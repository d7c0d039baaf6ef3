package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWithOutput_JSONWithServiceField(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")

	var buf bytes.Buffer
	log := NewWithOutput("bookshelf-api", &buf)
	log.Info("hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["service"] != "bookshelf-api" {
		t.Errorf("expected service 'bookshelf-api', got %v", entry["service"])
	}
	if entry["msg"] != "hello" {
		t.Errorf("expected msg 'hello', got %v", entry["msg"])
	}
}

func TestNewWithOutput_RespectsLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")

	var buf bytes.Buffer
	log := NewWithOutput("svc", &buf)
	log.Info("dropped")
	log.Debug("dropped")

	if buf.Len() != 0 {
		t.Errorf("expected info/debug to be filtered at warn level, got %q", buf.String())
	}

	log.Warn("kept")
	if buf.Len() == 0 {
		t.Error("expected warn entry to be written")
	}
}

func TestNewWithOutput_InvalidLevelFallsBackToInfo(t *testing.T) {
	t.Setenv("LOG_LEVEL", "chatty")

	var buf bytes.Buffer
	log := NewWithOutput("svc", &buf)
	log.Debug("dropped")
	if buf.Len() != 0 {
		t.Errorf("expected debug to be filtered, got %q", buf.String())
	}
	log.Info("kept")
	if buf.Len() == 0 {
		t.Error("expected info entry to be written")
	}
}
