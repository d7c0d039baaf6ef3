package redis

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), Config{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("expected ping to succeed: %v", err)
	}
	if client.GetClient() == nil {
		t.Error("expected underlying client")
	}
	if client.Addr() != mr.Addr() {
		t.Errorf("expected addr %s, got %s", mr.Addr(), client.Addr())
	}
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisClient(ctx, Config{Addr: addr})
	if err == nil {
		t.Fatal("expected error connecting to a closed server")
	}
	if !strings.Contains(err.Error(), addr) {
		t.Errorf("expected error to name %s, got %v", addr, err)
	}
}

func TestPing_ReportsAddressWhenServerGoesAway(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), Config{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = client.Ping(ctx)
	if err == nil {
		t.Fatal("expected ping to fail")
	}
	if !strings.Contains(err.Error(), addr) {
		t.Errorf("expected error to name %s, got %v", addr, err)
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		parts []string
		want  string
	}{
		{nil, "bookshelf"},
		{[]string{"ratelimit", "192.0.2.1"}, "bookshelf:ratelimit:192.0.2.1"},
		{[]string{"lock", "", "migrate"}, "bookshelf:lock:migrate"},
	}

	for _, tt := range tests {
		if got := Key(tt.parts...); got != tt.want {
			t.Errorf("Key(%v) = %q, want %q", tt.parts, got, tt.want)
		}
	}

	if got := Namespace("cache"); got != "bookshelf:cache:" {
		t.Errorf("Namespace(cache) = %q", got)
	}
	if MigrateLockKey != "bookshelf:lock:migrate" {
		t.Errorf("unexpected migrate lock key %q", MigrateLockKey)
	}
}
