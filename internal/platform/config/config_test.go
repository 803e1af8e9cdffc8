package config

import (
	"testing"
	"time"
)

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("GHG_HTTP_ADDR", ":9999")
	t.Setenv("GHG_TICK_RATE", "250ms")
	t.Setenv("GHG_CLIENT_BUFFER", "32")
	t.Setenv("GHG_SEED", "42")
	t.Setenv("GHG_EVENT_RETENTION", "500")

	cfg, invalid := FromEnv()
	if len(invalid) != 0 {
		t.Fatalf("unexpected invalid keys: %v", invalid)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Errorf("HTTPAddr = %q, want :9999", cfg.HTTPAddr)
	}
	if cfg.TickRate != 250*time.Millisecond {
		t.Errorf("TickRate = %v, want 250ms", cfg.TickRate)
	}
	if cfg.ClientSendBuffer != 32 {
		t.Errorf("ClientSendBuffer = %d, want 32", cfg.ClientSendBuffer)
	}
	if cfg.EventRetention != 500 {
		t.Errorf("EventRetention = %d, want 500", cfg.EventRetention)
	}
	if cfg.ResolveSeed() != 42 {
		t.Errorf("ResolveSeed = %d, want 42", cfg.ResolveSeed())
	}
}

func TestFromEnvKeepsDefaultsOnGarbage(t *testing.T) {
	t.Setenv("GHG_TICK_RATE", "soon")
	t.Setenv("GHG_RATE_LIMIT", "-3")

	cfg, invalid := FromEnv()
	def := DefaultConfig()

	if cfg.TickRate != def.TickRate {
		t.Errorf("TickRate = %v, want default %v", cfg.TickRate, def.TickRate)
	}
	if cfg.MaxMessagesPerSecond != def.MaxMessagesPerSecond {
		t.Errorf("MaxMessagesPerSecond = %d, want default %d", cfg.MaxMessagesPerSecond, def.MaxMessagesPerSecond)
	}
	if len(invalid) != 2 {
		t.Errorf("invalid = %v, want 2 entries", invalid)
	}
}
