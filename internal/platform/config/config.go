// Package config holds the tunable runtime parameters of the guild server.
package config

import (
	"os"
	"runtime"
	"strconv"
	"time"
)

// Config holds tuned parameters for the server process.
type Config struct {
	HTTPAddr string
	DBPath   string

	// UserID keys every persistence record. Identity provision is external;
	// a single-player deployment runs under one fixed id.
	UserID string

	// Engine heartbeat (wall time advanced into the virtual clock per beat)
	TickRate time.Duration
	Seed     int64

	// Channel buffer sizes
	BroadcastChannelBuffer int
	ClientSendBuffer       int

	// Connection pools
	DBMaxOpenConns int

	// Rate limiting
	MaxMessagesPerSecond int

	// EventRetention is how many recent events the in-memory log keeps
	// once every reader has consumed them.
	EventRetention int
}

// DefaultConfig returns sensible defaults for production.
func DefaultConfig() *Config {
	return &Config{
		HTTPAddr: ":8080",
		DBPath:   "data/ghg.db",
		UserID:   "local-hunter",

		TickRate: 100 * time.Millisecond,

		BroadcastChannelBuffer: 256,
		ClientSendBuffer:       64,

		DBMaxOpenConns: runtime.NumCPU(),

		MaxMessagesPerSecond: 20,

		EventRetention: 10000,
	}
}

// LowResourceConfig returns minimal settings for development.
func LowResourceConfig() *Config {
	cfg := DefaultConfig()
	cfg.BroadcastChannelBuffer = 16
	cfg.ClientSendBuffer = 8
	cfg.DBMaxOpenConns = 1
	cfg.MaxMessagesPerSecond = 5
	cfg.EventRetention = 1000
	return cfg
}

// FromEnv overlays GHG_* environment variables on DefaultConfig.
// Unparseable values keep the default and are reported in the returned slice.
func FromEnv() (*Config, []string) {
	cfg := DefaultConfig()
	var invalid []string

	cfg.HTTPAddr = GetEnvDefault("GHG_HTTP_ADDR", cfg.HTTPAddr)
	cfg.DBPath = GetEnvDefault("GHG_DB_PATH", cfg.DBPath)
	cfg.UserID = GetEnvDefault("GHG_USER_ID", cfg.UserID)

	if v := os.Getenv("GHG_TICK_RATE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.TickRate = d
		} else {
			invalid = append(invalid, "GHG_TICK_RATE")
		}
	}

	intVars := []struct {
		key string
		dst *int
	}{
		{"GHG_CLIENT_BUFFER", &cfg.ClientSendBuffer},
		{"GHG_BROADCAST_BUFFER", &cfg.BroadcastChannelBuffer},
		{"GHG_RATE_LIMIT", &cfg.MaxMessagesPerSecond},
		{"GHG_DB_MAX_CONNS", &cfg.DBMaxOpenConns},
		{"GHG_EVENT_RETENTION", &cfg.EventRetention},
	}
	for _, iv := range intVars {
		v := os.Getenv(iv.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			invalid = append(invalid, iv.key)
			continue
		}
		*iv.dst = n
	}

	if v := os.Getenv("GHG_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			invalid = append(invalid, "GHG_SEED")
		} else {
			cfg.Seed = n
		}
	}

	return cfg, invalid
}

// ResolveSeed returns the configured seed, or a time-based one when unset.
func (c *Config) ResolveSeed() int64 {
	if c.Seed != 0 {
		return c.Seed
	}
	return time.Now().UnixNano()
}

// GetEnvDefault returns the value of key, or defaultValue when it is empty.
func GetEnvDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
