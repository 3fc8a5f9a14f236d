package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Engine    EngineConfig    `yaml:"engine"`
	Feed      FeedConfig      `yaml:"feed"`
	Track     TrackConfig     `yaml:"track"`
	Log       LogConfig       `yaml:"log"`
	History   HistoryConfig   `yaml:"history"`
	Stream    StreamConfig    `yaml:"stream"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
	// TrustProxy enables X-Forwarded-For handling. Only set this when the
	// service sits behind a reverse proxy you control.
	TrustProxy bool `yaml:"trust_proxy"`
}

// StoreConfig selects and configures the telemetry store backend.
type StoreConfig struct {
	Backend string     `yaml:"backend"` // "sqlite", "file"
	DB      DBConfig   `yaml:"db"`
	File    FileConfig `yaml:"file"`
}

// DBConfig holds database settings for the sqlite backend.
type DBConfig struct {
	Path string `yaml:"path"`
}

// FileConfig holds paths for the plain-JSON backend.
type FileConfig struct {
	Path         string `yaml:"path"`
	CommandsPath string `yaml:"commands_path"`
}

// EngineConfig holds propagation loop settings.
type EngineConfig struct {
	TickInterval Duration `yaml:"tick_interval"`
}

// FeedConfig holds angle feed settings. An empty mirror_path disables the
// on-disk mirror.
type FeedConfig struct {
	Capacity   int    `yaml:"capacity"`
	MirrorPath string `yaml:"mirror_path"`
}

// TrackConfig holds ground-track projection settings.
type TrackConfig struct {
	Points int `yaml:"points"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings   `yaml:"server"`
	Requests LogSettings   `yaml:"requests"`
	Audit    AuditSettings `yaml:"audit"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// AuditSettings holds settings for the burn audit log.
type AuditSettings struct {
	Path string `yaml:"path"`
}

// HistoryConfig holds command history settings.
type HistoryConfig struct {
	Retention Duration `yaml:"retention"`
	Limit     int      `yaml:"limit"`
}

// StreamConfig holds live stream settings.
type StreamConfig struct {
	MaxClientsPerIP int      `yaml:"max_clients_per_ip"`
	Keepalive       Duration `yaml:"keepalive"`
}

// RateLimitConfig holds per-IP command rate limit settings.
type RateLimitConfig struct {
	Enabled   bool    `yaml:"enabled"`
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address: "localhost:5000",
		},
		Store: StoreConfig{
			Backend: "sqlite",
			DB: DBConfig{
				Path: "./data/orbitcmd.db",
			},
			File: FileConfig{
				Path:         "./data/telemetry_data.json",
				CommandsPath: "./data/commands.jsonl",
			},
		},
		Engine: EngineConfig{
			TickInterval: Duration(1 * time.Second),
		},
		Feed: FeedConfig{
			Capacity:   1000,
			MirrorPath: "./data/angle_feed.json",
		},
		Track: TrackConfig{
			Points: 360,
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
			Audit: AuditSettings{
				Path: "./logs/command_log.txt",
			},
		},
		History: HistoryConfig{
			Retention: Duration(30 * Day),
			Limit:     50,
		},
		Stream: StreamConfig{
			MaxClientsPerIP: 4,
			Keepalive:       Duration(15 * time.Second),
		},
		RateLimit: RateLimitConfig{
			Enabled:   true,
			PerSecond: 5,
			Burst:     10,
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT save back to disk (to preserve user formatting and comments).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	// Read existing file if it exists
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else {
		// If file does not exist, save defaults
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to save config file: %w", err)
		}
	}

	// Load from Env if empty (as a fallback, but do NOT save back to disk)
	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv fills blank fields from ORBITCMD_* environment variables. A
// .env file loaded at startup feeds these.
func applyEnv(cfg *Config) {
	if cfg.Server.Address == "" {
		if addr := os.Getenv("ORBITCMD_ADDR"); addr != "" {
			cfg.Server.Address = addr
		}
	}
	if cfg.Store.Backend == "" {
		if backend := os.Getenv("ORBITCMD_STORE_BACKEND"); backend != "" {
			cfg.Store.Backend = backend
		}
	}
	if cfg.Store.DB.Path == "" {
		if p := os.Getenv("ORBITCMD_DB_PATH"); p != "" {
			cfg.Store.DB.Path = p
		}
	}
}

func validate(cfg *Config) error {
	switch cfg.Store.Backend {
	case "sqlite", "file":
	default:
		return fmt.Errorf("invalid store backend '%s': must be 'sqlite' or 'file'", cfg.Store.Backend)
	}
	if cfg.Feed.Capacity < 1 {
		return fmt.Errorf("invalid feed capacity %d: must be >= 1", cfg.Feed.Capacity)
	}
	if time.Duration(cfg.Engine.TickInterval) <= 0 {
		return fmt.Errorf("invalid tick_interval %v: must be positive", time.Duration(cfg.Engine.TickInterval))
	}
	return nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# OrbitCmd Configuration
# ---------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)

`)
	data = append(header, data...)

	// Inject comments for Enum fields
	// We use regex to find the keys with indentation to ensure we place comments correctly.

	// Store Backend Options
	reBackend := regexp.MustCompile(`(?m)^(\s+)backend:`)
	data = reBackend.ReplaceAll(data, []byte("${1}# Options: sqlite, file\n${1}backend:"))

	// Feed mirror hint
	reMirror := regexp.MustCompile(`(?m)^(\s+)mirror_path:`)
	data = reMirror.ReplaceAll(data, []byte("${1}# Leave empty to disable the on-disk feed mirror\n${1}mirror_path:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return nil // File exists, do nothing
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write default config
	return Save(path, DefaultConfig())
}
