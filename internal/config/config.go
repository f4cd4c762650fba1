package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Defaults used when no config file exists.
const (
	DefaultServerURL = "http://localhost:8080"
)

// Config represents the global ~/.clipsync/config.toml. Booleans gate which
// transport channels the fallback cascade may attempt.
type Config struct {
	ServerURL           string `toml:"server_url"`
	WebSocketEnabled    bool   `toml:"websocket_enabled"`
	EventStreamEnabled  bool   `toml:"event_stream_enabled"`
	NotificationEnabled bool   `toml:"notification_enabled"`
	DefaultSession      string `toml:"default_session"`
}

// Default returns the configuration used when no file exists: all channels
// enabled, local server.
func Default() *Config {
	return &Config{
		ServerURL:           DefaultServerURL,
		WebSocketEnabled:    true,
		EventStreamEnabled:  true,
		NotificationEnabled: true,
	}
}

// Load reads config from the given path, then applies environment overrides.
// A missing file yields the defaults rather than an error; a malformed file
// is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overrides file values with environment variables when set. Boolean
// variables accept anything strconv.ParseBool does; unparsable values are
// ignored.
func applyEnv(cfg *Config) {
	if v := os.Getenv("CLIPSYNC_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	envBool("CLIPSYNC_WEBSOCKET_ENABLED", &cfg.WebSocketEnabled)
	envBool("CLIPSYNC_EVENT_STREAM_ENABLED", &cfg.EventStreamEnabled)
	envBool("CLIPSYNC_NOTIFICATION_ENABLED", &cfg.NotificationEnabled)
}

func envBool(name string, dst *bool) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return
	}
	*dst = b
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
