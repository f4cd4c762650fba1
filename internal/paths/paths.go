package paths

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.clipsync.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".clipsync")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// CacheDir returns the directory holding the local history cache.
func CacheDir() string {
	return filepath.Join(BaseDir(), "cache")
}

// CacheDBPath returns the sqlite history database path.
func CacheDBPath() string {
	return filepath.Join(CacheDir(), "history.db")
}

// LogDir returns the log directory.
func LogDir() string {
	return filepath.Join(BaseDir(), "logs")
}

// LogPath returns the log file path for the named program.
func LogPath(program string) string {
	return filepath.Join(LogDir(), program+".log")
}

// EnsureBase creates the directory tree with proper permissions.
func EnsureBase() error {
	dirs := []string{
		BaseDir(),
		CacheDir(),
		LogDir(),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
