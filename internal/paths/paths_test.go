package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBaseDir(t *testing.T) {
	home, _ := os.UserHomeDir()
	got := BaseDir()
	want := filepath.Join(home, ".clipsync")
	if got != want {
		t.Errorf("BaseDir() = %q, want %q", got, want)
	}
}

func TestCacheDBPath(t *testing.T) {
	got := CacheDBPath()
	if !strings.HasSuffix(got, filepath.Join(".clipsync", "cache", "history.db")) {
		t.Errorf("CacheDBPath() = %q", got)
	}
}

func TestLogPath(t *testing.T) {
	got := LogPath("clipctl")
	if !strings.HasSuffix(got, filepath.Join("logs", "clipctl.log")) {
		t.Errorf("LogPath(clipctl) = %q", got)
	}
}

func TestValidateSessionID(t *testing.T) {
	valid := []string{"abc123", "A-b_9", strings.Repeat("x", 128)}
	for _, id := range valid {
		if err := ValidateSessionID(id); err != nil {
			t.Errorf("ValidateSessionID(%q) = %v, want nil", id, err)
		}
	}
	invalid := []string{"", "has space", "slash/id", "dot.dot", strings.Repeat("x", 129)}
	for _, id := range invalid {
		if err := ValidateSessionID(id); err == nil {
			t.Errorf("ValidateSessionID(%q) = nil, want error", id)
		}
	}
}
