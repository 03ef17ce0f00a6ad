package config

import (
	"path/filepath"
	"testing"
)

func TestWatcherStopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := SaveConfig(path, DefaultConfig()); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path, func(*Config) {})
	if err != nil {
		t.Fatalf("NewWatcher error = %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start error = %v", err)
	}

	w.Stop()
	// 2回目のStopはpanicせずno-opとなる
	w.Stop()
}
