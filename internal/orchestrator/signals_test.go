package orchestrator

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSignalWatcher_StopAndClear(t *testing.T) {
	base := t.TempDir()
	sw, err := NewSignalWatcher(base)
	if err != nil {
		t.Fatalf("NewSignalWatcher failed: %v", err)
	}
	defer sw.Close()

	if sw.ShouldStop() {
		t.Error("fresh watcher should not report stop")
	}

	if err := sw.SendStop(); err != nil {
		t.Fatalf("SendStop failed: %v", err)
	}
	if !sw.ShouldStop() {
		t.Error("ShouldStop should be true after SendStop")
	}

	sw.Clear()
	if sw.ShouldStop() {
		t.Error("ShouldStop should be false after Clear")
	}
	if _, err := os.Stat(filepath.Join(base, ".planpilot", "signals", stopFileName)); !os.IsNotExist(err) {
		t.Error("Clear should remove the stop file")
	}
}

func TestSignalWatcher_PicksUpExternalStopFile(t *testing.T) {
	base := t.TempDir()
	sw, err := NewSignalWatcher(base)
	if err != nil {
		t.Fatalf("NewSignalWatcher failed: %v", err)
	}
	defer sw.Close()

	// Another process writes the file directly. The stat fallback must see
	// it even if the fsnotify event is missed.
	path := filepath.Join(base, ".planpilot", "signals", stopFileName)
	if err := os.WriteFile(path, []byte(time.Now().Format(time.RFC3339)), 0644); err != nil {
		t.Fatalf("write stop file: %v", err)
	}

	if !sw.ShouldStop() {
		t.Error("ShouldStop should detect an externally created stop file")
	}
}

func TestSignalWatcher_CreatesSignalsDir(t *testing.T) {
	base := t.TempDir()
	sw, err := NewSignalWatcher(base)
	if err != nil {
		t.Fatalf("NewSignalWatcher failed: %v", err)
	}
	defer sw.Close()

	info, err := os.Stat(filepath.Join(base, ".planpilot", "signals"))
	if err != nil || !info.IsDir() {
		t.Errorf("signals directory not created: %v", err)
	}
}
