package orchestrator

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SignalWatcher lets a caller cancel a run between steps by dropping a stop
// file into the signals directory. The watcher reacts immediately via
// fsnotify and falls back to a stat check in case an event was missed.
type SignalWatcher struct {
	dir string

	mu   sync.RWMutex
	stop bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

const stopFileName = "stop"

// NewSignalWatcher creates a watcher over <baseDir>/.planpilot/signals.
func NewSignalWatcher(baseDir string) (*SignalWatcher, error) {
	dir := filepath.Join(baseDir, ".planpilot", "signals")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	sw := &SignalWatcher{
		dir:  dir,
		done: make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		// Stat fallback still works without the watcher.
		return sw, nil
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return sw, nil
	}
	sw.watcher = watcher

	go sw.watchSignals()

	return sw, nil
}

func (sw *SignalWatcher) watchSignals() {
	for {
		select {
		case <-sw.done:
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) == stopFileName &&
				(event.Op&fsnotify.Create != 0 || event.Op&fsnotify.Write != 0) {
				sw.mu.Lock()
				sw.stop = true
				sw.mu.Unlock()
			}
		case <-sw.watcher.Errors:
			// Keep watching; the stat fallback covers missed events.
		}
	}
}

// ShouldStop returns true once a stop signal has been received.
func (sw *SignalWatcher) ShouldStop() bool {
	if _, err := os.Stat(filepath.Join(sw.dir, stopFileName)); err == nil {
		sw.mu.Lock()
		sw.stop = true
		sw.mu.Unlock()
	}

	sw.mu.RLock()
	defer sw.mu.RUnlock()
	return sw.stop
}

// SendStop creates the stop file.
func (sw *SignalWatcher) SendStop() error {
	return os.WriteFile(filepath.Join(sw.dir, stopFileName), []byte(time.Now().Format(time.RFC3339)), 0644)
}

// Clear removes the stop file and resets the watcher state.
func (sw *SignalWatcher) Clear() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.stop = false
	os.Remove(filepath.Join(sw.dir, stopFileName))
}

// Close shuts down the watcher.
func (sw *SignalWatcher) Close() {
	close(sw.done)
	if sw.watcher != nil {
		sw.watcher.Close()
	}
}
