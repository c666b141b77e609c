package config

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// FileWatcher polls modification times under a config directory and triggers
// a callback on change. New and removed scenario files count as changes.
type FileWatcher struct {
	paths     Paths
	interval  time.Duration
	onChange  func(string) // called with path that changed
	lastMTime map[string]time.Time
}

// NewFileWatcher creates a watcher for the default file and every scenario file.
func NewFileWatcher(paths Paths, interval time.Duration, onChange func(string)) *FileWatcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &FileWatcher{
		paths:     paths,
		interval:  interval,
		onChange:  onChange,
		lastMTime: make(map[string]time.Time),
	}
}

// Run polls until ctx is done. The first scan only primes the cache.
func (w *FileWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.scan(true)
	for {
		select {
		case <-ticker.C:
			w.scan(false)
		case <-ctx.Done():
			return
		}
	}
}

func (w *FileWatcher) files() []string {
	files := []string{w.paths.DefaultPath()}
	matches, _ := filepath.Glob(filepath.Join(w.paths.ScenarioDir(), "*.yaml"))
	return append(files, matches...)
}

// scan checks mtimes and invokes onChange for files that changed, appeared or vanished.
func (w *FileWatcher) scan(prime bool) {
	seen := make(map[string]bool)
	for _, p := range w.files() {
		fi, err := os.Stat(p)
		if err != nil {
			continue
		}
		seen[p] = true
		mt := fi.ModTime()
		last, ok := w.lastMTime[p]
		w.lastMTime[p] = mt
		if prime || w.onChange == nil {
			continue
		}
		if !ok || mt.After(last) {
			w.onChange(p)
		}
	}
	for p := range w.lastMTime {
		if !seen[p] {
			delete(w.lastMTime, p)
			if !prime && w.onChange != nil {
				w.onChange(p)
			}
		}
	}
}
