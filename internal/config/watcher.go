package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last file event
// before reloading.
const DefaultDebounce = 150 * time.Millisecond

// Watcher reloads the configuration when its file changes and publishes
// each valid result to subscribers. Invalid edits are logged and skipped;
// the last good configuration stays current.
type Watcher struct {
	loader   *Loader
	debounce time.Duration
	logger   Logger

	mu          sync.RWMutex
	current     *Config
	subscribers map[uint64]func(*Config)
	nextID      uint64
}

// NewWatcher creates a watcher publishing configs produced by loader.
// initial is the configuration already in use.
func NewWatcher(loader *Loader, initial *Config, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		loader:      loader,
		debounce:    debounce,
		logger:      loader.logger,
		current:     initial,
		subscribers: make(map[uint64]func(*Config)),
	}
}

// Current returns the latest valid configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Subscribe registers fn to receive every reloaded configuration.
func (w *Watcher) Subscribe(fn func(*Config)) (unsubscribe func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextID++
	id := w.nextID
	w.subscribers[id] = fn
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.subscribers, id)
	}
}

// Run watches the file until ctx is done. The parent directory is
// watched so that editors which replace the file are noticed.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	defer fsw.Close()

	path, err := filepath.Abs(w.loader.Path())
	if err != nil {
		return err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("config watcher: watch %s: %w", filepath.Dir(path), err)
	}
	w.logger.Debug("watching config", "path", path)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "error", err)

		case <-timer.C:
			w.Reload()
		}
	}
}

// Reload re-reads the file now and publishes the result if it is valid.
func (w *Watcher) Reload() bool {
	c, err := w.loader.Load()
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			w.logger.Warn("config reload failed", "path", pe.Path, "line", pe.Line, "error", pe.Message)
		} else {
			w.logger.Warn("config reload failed", "error", err)
		}
		return false
	}

	w.mu.Lock()
	w.current = c
	subs := make([]func(*Config), 0, len(w.subscribers))
	for _, fn := range w.subscribers {
		subs = append(subs, fn)
	}
	w.mu.Unlock()

	w.logger.Info("config reloaded", "path", w.loader.Path())
	for _, fn := range subs {
		fn(c.Clone())
	}
	return true
}
