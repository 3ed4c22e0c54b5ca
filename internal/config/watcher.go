package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultReloadDebounce is how long the watcher waits for writes to settle.
const DefaultReloadDebounce = 2 * time.Second

// ReloadFunc applies a freshly loaded configuration.
type ReloadFunc func(ctx context.Context, cfg *Config) error

// Watcher reloads the configuration file when it changes on disk and hands
// every valid result to a ReloadFunc. Invalid rewrites are logged and the
// previous configuration stays in effect.
type Watcher struct {
	configPath   string
	onReload     ReloadFunc
	logger       *slog.Logger
	watcher      *fsnotify.Watcher
	mu           sync.Mutex
	current      *Config
	stopChan     chan struct{}
	reloadChan   chan struct{}
	debounceTime time.Duration
	stopped      bool
}

// NewWatcher watches configPath. current is the configuration in effect.
func NewWatcher(configPath string, current *Config, onReload ReloadFunc, logger *slog.Logger) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		configPath:   absPath,
		onReload:     onReload,
		logger:       logger,
		watcher:      watcher,
		current:      current,
		stopChan:     make(chan struct{}),
		reloadChan:   make(chan struct{}, 1),
		debounceTime: DefaultReloadDebounce,
	}, nil
}

// WithDebounce sets the settle time. Call before Start.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	if d > 0 {
		w.debounceTime = d
	}
	return w
}

// Start begins monitoring. The directory is watched rather than the file so
// editors that replace the file by rename are noticed.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	configDir := filepath.Dir(w.configPath)
	if err := w.watcher.Add(configDir); err != nil {
		return fmt.Errorf("failed to watch config directory %s: %w", configDir, err)
	}

	w.logger.Info("Starting configuration watcher", "config_path", w.configPath)

	go w.watchLoop(ctx)
	go w.reloadLoop(ctx)
	return nil
}

// Stop ends monitoring. It is safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopChan)
	return w.watcher.Close()
}

// Current returns the configuration in effect.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

func (w *Watcher) watchLoop(ctx context.Context) {
	configFile := filepath.Base(w.configPath)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFile {
				continue
			}
			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create), event.Has(fsnotify.Rename):
				w.logger.Debug("Config file change detected", "file", event.Name, "op", event.Op.String())
				w.triggerReload()
			case event.Has(fsnotify.Remove):
				w.logger.Warn("Config file removed", "file", event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Config watcher error", "error", err)
		}
	}
}

func (w *Watcher) reloadLoop(ctx context.Context) {
	var reloadTimer *time.Timer
	stopTimer := func() {
		if reloadTimer != nil {
			reloadTimer.Stop()
		}
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer()
			return
		case <-w.stopChan:
			stopTimer()
			return
		case <-w.reloadChan:
			stopTimer()
			reloadTimer = time.AfterFunc(w.debounceTime, func() {
				if err := w.performReload(ctx); err != nil {
					w.logger.Error("Failed to reload configuration", "error", err)
				}
			})
		}
	}
}

func (w *Watcher) triggerReload() {
	select {
	case w.reloadChan <- struct{}{}:
	default:
	}
}

// performReload loads the file and applies it. Nothing changes on error.
func (w *Watcher) performReload(ctx context.Context) error {
	w.logger.Info("Reloading configuration", "config_path", w.configPath)

	next, err := Load(w.configPath)
	if err != nil {
		return fmt.Errorf("failed to load new configuration: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	warnRestartOnly(w.logger, w.current, next)
	if w.onReload != nil {
		if err := w.onReload(ctx, next); err != nil {
			return fmt.Errorf("failed to apply new configuration: %w", err)
		}
	}
	w.current = next

	w.logger.Info("Configuration reloaded successfully")
	return nil
}

// warnRestartOnly logs settings that only take effect after a restart.
func warnRestartOnly(logger *slog.Logger, prev, next *Config) {
	if prev == nil {
		return
	}
	if prev.Server.Addr != next.Server.Addr {
		logger.Warn("server.addr changed; restart to apply")
	}
	if prev.Storage != next.Storage || prev.Records != next.Records {
		logger.Warn("Storage or records backend changed; restart to apply")
	}
}
