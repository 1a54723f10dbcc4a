package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounceDelay = 500 * time.Millisecond

// ConfigWatcher reloads configuration when files under the config directory change.
// Hot reloading is only enabled in development.
type ConfigWatcher struct {
	config    *Config
	loader    *Loader
	dir       string
	callbacks []func(*Config)
	mu        sync.RWMutex
	logger    *zap.Logger
	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewConfigWatcher creates a watcher for dir. Reloads go through loader.
func NewConfigWatcher(initial *Config, loader *Loader, dir string, logger *zap.Logger) (*ConfigWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &ConfigWatcher{
		config: initial,
		loader: loader,
		dir:    dir,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	if initial.Environment != Development {
		logger.Info("Configuration hot reloading disabled",
			zap.String("environment", string(initial.Environment)),
		)
		return w, nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.watcher = fsWatcher

	if err := w.watchConfigFiles(); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch config files: %w", err)
	}

	go w.watchLoop()

	logger.Info("Configuration hot reloading enabled",
		zap.String("environment", string(initial.Environment)),
		zap.String("dir", dir),
	)
	return w, nil
}

func (w *ConfigWatcher) watchConfigFiles() error {
	if _, err := os.Stat(w.dir); os.IsNotExist(err) {
		w.logger.Warn("Config directory does not exist", zap.String("dir", w.dir))
		return nil
	}

	return filepath.Walk(w.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		// Watching directories catches editors that replace files on save.
		if !info.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", zap.String("path", path), zap.Error(err))
		}
		return nil
	})
}

func (w *ConfigWatcher) watchLoop() {
	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 || !isConfigFile(event.Name) {
				continue
			}
			w.logger.Debug("Configuration file changed",
				zap.String("file", event.Name),
				zap.String("operation", event.Op.String()),
			)
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, w.Reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))

		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return
		}
	}
}

// Reload loads configuration again and notifies callbacks when it changed.
// An invalid configuration is logged and the previous one kept.
func (w *ConfigWatcher) Reload() {
	next, err := w.loader.Load()
	if err != nil {
		w.logger.Error("Invalid configuration after reload", zap.Error(err))
		return
	}

	w.mu.Lock()
	old := w.config
	changes := diff(old, next)
	if len(changes) == 0 {
		w.mu.Unlock()
		w.logger.Debug("Configuration unchanged after reload")
		return
	}
	w.config = next
	callbacks := make([]func(*Config), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	w.logger.Info("Configuration reloaded", zap.Strings("changes", changes))

	for i, cb := range callbacks {
		w.notify(i, cb, next)
	}
}

func (w *ConfigWatcher) notify(idx int, cb func(*Config), cfg *Config) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Configuration callback panicked",
				zap.Int("callback_index", idx),
				zap.Any("panic", r),
			)
		}
	}()
	cb(cfg)
}

// OnChange registers a callback to be called when configuration changes.
func (w *ConfigWatcher) OnChange(callback func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// GetConfig returns the current configuration.
func (w *ConfigWatcher) GetConfig() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// Stop stops the configuration watcher.
func (w *ConfigWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.watcher != nil {
			w.watcher.Close()
		}
	})
}

// diff lists the settings that are safe to change at runtime and did.
func diff(old, next *Config) []string {
	var changes []string
	if old.Logging.Level != next.Logging.Level {
		changes = append(changes, fmt.Sprintf("logging.level: %s -> %s", old.Logging.Level, next.Logging.Level))
	}
	if old.Nudges.Timezone != next.Nudges.Timezone {
		changes = append(changes, fmt.Sprintf("nudges.timezone: %s -> %s", old.Nudges.Timezone, next.Nudges.Timezone))
	}
	if old.Cache.TTL != next.Cache.TTL {
		changes = append(changes, fmt.Sprintf("cache.ttl: %s -> %s", old.Cache.TTL, next.Cache.TTL))
	}
	if old.LLM.Temperature != next.LLM.Temperature {
		changes = append(changes, fmt.Sprintf("llm.temperature: %v -> %v", old.LLM.Temperature, next.LLM.Temperature))
	}
	if old.LLM.MaxTokens != next.LLM.MaxTokens {
		changes = append(changes, fmt.Sprintf("llm.max_tokens: %d -> %d", old.LLM.MaxTokens, next.LLM.MaxTokens))
	}
	return changes
}

func isConfigFile(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
