package config

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Logger is the minimal structured-logging surface a reload failure is
// reported through; satisfied by the standard library's *slog.Logger,
// same shape as internal/trainer.Logger and internal/handler.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Watcher holds the live viper instance backing a config file's
// hot-reload, per SPEC_FULL.md §6's file-watcher reload requirement.
type Watcher struct {
	vp *viper.Viper
}

// NewWatcher loads path and returns a Watcher bound to it alongside the
// initially decoded Config, so the caller can seed its components
// before ever calling Watch.
func NewWatcher(path string) (*Watcher, Config, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))

	if err := vp.ReadInConfig(); err != nil {
		return nil, Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg, err := decode(vp)
	if err != nil {
		return nil, Config{}, err
	}
	return &Watcher{vp: vp}, cfg, nil
}

// Watch starts viper's fsnotify-backed file watch and invokes onReload
// with every successfully validated reparse. A reload that fails
// validation is logged and discarded; the previously published config
// keeps running untouched.
func (w *Watcher) Watch(logger Logger, onReload func(Config)) {
	w.vp.WatchConfig()
	w.vp.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := decode(w.vp)
		if err != nil {
			logger.Warn("config: reload failed, keeping previous configuration", "error", err, "file", e.Name)
			return
		}
		onReload(cfg)
	})
}
