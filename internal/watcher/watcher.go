// Package watcher re-triggers analysis when a watched source file changes.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces the event bursts editors produce on save.
const DefaultDebounce = 500 * time.Millisecond

// Config describes what to watch and what to do about it.
type Config struct {
	// Path is the source file to watch.
	Path string
	// Debounce is the quiet period required before OnChange fires.
	Debounce time.Duration
	// OnChange is called with the watched path after each settled change.
	OnChange func(path string)
}

// Watcher owns the fsnotify subscription and its goroutine. Stop halts both
// deterministically.
type Watcher struct {
	fsw      *fsnotify.Watcher
	log      *zap.Logger
	path     string
	debounce time.Duration
	onChange func(string)

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// New creates a watcher for the configured file. The parent directory is
// watched rather than the file itself, so editors that replace the file on
// save keep notifying.
func New(cfg Config, log *zap.Logger) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("watch path is required")
	}
	if cfg.OnChange == nil {
		return nil, fmt.Errorf("watch callback is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if log == nil {
		log = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	dir := filepath.Dir(cfg.Path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &Watcher{
		fsw:      fsw,
		log:      log,
		path:     filepath.Clean(cfg.Path),
		debounce: cfg.Debounce,
		onChange: cfg.OnChange,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start runs the event loop until Stop is called.
func (w *Watcher) Start() {
	go w.loop()
	w.log.Info("watching source file", zap.String("path", w.path))
}

// Stop halts the event loop and releases the fsnotify handle. Safe to call
// more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		w.fsw.Close()
		<-w.done
	})
}

func (w *Watcher) loop() {
	defer close(w.done)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.stop:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.log.Debug("source changed", zap.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.onChange(w.path)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", zap.Error(err))
		}
	}
}
