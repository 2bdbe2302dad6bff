package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/OliveiraNt/kafka-lens/internal/utils"
	"github.com/fsnotify/fsnotify"
)

const debounceDelay = 350 * time.Millisecond

// Store holds the active configuration and reloads it when the file changes.
type Store struct {
	mu        sync.RWMutex
	path      string
	cfg       FileConfig
	listeners []func(FileConfig)
	watcher   *fsnotify.Watcher
}

// NewStore creates a store for path holding the defaults until Load succeeds.
func NewStore(path string) *Store {
	return &Store{path: path, cfg: Defaults().WithEnv()}
}

// Path returns the watched file.
func (s *Store) Path() string {
	return s.path
}

// Get returns the active configuration.
func (s *Store) Get() FileConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// OnChange registers fn to be called with every successfully reloaded configuration.
func (s *Store) OnChange(fn func(FileConfig)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Load reads the file. On error the previous configuration stays active.
func (s *Store) Load() error {
	cfg, err := ReadConfig(s.path)
	if err != nil {
		return err
	}
	cfg = cfg.WithEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.cfg = cfg
	listeners := append(([]func(FileConfig))(nil), s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(cfg)
	}
	return nil
}

// Watch sets a fsnotify watcher on the file for hot reload
func (s *Store) Watch() error {
	abs, err := filepath.Abs(s.path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// watch the directory so editors replacing the file are seen
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return err
	}

	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()

	go func() {
		reload := func() {
			for i := 0; i < 10; i++ {
				if _, err := os.Stat(abs); err == nil {
					break
				}
				time.Sleep(100 * time.Millisecond)
			}

			utils.Logger.Info("config file changed", "path", abs)
			if err := s.Load(); err != nil {
				utils.Logger.Error("failed to reload config", "err", err)
			}
		}

		var timer *time.Timer
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					if timer != nil {
						timer.Stop()
					}
					return
				}
				if ev.Name != abs {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if timer == nil {
					timer = time.AfterFunc(debounceDelay, reload)
				} else {
					timer.Reset(debounceDelay)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				utils.Logger.Warn("fsnotify error", "err", err)
			}
		}
	}()

	return nil
}

// Close stops watching.
func (s *Store) Close() error {
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Close()
}
