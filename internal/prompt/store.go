// Package prompt holds system-prompt templates loaded from a directory,
// optionally re-read when the files change on disk.
package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"promptrelay/internal/logger"

	"github.com/fsnotify/fsnotify"
)

// Store serves the current template set by name (filename without
// extension). A missing directory yields an empty store, not an error.
type Store struct {
	dir string

	mu        sync.RWMutex
	templates map[string]string
	loadedAt  time.Time

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewStore loads templates from dir. With watch set, it reloads the whole
// directory on any fsnotify event until Close is called.
func NewStore(dir string, watch bool) (*Store, error) {
	s := &Store{dir: strings.TrimSpace(dir), done: make(chan struct{})}
	if err := s.reload(); err != nil {
		return nil, err
	}
	if watch && s.dir != "" {
		if err := s.startWatch(); err != nil {
			// Watching is best-effort; the initial load already succeeded.
			logger.Warnf("prompt watch disabled: %v", err)
		}
	}
	return s, nil
}

// Get returns the template content by name.
func (s *Store) Get(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	txt, ok := s.templates[strings.ToLower(name)]
	return txt, ok
}

// Names returns the loaded template names, unordered.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.templates))
	for name := range s.templates {
		out = append(out, name)
	}
	return out
}

func (s *Store) reload() error {
	loaded := make(map[string]string)
	if s.dir != "" {
		entries, err := os.ReadDir(s.dir)
		if err != nil {
			if os.IsNotExist(err) {
				s.swap(loaded)
				return nil
			}
			return err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			ext := strings.ToLower(filepath.Ext(entry.Name()))
			if ext != ".txt" && ext != ".md" {
				continue
			}
			data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
			if err != nil {
				logger.Warnf("prompt template %s unreadable: %v", entry.Name(), err)
				continue
			}
			name := strings.ToLower(strings.TrimSuffix(entry.Name(), ext))
			loaded[name] = strings.TrimRight(string(data), "\n")
		}
	}
	s.swap(loaded)
	return nil
}

func (s *Store) swap(templates map[string]string) {
	s.mu.Lock()
	s.templates = templates
	s.loadedAt = time.Now()
	s.mu.Unlock()
}

func (s *Store) startWatch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(s.dir); err != nil {
		w.Close()
		return err
	}
	s.watcher = w
	go func() {
		for {
			select {
			case _, ok := <-w.Events:
				if !ok {
					return
				}
				if err := s.reload(); err != nil {
					logger.Errorf("prompt reload failed: %v", err)
					continue
				}
				logger.Debugf("prompt templates reloaded from %s", s.dir)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warnf("prompt watcher error: %v", err)
			case <-s.done:
				return
			}
		}
	}()
	return nil
}

// Close stops the directory watcher if one is running.
func (s *Store) Close() {
	close(s.done)
	if s.watcher != nil {
		s.watcher.Close()
	}
}
