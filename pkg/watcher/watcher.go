package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// RecursiveWatcher wraps fsnotify with recursive directory support.
// fsnotify is NOT recursive on Linux/POSIX, so we must explicitly
// watch all subdirectories and dynamically add watchers for new directories.
type RecursiveWatcher struct {
	*fsnotify.Watcher
	logger     *logrus.Logger
	pathToRoot map[string]string
	mu         sync.RWMutex
}

// New creates a new RecursiveWatcher
func New(logger *logrus.Logger) (*RecursiveWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &RecursiveWatcher{
		Watcher:    w,
		logger:     logger,
		pathToRoot: make(map[string]string),
	}, nil
}

// AddRecursive adds a directory and all its subdirectories to the watcher.
func (w *RecursiveWatcher) AddRecursive(root string) error {
	root = filepath.Clean(root)
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip inaccessible directories
		}
		if !d.IsDir() {
			return nil
		}
		// Skip hidden directories (e.g., .git)
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			w.logger.Debugf("watcher: cannot watch %s: %v", path, err)
			return nil
		}
		w.mu.Lock()
		w.pathToRoot[path] = root
		w.mu.Unlock()
		return nil
	})
}

// HandleNewDirectory checks if an event is a new directory and adds it to the watcher.
// Returns true if a new directory was added.
func (w *RecursiveWatcher) HandleNewDirectory(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) {
		return false
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.IsDir() {
		return false
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	if w.FindRoot(event.Name) == "" {
		return false
	}
	_ = w.AddRecursive(event.Name)
	return true
}

// FindRoot returns the watched root a path belongs to, or "".
func (w *RecursiveWatcher) FindRoot(path string) string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if root, ok := w.pathToRoot[path]; ok {
		return root
	}
	dir := filepath.Dir(path)
	for {
		if root, ok := w.pathToRoot[dir]; ok {
			return root
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// IsRelevantFile reports whether a change to path can affect generation.
func IsRelevantFile(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Watch delivers batches of changed YAML files to onChange until ctx is
// done or the watcher is closed. Changes arriving within debounce of each
// other are batched. onChange runs on the calling goroutine, so batches are
// handled one at a time.
func (w *RecursiveWatcher) Watch(ctx context.Context, debounce time.Duration, onChange func(paths []string)) error {
	pending := make(map[string]bool)
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	flush := func() {
		if len(pending) == 0 {
			return
		}
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		pending = make(map[string]bool)
		onChange(paths)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				w.HandleNewDirectory(event)
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !IsRelevantFile(event.Name) {
				continue
			}
			pending[event.Name] = true
			timer.Reset(debounce)

		case <-timer.C:
			flush()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("Watcher error")
		}
	}
}
