package assets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/marmot/engine/core"
)

var ErrWatcherClosed = errors.New("watcher already closed")

// Watcher follows the data directories and remembers definition files that
// were created or rewritten. The manager drains them from its update tick, so
// the watcher goroutine never touches manager state.
type Watcher struct {
	mutex    sync.Mutex
	fsnotify *fsnotify.Watcher
	log      *core.Logger
	pending  []string
	queued   map[string]bool
	isClosed bool
	done     chan struct{}
	wg       sync.WaitGroup
}

func NewWatcher(log *core.Logger) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = core.NewDiscardLogger()
	}
	w := &Watcher{
		fsnotify: fsWatch,
		log:      log,
		queued:   make(map[string]bool),
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.start()
	return w, nil
}

// AddRecursive starts watching the named directory and all sub-directories.
func (w *Watcher) AddRecursive(name string) error {
	w.mutex.Lock()
	closed := w.isClosed
	w.mutex.Unlock()
	if closed {
		return ErrWatcherClosed
	}
	return w.watchRecursive(name, false)
}

// RemoveRecursive stops watching the named directory and all sub-directories.
func (w *Watcher) RemoveRecursive(name string) error {
	w.mutex.Lock()
	closed := w.isClosed
	w.mutex.Unlock()
	if closed {
		return ErrWatcherClosed
	}
	return w.watchRecursive(name, true)
}

// Drain returns the definition files changed since the last call, in the
// order they were first seen.
func (w *Watcher) Drain() []string {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if len(w.pending) == 0 {
		return nil
	}
	out := w.pending
	w.pending = nil
	w.queued = make(map[string]bool)
	return out
}

func (w *Watcher) Close() error {
	w.mutex.Lock()
	if w.isClosed {
		w.mutex.Unlock()
		return nil
	}
	w.isClosed = true
	w.mutex.Unlock()

	close(w.done)
	w.wg.Wait()
	return nil
}

func (w *Watcher) start() {
	defer w.wg.Done()
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			if e.Has(fsnotify.Create) {
				if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
					if err := w.watchRecursive(e.Name, false); err != nil {
						w.log.LogWarn("failed to watch new directory '%s': %s", e.Name, err)
					}
					continue
				}
			}
			if e.Has(fsnotify.Create) || e.Has(fsnotify.Write) {
				w.handleFileEvent(e.Name)
			}
			// Can't stat a deleted directory, so just try to remove it from the watch list.
			if e.Has(fsnotify.Remove) {
				_ = w.fsnotify.Remove(e.Name)
			}

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			w.log.LogError("data directory watcher: %s", err)

		case <-w.done:
			w.fsnotify.Close()
			return
		}
	}
}

// watchRecursive adds all directories under the given one to the watch list.
func (w *Watcher) watchRecursive(path string, unWatch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			return nil
		}
		if unWatch {
			return w.fsnotify.Remove(walkPath)
		}
		return w.fsnotify.Add(walkPath)
	})
}

func (w *Watcher) handleFileEvent(path string) {
	if !IsDefinitionFile(path) {
		return
	}
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.queued[path] {
		return
	}
	w.queued[path] = true
	w.pending = append(w.pending, path)
	w.log.LogDebug("definition file changed: '%s'", path)
}

// IsDefinitionFile reports whether path looks like a resource definition
// document.
func IsDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml", ".toml":
		return true
	default:
		return false
	}
}
