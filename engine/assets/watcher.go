package assets

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/anima-packer/engine/core"
)

// Watcher reports batches of changed source paths under a directory tree.
// Changes arriving within the debounce window are merged into one batch.
type Watcher struct {
	fsnotify *fsnotify.Watcher
	debounce time.Duration
	ignore   func(path string) bool

	changes chan []string
	errors  chan error
	done    chan struct{}

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewWatcher watches root and every directory below it. Paths for which
// ignore returns true never show up in a batch.
func NewWatcher(root string, debounce time.Duration, ignore func(path string) bool) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if ignore == nil {
		ignore = func(string) bool { return false }
	}
	w := &Watcher{
		fsnotify: fsWatch,
		debounce: debounce,
		ignore:   ignore,
		changes:  make(chan []string),
		errors:   make(chan error),
		done:     make(chan struct{}),
	}
	if err := w.watchRecursive(root); err != nil {
		fsWatch.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.start()

	return w, nil
}

// Changes delivers debounced batches of sorted, distinct paths.
func (w *Watcher) Changes() <-chan []string {
	return w.changes
}

func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and closes both channels.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
	})
	w.wg.Wait()
	return nil
}

func (w *Watcher) start() {
	defer w.wg.Done()

	pending := map[string]struct{}{}
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := w.watchRecursive(e.Name); err != nil {
						core.LogWarn("watch %s: %s", e.Name, err)
					}
				}
				continue
			}
			if w.ignore(e.Name) {
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			pending[e.Name] = struct{}{}
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			pending = map[string]struct{}{}
			select {
			case w.changes <- batch:
			case <-w.done:
				w.shutdown()
				return
			}

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())
			select {
			case w.errors <- err:
			case <-w.done:
				w.shutdown()
				return
			}

		case <-w.done:
			w.shutdown()
			return
		}
	}
}

func (w *Watcher) shutdown() {
	w.fsnotify.Close()
	close(w.changes)
	close(w.errors)
}

// watchRecursive adds path and all directories under it to the watch list.
func (w *Watcher) watchRecursive(path string) error {
	return filepath.WalkDir(path, func(walkPath string, d os.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return w.fsnotify.Add(walkPath)
		}
		return nil
	})
}
