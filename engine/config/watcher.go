package config

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/statetrack/engine/core"
)

// Watcher calls back whenever one of the watched files is written or
// replaced. Directories are watched instead of the files themselves so that
// editors saving through a rename are still seen.
type Watcher struct {
	onChange func(path string)

	mutex sync.Mutex
	files map[string]struct{}
	dirs  map[string]struct{}

	fsnotify *fsnotify.Watcher
	done     chan struct{}
	stopped  chan struct{}
	isClosed bool
}

func NewWatcher(onChange func(path string)) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		onChange: onChange,
		files:    make(map[string]struct{}),
		dirs:     make(map[string]struct{}),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go w.start()
	return w, nil
}

// Add starts watching the named file.
func (w *Watcher) Add(name string) error {
	path, err := filepath.Abs(name)
	if err != nil {
		return err
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.isClosed {
		return errors.New("watcher already closed")
	}
	dir := filepath.Dir(path)
	if _, ok := w.dirs[dir]; !ok {
		if err := w.fsnotify.Add(dir); err != nil {
			return err
		}
		w.dirs[dir] = struct{}{}
	}
	w.files[path] = struct{}{}
	return nil
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
	<-w.stopped
	return nil
}

func (w *Watcher) watched(path string) bool {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	_, ok := w.files[path]
	return ok
}

func (w *Watcher) start() {
	defer close(w.stopped)
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			path, err := filepath.Abs(e.Name)
			if err != nil || !w.watched(path) {
				continue
			}
			core.LogDebug("%s changed (%s)", path, e.Op)
			w.onChange(path)

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-w.done:
			w.fsnotify.Close()
			return
		}
	}
}
