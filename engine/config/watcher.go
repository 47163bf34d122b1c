package config

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/meshsync/engine/core"
)

/**
 * @brief Watches a settings file and hands every valid reload to a callback.
 * The parent directory is watched so editors that replace the file on save
 * are still seen.
 */
type Watcher struct {
	path     string
	onReload func(*Settings)

	mutex    sync.Mutex
	fsnotify *fsnotify.Watcher
	done     chan struct{}
	wg       sync.WaitGroup
	isClosed bool
}

func NewWatcher(path string, onReload func(*Settings)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatch.Add(filepath.Dir(abs)); err != nil {
		fsWatch.Close()
		return nil, err
	}
	return &Watcher{
		path:     abs,
		onReload: onReload,
		fsnotify: fsWatch,
		done:     make(chan struct{}),
	}, nil
}

func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.start()
}

func (w *Watcher) start() {
	defer w.wg.Done()
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != w.path {
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.reload()
			}

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("settings watcher: %v", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) reload() {
	s, err := Load(w.path)
	if err != nil {
		core.LogWarn("ignoring settings reload of %s: %v", w.path, err)
		return
	}
	core.LogInfo("settings reloaded from %s", w.path)
	w.onReload(s)
}

func (w *Watcher) Shutdown() error {
	w.mutex.Lock()
	if w.isClosed {
		w.mutex.Unlock()
		return errors.New("settings watcher already closed")
	}
	w.isClosed = true
	close(w.done)
	w.mutex.Unlock()

	w.wg.Wait()
	return w.fsnotify.Close()
}
