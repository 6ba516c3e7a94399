package gateway

import (
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/brennhill/mcpcore/internal/util"
)

// Watcher triggers Router.Reload on a file-watch event, alongside the
// explicit SIGHUP/admin-API reload paths mcpcore §6 names. It's an optional
// convenience layer — callers that only want explicit reload triggers never
// need to construct one.
type Watcher struct {
	router     *Router
	configPath string
	fsw        *fsnotify.Watcher
	stopped    atomic.Bool
	done       chan struct{}
}

// WatchConfig starts watching configPath for writes/renames and reloads
// router whenever the file changes. The initial configuration is not
// loaded by WatchConfig — call router.Reload(configPath) once before or
// after, as the caller prefers.
func WatchConfig(router *Router, configPath string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(configPath); err != nil {
		fsw.Close()
		return nil, err
	}
	w := &Watcher{router: router, configPath: configPath, fsw: fsw, done: make(chan struct{})}
	util.SafeGo(w.loop)
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := w.router.Reload(w.configPath); err != nil {
				w.router.log.WithError(err).Warn("gateway: reload triggered by file watch failed")
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.router.log.WithError(err).Warn("gateway: file watcher error")
		}
	}
}

// Close stops the watcher. Idempotent.
func (w *Watcher) Close() error {
	if !w.stopped.CompareAndSwap(false, true) {
		return nil
	}
	err := w.fsw.Close()
	<-w.done
	return err
}
