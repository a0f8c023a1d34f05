package dbconfig

import (
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a pool-defaults YAML file for changes and invokes its
// callback with the newly loaded defaults, directly reusing the
// teacher's config.Watcher debounce-and-reload wiring.
type Watcher struct {
	path     string
	callback func(*PoolDefaults)
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	stopCh   chan struct{}
}

// NewWatcher starts watching path and returns the Watcher. Call Stop to
// release the underlying fsnotify handle.
func NewWatcher(path string, callback func(*PoolDefaults)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     path,
		callback: callback,
		watcher:  fw,
		stopCh:   make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	var debounce *time.Timer
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, w.reload)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("dbconfig: watcher error", "error", err)
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) reload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	d, err := LoadDefaults(w.path)
	if err != nil {
		slog.Warn("dbconfig: hot-reload failed", "path", w.path, "error", err)
		return
	}
	slog.Info("dbconfig: pool defaults reloaded", "path", w.path, "defaults", d.String())
	w.callback(d)
}

// Stop stops the watcher and releases the fsnotify handle.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	return w.watcher.Close()
}
