package reload

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow collapses the bursts of events editors emit per save.
const debounceWindow = 100 * time.Millisecond

// Watcher monitors layout source directories and triggers a hard reload
// when a watched file changes. The trigger runs on the watcher's goroutine;
// embedders whose trees are confined to a UI goroutine should hand a
// dispatching trigger to NewWatcher.
type Watcher struct {
	watcher *fsnotify.Watcher
	trigger func(hard bool)

	mu    sync.Mutex
	timer *time.Timer
	done  chan struct{}
}

// NewWatcher creates a watcher. A nil trigger reloads the default registry.
func NewWatcher(trigger func(hard bool)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if trigger == nil {
		trigger = Reload
	}
	return &Watcher{
		watcher: fsWatcher,
		trigger: trigger,
		done:    make(chan struct{}),
	}, nil
}

// Watch adds a directory (or single file) to the watch set.
func (w *Watcher) Watch(path string) error {
	return w.watcher.Add(path)
}

// Start begins delivering reload triggers. It returns immediately; events
// are processed on a background goroutine until Close.
func (w *Watcher) Start() {
	go w.loop()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			w.schedule()
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// relevant filters to content-changing events on layout-ish files.
func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	switch strings.ToLower(filepath.Ext(event.Name)) {
	case ".xml", ".yaml", ".yml":
		return true
	}
	return false
}

// schedule arms (or re-arms) the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceWindow, func() {
		w.trigger(true)
	})
}

// Close stops the watcher and releases its file handles.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	close(w.done)
	return w.watcher.Close()
}
