// Package watch delivers change notifications for individual files.
//
// Editors often save by writing a temporary file and renaming it over the
// original, which drops a watch placed on the file itself. Watcher therefore
// watches the parent directory and filters events by name, so a
// subscription survives atomic saves and files that do not exist yet.
//
// Events for one path are coalesced: subscribers run once the path has
// been quiet for the debounce delay, so a save that emits several events
// triggers a single reload.
package watch

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrClosed is returned by Watch after Close.
var ErrClosed = errors.New("watcher closed")

// DefaultDebounce is the quiet period before subscribers of a path run.
const DefaultDebounce = 100 * time.Millisecond

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Zero or less delivers every event.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// Watcher fans fsnotify events out to per-file subscribers.
type Watcher struct {
	fsw      *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration

	mu      sync.Mutex
	subs    map[string]map[int]func() // clean path -> subscription id -> callback
	dirs    map[string]int            // watched directory -> subscriber count
	pending map[string]*time.Timer    // clean path -> debounce timer
	nextID  int
	closed  bool

	done chan struct{}
}

// New starts a watcher. A nil logger uses slog.Default().
func New(logger *slog.Logger, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		fsw:      fsw,
		logger:   logger,
		debounce: DefaultDebounce,
		subs:     make(map[string]map[int]func()),
		dirs:     make(map[string]int),
		pending:  make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.loop()
	return w, nil
}

// Watch calls onChange after path is written, created, renamed or removed
// and then left alone for the debounce delay. The callback must not block.
//
// The returned cancel function releases the subscription; calling it more
// than once is a no-op.
func (w *Watcher) Watch(path string, onChange func()) (cancel func(), err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}

	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		w.logger.Debug("watching directory", "dir", dir)
	}
	w.dirs[dir]++

	id := w.nextID
	w.nextID++
	if w.subs[abs] == nil {
		w.subs[abs] = make(map[int]func())
	}
	w.subs[abs][id] = onChange

	var once sync.Once
	return func() {
		once.Do(func() { w.unsubscribe(abs, dir, id) })
	}, nil
}

func (w *Watcher) unsubscribe(abs, dir string, id int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	delete(w.subs[abs], id)
	if len(w.subs[abs]) == 0 {
		delete(w.subs, abs)
	}

	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		if err := w.fsw.Remove(dir); err != nil {
			w.logger.Debug("unwatch directory", "dir", dir, "error", err)
		}
	}
}

// Close stops the watcher. Pending callbacks are not delivered.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.subs = nil
	w.dirs = nil
	for _, t := range w.pending {
		t.Stop()
	}
	w.pending = nil
	w.mu.Unlock()

	err := w.fsw.Close()
	<-w.done
	return err
}

const relevantOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

func (w *Watcher) loop() {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&relevantOps == 0 {
				continue
			}
			w.schedule(event.Name)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// schedule (re)starts the debounce timer for name. Paths nobody
// subscribes to are dropped here.
func (w *Watcher) schedule(name string) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return
	}

	if w.debounce <= 0 {
		w.deliver(abs)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || len(w.subs[abs]) == 0 {
		return
	}
	if t, ok := w.pending[abs]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[abs] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, abs)
		w.mu.Unlock()
		w.deliver(abs)
	})
}

func (w *Watcher) deliver(abs string) {
	for _, fn := range w.callbacks(abs) {
		fn()
	}
}

func (w *Watcher) callbacks(abs string) []func() {
	w.mu.Lock()
	defer w.mu.Unlock()

	subs := w.subs[abs]
	out := make([]func(), 0, len(subs))
	for _, fn := range subs {
		out = append(out, fn)
	}
	return out
}
