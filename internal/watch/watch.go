// Package watch detects external modification of the currently open TMX
// file, so a consumer can warn before unsaved edits are overwritten or the
// on-disk file changes underneath the model.
//
// The watcher monitors the file's directory rather than the file itself:
// editors and the atomic save path replace files by rename, which would
// silently detach a direct file watch.
package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Op is the kind of change observed on the watched file.
type Op int

const (
	// OpWrite indicates the file content changed.
	OpWrite Op = iota

	// OpReplace indicates the file was atomically replaced (create or
	// rename over the watched path).
	OpReplace

	// OpRemove indicates the file was deleted.
	OpRemove
)

// String returns the op name.
func (op Op) String() string {
	switch op {
	case OpWrite:
		return "write"
	case OpReplace:
		return "replace"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Event is one observed change of the watched file.
type Event struct {
	Path string
	Op   Op
	Time time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce coalesces rapid successive changes into one event.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// Watcher watches a single file for external changes.
type Watcher struct {
	fsw  *fsnotify.Watcher
	path string

	events chan Event
	errs   chan error

	debounce time.Duration

	mu      sync.Mutex
	closed  bool
	pending *Event
	timer   *time.Timer

	closeCh chan struct{}
	wg      sync.WaitGroup
}

// New creates a watcher for path and starts delivering events.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		path:     abs,
		events:   make(chan Event, 16),
		errs:     make(chan error, 16),
		debounce: 100 * time.Millisecond,
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Events returns the change channel. It is closed by Close.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the watch error channel.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Path returns the watched file path.
func (w *Watcher) Path() string {
	return w.path
}

// Close stops the watcher and closes its channels.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.closeCh)
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	close(w.events)
	close(w.errs)
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case fsEvent, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(fsEvent.Name) != w.path {
				continue
			}
			if op, relevant := convertOp(fsEvent.Op); relevant {
				w.queue(Event{Path: w.path, Op: op, Time: time.Now()})
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

func convertOp(op fsnotify.Op) (Op, bool) {
	switch {
	case op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename):
		return OpRemove, true
	case op.Has(fsnotify.Create):
		return OpReplace, true
	case op.Has(fsnotify.Write):
		return OpWrite, true
	default:
		return 0, false
	}
}

// queue holds an event for the debounce window, coalescing with any
// pending one. Removal wins over replace, replace over write.
func (w *Watcher) queue(event Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	if w.debounce == 0 {
		w.deliver(event)
		return
	}

	if w.pending == nil || event.Op >= w.pending.Op {
		copied := event
		w.pending = &copied
	} else {
		w.pending.Time = event.Time
	}

	if w.timer == nil {
		w.timer = time.AfterFunc(w.debounce, w.flush)
	} else {
		w.timer.Reset(w.debounce)
	}
}

func (w *Watcher) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.pending == nil {
		return
	}
	w.deliver(*w.pending)
	w.pending = nil
}

// deliver sends without blocking; a full channel drops the event rather
// than stalling the notify goroutine. Callers must hold w.mu.
func (w *Watcher) deliver(event Event) {
	select {
	case w.events <- event:
	default:
	}
}
