package cli

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// EventType represents the type of file change event.
type EventType int

const (
	EventCreated EventType = iota
	EventModified
	EventDeleted
	EventRenamed
)

// FileEvent represents a file change event.
type FileEvent struct {
	Type EventType
	Path string
	Name string
}

// String returns a human-readable string for the event type.
func (e EventType) String() string {
	switch e {
	case EventCreated:
		return "created"
	case EventModified:
		return "modified"
	case EventDeleted:
		return "deleted"
	case EventRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

const defaultDebounce = 200 * time.Millisecond

// Watcher watches directories for changes.
type Watcher struct {
	watcher   *fsnotify.Watcher
	debounce  time.Duration
	handlers  map[string][]WatchHandler
	mu        sync.RWMutex
	wg        sync.WaitGroup
	events    chan FileEvent
	done      chan struct{}
	pendingMu sync.Mutex
	pending   map[string]*time.Timer
	stopOnce  sync.Once
}

// WatchHandler is called when a file change is detected.
type WatchHandler func(event FileEvent)

// WatcherOption configures the watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the debounce duration for file events.
// Multiple events for the same file within this duration will be coalesced.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher creates a new file watcher.
func NewWatcher(opts ...WatcherOption) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  fsWatcher,
		debounce: defaultDebounce,
		handlers: make(map[string][]WatchHandler),
		events:   make(chan FileEvent, 100),
		done:     make(chan struct{}),
		pending:  make(map[string]*time.Timer),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// WatchDir adds a directory to the watch list. handler receives events for the
// directory's direct children.
func (w *Watcher) WatchDir(dir string, handler WatchHandler) error {
	w.mu.Lock()
	w.handlers[dir] = append(w.handlers[dir], handler)
	w.mu.Unlock()

	return w.watcher.Add(dir)
}

// Start begins watching for file changes.
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(2)

	go func() {
		defer w.wg.Done()
		w.processLoop(ctx)
	}()

	go func() {
		defer w.wg.Done()
		w.dispatchLoop(ctx)
	}()
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		w.wg.Wait()
		err = w.watcher.Close()
	})
	return err
}

// processLoop reads fsnotify events and converts them to FileEvents.
func (w *Watcher) processLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Watcher error")
		}
	}
}

// handleFSEvent converts an fsnotify event to a FileEvent and debounces it. Chmod-only
// events are dropped.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	var eventType EventType
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = EventCreated
	case event.Op&fsnotify.Write != 0:
		eventType = EventModified
	case event.Op&fsnotify.Remove != 0:
		eventType = EventDeleted
	case event.Op&fsnotify.Rename != 0:
		eventType = EventRenamed
	default:
		return
	}

	w.schedule(FileEvent{
		Type: eventType,
		Path: event.Name,
		Name: filepath.Base(event.Name),
	})
}

// schedule delivers fileEvent once no further event for the same path arrived within
// the debounce window.
func (w *Watcher) schedule(fileEvent FileEvent) {
	name := fileEvent.Path

	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if timer, exists := w.pending[name]; exists {
		timer.Stop()
	}

	w.pending[name] = time.AfterFunc(w.debounce, func() {
		w.pendingMu.Lock()
		delete(w.pending, name)
		w.pendingMu.Unlock()

		select {
		case w.events <- fileEvent:
		default:
			log.Warn().Str("path", name).Msg("Event channel full, dropping event")
		}
	})
}

// dispatchLoop dispatches file events to registered handlers.
func (w *Watcher) dispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event := <-w.events:
			w.dispatchEvent(event)
		}
	}
}

// dispatchEvent finds matching handlers and calls them.
func (w *Watcher) dispatchEvent(event FileEvent) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for pattern, handlers := range w.handlers {
		if matchesPattern(event.Path, pattern) {
			for _, handler := range handlers {
				handler(event)
			}
		}
	}
}

// matchesPattern reports whether path is pattern or lies directly inside it.
func matchesPattern(path, pattern string) bool {
	return path == pattern || filepath.Dir(path) == pattern
}
