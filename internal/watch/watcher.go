// Package watch monitors the content tree and triggers rebuilds when
// markdown sources, layouts, or static assets change on disk.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-sitegen/internal/logging"
	"github.com/goliatone/go-sitegen/pkg/interfaces"
)

const defaultDebounce = 250 * time.Millisecond

// ChangeEvent describes a single filesystem change observed under a watched root.
type ChangeEvent struct {
	Path    string
	Op      string
	ModTime time.Time
}

// ChangeHandler receives the debounced batch of changes.
type ChangeHandler func(events []ChangeEvent) error

// PathFilter reports whether a path is interesting to the watcher.
type PathFilter func(path string) bool

// Config controls watcher behaviour.
type Config struct {
	// Debounce is the quiet period collapsed into a single handler call.
	Debounce time.Duration
	Logger   interfaces.Logger
}

// Watcher wraps fsnotify with recursive directory registration and
// debounced change delivery.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	logger   interfaces.Logger

	mu      sync.Mutex
	filters []PathFilter
	handler ChangeHandler
	pending map[string]ChangeEvent
	timer   *time.Timer
}

// New constructs a watcher. Call Start to begin delivering events.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryCommand, "failed to initialise filesystem watcher").
			WithTextCode("SITE_WATCH_INIT_FAILED")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	return &Watcher{
		fsw:      fsw,
		debounce: debounce,
		logger:   logger,
		pending:  map[string]ChangeEvent{},
	}, nil
}

// AddFilter registers a path filter. All filters must accept a path for
// its events to be delivered.
func (w *Watcher) AddFilter(filter PathFilter) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.filters = append(w.filters, filter)
}

// SetHandler registers the callback invoked with each debounced batch.
func (w *Watcher) SetHandler(handler ChangeHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handler = handler
}

// AddRecursive watches root and every directory beneath it.
func (w *Watcher) AddRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if strings.Contains(path, string(filepath.Separator)+".git") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryCommand, "failed to watch directory").
				WithTextCode("SITE_WATCH_ADD_FAILED")
		}
		return nil
	})
}

// Start runs the event loop until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	go w.loop(ctx)
}

// Stop closes the underlying watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fsw.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Newly created directories need their own registration so nested
	// additions keep flowing.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(event.Name); err != nil {
				w.logger.Warn("watch add failed", "path", event.Name, "error", err)
			}
			return
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, filter := range w.filters {
		if !filter(event.Name) {
			return
		}
	}

	change := ChangeEvent{
		Path: event.Name,
		Op:   event.Op.String(),
	}
	if info, err := os.Stat(event.Name); err == nil {
		change.ModTime = info.ModTime()
	}
	w.pending[event.Name] = change

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	events := make([]ChangeEvent, 0, len(w.pending))
	for _, event := range w.pending {
		events = append(events, event)
	}
	w.pending = map[string]ChangeEvent{}
	handler := w.handler
	w.mu.Unlock()

	if handler == nil {
		return
	}
	if err := handler(events); err != nil {
		w.logger.Error("watch handler failed", "error", err, "events", len(events))
	}
}

// MarkdownFilter keeps markdown sources.
func MarkdownFilter(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}

// LayoutFilter keeps template layouts.
func LayoutFilter(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".html"
}

// AnyFilter accepts a path when at least one of the given filters does.
func AnyFilter(filters ...PathFilter) PathFilter {
	return func(path string) bool {
		for _, filter := range filters {
			if filter(path) {
				return true
			}
		}
		return false
	}
}
