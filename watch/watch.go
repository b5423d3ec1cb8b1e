// Package watch reports debounced batches of file system changes.
//
// Editors often produce several events for one save (truncate, write,
// chmod, rename). A [Watcher] collects events until the watched tree has
// been quiet for its delay and then delivers them as one batch, one entry
// per path.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ardnew/htmpl/log"
)

// DefaultDelay is the quiet period used when none is configured.
const DefaultDelay = 100 * time.Millisecond

// Event is a change to one path. Op accumulates every operation seen for
// the path within a batch.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Filter reports whether a change to path is of interest.
type Filter func(path string) bool

// Watcher watches directories and delivers debounced change batches.
type Watcher struct {
	fsw    *fsnotify.Watcher
	delay  time.Duration
	filter Filter
	logger log.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDelay sets the quiet period that ends a batch.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithFilter drops events whose path does not satisfy f.
func WithFilter(f Filter) Option {
	return func(w *Watcher) { w.filter = f }
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(w *Watcher) { w.logger = logger }
}

// New returns a Watcher with no watched paths.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{fsw: fsw, delay: DefaultDelay}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Add watches each path. A regular file is watched through its parent
// directory, which also catches editors that replace the file on save.
func (w *Watcher) Add(paths ...string) error {
	for _, path := range paths {
		dir := path

		info, err := os.Stat(path)
		if err != nil {
			return err
		}

		if !info.IsDir() {
			dir = filepath.Dir(path)
		}

		if slices.Contains(w.fsw.WatchList(), dir) {
			continue
		}

		if err := w.fsw.Add(dir); err != nil {
			return err
		}

		w.logger.Debug("watching", slog.String("dir", dir))
	}

	return nil
}

// Close stops watching all paths.
func (w *Watcher) Close() error { return w.fsw.Close() }

// Run delivers batches to fn until ctx is done or the watcher is closed.
// An error from fn is logged and does not stop the watcher.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context, []Event) error) error {
	timer := time.NewTimer(w.delay)
	timer.Stop()

	var pending []Event

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}

			if w.filter != nil && !w.filter(ev.Name) {
				continue
			}

			pending = merge(pending, ev)
			timer.Reset(w.delay)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}

			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.WarnContext(ctx, "events dropped", slog.Any("error", err))

				continue
			}

			w.logger.ErrorContext(ctx, "watch error", slog.Any("error", err))

		case <-timer.C:
			batch := pending
			pending = nil

			w.logger.TraceContext(ctx, "change batch", slog.Int("event_count", len(batch)))

			if err := fn(ctx, batch); err != nil {
				w.logger.ErrorContext(ctx, "change handler failed", slog.Any("error", err))
			}
		}
	}
}

// merge adds ev to events, combining it with an earlier event for the
// same path.
func merge(events []Event, ev fsnotify.Event) []Event {
	i := slices.IndexFunc(events, func(e Event) bool { return e.Path == ev.Name })
	if i < 0 {
		return append(events, Event{Path: ev.Name, Op: ev.Op})
	}

	events[i].Op |= ev.Op

	return events
}
