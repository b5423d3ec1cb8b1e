package cmd

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ardnew/htmpl/log"
	"github.com/ardnew/htmpl/tmpl"
	"github.com/ardnew/htmpl/watch"
)

// Watch renders a template and renders it again whenever the template, a
// file in the search path, or a data file changes.
type Watch struct {
	Template string        `arg:""            help:"Template file"`
	Output   string        `help:"Write output to file, replacing it atomically" placeholder:"FILE" required:"" short:"o" type:"path"`
	Delay    time.Duration `default:"100ms"   help:"Quiet period before re-rendering"`
}

// Run executes the watch command until ctx is cancelled.
func (w *Watch) Run(ctx context.Context, in *Input) error {
	engine := in.Engine()

	watcher, err := watch.New(
		watch.WithDelay(w.Delay),
		watch.WithFilter(w.relevant),
		watch.WithLogger(log.Default()),
	)
	if err != nil {
		return err
	}
	defer watcher.Close()

	// The template may only exist relative to a search directory, which
	// is watched anyway.
	if err := watcher.Add(w.Template); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	for _, path := range append(in.Dirs(), in.Data...) {
		if path == stdinSource {
			continue
		}

		if err := watcher.Add(path); err != nil {
			return err
		}
	}

	// A failed first render does not stop the watch.
	if err := w.render(ctx, engine, in); err != nil {
		log.ErrorContext(ctx, "render failed", slog.Any("error", err))
	}

	err = watcher.Run(ctx, func(ctx context.Context, events []watch.Event) error {
		w.invalidate(engine, in.Dirs(), events)

		return w.render(ctx, engine, in)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

// relevant drops changes to the output file, which we write ourselves.
// The output is staged in a sibling temp file whose name begins with the
// output's name, so those are dropped too.
func (w *Watch) relevant(path string) bool {
	out, name := absPath(w.Output), absPath(path)
	if name == out {
		return false
	}

	return filepath.Dir(name) != filepath.Dir(out) ||
		!strings.HasPrefix(filepath.Base(name), filepath.Base(out))
}

func absPath(name string) string {
	if abs, err := filepath.Abs(name); err == nil {
		return abs
	}

	return filepath.Clean(name)
}

func (w *Watch) render(ctx context.Context, engine *tmpl.Engine, in *Input) error {
	vars, err := in.Load()
	if err != nil {
		return err
	}

	out, err := render(ctx, engine, w.Template, in.Context(vars, w.Output))
	if err != nil {
		return err
	}

	if err := output(ctx, w.Output, out); err != nil {
		return err
	}

	log.InfoContext(ctx, "rendered",
		slog.String("template", w.Template),
		slog.String("output", w.Output),
	)

	return nil
}

// invalidate drops cached compilations affected by events. A file created,
// removed, or renamed can change which search directory a name resolves
// to, so those events clear the whole cache.
func (w *Watch) invalidate(engine *tmpl.Engine, dirs []string, events []watch.Event) {
	for _, ev := range events {
		if ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Remove) ||
			ev.Op.Has(fsnotify.Rename) {
			engine.Reset()

			return
		}
	}

	for _, ev := range events {
		engine.Invalidate(ev.Path)

		for _, dir := range dirs {
			rel, err := filepath.Rel(dir, ev.Path)
			if err == nil && rel != ".." &&
				!strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				engine.Invalidate(rel)
			}
		}
	}
}
