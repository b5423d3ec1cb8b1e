package tmpl

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/ardnew/htmpl/fsys"
	"github.com/ardnew/htmpl/log"
)

// DefaultMaxDepth bounds the number of nested template inclusions.
const DefaultMaxDepth = 64

// Engine compiles and renders templates, reading included files and
// resource globs through its file system.
//
// An Engine caches compiled templates by content hash and by file path.
// It is safe for concurrent use.
type Engine struct {
	fs       fsys.FS
	logger   log.Logger
	maxDepth int

	texts cache
	files cache
}

// Option configures an Engine.
type Option func(*Engine)

// WithFS sets the file system used for includes and globs.
func WithFS(fs fsys.FS) Option {
	return func(e *Engine) {
		if fs != nil {
			e.fs = fs
		}
	}
}

// WithLogger sets the logger. The zero Logger discards everything.
func WithLogger(logger log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxDepth sets the maximum include nesting depth.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// New returns an Engine. By default it reads from the working directory
// and does not log.
func New(opts ...Option) *Engine {
	e := &Engine{
		fs:       fsys.NewOS(),
		maxDepth: DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

var defaultEngine = sync.OnceValue(func() *Engine { return New() })

// Compile compiles text, reusing the result for identical text.
func (e *Engine) Compile(ctx context.Context, text string) (*Template, error) {
	return e.compileText(ctx, "", text)
}

// CompileFile reads and compiles the template at name once; later calls
// return the cached result until Invalidate or Reset.
func (e *Engine) CompileFile(ctx context.Context, name string) (*Template, error) {
	return e.compileFile(ctx, name)
}

// Invalidate drops the cached compilation of the file name.
func (e *Engine) Invalidate(name string) {
	e.files.delete(cleanPath(name))
}

// Reset drops every cached compilation.
func (e *Engine) Reset() {
	e.files.clear()
	e.texts.clear()
}

// Render renders t against c.
func (e *Engine) Render(ctx context.Context, t *Template, c *Context) (string, error) {
	return e.render(ctx, t, c, nil)
}

// RenderTo renders t against c and writes the output to w.
// Nothing is written if rendering fails.
func (e *Engine) RenderTo(ctx context.Context, w io.Writer, t *Template, c *Context) error {
	out, err := e.Render(ctx, t, c)
	if err != nil {
		return err
	}

	_, err = io.WriteString(w, out)

	return err
}

// RenderString compiles text and renders it against c.
func (e *Engine) RenderString(ctx context.Context, text string, c *Context) (string, error) {
	t, err := e.Compile(ctx, text)
	if err != nil {
		return "", err
	}

	return e.Render(ctx, t, c)
}

// RenderFile compiles the template at name and renders it against c.
// The file heads the inclusion stack, so it may not include itself.
func (e *Engine) RenderFile(ctx context.Context, name string, c *Context) (string, error) {
	t, err := e.CompileFile(ctx, name)
	if err != nil {
		return "", err
	}

	return e.render(ctx, t, c, []string{cleanPath(name)})
}

func (e *Engine) render(ctx context.Context, t *Template, c *Context, stack []string) (string, error) {
	if c == nil {
		c = NewContext(nil, nil, nil)
	}

	r := &renderer{engine: e, stack: stack}

	var sb strings.Builder

	if err := r.nodes(ctx, &sb, t.Nodes, c); err != nil {
		e.logger.DebugContext(ctx, "render failed",
			slog.String("template", t.Name),
			slog.Any("error", err),
		)

		return "", err
	}

	e.logger.TraceContext(ctx, "render complete",
		slog.String("template", t.Name),
		slog.Int("output_bytes", sb.Len()),
	)

	return sb.String(), nil
}

// Render renders t against c using an Engine that reads includes from the
// working directory.
func (t *Template) Render(ctx context.Context, c *Context) (string, error) {
	return defaultEngine().Render(ctx, t, c)
}

// RenderTo is like Render but writes the output to w.
func (t *Template) RenderTo(ctx context.Context, w io.Writer, c *Context) error {
	return defaultEngine().RenderTo(ctx, w, t, c)
}

// RenderString compiles and renders text against c using the default Engine.
func RenderString(ctx context.Context, text string, c *Context) (string, error) {
	return defaultEngine().RenderString(ctx, text, c)
}
