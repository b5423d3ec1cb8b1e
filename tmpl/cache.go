package tmpl

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/zeebo/xxh3"
)

// state holds the outcome of compiling one cache key exactly once.
type state struct {
	once sync.Once
	tmpl *Template
	err  error
}

// cache maps keys to compile states. Concurrent callers asking for the
// same key share one compilation.
type cache struct {
	entries sync.Map
}

func (c *cache) load(key string) (*state, bool) {
	entry := new(state)
	value, hit := c.entries.LoadOrStore(key, entry)

	return value.(*state), hit
}

func (c *cache) delete(key string) { c.entries.Delete(key) }

func (c *cache) clear() { c.entries.Clear() }

// textKey returns the cache key for template source text.
func textKey(text string) string {
	return strconv.FormatUint(xxh3.Hash([]byte(text)), 36)
}

// compileText compiles text through the content-hash cache.
func (e *Engine) compileText(ctx context.Context, name, text string) (*Template, error) {
	key := textKey(text)
	entry, hit := e.texts.load(key)

	e.logger.TraceContext(ctx, "compile cache",
		slog.String("key", key),
		slog.Bool("hit", hit),
	)

	entry.once.Do(func() {
		entry.tmpl, entry.err = parse(ctx, e.logger, name, text)
	})

	if entry.err != nil {
		e.texts.delete(key)
	}

	return entry.tmpl, entry.err
}

// compileFile reads and compiles name through the per-path cache.
func (e *Engine) compileFile(ctx context.Context, name string) (*Template, error) {
	key := cleanPath(name)
	entry, hit := e.files.load(key)

	e.logger.TraceContext(ctx, "file cache",
		slog.String("file", key),
		slog.Bool("hit", hit),
	)

	entry.once.Do(func() {
		text, err := e.fs.ReadFile(name)
		if err != nil {
			if isNotFound(err) {
				entry.err = ErrNotFound.Wrap(err).With(slog.String("file", key))
			} else {
				entry.err = ErrReadTemplate.Wrap(err).With(slog.String("file", key))
			}

			return
		}

		entry.tmpl, entry.err = parse(ctx, e.logger, key, text)
	})

	if entry.err != nil {
		e.files.delete(key)
	}

	return entry.tmpl, entry.err
}
