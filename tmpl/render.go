package tmpl

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// renderer carries the state of one top-level render: the engine that
// supplies includes and the stack of template files being rendered.
type renderer struct {
	engine *Engine
	stack  []string
}

func (r *renderer) nodes(ctx context.Context, sb *strings.Builder, nodes []Node, c *Context) error {
	for _, n := range nodes {
		switch t := n.(type) {
		case *TextNode:
			sb.WriteString(t.Text)

		case *RefNode:
			v, err := t.Value.Value(c, false)
			if err != nil {
				return WrapError(err).WithPosition(t.Position)
			}

			sb.WriteString(Stringify(v))

		case *DirectiveNode:
			if err := ctx.Err(); err != nil {
				return err
			}

			if err := r.directive(ctx, sb, t, c); err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *renderer) directive(ctx context.Context, sb *strings.Builder, n *DirectiveNode, c *Context) error {
	var err error

	switch n.Kind {
	case KindForeach:
		err = r.foreach(ctx, sb, n, c)
	case KindIf:
		err = r.cond(ctx, sb, n, c)
	case KindTemplate:
		err = r.include(ctx, sb, n, c)
	case KindStaticResource:
		err = r.static(sb, n, c)
	case KindWithLocalResource:
		err = r.local(ctx, sb, n, c)
	}

	if err == nil {
		return nil
	}

	// Only the innermost directive locates the failure.
	var ee *Error
	if !errors.As(err, &ee) || ee.has("line") {
		return err
	}

	return ee.With(slog.String("directive", n.Kind.String())).WithPosition(n.Position)
}

// arg resolves the named argument, which the compiler guarantees is present
// for required keys. Absent optional arguments yield nil.
func arg(n *DirectiveNode, key string, c *Context) (any, error) {
	o, ok := n.Args.Get(key)
	if !ok {
		return nil, nil
	}

	return o.Value(c, false)
}

// name returns the literal variable name given for key.
func name(n *DirectiveNode, key string) (string, bool) {
	o, ok := n.Args.Get(key)
	if !ok {
		return "", false
	}

	return o.Raw, true
}

func (r *renderer) foreach(ctx context.Context, sb *strings.Builder, n *DirectiveNode, c *Context) error {
	source, err := arg(n, "source", c)
	if err != nil {
		return err
	}

	varName, _ := name(n, "var")

	if source == nil || source == "" {
		return r.nodes(ctx, sb, n.Else, c)
	}

	items, ok := elements(source)
	if !ok {
		src, _ := n.Args.Get("source")

		return ErrNotIterable.With(
			slog.String("source", src.Raw),
			slog.String("type", typeName(source)),
		)
	}

	if len(items) == 0 {
		return r.nodes(ctx, sb, n.Else, c)
	}

	for _, item := range items {
		scope := c.Scope()
		scope.Bind(varName, item)

		if err := r.nodes(ctx, sb, n.Body, scope); err != nil {
			return err
		}
	}

	return nil
}

func (r *renderer) cond(ctx context.Context, sb *strings.Builder, n *DirectiveNode, c *Context) error {
	v, err := arg(n, "condition", c)
	if err != nil {
		return err
	}

	scope := c
	if as, ok := name(n, "as"); ok {
		scope = c.Scope()
		scope.Bind(as, v)
	}

	if Truthy(v) {
		return r.nodes(ctx, sb, n.Body, scope)
	}

	return r.nodes(ctx, sb, n.Else, scope)
}

func (r *renderer) include(ctx context.Context, sb *strings.Builder, n *DirectiveNode, c *Context) error {
	v, err := arg(n, "file", c)
	if err != nil {
		return err
	}

	file := Stringify(v)

	scope := c.WithPath(includePath(c.path, file))

	for _, a := range n.Args {
		if a.Key == "file" {
			continue
		}

		pv, err := a.Value.Value(c, false)
		if err != nil {
			return err
		}

		scope.Bind(a.Key, pv)
	}

	return r.file(ctx, sb, file, scope)
}

// file renders the template stored at name into sb.
func (r *renderer) file(ctx context.Context, sb *strings.Builder, name string, c *Context) error {
	key := cleanPath(name)

	if i := slices.Index(r.stack, key); i >= 0 {
		cycle := append(slices.Clone(r.stack[i:]), key)

		return ErrRecursion.With(slog.String("cycle", strings.Join(cycle, " → ")))
	}

	if len(r.stack) >= r.engine.maxDepth {
		return ErrMaxDepth.With(
			slog.String("file", key),
			slog.Int("max_depth", r.engine.maxDepth),
		)
	}

	t, err := r.engine.CompileFile(ctx, name)
	if err != nil {
		return err
	}

	r.engine.logger.TraceContext(ctx, "include",
		slog.String("file", key),
		slog.Int("depth", len(r.stack)),
	)

	r.stack = append(r.stack, key)
	defer func() { r.stack = r.stack[:len(r.stack)-1] }()

	err = r.nodes(ctx, sb, t.Nodes, c)

	var ee *Error
	if errors.As(err, &ee) && !ee.has("template") {
		return ee.With(slog.String("template", key))
	}

	return err
}

func (r *renderer) static(sb *strings.Builder, n *DirectiveNode, c *Context) error {
	v, err := arg(n, "file", c)
	if err != nil {
		return err
	}

	sb.WriteString(strings.Repeat("../", c.Depth()))
	sb.WriteString(Stringify(v))

	return nil
}

func (r *renderer) local(ctx context.Context, sb *strings.Builder, n *DirectiveNode, c *Context) error {
	pattern, err := arg(n, "glob", c)
	if err != nil {
		return err
	}

	all, err := arg(n, "all_files", c)
	if err != nil {
		return err
	}

	as, _ := name(n, "as")

	matches, err := r.engine.fs.Glob(Stringify(pattern))
	if err != nil {
		kind := ErrGlob
		if errors.Is(err, path.ErrBadPattern) || errors.Is(err, filepath.ErrBadPattern) {
			kind = ErrSyntax
		}

		return kind.Wrap(err).With(slog.String("glob", Stringify(pattern)))
	}

	r.engine.logger.TraceContext(ctx, "glob",
		slog.String("pattern", Stringify(pattern)),
		slog.Int("match_count", len(matches)),
	)

	if len(matches) == 0 {
		return r.nodes(ctx, sb, n.Else, c)
	}

	if !Flag(all) {
		matches = matches[:1]
	}

	for _, match := range matches {
		scope := c.Scope()
		scope.Bind(as, filepath.Base(match))

		if err := r.nodes(ctx, sb, n.Body, scope); err != nil {
			return err
		}
	}

	return nil
}

// includePath returns the output path of a template included from base.
// A relative file appends its directory segments, with ".." removing one;
// an absolute file leaves the path unchanged.
func includePath(base []string, file string) []string {
	out := slices.Clone(base)

	file = filepath.ToSlash(file)
	if path.IsAbs(file) || filepath.IsAbs(file) {
		return out
	}

	dir := path.Dir(file)
	if dir == "." {
		return out
	}

	for _, seg := range strings.Split(dir, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, seg)
		}
	}

	return out
}

func cleanPath(name string) string {
	return filepath.ToSlash(filepath.Clean(name))
}

func isNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
