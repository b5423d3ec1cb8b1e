package tmpl

import (
	"slices"
)

// Context is one layer of a chain of variable scopes used during rendering.
//
// Lookups search the innermost layer first, then each enclosing layer up to
// the root, whose data is the mapping supplied to NewContext. Bindings made
// by foreach, if-as, with_local_resource, and template parameters live in
// child layers created with Scope, so they are invisible to the caller once
// the directive completes.
//
// A Context is not safe for concurrent mutation; concurrent renders must
// each use their own child scope.
type Context struct {
	parent *Context
	vars   *Map
	data   any
	root   any
	path   []string
}

// NewContext returns a root scope over data.
//
// The data is typically a *Map or a map[string]any; other values make every
// top-level lookup fail. Root is an opaque value exposed to callers through
// Root, and path is the current output directory relative to the content
// root, used by static_resource.
func NewContext(data, root any, path []string) *Context {
	return &Context{
		data: data,
		root: root,
		path: slices.Clone(path),
	}
}

// Scope returns a new child layer that inherits root and path.
func (c *Context) Scope() *Context {
	return &Context{parent: c, root: c.root, path: c.path}
}

// WithPath returns a new child layer whose path is replaced by path.
func (c *Context) WithPath(path []string) *Context {
	s := c.Scope()
	s.path = slices.Clone(path)

	return s
}

// Bind sets name in the receiver's own layer, shadowing any outer binding.
func (c *Context) Bind(name string, value any) {
	if c.vars == nil {
		c.vars = NewMap()
	}

	c.vars.Set(name, value)
}

// Lookup finds name in the nearest layer that defines it.
func (c *Context) Lookup(name string) (any, bool) {
	for s := c; s != nil; s = s.parent {
		if v, ok := s.vars.Get(name); ok {
			return v, true
		}

		if s.data != nil {
			if v, ok := member(s.data, name); ok {
				return v, true
			}
		}
	}

	return nil, false
}

// Root returns the opaque root value given to NewContext.
func (c *Context) Root() any { return c.root }

// Path returns a copy of the current output path segments.
func (c *Context) Path() []string { return slices.Clone(c.path) }

// Depth returns the number of path segments.
func (c *Context) Depth() int { return len(c.path) }

// Visible returns every name visible from c with the value it resolves to,
// ordered from the outermost layer inward.
func (c *Context) Visible() *Map {
	var chain []*Context
	for s := c; s != nil; s = s.parent {
		chain = append(chain, s)
	}

	out := NewMap()

	for _, s := range slices.Backward(chain) {
		for k, v := range entries(s.data) {
			out.Set(k, v)
		}

		for k, v := range s.vars.All() {
			out.Set(k, v)
		}
	}

	return out
}
