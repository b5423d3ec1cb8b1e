package tmpl

import (
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values).
//
// Errors returned from this package derive from exactly one of these and can
// be tested with errors.Is regardless of the attributes attached to them.
var (
	ErrSyntax       = NewError("syntax error")
	ErrResolution   = NewError("unresolved variable")
	ErrRecursion    = NewError("recursive template inclusion")
	ErrNotFound     = NewError("not found")
	ErrEvaluate     = NewError("expression evaluation failed")
	ErrNotIterable  = NewError("value is not iterable")
	ErrMaxDepth     = NewError("maximum inclusion depth exceeded")
	ErrReadTemplate = NewError("failed to read template")
	ErrGlob         = NewError("failed to list resources")
)

// Position identifies a location in template source.
// Line and Column are 1-based; Offset is a 0-based byte offset.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// advance returns the position reached after consuming s from p.
func (p Position) advance(s string) Position {
	p.Offset += len(s)

	for {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			p.Column += len(s)

			return p
		}

		p.Line++
		p.Column = 1
		s = s[i+1:]
	}
}

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	kind  *Error      // Sentinel this error derives from (nil for sentinels)
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new sentinel Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
//
// Attributes are rendered between the message and the wrapped cause:
//
//	<msg> (<key>=<value>, ...): <err>
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(e.msg)

	if len(e.attrs) > 0 {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}

		sb.WriteByte('(')

		for i, a := range e.attrs {
			if i > 0 {
				sb.WriteString(", ")
			}

			sb.WriteString(a.Key)
			sb.WriteByte('=')
			sb.WriteString(a.Value.String())
		}

		sb.WriteByte(')')
	}

	if e.err != nil {
		if sb.Len() > 0 {
			sb.WriteString(": ")
		}

		sb.WriteString(e.err.Error())
	}

	return sb.String()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e derives from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e.root() == t.root()
}

func (e *Error) root() *Error {
	if e.kind != nil {
		return e.kind
	}

	return e
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		kind:  e.root(),
		err:   err,
		attrs: e.attrs,
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		kind:  e.root(),
		err:   e.err,
		attrs: newAttrs,
	}
}

// WithPosition attaches the source line and column of pos.
func (e *Error) WithPosition(pos Position) *Error {
	return e.With(slog.Int("line", pos.Line), slog.Int("column", pos.Column))
}

// has reports whether an attribute named key is attached.
func (e *Error) has(key string) bool {
	return slices.ContainsFunc(e.attrs, func(a slog.Attr) bool { return a.Key == key })
}
