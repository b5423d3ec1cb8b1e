package tmpl

import (
	"context"
	"log/slog"
	"slices"
	"strings"
)

// Operand is a directive argument value or substitution: a reference,
// an eval(...) expression, or a literal string.
type Operand struct {
	Raw  string
	ref  *Ref
	expr *Expr
}

// ParseOperand classifies and compiles raw, which is trimmed first.
func ParseOperand(raw string) (Operand, error) {
	raw = strings.TrimSpace(raw)
	o := Operand{Raw: raw}

	switch {
	case strings.HasPrefix(raw, "eval("):
		if !strings.HasSuffix(raw, ")") {
			return o, ErrSyntax.With(
				slog.String("expression", raw),
				slog.String("reason", "missing closing parenthesis"),
			)
		}

		e, err := CompileExpr(raw[len("eval(") : len(raw)-1])
		if err != nil {
			return o, err
		}

		o.expr = e

	case strings.HasPrefix(raw, "$"):
		r, err := ParseRef(raw)
		if err != nil {
			return o, err
		}

		o.ref = r
	}

	return o, nil
}

// Literal reports whether o is a plain string.
func (o Operand) Literal() bool { return o.ref == nil && o.expr == nil }

// Value produces the operand's value in c.
func (o Operand) Value(c *Context, strict bool) (any, error) {
	switch {
	case o.expr != nil:
		return o.expr.Eval(c)
	case o.ref != nil:
		return o.ref.Resolve(c, strict)
	default:
		return o.Raw, nil
	}
}

// Resolve evaluates expression in c: eval(...) runs the expression,
// $path looks up a variable, and anything else is returned unchanged.
func Resolve(ctx context.Context, expression string, c *Context, strict bool) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o, err := ParseOperand(expression)
	if err != nil {
		return nil, err
	}

	return o.Value(c, strict)
}

// Arg is one key=value directive argument.
type Arg struct {
	Key   string
	Value Operand
}

// Args is the ordered argument list of a directive.
type Args []Arg

// Get returns the operand for key.
func (a Args) Get(key string) (Operand, bool) {
	i := slices.IndexFunc(a, func(arg Arg) bool { return arg.Key == key })
	if i < 0 {
		return Operand{}, false
	}

	return a[i].Value, true
}

func (a Args) String() string {
	parts := make([]string, len(a))
	for i, arg := range a {
		parts[i] = arg.Key + "=" + arg.Value.Raw
	}

	return strings.Join(parts, ", ")
}

// signature lists the argument keys a directive accepts.
type signature struct {
	required []string
	optional []string
	names    []string // keys whose value must be a plain identifier
	open     bool     // accept arbitrary extra keys
}

var signatures = map[Kind]signature{
	KindForeach: {
		required: []string{"var", "source"},
		names:    []string{"var"},
	},
	KindIf: {
		required: []string{"condition"},
		optional: []string{"as"},
		names:    []string{"as"},
	},
	KindTemplate: {
		required: []string{"file"},
		open:     true,
	},
	KindStaticResource: {
		required: []string{"file"},
	},
	KindWithLocalResource: {
		required: []string{"glob", "as"},
		optional: []string{"all_files"},
		names:    []string{"as"},
	},
}

// parseArgs splits raw on top-level commas into key=value pairs and checks
// them against the signature of kind.
func parseArgs(kind Kind, raw string) (Args, error) {
	var args Args

	for _, piece := range splitTopLevel(raw) {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}

		key, value, ok := strings.Cut(piece, "=")
		key = strings.TrimSpace(key)

		if !ok || key == "" {
			return nil, ErrSyntax.With(
				slog.String("directive", kind.String()),
				slog.String("argument", piece),
				slog.String("reason", "expected key=value"),
			)
		}

		if _, dup := args.Get(key); dup {
			return nil, ErrSyntax.With(
				slog.String("directive", kind.String()),
				slog.String("argument", key),
				slog.String("reason", "duplicate argument"),
			)
		}

		o, err := ParseOperand(value)
		if err != nil {
			return nil, err
		}

		args = append(args, Arg{Key: key, Value: o})
	}

	return args, signatures[kind].check(kind, args)
}

func (s signature) check(kind Kind, args Args) error {
	for _, key := range s.required {
		if _, ok := args.Get(key); !ok {
			return ErrSyntax.With(
				slog.String("directive", kind.String()),
				slog.String("argument", key),
				slog.String("reason", "missing required argument"),
			)
		}
	}

	for _, arg := range args {
		known := slices.Contains(s.required, arg.Key) ||
			slices.Contains(s.optional, arg.Key)

		if !known && !s.open {
			return ErrSyntax.With(
				slog.String("directive", kind.String()),
				slog.String("argument", arg.Key),
				slog.String("reason", "unknown argument"),
			)
		}

		if slices.Contains(s.names, arg.Key) &&
			(!arg.Value.Literal() || arg.Value.Raw == "") {
			return ErrSyntax.With(
				slog.String("directive", kind.String()),
				slog.String("argument", arg.Key),
				slog.String("reason", "expected a variable name"),
			)
		}
	}

	return nil
}

// splitTopLevel splits s on commas outside parentheses. Quotes are only
// significant inside parentheses, where they delimit expression strings.
func splitTopLevel(s string) []string {
	var (
		parts []string
		depth int
		start int
	)

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth = max(depth-1, 0)
		case '"', '\'', '`':
			if depth > 0 {
				i = skipQuoted(s, i) - 1
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}

	return append(parts, s[start:])
}
