package tmpl

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Expr is a compiled eval(...) expression.
//
// Every reference embedded in the source is replaced by a synthetic variable
// before compilation. At run time each reference is resolved against the
// rendering context and bound to its variable, so the compiled program is
// reused across contexts.
type Expr struct {
	Source  string
	refs    []*Ref
	program *vm.Program
}

// refVar returns the synthetic variable name bound to the i-th reference.
func refVar(i int) string { return "__ref" + strconv.Itoa(i) }

// CompileExpr compiles the text between "eval(" and the closing ")".
func CompileExpr(source string) (*Expr, error) {
	e := &Expr{Source: source}

	var sb strings.Builder

	for i := 0; i < len(source); {
		switch c := source[i]; c {
		case '"', '\'', '`':
			end := skipQuoted(source, i)
			sb.WriteString(source[i:end])
			i = end

		case '$':
			p := &refParser{src: source, pos: i, embedded: true}

			r, err := p.parseRef()
			if err != nil {
				return nil, ErrSyntax.Wrap(err).With(slog.String("expression", source))
			}

			sb.WriteString(refVar(len(e.refs)))
			e.refs = append(e.refs, r)
			i = p.pos

		default:
			sb.WriteByte(c)
			i++
		}
	}

	program, err := expr.Compile(sb.String())
	if err != nil {
		return nil, ErrSyntax.Wrap(err).With(slog.String("expression", source))
	}

	e.program = program

	return e, nil
}

// Evaluate compiles and runs text, the body of an eval(...) expression,
// against c.
func Evaluate(ctx context.Context, text string, c *Context) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e, err := CompileExpr(text)
	if err != nil {
		return nil, err
	}

	return e.Eval(c)
}

// skipQuoted returns the offset just past the string literal starting at i.
// An unterminated literal extends to the end of s.
func skipQuoted(s string, i int) int {
	quote := s[i]

	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			if quote != '`' {
				j++
			}
		case quote:
			return j + 1
		}
	}

	return len(s)
}

// Eval resolves the embedded references in c and runs the expression.
// References resolve permissively; an unresolved reference is "".
func (e *Expr) Eval(c *Context) (any, error) {
	env := make(map[string]any, len(e.refs))

	for i, r := range e.refs {
		v, err := r.Resolve(c, false)
		if err != nil {
			return nil, err
		}

		env[refVar(i)] = coerce(v)
	}

	out, err := vm.Run(e.program, env)
	if err != nil {
		return nil, ErrEvaluate.Wrap(err).With(slog.String("expression", e.Source))
	}

	return out, nil
}

// coerce converts numeric strings to numbers so that arithmetic on values
// read from text data behaves as expected.
func coerce(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}

	t := strings.TrimSpace(s)
	if t == "" || !strings.ContainsAny(t[:1], "0123456789+-.") {
		return s
	}

	if n, err := strconv.Atoi(t); err == nil {
		return n
	}

	if f, err := strconv.ParseFloat(t, 64); err == nil {
		return f
	}

	return s
}

func (e *Expr) String() string { return "eval(" + e.Source + ")" }
