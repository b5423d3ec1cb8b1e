package tmpl

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ardnew/htmpl/log"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

type tokenKind int

const (
	tokenText tokenKind = iota
	tokenDirective
)

// token is a run of literal text or the trimmed content of one {{...}}.
type token struct {
	kind tokenKind
	text string
	pos  Position
}

// head splits a directive into its keyword and the text after the first ':'.
func (t token) head() (string, string) {
	keyword, rest, _ := strings.Cut(t.text, ":")

	return strings.TrimSpace(keyword), rest
}

// scan splits src into text and directive tokens. A directive extends to the
// first closing delimiter after its opening delimiter.
func scan(src string) ([]token, error) {
	var (
		toks []token
		pos  = Position{Line: 1, Column: 1}
	)

	for rest := src; rest != ""; {
		i := strings.Index(rest, openDelim)
		if i < 0 {
			toks = append(toks, token{kind: tokenText, text: rest, pos: pos})

			break
		}

		if i > 0 {
			toks = append(toks, token{kind: tokenText, text: rest[:i], pos: pos})
			pos = pos.advance(rest[:i])
			rest = rest[i:]
		}

		j := strings.Index(rest[len(openDelim):], closeDelim)
		if j < 0 {
			return nil, ErrSyntax.WithPosition(pos).
				With(slog.String("reason", "unterminated directive"))
		}

		inner := rest[len(openDelim) : len(openDelim)+j]
		toks = append(toks, token{
			kind: tokenDirective,
			text: strings.TrimSpace(inner),
			pos:  pos,
		})

		n := len(openDelim) + j + len(closeDelim)
		pos = pos.advance(rest[:n])
		rest = rest[n:]
	}

	return toks, nil
}

// parser assembles tokens into a node tree.
type parser struct {
	toks   []token
	next   int
	logger log.Logger
}

// Compile compiles template text into a Template without caching.
// Failures are ErrSyntax errors carrying the line and column.
func Compile(text string) (*Template, error) {
	return parse(context.Background(), log.Logger{}, "", text)
}

func parse(ctx context.Context, logger log.Logger, name, text string) (*Template, error) {
	toks, err := scan(text)
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks, logger: logger}

	nodes, _, err := p.parseList(ctx, nil)
	if err != nil {
		if name != "" {
			err = WrapError(err).With(slog.String("template", name))
		}

		return nil, err
	}

	logger.TraceContext(ctx, "parse complete",
		slog.String("template", name),
		slog.Int("token_count", len(toks)),
		slog.Int("node_count", len(nodes)),
	)

	return &Template{Name: name, Nodes: nodes}, nil
}

// parseList parses nodes until the end directive closing open, or to the
// end of input when open is nil. The else list is nil unless the block
// contained an else directive.
func (p *parser) parseList(ctx context.Context, open *token) ([]Node, []Node, error) {
	var (
		body    = []Node{}
		els     []Node
		current = &body
	)

	for p.next < len(p.toks) {
		t := p.toks[p.next]
		p.next++

		if t.kind == tokenText {
			*current = append(*current, &TextNode{Text: t.text, Position: t.pos})

			continue
		}

		keyword, rest := t.head()

		switch {
		case t.text == "end":
			if open == nil {
				return nil, nil, ErrSyntax.WithPosition(t.pos).
					With(slog.String("reason", "end without open block"))
			}

			return body, els, nil

		case t.text == "else":
			if open == nil {
				return nil, nil, ErrSyntax.WithPosition(t.pos).
					With(slog.String("reason", "else without open block"))
			}

			if els != nil {
				return nil, nil, ErrSyntax.WithPosition(t.pos).
					With(slog.String("reason", "duplicate else"))
			}

			els = []Node{}
			current = &els

		case strings.HasPrefix(t.text, "$"), strings.HasPrefix(t.text, "eval("):
			o, err := ParseOperand(t.text)
			if err != nil {
				return nil, nil, WrapError(err).WithPosition(t.pos)
			}

			*current = append(*current, &RefNode{Value: o, Position: t.pos})

		case keyword == "comment":
			p.logger.TraceContext(ctx, "discard comment", slog.String("pos", t.pos.String()))

		case keyword == "blockcomment":
			if err := p.skipBlock(t); err != nil {
				return nil, nil, err
			}

		default:
			n, err := p.parseDirective(ctx, t, keyword, rest)
			if err != nil {
				return nil, nil, err
			}

			*current = append(*current, n)
		}
	}

	if open != nil {
		return nil, nil, ErrSyntax.WithPosition(open.pos).With(
			slog.String("directive", open.text),
			slog.String("reason", "missing end"),
		)
	}

	return body, els, nil
}

func (p *parser) parseDirective(
	ctx context.Context,
	t token,
	keyword, rest string,
) (*DirectiveNode, error) {
	kind, ok := keywords[keyword]
	if !ok {
		return nil, ErrSyntax.WithPosition(t.pos).With(
			slog.String("directive", keyword),
			slog.String("reason", "unknown directive"),
		)
	}

	args, err := parseArgs(kind, rest)
	if err != nil {
		return nil, WrapError(err).WithPosition(t.pos)
	}

	n := &DirectiveNode{Kind: kind, Raw: t.text, Args: args, Position: t.pos}

	if kind.Block() {
		n.Body, n.Else, err = p.parseList(ctx, &t)
		if err != nil {
			return nil, err
		}
	}

	return n, nil
}

// skipBlock discards a blockcomment, including any nested blocks, through
// its matching end.
func (p *parser) skipBlock(open token) error {
	depth := 1

	for p.next < len(p.toks) {
		t := p.toks[p.next]
		p.next++

		if t.kind != tokenDirective {
			continue
		}

		keyword, _ := t.head()

		switch {
		case t.text == "end":
			if depth--; depth == 0 {
				return nil
			}

		case keyword == "blockcomment":
			depth++

		default:
			if kind, ok := keywords[keyword]; ok && kind.Block() {
				depth++
			}
		}
	}

	return ErrSyntax.WithPosition(open.pos).With(
		slog.String("directive", "blockcomment"),
		slog.String("reason", "missing end"),
	)
}

var keywords = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[name] = Kind(k)
	}

	return m
}()
