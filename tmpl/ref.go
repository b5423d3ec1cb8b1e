package tmpl

import (
	"log/slog"
	"strconv"
	"strings"
)

// Ref is a parsed variable reference such as $a->b or $nums->($data->key).
//
// Grammar:
//
//	Ref     := '$' Path
//	Path    := Segment ('->' Segment)*
//	Segment := Part+
//	Part    := '(' Ref ')' | '(' literal ')' | literal
//
// A parenthesized Ref is resolved first and its rendered value is spliced
// into the enclosing segment.
type Ref struct {
	Raw      string
	Segments []Segment
}

// Segment is one key of a reference path, assembled from its parts.
type Segment []Part

// Part is either literal Text or a nested Ref.
type Part struct {
	Text string
	Ref  *Ref
}

// ParseRef parses s, which must consist of exactly one reference.
func ParseRef(s string) (*Ref, error) {
	p := &refParser{src: s}

	r, err := p.parseRef()
	if err != nil {
		return nil, err
	}

	if !p.eof() {
		return nil, ErrSyntax.With(
			slog.String("reference", s),
			slog.String("reason", "unexpected "+strconv.Quote(p.src[p.pos:p.pos+1])),
		)
	}

	return r, nil
}

// refParser is a recursive-descent parser for references.
//
// In embedded mode the reference is part of a larger expression, so a
// literal run also ends at any byte that cannot appear in a key name.
type refParser struct {
	src      string
	pos      int
	embedded bool
}

func (p *refParser) eof() bool { return p.pos >= len(p.src) }

func (p *refParser) peek() byte {
	if p.eof() {
		return 0
	}

	return p.src[p.pos]
}

func (p *refParser) arrow() bool {
	return strings.HasPrefix(p.src[p.pos:], "->")
}

func (p *refParser) fail(reason string) error {
	return ErrSyntax.With(
		slog.String("reference", p.src),
		slog.Int("offset", p.pos),
		slog.String("reason", reason),
	)
}

func (p *refParser) parseRef() (*Ref, error) {
	start := p.pos

	if p.peek() != '$' {
		return nil, p.fail("expected '$'")
	}

	p.pos++

	r := &Ref{}

	for {
		seg, err := p.parseSegment()
		if err != nil {
			return nil, err
		}

		r.Segments = append(r.Segments, seg)

		if !p.arrow() {
			break
		}

		p.pos += 2
	}

	r.Raw = p.src[start:p.pos]

	return r, nil
}

func (p *refParser) parseSegment() (Segment, error) {
	var seg Segment

	for !p.eof() && !p.arrow() {
		switch c := p.peek(); {
		case c == '(':
			part, err := p.parseGroup()
			if err != nil {
				return nil, err
			}

			seg = append(seg, part)

		case c == ')':
			return p.finish(seg)

		case p.embedded && !p.keyByte():
			return p.finish(seg)

		default:
			seg = append(seg, Part{Text: p.literal()})
		}
	}

	return p.finish(seg)
}

func (p *refParser) finish(seg Segment) (Segment, error) {
	if len(seg) == 0 {
		return nil, p.fail("empty path segment")
	}

	return seg, nil
}

// parseGroup parses a parenthesized part: a nested reference or a literal.
func (p *refParser) parseGroup() (Part, error) {
	p.pos++ // '('

	var part Part

	if p.peek() == '$' {
		inner := &refParser{src: p.src, pos: p.pos}

		r, err := inner.parseRef()
		if err != nil {
			return Part{}, err
		}

		p.pos = inner.pos
		part.Ref = r
	} else {
		end := strings.IndexAny(p.src[p.pos:], "()")
		if end < 0 {
			return Part{}, p.fail("unbalanced parenthesis")
		}

		part.Text = p.src[p.pos : p.pos+end]
		p.pos += end
	}

	if p.peek() != ')' {
		return Part{}, p.fail("unbalanced parenthesis")
	}

	p.pos++

	return part, nil
}

// literal consumes a run of key bytes.
func (p *refParser) literal() string {
	start := p.pos

	for !p.eof() && !p.arrow() {
		c := p.peek()
		if c == '(' || c == ')' {
			break
		}

		if p.embedded && !p.keyByte() {
			break
		}

		p.pos++
	}

	return p.src[start:p.pos]
}

// keyByte reports whether the byte at the cursor continues an embedded key.
// A hyphen continues the key only when followed by a letter or underscore,
// so "$a-1" is a subtraction while "$log-level" is one key.
func (p *refParser) keyByte() bool {
	c := p.peek()
	if isWordByte(c) || c == '.' {
		return true
	}

	if c == '-' && p.pos+1 < len(p.src) {
		n := p.src[p.pos+1]

		return n == '_' || ('a' <= n && n <= 'z') || ('A' <= n && n <= 'Z')
	}

	return false
}

func isWordByte(c byte) bool {
	return c == '_' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}

// keys resolves nested references and returns the literal key of each
// segment.
func (r *Ref) keys(c *Context, strict bool) ([]string, error) {
	keys := make([]string, len(r.Segments))

	for i, seg := range r.Segments {
		var sb strings.Builder

		for _, part := range seg {
			if part.Ref == nil {
				sb.WriteString(part.Text)

				continue
			}

			v, err := part.Ref.Resolve(c, strict)
			if err != nil {
				return nil, err
			}

			sb.WriteString(Stringify(v))
		}

		keys[i] = sb.String()
	}

	return keys, nil
}

// Resolve walks the reference path through c.
//
// When the path cannot be followed, Resolve returns ErrResolution if strict
// is set and the empty string otherwise.
func (r *Ref) Resolve(c *Context, strict bool) (any, error) {
	keys, err := r.keys(c, strict)
	if err != nil {
		return nil, err
	}

	v, ok := c.Lookup(keys[0])

	for _, k := range keys[1:] {
		if !ok {
			break
		}

		v, ok = member(v, k)
	}

	if !ok {
		if strict {
			return nil, ErrResolution.With(
				slog.String("variable", "$"+strings.Join(keys, "->")),
			)
		}

		return "", nil
	}

	return v, nil
}

func (r *Ref) String() string { return r.Raw }
