package tmpl

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Kind identifies a block or inline directive.
type Kind int

const (
	// KindForeach repeats its body for each item of a sequence or mapping.
	KindForeach Kind = iota

	// KindIf renders its body when a condition is truthy.
	KindIf

	// KindTemplate renders another template file in place.
	KindTemplate

	// KindStaticResource emits a path relative to the content root.
	KindStaticResource

	// KindWithLocalResource repeats its body for each file matching a glob.
	KindWithLocalResource
)

var kindNames = [...]string{
	KindForeach:           "foreach",
	KindIf:                "if",
	KindTemplate:          "template",
	KindStaticResource:    "static_resource",
	KindWithLocalResource: "with_local_resource",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}

	return kindNames[k]
}

// Block reports whether directives of kind k own a body terminated by end.
func (k Kind) Block() bool {
	switch k {
	case KindForeach, KindIf, KindWithLocalResource:
		return true
	default:
		return false
	}
}

// Node is an element of a compiled template.
type Node interface {
	Pos() Position
}

// TextNode is literal text copied to the output unchanged.
type TextNode struct {
	Text string
	Position
}

// RefNode is a {{$ref}} or {{eval(...)}} substitution.
type RefNode struct {
	Value Operand
	Position
}

// DirectiveNode is a keyword directive. Body and Else are set for block
// kinds; Else is non-nil only when the block contained {{else}}.
type DirectiveNode struct {
	Kind Kind
	Raw  string
	Args Args
	Body []Node
	Else []Node
	Position
}

func (n *TextNode) Pos() Position      { return n.Position }
func (n *RefNode) Pos() Position       { return n.Position }
func (n *DirectiveNode) Pos() Position { return n.Position }

// Template is a compiled template. It is immutable and independent of any
// rendering context, so one Template may be rendered concurrently.
type Template struct {
	Name  string
	Nodes []Node
}

// Print writes an indented outline of the template tree to w.
func (t *Template) Print(w io.Writer) error {
	return printNodes(w, t.Nodes, 0)
}

func printNodes(w io.Writer, nodes []Node, depth int) error {
	indent := strings.Repeat("  ", depth)

	for _, n := range nodes {
		var err error

		switch t := n.(type) {
		case *TextNode:
			_, err = fmt.Fprintf(w, "%s%s text %q\n", indent, t.Position, t.Text)

		case *RefNode:
			_, err = fmt.Fprintf(w, "%s%s ref %s\n", indent, t.Position, t.Value.Raw)

		case *DirectiveNode:
			_, err = fmt.Fprintf(w, "%s%s %s %s\n", indent, t.Position, t.Kind, t.Args)
			if err == nil && t.Kind.Block() {
				err = printNodes(w, t.Body, depth+1)
				if err == nil && t.Else != nil {
					if _, err = fmt.Fprintf(w, "%selse\n", indent); err == nil {
						err = printNodes(w, t.Else, depth+1)
					}
				}
			}
		}

		if err != nil {
			return err
		}
	}

	return nil
}
