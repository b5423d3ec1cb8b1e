package tmpl

import (
	"errors"
	"strings"
	"testing"
)

func TestCompile_Tree(t *testing.T) {
	src := "a{{$x}}{{foreach: var=i, source=$l}}[{{$i}}]{{else}}none{{end}}" +
		"{{template: file=p.htmpl, k=v}}{{comment: gone}}z"

	tpl, err := Compile(src)
	if err != nil {
		t.Fatal(err)
	}

	if len(tpl.Nodes) != 5 {
		t.Fatalf("got %d top-level nodes, want 5", len(tpl.Nodes))
	}

	loop, ok := tpl.Nodes[2].(*DirectiveNode)
	if !ok || loop.Kind != KindForeach {
		t.Fatalf("node 2 = %#v, want foreach directive", tpl.Nodes[2])
	}

	if len(loop.Body) != 3 || len(loop.Else) != 1 {
		t.Errorf("foreach body/else lengths = %d/%d, want 3/1", len(loop.Body), len(loop.Else))
	}

	include := tpl.Nodes[3].(*DirectiveNode)
	if include.Kind != KindTemplate || include.Body != nil {
		t.Errorf("template directive = %#v", include)
	}

	if o, ok := include.Args.Get("k"); !ok || o.Raw != "v" {
		t.Errorf("template param k = %v, %v", o, ok)
	}

	var sb strings.Builder
	if err := tpl.Print(&sb); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"foreach var=i, source=$l", "  1:", "else", "template file=p.htmpl, k=v"} {
		if !strings.Contains(sb.String(), want) {
			t.Errorf("Print output missing %q:\n%s", want, sb.String())
		}
	}
}

func TestCompile_ElseAbsent(t *testing.T) {
	tpl, err := Compile("{{if: condition=$c}}x{{end}}{{if: condition=$c}}x{{else}}{{end}}")
	if err != nil {
		t.Fatal(err)
	}

	if n := tpl.Nodes[0].(*DirectiveNode); n.Else != nil {
		t.Errorf("Else = %#v, want nil without else", n.Else)
	}

	if n := tpl.Nodes[1].(*DirectiveNode); n.Else == nil {
		t.Error("Else = nil, want empty list after else")
	}
}

func TestCompile_Comments(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "comment",
			src:  "before {{comment: hey there I shouldn't render}} after",
			want: "before  after",
		},
		{
			name: "bare comment",
			src:  "a{{comment}}b",
			want: "ab",
		},
		{
			name: "blockcomment",
			src:  "a{{blockcomment}}hidden {{$x}}{{end}}b",
			want: "ab",
		},
		{
			name: "nested blockcomment",
			src: "a{{blockcomment}}x{{if: condition=$c}}y{{end}}" +
				"{{foreach: bogus}}{{end}}{{blockcomment}}{{end}}z{{end}}b",
			want: "ab",
		},
		{
			name: "else in blockcomment",
			src:  "before {{blockcomment}} a {{else}} b {{end}} after",
			want: "before  after",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl, err := Compile(tt.src)
			if err != nil {
				t.Fatal(err)
			}

			got, err := tpl.Render(t.Context(), NewContext(NewMap("x", 1, "c", true), nil, nil))
			if err != nil {
				t.Fatal(err)
			}

			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"stray end", "a{{end}}", "end without open block"},
		{"stray else", "a{{else}}b", "else without open block"},
		{"duplicate else", "{{if: condition=1}}a{{else}}b{{else}}c{{end}}", "duplicate else"},
		{"missing end", "{{foreach: var=x, source=$l}}body", "missing end"},
		{"missing blockcomment end", "{{blockcomment}}{{if: condition=1}}{{end}}", "missing end"},
		{"unknown directive", "{{bogus: a=b}}", "unknown directive"},
		{"unterminated", "text {{$a", "unterminated directive"},
		{"missing argument", "{{foreach: var=x}}{{end}}", "missing required argument"},
		{"unknown argument", "{{if: condition=1, cond=2}}{{end}}", "unknown argument"},
		{"duplicate argument", "{{if: condition=1, condition=2}}{{end}}", "duplicate argument"},
		{"not key value", "{{static_resource: file}}", "expected key=value"},
		{"reference name", "{{foreach: var=$x, source=$l}}{{end}}", "expected a variable name"},
		{"empty name", "{{with_local_resource: glob=*, as=}}{{end}}", "expected a variable name"},
		{"bad reference", "{{$a->}}", "empty path segment"},
		{"bad eval", "{{eval(1 +)}}", "syntax error"},
		{"unclosed eval", "{{if: condition=eval(1}}{{end}}", "missing closing parenthesis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.src)
			if !errors.Is(err, ErrSyntax) {
				t.Fatalf("Compile(%q) error = %v, want ErrSyntax", tt.src, err)
			}

			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Compile(%q) error = %q, want it to contain %q", tt.src, err, tt.want)
			}
		})
	}
}

func TestCompile_Position(t *testing.T) {
	_, err := Compile("line one\n  {{bogus}}")
	if err == nil {
		t.Fatal("expected error")
	}

	if !strings.Contains(err.Error(), "line=2, column=3") {
		t.Errorf("error %q does not report line 2 column 3", err)
	}
}

func TestCompile_ArgumentSplitting(t *testing.T) {
	tpl, err := Compile("{{if: condition=eval(max($a, $b) > 1), as=m}}{{end}}")
	if err != nil {
		t.Fatal(err)
	}

	n := tpl.Nodes[0].(*DirectiveNode)
	if len(n.Args) != 2 {
		t.Fatalf("got %d args, want 2: %v", len(n.Args), n.Args)
	}

	if o, _ := n.Args.Get("condition"); o.Raw != "eval(max($a, $b) > 1)" {
		t.Errorf("condition = %q", o.Raw)
	}
}
