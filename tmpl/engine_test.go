package tmpl

import (
	"errors"
	"io/fs"
	"slices"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/ardnew/htmpl/fsys"
)

func file(s string) *fstest.MapFile { return &fstest.MapFile{Data: []byte(s)} }

func testEngine(files fstest.MapFS, opts ...Option) *Engine {
	return New(append([]Option{WithFS(fsys.FromFS(files))}, opts...)...)
}

func TestEngine_Template(t *testing.T) {
	e := testEngine(fstest.MapFS{
		"main.htmpl":          file("abc {{template: file=inner.htmpl, a=b, c=$baz}} xyz"),
		"inner.htmpl":         file("template text {{$foo}} {{$a}} {{$c}}"),
		"leak.htmpl":          file("{{template: file=inner.htmpl, a=b, c=$baz}}[{{$a}}]"),
		"partials/nav.htmpl":  file("<{{static_resource: file=s.css}}>"),
		"section/index.htmpl": file("{{template: file=partials/nav.htmpl}}"),
	})

	tests := []struct {
		name string
		file string
		path []string
		want string
	}{
		{"parameters and caller data", "main.htmpl", nil, "abc template text bar b qux xyz"},
		{"parameters do not leak", "leak.htmpl", nil, "template text bar b qux[]"},
		{"include subdirectory", "partials/nav.htmpl", nil, "<s.css>"},
		{"include path", "section/index.htmpl", nil, "<../s.css>"},
		{"include path from depth", "section/index.htmpl", []string{"docs"}, "<../../s.css>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewContext(NewMap("foo", "bar", "baz", "qux"), nil, tt.path)

			got, err := e.RenderFile(t.Context(), tt.file, c)
			if err != nil {
				t.Fatalf("RenderFile(%q) unexpected error: %v", tt.file, err)
			}

			if got != tt.want {
				t.Errorf("RenderFile(%q) = %q, want %q", tt.file, got, tt.want)
			}
		})
	}
}

func TestIncludePath(t *testing.T) {
	tests := []struct {
		base []string
		file string
		want []string
	}{
		{nil, "x.htmpl", nil},
		{[]string{"a"}, "x.htmpl", []string{"a"}},
		{nil, "./p/q/x.htmpl", []string{"p", "q"}},
		{[]string{"docs", "partials"}, "../x.htmpl", []string{"docs"}},
		{[]string{"docs"}, "../../x.htmpl", nil},
		{[]string{"a"}, "/abs/x.htmpl", []string{"a"}},
	}

	for _, tt := range tests {
		if got := includePath(tt.base, tt.file); !slices.Equal(got, tt.want) {
			t.Errorf("includePath(%v, %q) = %v, want %v", tt.base, tt.file, got, tt.want)
		}
	}
}

func TestEngine_Recursion(t *testing.T) {
	e := testEngine(fstest.MapFS{
		"a.htmpl":    file("A{{template: file=b.htmpl}}"),
		"b.htmpl":    file("B{{template: file=a.htmpl}}"),
		"self.htmpl": file("{{template: file=self.htmpl}}"),
	})

	tests := []struct {
		name  string
		file  string
		cycle string
	}{
		{"mutual", "a.htmpl", "a.htmpl → b.htmpl → a.htmpl"},
		{"self", "self.htmpl", "self.htmpl → self.htmpl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.RenderFile(t.Context(), tt.file, NewContext(nil, nil, nil))
			if !errors.Is(err, ErrRecursion) {
				t.Fatalf("error = %v, want ErrRecursion", err)
			}

			if !strings.Contains(err.Error(), tt.cycle) {
				t.Errorf("error %q does not name cycle %q", err, tt.cycle)
			}
		})
	}

	_, err := e.RenderString(t.Context(), "{{template: file=a.htmpl}}", nil)
	if !errors.Is(err, ErrRecursion) {
		t.Errorf("RenderString error = %v, want ErrRecursion", err)
	}
}

func TestEngine_MaxDepth(t *testing.T) {
	e := testEngine(fstest.MapFS{
		"d0": file("{{template: file=d1}}"),
		"d1": file("{{template: file=d2}}"),
		"d2": file("{{template: file=d3}}"),
		"d3": file("bottom"),
	}, WithMaxDepth(2))

	_, err := e.RenderString(t.Context(), "{{template: file=d0}}", nil)
	if !errors.Is(err, ErrMaxDepth) {
		t.Fatalf("error = %v, want ErrMaxDepth", err)
	}

	got, err := e.RenderString(t.Context(), "{{template: file=d2}}", nil)
	if err != nil || got != "bottom" {
		t.Errorf("RenderString within depth = %q, %v", got, err)
	}
}

func TestEngine_NotFound(t *testing.T) {
	e := testEngine(fstest.MapFS{})

	_, err := e.RenderString(t.Context(), "x{{template: file=missing.htmpl}}", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}

	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error %v does not wrap fs.ErrNotExist", err)
	}

	_, err = e.RenderFile(t.Context(), "missing.htmpl", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("RenderFile error = %v, want ErrNotFound", err)
	}
}

func TestEngine_IncludeSyntaxError(t *testing.T) {
	e := testEngine(fstest.MapFS{"bad.htmpl": file("{{if: condition=1}}")})

	_, err := e.RenderString(t.Context(), "{{template: file=bad.htmpl}}", nil)
	if !errors.Is(err, ErrSyntax) {
		t.Fatalf("error = %v, want ErrSyntax", err)
	}

	if !strings.Contains(err.Error(), "template=bad.htmpl") {
		t.Errorf("error %q does not name the template", err)
	}
}

func TestEngine_LocalResource(t *testing.T) {
	e := testEngine(fstest.MapFS{
		"img/b.png": file(""),
		"img/a.png": file(""),
		"img/c.txt": file(""),
	})

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"first match", "{{with_local_resource: glob=img/*.png, as=f}}<{{$f}}>{{end}}", "<a.png>"},
		{"all files", "{{with_local_resource: glob=img/*.png, as=f, all_files=true}}<{{$f}}>{{end}}", "<a.png><b.png>"},
		{"all files false", "{{with_local_resource: glob=img/*.png, as=f, all_files=False}}<{{$f}}>{{end}}", "<a.png>"},
		{"all files ref", "{{with_local_resource: glob=img/*, as=f, all_files=$all}}{{$f}} {{end}}", "a.png b.png c.txt "},
		{"glob ref", "{{with_local_resource: glob=$pattern, as=f}}{{$f}}{{end}}", "c.txt"},
		{"no match", "{{with_local_resource: glob=img/*.gif, as=f}}x{{end}}", ""},
		{"no match else", "{{with_local_resource: glob=img/*.gif, as=f}}x{{else}}none{{end}}", "none"},
		{"binding scoped", "{{with_local_resource: glob=img/*.txt, as=f}}{{end}}[{{$f}}]", "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewContext(NewMap("all", true, "pattern", "img/*.txt"), nil, nil)

			got, err := e.RenderString(t.Context(), tt.src, c)
			if err != nil {
				t.Fatalf("RenderString(%q) unexpected error: %v", tt.src, err)
			}

			if got != tt.want {
				t.Errorf("RenderString(%q) = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}

type brokenFS struct{ err error }

func (b brokenFS) ReadFile(string) (string, error) { return "", b.err }

func (b brokenFS) Glob(string) ([]string, error) { return nil, b.err }

func TestEngine_GlobError(t *testing.T) {
	src := "{{with_local_resource: glob=img/*, as=f}}{{$f}}{{end}}"

	e := New(WithFS(brokenFS{err: errors.New("device not ready")}))

	_, err := e.RenderString(t.Context(), src, nil)
	if !errors.Is(err, ErrGlob) {
		t.Fatalf("error = %v, want ErrGlob", err)
	}

	if errors.Is(err, ErrSyntax) {
		t.Errorf("error %v is reported as a syntax error", err)
	}

	e = testEngine(fstest.MapFS{"img/a.png": file("")})

	_, err = e.RenderString(t.Context(), "{{with_local_resource: glob=img/[, as=f}}{{end}}", nil)
	if !errors.Is(err, ErrSyntax) {
		t.Errorf("bad pattern error = %v, want ErrSyntax", err)
	}
}

func TestEngine_IncludeErrorNamesTemplate(t *testing.T) {
	e := testEngine(fstest.MapFS{
		"inner.htmpl": file("\n{{foreach: var=i, source=$n}}{{end}}"),
	})

	_, err := e.RenderString(t.Context(), "{{template: file=inner.htmpl, n=5}}",
		NewContext(nil, nil, nil))
	if !errors.Is(err, ErrNotIterable) {
		t.Fatalf("error = %v, want ErrNotIterable", err)
	}

	for _, want := range []string{"template=inner.htmpl", "line=2, column=1"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not contain %q", err, want)
		}
	}
}

func TestEngine_Invalidate(t *testing.T) {
	files := fstest.MapFS{"page.htmpl": file("v1")}
	e := testEngine(files)

	render := func() string {
		t.Helper()

		got, err := e.RenderFile(t.Context(), "page.htmpl", nil)
		if err != nil {
			t.Fatal(err)
		}

		return got
	}

	if got := render(); got != "v1" {
		t.Fatalf("first render = %q", got)
	}

	files["page.htmpl"] = file("v2")

	if got := render(); got != "v1" {
		t.Errorf("cached render = %q, want v1", got)
	}

	e.Invalidate("./page.htmpl")

	if got := render(); got != "v2" {
		t.Errorf("render after Invalidate = %q, want v2", got)
	}

	files["page.htmpl"] = file("v3")
	e.Reset()

	if got := render(); got != "v3" {
		t.Errorf("render after Reset = %q, want v3", got)
	}
}

func TestEngine_CompileCache(t *testing.T) {
	e := New()

	a, err := e.Compile(t.Context(), "{{$x}}")
	if err != nil {
		t.Fatal(err)
	}

	b, err := e.Compile(t.Context(), "{{$x}}")
	if err != nil {
		t.Fatal(err)
	}

	if a != b {
		t.Error("identical text compiled twice")
	}

	if _, err := e.Compile(t.Context(), "{{end}}"); !errors.Is(err, ErrSyntax) {
		t.Errorf("Compile error = %v, want ErrSyntax", err)
	}
}

func TestEngine_RenderTo(t *testing.T) {
	e := New()

	tpl, err := e.Compile(t.Context(), "{{$a}}{{foreach: var=i, source=$a}}{{end}}")
	if err != nil {
		t.Fatal(err)
	}

	var sb strings.Builder

	err = e.RenderTo(t.Context(), &sb, tpl, NewContext(NewMap("a", 1), nil, nil))
	if !errors.Is(err, ErrNotIterable) {
		t.Fatalf("error = %v, want ErrNotIterable", err)
	}

	if sb.Len() != 0 {
		t.Errorf("RenderTo wrote %q on failure", sb.String())
	}

	if err := e.RenderTo(t.Context(), &sb, tpl, NewContext(NewMap("a", []any{}), nil, nil)); err != nil {
		t.Fatal(err)
	}

	if sb.String() != "[]" {
		t.Errorf("RenderTo wrote %q, want %q", sb.String(), "[]")
	}
}
