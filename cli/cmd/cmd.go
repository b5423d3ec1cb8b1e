package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/natefinch/atomic"

	"github.com/ardnew/htmpl/data"
	"github.com/ardnew/htmpl/fsys"
	"github.com/ardnew/htmpl/log"
	"github.com/ardnew/htmpl/pkg"
	"github.com/ardnew/htmpl/tmpl"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// stdout returns the writer kong was configured with, or os.Stdout.
func stdout(ctx context.Context) io.Writer {
	if ktx := kongContextFrom(ctx); ktx != nil && ktx.Stdout != nil {
		return ktx.Stdout
	}

	return os.Stdout
}

// stdinSource names standard input wherever a file is expected.
const stdinSource = "-"

// Input holds the flags that decide what a template is rendered against.
type Input struct {
	Include     []string `help:"Template search directory, tried in order (repeatable)" placeholder:"DIR"             short:"I" type:"path"`
	Data        []string `help:"YAML or JSON data file, '-' for stdin (repeatable)"     placeholder:"FILE"            short:"d"`
	Set         []string `help:"Override a data value (repeatable)"                     placeholder:"KEY->PATH=VALUE" sep:"none"`
	Root        string   `help:"Site root exposed to templates"`
	ContentRoot string   `help:"Directory output paths are made relative to"            placeholder:"DIR"                        type:"path"`
	MaxDepth    int      `default:"64"                                                  help:"Maximum include nesting depth"`
}

// Dirs returns the template search path: every --include directory, then
// the entries of $HTMPL_PATH, then the working directory.
func (in *Input) Dirs() []string {
	dirs := fsys.SearchPath(os.Getenv(fsys.EnvPath), in.Include...)
	if !slices.Contains(dirs, ".") {
		dirs = append(dirs, ".")
	}

	return dirs
}

// Engine returns an engine that searches [Input.Dirs].
func (in *Input) Engine() *tmpl.Engine {
	return tmpl.New(
		tmpl.WithFS(fsys.NewOS(in.Dirs()...)),
		tmpl.WithLogger(log.Default()),
		tmpl.WithMaxDepth(in.MaxDepth),
	)
}

// Load reads and merges the data files, then applies each --set.
func (in *Input) Load() (*tmpl.Map, error) {
	m, err := data.Load(in.Data...)
	if err != nil {
		return nil, err
	}

	for _, s := range in.Set {
		if err := data.Set(m, s); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Context returns a render context for output written to target.
func (in *Input) Context(vars *tmpl.Map, target string) *tmpl.Context {
	return tmpl.NewContext(vars, in.Root, in.Path(target))
}

// Path returns the directory segments of target relative to the content
// root. Targets outside the content root, or stdout (""), have no path.
func (in *Input) Path(target string) []string {
	if target == "" || target == stdinSource {
		return nil
	}

	root := in.ContentRoot
	if root == "" {
		root = "."
	}

	rel, err := filepath.Rel(root, filepath.Dir(target))
	if err != nil || rel == "." || rel == ".." ||
		strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}

	return strings.Split(filepath.ToSlash(rel), "/")
}

// render renders the template file name, or standard input if name is
// "-".
func render(
	ctx context.Context,
	engine *tmpl.Engine,
	name string,
	c *tmpl.Context,
) (string, error) {
	if name != stdinSource {
		return engine.RenderFile(ctx, name, c)
	}

	text, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", pkg.ErrReadStdin.Wrap(err)
	}

	return engine.RenderString(ctx, string(text), c)
}

// output writes out to the file target, replacing it atomically, or to
// stdout if target is empty or "-".
func output(ctx context.Context, target, out string) error {
	if target == "" || target == stdinSource {
		if _, err := io.WriteString(stdout(ctx), out); err != nil {
			return pkg.ErrWriteOutput.Wrap(err)
		}

		return nil
	}

	if err := os.MkdirAll(filepath.Dir(target), dirMode); err != nil {
		return pkg.ErrWriteOutput.Wrap(err).Wrapf("file %s", target)
	}

	if err := atomic.WriteFile(target, strings.NewReader(out)); err != nil {
		return pkg.ErrWriteOutput.Wrap(err).Wrapf("file %s", target)
	}

	return nil
}

// dirMode is the permission mode for created output directories.
const dirMode os.FileMode = 0o755
