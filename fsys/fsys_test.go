package fsys

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestOS_ReadFile(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()

	writeFiles(t, first, map[string]string{"shared.htmpl": "first"})
	writeFiles(t, second, map[string]string{
		"shared.htmpl": "second",
		"only/2.htmpl": "two",
	})

	o := NewOS(first, second)

	got, err := o.ReadFile("shared.htmpl")
	require.NoError(t, err)
	assert.Equal(t, "first", got, "earlier directory wins")

	got, err = o.ReadFile("only/2.htmpl")
	require.NoError(t, err)
	assert.Equal(t, "two", got)

	got, err = o.ReadFile(filepath.Join(second, "shared.htmpl"))
	require.NoError(t, err)
	assert.Equal(t, "second", got, "absolute names bypass the search path")

	_, err = o.ReadFile("missing.htmpl")
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestOS_Glob(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()

	writeFiles(t, first, map[string]string{"img/b.png": "", "img/x.txt": ""})
	writeFiles(t, second, map[string]string{"img/a.png": ""})

	got, err := NewOS(first, second).Glob("img/*.png")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(first, "img", "b.png"),
		filepath.Join(second, "img", "a.png"),
	}, sorted(got))

	got, err = NewOS(first).Glob("img/*.gif")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = NewOS(first).Glob("img/[")
	require.ErrorIs(t, err, filepath.ErrBadPattern)
}

func TestOS_GlobDeduplicates(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.css": ""})

	got, err := NewOS(dir, dir).Glob("*.css")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.css")}, got)
}

func TestNewOS_Default(t *testing.T) {
	assert.Equal(t, []string{"."}, NewOS().Dirs())
}

func TestSearchPath(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	missing := filepath.Join(a, "missing")
	env := b + string(os.PathListSeparator) + missing + string(os.PathListSeparator) + a

	got := SearchPath(env, a)
	require.NotEmpty(t, got)
	assert.Equal(t, a, got[0], "explicit directories come first")
	assert.Contains(t, got, b)
	assert.NotContains(t, got, missing)
	assert.Len(t, got, 2)

	assert.Empty(t, SearchPath("", missing))
}

func TestFromFS(t *testing.T) {
	f := FromFS(fstest.MapFS{
		"page.htmpl": {Data: []byte("hello")},
		"img/b.png":  {},
		"img/a.png":  {},
		"img/c.txt":  {},
	})

	got, err := f.ReadFile("./page.htmpl")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	_, err = f.ReadFile("nope")
	require.ErrorIs(t, err, fs.ErrNotExist)

	matches, err := f.Glob("img/*.png")
	require.NoError(t, err)
	assert.Equal(t, []string{"img/a.png", "img/b.png"}, matches)
}

func sorted(s []string) []string {
	out := append([]string(nil), s...)
	slices.Sort(out)

	return out
}
