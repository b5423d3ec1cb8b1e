package data

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/htmpl/pkg"
	"github.com/ardnew/htmpl/tmpl"
)

func TestDecode(t *testing.T) {
	m, err := Decode(strings.NewReader(`
b: 1
a:
  y: 2
  x: -3
list: [1, two, 2.5]
flag: true
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a", "list", "flag"}, m.Keys())

	b, _ := m.Get("b")
	assert.Equal(t, 1, b)

	a, _ := m.Get("a")
	require.IsType(t, &tmpl.Map{}, a)
	assert.Equal(t, []string{"y", "x"}, a.(*tmpl.Map).Keys())

	x, _ := a.(*tmpl.Map).Get("x")
	assert.Equal(t, -3, x)

	list, _ := m.Get("list")
	assert.Equal(t, []any{1, "two", 2.5}, list)

	flag, _ := m.Get("flag")
	assert.Equal(t, true, flag)
}

func TestDecode_JSON(t *testing.T) {
	m, err := Decode(strings.NewReader(`{"z": "last", "a": {"k": [1, 2]}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a"}, m.Keys())
	assert.Equal(t, "{z: last, a: {k: [1, 2]}}", tmpl.Stringify(m))
}

func TestDecode_Empty(t *testing.T) {
	for _, doc := range []string{"", "~\n", "# only a comment\n"} {
		m, err := Decode(strings.NewReader(doc))
		require.NoError(t, err, doc)
		assert.Equal(t, 0, m.Len(), doc)
	}
}

func TestDecode_NotMapping(t *testing.T) {
	_, err := Decode(strings.NewReader("- a\n- b\n"))
	require.ErrorIs(t, err, pkg.ErrReadData)
	assert.Contains(t, err.Error(), "not a mapping")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.yaml")
	override := filepath.Join(dir, "override.yaml")

	require.NoError(t, os.WriteFile(base, []byte("site:\n  title: Base\n  lang: en\nn: 1\n"), 0o644))
	require.NoError(t, os.WriteFile(override, []byte("site:\n  title: Override\nn: [2]\n"), 0o644))

	m, err := Load(base, override)
	require.NoError(t, err)

	assert.Equal(t, "{site: {title: Override, lang: en}, n: [2]}", tmpl.Stringify(m))

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, pkg.ErrReadData)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestSet(t *testing.T) {
	tests := []struct {
		assignment string
		want       string
	}{
		{"a=1", "{site: {title: T}, a: 1}"},
		{"site->title=New", "{site: {title: New}}"},
		{"$site->lang = fr", "{site: {title: T, lang: fr}}"},
		{"site=flat", "{site: flat}"},
		{"list=[a, b]", "{site: {title: T}, list: [a, b]}"},
		{"deep->er->key=", "{site: {title: T}, deep: {er: {key: }}}"},
	}

	for _, tt := range tests {
		t.Run(tt.assignment, func(t *testing.T) {
			m := tmpl.NewMap("site", tmpl.NewMap("title", "T"))

			require.NoError(t, Set(m, tt.assignment))
			assert.Equal(t, tt.want, tmpl.Stringify(m))
		})
	}
}

func TestSet_Invalid(t *testing.T) {
	for _, assignment := range []string{"novalue", "a->->b=1", "=1"} {
		err := Set(tmpl.NewMap(), assignment)
		require.ErrorIs(t, err, pkg.ErrInvalidSet, assignment)
	}
}

func TestMarshal(t *testing.T) {
	out, err := Marshal(tmpl.NewMap("b", 1, "a", tmpl.NewMap("z", "x", "y", []any{1, 2})))
	require.NoError(t, err)

	m, err := Decode(strings.NewReader(string(out)))
	require.NoError(t, err)
	assert.Equal(t, "{b: 1, a: {z: x, y: [1, 2]}}", tmpl.Stringify(m))
	assert.True(t, strings.HasPrefix(string(out), "b: 1\n"))
}
