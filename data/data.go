// Package data loads the variables a template is rendered against.
//
// Data files are YAML (and therefore also JSON) documents whose root is a
// mapping. Mappings are decoded in document order into [tmpl.Map] values so
// that foreach over a mapping follows the order the author wrote.
package data

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/klauspost/readahead"

	"github.com/ardnew/htmpl/log"
	"github.com/ardnew/htmpl/pkg"
	"github.com/ardnew/htmpl/tmpl"
)

// Decode reads one YAML document from r. An empty document yields an
// empty map.
func Decode(r io.Reader) (*tmpl.Map, error) {
	m, err := decode(r)
	if err != nil {
		return nil, pkg.ErrReadData.Wrap(err)
	}

	return m, nil
}

var errNotMapping = errors.New("document root is not a mapping")

func decode(r io.Reader) (*tmpl.Map, error) {
	var doc any

	err := yaml.NewDecoder(r, yaml.UseOrderedMap()).Decode(&doc)
	if errors.Is(err, io.EOF) || (err == nil && doc == nil) {
		return tmpl.NewMap(), nil
	}

	if err != nil {
		return nil, err
	}

	m, ok := normalize(doc).(*tmpl.Map)
	if !ok {
		return nil, errNotMapping
	}

	return m, nil
}

// LoadFile decodes the data file name, or standard input if name is "-".
func LoadFile(name string) (*tmpl.Map, error) {
	if name == "-" {
		return Decode(os.Stdin)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, pkg.ErrReadData.Wrap(err)
	}
	defer f.Close()

	ra := readahead.NewReader(f)
	defer ra.Close()

	m, err := decode(ra)
	if err != nil {
		return nil, pkg.ErrReadData.Wrap(err).Wrapf("file %s", name)
	}

	return m, nil
}

// Load decodes each named file in order and merges them with [Merge].
func Load(names ...string) (*tmpl.Map, error) {
	out := tmpl.NewMap()

	for _, name := range names {
		m, err := LoadFile(name)
		if err != nil {
			return nil, err
		}

		Merge(out, m)

		log.Debug("loaded data", slog.String("file", name), slog.Int("keys", m.Len()))
	}

	return out, nil
}

// Merge copies src into dst. Keys holding mappings on both sides are merged
// recursively; any other value in src replaces the one in dst.
func Merge(dst, src *tmpl.Map) {
	for k, v := range src.All() {
		sub, ok := v.(*tmpl.Map)
		if ok {
			if cur, found := dst.Get(k); found {
				if into, isMap := cur.(*tmpl.Map); isMap {
					Merge(into, sub)

					continue
				}
			}
		}

		dst.Set(k, v)
	}
}

// Set applies an assignment of the form "key->sub->leaf=value" to m,
// creating intermediate mappings as needed. The value is decoded as YAML,
// so numbers, booleans, and flow sequences keep their types; a value that
// is not valid YAML is stored as a string.
func Set(m *tmpl.Map, assignment string) error {
	path, raw, ok := strings.Cut(assignment, "=")
	if !ok {
		return pkg.ErrInvalidSet.Wrapf("%q: expected key=value", assignment)
	}

	keys := strings.Split(strings.TrimSpace(path), "->")
	for i, k := range keys {
		keys[i] = strings.TrimSpace(strings.TrimPrefix(k, "$"))
		if keys[i] == "" {
			return pkg.ErrInvalidSet.Wrapf("%q: empty key", assignment)
		}
	}

	cur := m

	for _, k := range keys[:len(keys)-1] {
		next, ok := cur.Get(k)

		sub, isMap := next.(*tmpl.Map)
		if !ok || !isMap {
			sub = tmpl.NewMap()
			cur.Set(k, sub)
		}

		cur = sub
	}

	cur.Set(keys[len(keys)-1], scalar(raw))

	return nil
}

func scalar(raw string) any {
	var v any

	if err := yaml.UnmarshalWithOptions([]byte(raw), &v, yaml.UseOrderedMap()); err != nil {
		return raw
	}

	if v == nil {
		return strings.TrimSpace(raw)
	}

	return normalize(v)
}

// normalize converts decoded YAML into template values: ordered mappings
// become *tmpl.Map and integers become int where they fit.
func normalize(v any) any {
	switch t := v.(type) {
	case yaml.MapSlice:
		m := tmpl.NewMap()
		for _, item := range t {
			m.Set(tmpl.Stringify(normalize(item.Key)), normalize(item.Value))
		}

		return m

	case map[string]any:
		m := tmpl.NewMap()
		for k, c := range t {
			m.Set(k, normalize(c))
		}

		return m

	case []any:
		out := make([]any, len(t))
		for i, c := range t {
			out[i] = normalize(c)
		}

		return out

	case uint64:
		if t <= math.MaxInt {
			return int(t)
		}

		return t

	case int64:
		if t >= math.MinInt && t <= math.MaxInt {
			return int(t)
		}

		return t

	default:
		return v
	}
}

// ToMapSlice converts template values back into YAML-marshalable values,
// preserving mapping order.
func ToMapSlice(v any) any {
	switch t := v.(type) {
	case *tmpl.Map:
		out := make(yaml.MapSlice, 0, t.Len())
		for k, c := range t.All() {
			out = append(out, yaml.MapItem{Key: k, Value: ToMapSlice(c)})
		}

		return out

	case []any:
		out := make([]any, len(t))
		for i, c := range t {
			out[i] = ToMapSlice(c)
		}

		return out

	default:
		return v
	}
}

// Marshal encodes m as a YAML document.
func Marshal(m *tmpl.Map) ([]byte, error) {
	out, err := yaml.Marshal(ToMapSlice(m))
	if err != nil {
		return nil, pkg.ErrYAMLMarshal.Wrap(err)
	}

	return out, nil
}
