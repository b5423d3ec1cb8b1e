package tmpl

import (
	"fmt"
	"iter"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// member returns the child of v named key.
//
// Mappings are indexed by key. Sequences are indexed by a decimal index
// in the range [0, len).
func member(v any, key string) (any, bool) {
	switch t := v.(type) {
	case *Map:
		return t.Get(key)

	case map[string]any:
		c, ok := t[key]

		return c, ok

	case map[string]string:
		c, ok := t[key]

		return c, ok

	case []any:
		i, ok := index(key, len(t))
		if !ok {
			return nil, false
		}

		return t[i], true

	case []string:
		i, ok := index(key, len(t))
		if !ok {
			return nil, false
		}

		return t[i], true

	case nil:
		return nil, false
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}

		c := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !c.IsValid() {
			return nil, false
		}

		return c.Interface(), true

	case reflect.Slice, reflect.Array:
		i, ok := index(key, rv.Len())
		if !ok {
			return nil, false
		}

		return rv.Index(i).Interface(), true

	default:
		return nil, false
	}
}

func index(key string, n int) (int, bool) {
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || i >= n {
		return 0, false
	}

	return i, true
}

// entries iterates the key/value pairs of a mapping.
// Maps other than *Map are visited in sorted key order.
func entries(v any) iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		switch t := v.(type) {
		case *Map:
			for k, c := range t.All() {
				if !yield(k, c) {
					return
				}
			}

			return

		case nil:
			return
		}

		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
			return
		}

		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}

		slices.Sort(keys)

		for _, k := range keys {
			c := rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key()))
			if !yield(k, c.Interface()) {
				return
			}
		}
	}
}

// isMapping reports whether v is a string-keyed mapping.
func isMapping(v any) bool {
	switch v.(type) {
	case *Map, map[string]any, map[string]string:
		return true
	case nil:
		return false
	}

	rv := reflect.ValueOf(v)

	return rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String
}

// elements returns the items foreach visits for v: the elements of a
// sequence or the keys of a mapping, in order.
func elements(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true

	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}

		return out, true
	}

	if isMapping(v) {
		var out []any
		for k := range entries(v) {
			out = append(out, k)
		}

		return out, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}

		return out, true
	}

	return nil, false
}

// Truthy reports whether v counts as true in an if condition.
//
// Only false, nil, and the empty string are false. Every other value,
// including 0, "0", and empty collections, is true.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	default:
		return true
	}
}

// Flag interprets v as a boolean option such as all_files.
// Strings accepted by strconv.ParseBool use that meaning; any other
// value falls back to Truthy.
func Flag(v any) bool {
	if s, ok := v.(string); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b
		}
	}

	return Truthy(v)
}

// Stringify renders v as it appears in template output.
//
// Nil renders as the empty string and floats use their shortest exact
// representation. Mappings render as {k: v, ...} and sequences as
// [a, b, ...], recursively.
func Stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	var sb strings.Builder

	writeValue(&sb, v)

	return sb.String()
}

func writeValue(sb *strings.Builder, v any) {
	switch t := v.(type) {
	case nil:
	case string:
		sb.WriteString(t)
	case bool:
		sb.WriteString(strconv.FormatBool(t))
	case int:
		sb.WriteString(strconv.Itoa(t))
	case int64:
		sb.WriteString(strconv.FormatInt(t, 10))
	case uint64:
		sb.WriteString(strconv.FormatUint(t, 10))
	case float64:
		sb.WriteString(strconv.FormatFloat(t, 'f', -1, 64))
	case float32:
		sb.WriteString(strconv.FormatFloat(float64(t), 'f', -1, 32))
	case fmt.Stringer:
		if m, ok := t.(*Map); ok {
			writeMapping(sb, m)

			return
		}

		sb.WriteString(t.String())
	default:
		switch {
		case isMapping(v):
			writeMapping(sb, v)
		default:
			items, ok := elements(v)
			if !ok {
				fmt.Fprint(sb, v)

				return
			}

			sb.WriteByte('[')

			for i, item := range items {
				if i > 0 {
					sb.WriteString(", ")
				}

				writeValue(sb, item)
			}

			sb.WriteByte(']')
		}
	}
}

func writeMapping(sb *strings.Builder, v any) {
	sb.WriteByte('{')

	i := 0

	for k, c := range entries(v) {
		if i > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(k)
		sb.WriteString(": ")
		writeValue(sb, c)

		i++
	}

	sb.WriteByte('}')
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}

	return reflect.TypeOf(v).String()
}
