package tmpl

import (
	"slices"
	"testing"
)

func TestMap(t *testing.T) {
	m := NewMap("c", 1, "a", 2)
	m.Set("b", 3)
	m.Set("c", 4)

	if got, want := m.Keys(), []string{"c", "a", "b"}; !slices.Equal(got, want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}

	if v, ok := m.Get("c"); !ok || v != 4 {
		t.Errorf("Get(c) = %v, %v; want 4, true", v, ok)
	}

	m.Delete("a")
	m.Delete("missing")

	if got, want := m.Keys(), []string{"c", "b"}; !slices.Equal(got, want) {
		t.Errorf("Keys() after Delete = %v, want %v", got, want)
	}

	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}

	var visited []string
	for k := range m.All() {
		visited = append(visited, k)

		break
	}

	if !slices.Equal(visited, []string{"c"}) {
		t.Errorf("All() stopped early visited %v", visited)
	}

	clone := m.Clone()
	clone.Set("z", 0)

	if m.Len() != 2 || clone.Len() != 3 {
		t.Errorf("Clone shares storage: len %d, clone len %d", m.Len(), clone.Len())
	}
}

func TestMap_Nil(t *testing.T) {
	var m *Map

	if _, ok := m.Get("a"); ok {
		t.Error("Get on nil map reported a value")
	}

	if m.Len() != 0 || m.Keys() != nil {
		t.Error("nil map is not empty")
	}

	for range m.All() {
		t.Error("All on nil map yielded")
	}

	m.Delete("a")
}

func TestNewMap_OddArgs(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewMap with odd arguments did not panic")
		}
	}()

	NewMap("a")
}
