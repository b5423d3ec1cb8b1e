package repl

import (
	"testing"
	"testing/fstest"

	"github.com/ardnew/htmpl/fsys"
	"github.com/ardnew/htmpl/log"
	"github.com/ardnew/htmpl/tmpl"
)

func testModel(t *testing.T) model {
	t.Helper()

	engine := tmpl.New(tmpl.WithFS(fsys.FromFS(fstest.MapFS{
		"greet.htmpl": {Data: []byte("hello {{$name}}")},
	})))

	return newModel(t.Context(), Session{
		Engine: engine,
		Data:   tmpl.NewMap("name", "world", "site", tmpl.NewMap("title", "Home")),
	}, NewHistory(""), log.Logger{})
}

func TestModelRender(t *testing.T) {
	m := testModel(t)

	tests := []struct {
		input string
		want  string
	}{
		{"{{$site->title}}", "Home"},
		{"{{template: file=greet.htmpl}}!", "hello world!"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		got, err := m.render(tt.input)
		if err != nil {
			t.Fatalf("render(%q): %v", tt.input, err)
		}

		if got != tt.want {
			t.Errorf("render(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	if _, err := m.render("{{if: condition=$name}}"); err == nil {
		t.Error("render accepted an unterminated block")
	}
}

func TestModelCommands(t *testing.T) {
	m := testModel(t)

	m, _ = m.executeCommand("set site->title=Away")

	got, err := m.render("{{$site->title}}")
	if err != nil {
		t.Fatal(err)
	}

	if got != "Away" {
		t.Errorf("after set, title = %q, want %q", got, "Away")
	}

	m, _ = m.executeCommand("quit")
	if !m.quitting {
		t.Error("quit did not mark the model as quitting")
	}
}

func TestModelExecuteInput(t *testing.T) {
	m := testModel(t)

	m.input.SetValue(":set n=1")
	m, _ = m.executeInput()

	if v, ok := m.data.Get("n"); !ok || v != 1 {
		t.Errorf("n = %v (%v), want 1", v, ok)
	}

	if m.input.Value() != "" {
		t.Errorf("input = %q, want it cleared", m.input.Value())
	}

	if e, err := m.history.Entry(0); err != nil || e.Line != ":set n=1" {
		t.Errorf("history entry = %v, %v", e, err)
	}
}

func TestModelCompletion(t *testing.T) {
	m := testModel(t)

	m.input.SetValue("{{$site->ti")
	m.input.SetCursor(len("{{$site->ti"))
	refreshMatches(&m)

	if len(m.matches) != 1 || m.matches[0].Str != "title" {
		t.Fatalf("matches = %v, want [title]", m.matches)
	}

	m = m.cycle(1)

	if got := m.input.Value(); got != "{{$site->title" {
		t.Errorf("input after completion = %q", got)
	}
}

func TestModelHistoryStep(t *testing.T) {
	m := testModel(t)

	for _, e := range []HistoryEntry{{"one", modeEval}, {"data", modeCtrl}, {"two", modeEval}} {
		if err := m.history.Add(e.Line, e.Mode); err != nil {
			t.Fatal(err)
		}
	}

	m.historyIdx = m.history.Len()

	m = m.historyStep(-1, false)
	if m.input.Value() != "two" || m.mode != modeEval {
		t.Fatalf("step 1: input %q mode %v", m.input.Value(), m.mode)
	}

	m = m.historyStep(-1, false)
	if m.input.Value() != "data" || m.mode != modeCtrl {
		t.Fatalf("step 2: input %q mode %v", m.input.Value(), m.mode)
	}

	m = m.switchToMode(modeEval)
	m.historyIdx = m.history.Len()

	m = m.historyStep(-1, true)
	m = m.historyStep(-1, true)

	if m.input.Value() != "one" || m.mode != modeEval {
		t.Errorf("in-mode steps: input %q mode %v", m.input.Value(), m.mode)
	}

	m = m.historyStep(1, true)
	m = m.historyStep(1, true)

	if m.input.Value() != "" || m.historyIdx != m.history.Len() {
		t.Errorf("stepping past newest: input %q idx %d", m.input.Value(), m.historyIdx)
	}
}
