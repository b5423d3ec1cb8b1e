package tmpl

import (
	"errors"
	"testing"
)

func TestEvaluate(t *testing.T) {
	c := NewContext(NewMap(
		"x", 2,
		"y", 3,
		"s", "42",
		"f", "1.5",
		"name", "hi",
		"log-level", "debug",
		"a", 7,
		"nums", NewMap("x", "42", "y", 11),
		"data", NewMap("var", "y"),
	), nil, nil)

	tests := []struct {
		text string
		want any
	}{
		{"$x + $y", 5},
		{"$x*$y", 6},
		{"$s + 11", 53},
		{"$f * 2", 3.0},
		{"$x > 1 && $y < 10", true},
		{"$name == \"hi\"", true},
		{"$name + \"!\"", "hi!"},
		{"\"$x\" + $name", "$xhi"},
		{"$a-1", 6},
		{"$log-level == \"debug\"", true},
		{"$missing == \"\"", true},
		{"($x + $y) * 2", 10},
		{"$nums->x + $nums->($data->var)", 53},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := Evaluate(t.Context(), tt.text, c)
			if err != nil {
				t.Fatalf("Evaluate(%q) unexpected error: %v", tt.text, err)
			}

			if got != tt.want {
				t.Errorf("Evaluate(%q) = %#v, want %#v", tt.text, got, tt.want)
			}
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	c := NewContext(NewMap("s", "abc"), nil, nil)

	tests := []struct {
		text string
		want error
	}{
		{"1 +", ErrSyntax},
		{"$ + 1", ErrSyntax},
		{"$s + 1", ErrEvaluate},
		{"$missing + 1", ErrEvaluate},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			_, err := Evaluate(t.Context(), tt.text, c)
			if !errors.Is(err, tt.want) {
				t.Errorf("Evaluate(%q) error = %v, want %v", tt.text, err, tt.want)
			}
		})
	}
}

func TestExpr_Reuse(t *testing.T) {
	e, err := CompileExpr("$n * 10")
	if err != nil {
		t.Fatal(err)
	}

	for _, n := range []int{1, 2, 3} {
		got, err := e.Eval(NewContext(NewMap("n", n), nil, nil))
		if err != nil {
			t.Fatal(err)
		}

		if got != n*10 {
			t.Errorf("Eval with n=%d = %v, want %d", n, got, n*10)
		}
	}

	if e.String() != "eval($n * 10)" {
		t.Errorf("String() = %q", e.String())
	}
}
