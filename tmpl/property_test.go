package tmpl

import (
	"context"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestProperties(t *testing.T) {
	ctx := context.Background()
	params := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(params)

	properties.Property("text without directives renders unchanged", prop.ForAll(
		func(s string) bool {
			got, err := RenderString(ctx, s, NewContext(nil, nil, nil))

			return err == nil && got == s
		},
		gen.AnyString().SuchThat(func(s string) bool {
			return !strings.Contains(s, openDelim)
		}),
	))

	properties.Property("static_resource climbs one level per path segment", prop.ForAll(
		func(path []string, name string) bool {
			got, err := RenderString(ctx,
				"{{static_resource: file="+name+"}}",
				NewContext(nil, nil, path))

			return err == nil && got == strings.Repeat("../", len(path))+name
		},
		gen.SliceOf(gen.Identifier()),
		gen.Identifier(),
	))

	properties.Property("foreach renders every element in order", prop.ForAll(
		func(items []string) bool {
			list := make([]any, len(items))
			for i, s := range items {
				list[i] = s
			}

			got, err := RenderString(ctx,
				"{{foreach: var=i, source=$list}}{{$i}};{{end}}",
				NewContext(NewMap("list", list), nil, nil))

			var want strings.Builder
			for _, s := range items {
				want.WriteString(s + ";")
			}

			return err == nil && got == want.String()
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
