package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ardnew/htmpl/log"
	"github.com/ardnew/htmpl/pkg"
)

// Check compiles templates without rendering them.
type Check struct {
	Templates []string `arg:"" help:"Template files to compile" name:"template"`
	Tree      bool     `help:"Print the compiled node tree of each template" short:"t"`
}

// Run executes the check command. Every template is compiled even after a
// failure so that all errors are reported at once.
func (c *Check) Run(ctx context.Context, in *Input) error {
	engine := in.Engine()
	w := stdout(ctx)
	failed := 0

	for _, name := range c.Templates {
		t, err := engine.CompileFile(ctx, name)
		if err != nil {
			failed++

			log.ErrorContext(ctx, "check failed", slog.Any("error", err))

			continue
		}

		log.DebugContext(ctx, "check passed", slog.String("template", name))

		if c.Tree {
			if _, err := fmt.Fprintf(w, "%s:\n", name); err != nil {
				return pkg.ErrWriteOutput.Wrap(err)
			}

			if err := t.Print(w); err != nil {
				return pkg.ErrWriteOutput.Wrap(err)
			}
		}
	}

	if failed > 0 {
		return pkg.ErrCheckFailed.Wrapf("%d of %d templates", failed, len(c.Templates))
	}

	return nil
}
