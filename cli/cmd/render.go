package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/htmpl/log"
)

// Render renders one template.
type Render struct {
	Template string `arg:"" default:"-" help:"Template file, or '-' for stdin"`
	Output   string `help:"Write output to file, replacing it atomically" placeholder:"FILE" short:"o" type:"path"`
}

// Run executes the render command.
func (r *Render) Run(ctx context.Context, in *Input) error {
	vars, err := in.Load()
	if err != nil {
		return err
	}

	out, err := render(ctx, in.Engine(), r.Template, in.Context(vars, r.Output))
	if err != nil {
		return err
	}

	if err := output(ctx, r.Output, out); err != nil {
		return err
	}

	log.DebugContext(ctx, "rendered",
		slog.String("template", r.Template),
		slog.String("output", r.Output),
		slog.Int("bytes", len(out)),
	)

	return nil
}
