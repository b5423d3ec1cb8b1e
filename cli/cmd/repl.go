package cmd

import (
	"context"

	"github.com/ardnew/htmpl/cli/cmd/repl"
	"github.com/ardnew/htmpl/log"
	"github.com/ardnew/htmpl/tmpl"
)

// Repl starts the interactive template playground.
type Repl struct {
	History string `default:"${history}" help:"History file, empty to disable"`
}

// HistoryIdentifier is the kong variable holding the default history file
// path.
const HistoryIdentifier = "history"

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context, in *Input) error {
	vars, err := in.Load()
	if err != nil {
		return err
	}

	return repl.Run(ctx, repl.Session{
		Engine:  in.Engine(),
		Data:    vars,
		Context: func(m *tmpl.Map) *tmpl.Context { return in.Context(m, "") },
		History: r.History,
	}, log.Default())
}
