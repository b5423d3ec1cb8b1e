// Package log is the structured logger shared by every htmpl package.
//
// It wraps [log/slog] with a Trace level below Debug, a choice of JSON or
// text records, optional colourised "pretty" output for terminals, and
// functional options applied when a [Logger] is made:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("kitchen"))
//
//	logger.Info("rendered", slog.String("template", "index.htmpl"))
//
// The zero [Logger] discards everything, so library types such as the
// template engine can hold one unconditionally and only emit records when
// the caller provided a configured logger.
//
// Package-level functions ([Info], [Debug], ...) write through a default
// logger that the command line reconfigures with [Config] while flags are
// parsed.
package log
