package cli

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/htmpl/log"
)

// logFormat configures the default logger's format as a side effect of
// parsing via encoding.TextUnmarshaler, so that errors reported while kong
// is still parsing use the requested encoding.
type logFormat string

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	log.Config(log.WithFormat(log.ParseFormat(string(*f))))

	return nil
}

// logLevel configures the default logger's level as a side effect of
// parsing via encoding.TextUnmarshaler.
type logLevel string

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	log.Config(log.WithLevel(log.ParseLevel(string(*l))))

	return nil
}

type logConfig struct {
	Level      logLevel  `default:"info"    enum:"${logLevelEnum}"  help:"Set log level."`
	Format     logFormat `default:"json"    enum:"${logFormatEnum}" help:"Set log format."`
	TimeLayout string    `default:"RFC3339"                         help:"Set timestamp format."`
	Caller     bool      `default:"false"                           help:"Include caller information."       negatable:""`
	Pretty     bool      `default:"true"                            help:"Enable colorized pretty printing." negatable:""`
}

func (*logConfig) vars() kong.Vars {
	return kong.Vars{
		"logLevelEnum":  strings.Join(slices.Collect(log.Levels()), ","),
		"logFormatEnum": strings.Join(slices.Collect(log.Formats()), ","),
	}
}

func (*logConfig) group() kong.Group {
	return kong.Group{Key: "log", Title: "Logging options"}
}

// start applies the fully parsed configuration, including the options that
// have no TextUnmarshaler, and returns a func for deferred cleanup.
func (f *logConfig) start(ctx context.Context) (stop func()) {
	log.Config(
		log.WithLevel(log.ParseLevel(string(f.Level))),
		log.WithFormat(log.ParseFormat(string(f.Format))),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	)

	log.DebugContext(ctx, "logger initialized",
		slog.String("level", string(f.Level)),
		slog.String("format", string(f.Format)),
		slog.String("time", f.TimeLayout),
		slog.Bool("caller", f.Caller),
		slog.Bool("pretty", f.Pretty),
	)

	return func() {}
}

// scan applies logger flags before kong parses the command line, so the
// logger is configured regardless of where the flags appear. Boolean flags
// never reach a TextUnmarshaler, which is why they are handled here too.
func (f *logConfig) scan(args []string) {
	// value returns the flag's value: the part after '=', or the next
	// argument when it is not itself a flag.
	value := func(i *int, v string, assigned bool) string {
		if !assigned && *i+1 < len(args) && !strings.HasPrefix(args[*i+1], "-") {
			*i++

			return args[*i]
		}

		return v
	}

	// toggle parses an optional boolean value for --[no-]log-NAME.
	toggle := func(v string, assigned, negated bool) (bool, bool) {
		b := true

		if assigned {
			var err error
			if b, err = strconv.ParseBool(v); err != nil {
				return false, false
			}
		}

		return b != negated, true
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return
		}

		name, negated := strings.CutPrefix(arg, "--no-log-")
		if !negated {
			var ok bool
			if name, ok = strings.CutPrefix(arg, "--log-"); !ok {
				continue
			}
		}

		name, v, assigned := strings.Cut(name, "=")

		switch name {
		case "level":
			if !negated {
				_ = f.Level.UnmarshalText([]byte(value(&i, v, assigned)))
			}

		case "format":
			if !negated {
				_ = f.Format.UnmarshalText([]byte(value(&i, v, assigned)))
			}

		case "pretty":
			if b, ok := toggle(v, assigned, negated); ok {
				f.Pretty = b
				log.Config(log.WithPretty(b))
			}

		case "caller":
			if b, ok := toggle(v, assigned, negated); ok {
				f.Caller = b
				log.Config(log.WithCaller(b))
			}
		}
	}
}
