package cmd

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
	"github.com/natefinch/atomic"

	"github.com/ardnew/htmpl/log"
	"github.com/ardnew/htmpl/pkg"
)

// Init writes a configuration file holding the current flag values.
type Init struct {
	Force bool   `help:"Overwrite existing configuration file" short:"f"`
	File  string `default:"${config}" help:"Configuration file to write" type:"path"`
}

// ConfigIdentifier is the kong variable holding the default configuration
// file path.
const ConfigIdentifier = "config"

// ignoreFlags are never written to the configuration file.
var ignoreFlags = []string{"help", "version", "pprof"}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) error {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		panic("internal error: kong context undefined")
	}

	_, err := os.Stat(i.File)
	if err == nil && !i.Force {
		return pkg.ErrWriteConfig.Wrap(pkg.ErrFileExists).Wrapf("file %s", i.File)
	}

	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return pkg.ErrWriteConfig.Wrap(err)
	}

	doc, err := yaml.Marshal(configDocument(ktx))
	if err != nil {
		return pkg.ErrWriteConfig.Wrap(pkg.ErrYAMLMarshal, err)
	}

	if err := os.MkdirAll(filepath.Dir(i.File), 0o700); err != nil {
		return pkg.ErrWriteConfig.Wrap(err)
	}

	if err := atomic.WriteFile(i.File, bytes.NewReader(doc)); err != nil {
		return pkg.ErrWriteConfig.Wrap(err).Wrapf("file %s", i.File)
	}

	log.InfoContext(ctx, "initialized configuration file",
		slog.String("path", i.File),
	)

	return nil
}

// configDocument returns the value of every global flag, in model
// order, keyed by flag name. Empty values are omitted.
func configDocument(ktx *kong.Context) yaml.MapSlice {
	var doc yaml.MapSlice

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(ignoreFlags, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		val := ktx.FlagValue(flag)
		if val == nil || reflect.ValueOf(val).IsZero() && !isBool(val) {
			continue
		}

		if rv := reflect.ValueOf(val); rv.Kind() == reflect.Slice && rv.Len() == 0 {
			continue
		}

		doc = append(doc, yaml.MapItem{Key: flag.Name, Value: configValue(val)})
	}

	return doc
}

func isBool(v any) bool {
	_, ok := v.(bool)

	return ok
}

// configValue converts a flag value to something the configuration loader
// reads back. Named string types, such as the log level, become strings.
func configValue(v any) any {
	rv := reflect.ValueOf(v)

	switch {
	case rv.Kind() == reflect.String:
		return rv.String()

	case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.String:
		out := make([]string, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).String()
		}

		return out

	default:
		if s, ok := v.(interface{ String() string }); ok {
			return s.String()
		}

		return v
	}
}
