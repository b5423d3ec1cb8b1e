// Package cli contains the command line interface for htmpl.
//
// # Usage
//
//	htmpl [flags] [render] TEMPLATE [-o FILE]
//	htmpl [flags] check TEMPLATE...
//	htmpl [flags] watch TEMPLATE -o FILE
//	htmpl [flags] repl
//	htmpl [flags] init [--force]
//
// # Configuration
//
// Flags may also be set in a YAML file, by default config.yaml in the user
// configuration directory. Keys are flag names; nested mappings are joined
// with '-':
//
//	include: [templates, partials]
//	data: [site.yaml]
//	log:
//	  level: debug
//
// Command-line flags override config file values. The init command writes
// the current flag values to the file.
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o htmpl .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory
package cli
