// Package profile provides optional runtime profiling for htmpl.
//
// Profiling is backed by [github.com/pkg/profile] and compiled in only when
// building with the "pprof" tag:
//
//	go build -tags pprof .
//
// Without the tag, [Modes] is empty and [Profiler.Start] returns a no-op,
// so callers never need to guard their use of this package.
//
// # Modes
//
// allocs, block, clock, cpu, goroutine, heap, mem, mutex, thread, trace.
//
// Profile files are written to the configured directory and can be
// inspected with go tool pprof:
//
//	htmpl render page.htmpl --pprof-mode cpu --pprof-dir ./profiles
//	go tool pprof -http=: ./profiles/cpu.pprof
//
// Building with the tag also registers the [net/http/pprof] handlers on
// http.DefaultServeMux.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
