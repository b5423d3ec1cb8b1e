// Package fsys locates template files and resource globs for rendering.
//
// Templates name other files with paths relative to a search path rather
// than to the including file. [OS] resolves such names against an ordered
// list of directories on the host file system, and [FromFS] adapts any
// [io/fs.FS], which is how tests supply in-memory trees.
package fsys

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ardnew/mung"
	"github.com/klauspost/readahead"
)

// EnvPath names the environment variable holding extra search directories,
// separated by [os.PathListSeparator].
const EnvPath = "HTMPL_PATH"

// FS reads templates and expands resource globs.
type FS interface {
	// ReadFile returns the contents of the named file. A missing file
	// yields an error matching fs.ErrNotExist.
	ReadFile(name string) (string, error)

	// Glob returns the sorted, de-duplicated names matching pattern.
	Glob(pattern string) ([]string, error)
}

// OS is an [FS] backed by the host file system.
//
// Relative names are tried in each search directory in order and the first
// existing file wins. Glob collects matches from every directory.
type OS struct {
	dirs []string
}

// NewOS returns an OS searching dirs in order.
// With no directories it searches the working directory only.
func NewOS(dirs ...string) *OS {
	if len(dirs) == 0 {
		dirs = []string{"."}
	}

	return &OS{dirs: slices.Clone(dirs)}
}

// Dirs returns the search directories.
func (o *OS) Dirs() []string { return slices.Clone(o.dirs) }

// SearchPath builds a search path from dirs followed by the entries of the
// PATH-like list env. Duplicate and non-directory entries are removed.
func SearchPath(env string, dirs ...string) []string {
	joined := mung.Make(
		mung.WithSubjectItems(env),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(dirs...),
		mung.WithFilter(isDir),
	).String()

	var out []string

	for _, dir := range filepath.SplitList(joined) {
		if dir != "" && !slices.Contains(out, dir) {
			out = append(out, dir)
		}
	}

	return out
}

func isDir(name string) bool {
	info, err := os.Stat(name)

	return err == nil && info.IsDir()
}

func (o *OS) candidates(name string) []string {
	if filepath.IsAbs(name) {
		return []string{name}
	}

	out := make([]string, len(o.dirs))
	for i, dir := range o.dirs {
		out[i] = filepath.Join(dir, name)
	}

	return out
}

// ReadFile implements [FS].
func (o *OS) ReadFile(name string) (string, error) {
	for _, candidate := range o.candidates(name) {
		f, err := os.Open(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err != nil {
			return "", err
		}

		return readAll(f)
	}

	return "", &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

func readAll(f *os.File) (string, error) {
	defer f.Close()

	ra := readahead.NewReader(f)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// Glob implements [FS].
func (o *OS) Glob(pattern string) ([]string, error) {
	var out []string

	for _, candidate := range o.candidates(pattern) {
		matches, err := filepath.Glob(candidate)
		if err != nil {
			return nil, err
		}

		out = append(out, matches...)
	}

	slices.Sort(out)

	return slices.Compact(out), nil
}

type wrapFS struct {
	fsys fs.FS
}

// FromFS adapts fsys to [FS]. Names are cleaned and stripped of any
// leading "./" or "/" before use, as io/fs requires.
func FromFS(fsys fs.FS) FS {
	return wrapFS{fsys: fsys}
}

func fsName(name string) string {
	name = path.Clean(filepath.ToSlash(name))

	return strings.TrimPrefix(name, "/")
}

func (w wrapFS) ReadFile(name string) (string, error) {
	data, err := fs.ReadFile(w.fsys, fsName(name))
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func (w wrapFS) Glob(pattern string) ([]string, error) {
	matches, err := fs.Glob(w.fsys, fsName(pattern))
	if err != nil {
		return nil, err
	}

	slices.Sort(matches)

	return slices.Compact(matches), nil
}
