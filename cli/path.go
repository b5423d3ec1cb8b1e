package cli

import (
	"os"

	"github.com/ardnew/htmpl/pkg"
)

// dirMode is the permission mode for created runtime directories.
const dirMode os.FileMode = 0o700

// mkdirAllRequired creates the configuration and cache directories.
func mkdirAllRequired() error {
	for _, dir := range []string{pkg.ConfigDir(), pkg.CacheDir()} {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return err
		}
	}

	return nil
}
