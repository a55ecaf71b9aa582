// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"path"
	"strings"
)

// FindFilesByExtension recursively searches fsys below dir for all files
// ending with the specified extension. It returns slash-separated paths
// relative to the root of fsys. An empty extension matches every file.
// A positive limit stops the walk once that many files were found.
func FindFilesByExtension(fsys fs.FS, dir, extension string, limit int) ([]string, error) {
	if dir == "" {
		dir = "."
	}

	var files []string
	err := fs.WalkDir(fsys, path.Clean(dir), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, p)
			if limit > 0 && len(files) >= limit {
				return fs.SkipAll
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}
