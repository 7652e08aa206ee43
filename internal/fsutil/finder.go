// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindFilesBySuffix searches rootPath for files whose name ends with one of
// suffixes. Symlinks count when they resolve to a non-directory. With recursive set the whole subtree is walked, otherwise
// only the immediate entries of rootPath are considered. The returned paths
// are sorted so callers see the same order on every run.
func FindFilesBySuffix(rootPath string, recursive bool, suffixes ...string) ([]string, error) {
	if len(suffixes) == 0 {
		panic("at least one suffix is required")
	}

	match := func(name string) bool {
		for _, s := range suffixes {
			if strings.HasSuffix(name, s) {
				return true
			}
		}
		return false
	}

	var files []string
	if recursive {
		err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if match(d.Name()) && isFile(path, d) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		entries, err := os.ReadDir(rootPath)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			path := filepath.Join(rootPath, e.Name())
			if match(e.Name()) && isFile(path, e) {
				files = append(files, path)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

// isFile reports whether d is a regular file or a symlink to something other
// than a directory. Dangling links are skipped.
func isFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// WalkFiles calls fn for every regular file under rootPath in lexical order.
func WalkFiles(rootPath string, fn func(path string) error) error {
	return filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return fn(path)
	})
}

// EnsureDir creates dir and any missing parents. An existing directory is
// not an error.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
