// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindFiles recursively searches root for regular files whose extension is
// one of exts (compared case-insensitively, with the leading dot). The result
// is sorted so that loading order is stable across platforms.
func FindFiles(root string, exts ...string) ([]string, error) {
	if len(exts) == 0 {
		panic("at least one extension is required")
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && HasExtension(path, exts...) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// ResolvePath returns the files a path refers to. A file must carry one of
// exts; a directory is searched recursively.
func ResolvePath(path string, exts ...string) ([]string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("path not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}

	if info.IsDir() {
		return FindFiles(path, exts...)
	}
	if !HasExtension(path, exts...) {
		return nil, fmt.Errorf("unsupported file extension %q for %s, expected one of %s", filepath.Ext(path), path, strings.Join(exts, ", "))
	}
	return []string{path}, nil
}

// HasExtension reports whether path ends with one of exts.
func HasExtension(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}
