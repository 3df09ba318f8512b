// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package scan enumerates the input files of a compression run.
//
// The sorted name list returned by [Scan] is the single source of truth
// for archive record order: position i in the slice becomes ordinal i.
// Names are compared by byte value (Go string order), so "B.txt" sorts
// before "a.txt" and the order does not depend on locale.
package scan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExtension is the input filename suffix when none is configured.
const DefaultExtension = ".txt"

// ErrEmptyInput reports a directory with no matching files.
var ErrEmptyInput = errors.New("no input files")

// DirectoryError reports a directory that cannot be opened or listed.
type DirectoryError struct {
	Path string
	Err  error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("reading directory %s: %v", e.Path, e.Err)
}

func (e *DirectoryError) Unwrap() error { return e.Err }

// Scan returns the paths of the regular files in dir whose names end
// in extension, sorted by filename. Subdirectories are not descended
// into. A file named exactly extension (".txt") does not match.
func Scan(dir, extension string) ([]string, error) {
	if extension == "" {
		return nil, fmt.Errorf("scan %s: empty extension", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &DirectoryError{Path: dir, Err: err}
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if len(name) <= len(extension) || !strings.HasSuffix(name, extension) {
			continue
		}
		if !isRegular(dir, entry) {
			continue
		}
		names = append(names, name)
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("%s: %w matching *%s", dir, ErrEmptyInput, extension)
	}

	// os.ReadDir already sorts, but by a contract this package does not
	// want to depend on.
	sort.Strings(names)

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}

// isRegular reports whether entry is a regular file, following
// symlinks so that a link to a text file counts as input.
func isRegular(dir string, entry os.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, entry.Name()))
	return err == nil && info.Mode().IsRegular()
}
