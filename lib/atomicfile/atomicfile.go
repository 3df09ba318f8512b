// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// File is a pending replacement for a destination path. It implements
// io.Writer on the temporary file.
type File struct {
	*os.File
	destination string
	done        bool
}

// Create opens a temporary file next to path. The parent directory must
// already exist.
func Create(path string, mode os.FileMode) (*File, error) {
	directory, base := filepath.Split(path)
	if directory == "" {
		directory = "."
	}
	temporary, err := os.CreateTemp(directory, "."+base+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("creating temporary file for %s: %w", path, err)
	}
	if err := temporary.Chmod(mode); err != nil {
		temporary.Close()
		os.Remove(temporary.Name())
		return nil, fmt.Errorf("setting mode on %s: %w", temporary.Name(), err)
	}
	return &File{File: temporary, destination: path}, nil
}

// Destination returns the path the file is published to on Commit.
func (f *File) Destination() string { return f.destination }

// Commit syncs, closes, and renames the temporary file into place. On
// failure the temporary file is removed and the destination is
// untouched.
func (f *File) Commit() error {
	if f.done {
		return fmt.Errorf("%s: already committed or aborted", f.destination)
	}
	f.done = true
	temporaryPath := f.Name()

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing %s: %w", temporaryPath, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing %s: %w", temporaryPath, err)
	}
	if err := os.Rename(temporaryPath, f.destination); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming %s into place: %w", f.destination, err)
	}

	// Sync the parent directory so the rename survives power loss.
	parentDirectory, err := os.Open(filepath.Dir(f.destination))
	if err == nil {
		parentDirectory.Sync()
		parentDirectory.Close()
	}
	return nil
}

// Abort closes and removes the temporary file. It is a no-op after
// Commit or a previous Abort.
func (f *File) Abort() {
	if f.done {
		return
	}
	f.done = true
	f.Close()
	os.Remove(f.Name())
}

// WriteFile atomically replaces path with data.
func WriteFile(path string, data []byte, mode os.FileMode) error {
	file, err := Create(path, mode)
	if err != nil {
		return err
	}
	defer file.Abort()
	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", file.Name(), err)
	}
	return file.Commit()
}
