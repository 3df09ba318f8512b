// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package atomicfile publishes files so that readers see either the
// previous content or the complete new content, never a partial write.
//
// [Create] opens a temporary file in the destination directory.
// [File.Commit] syncs it, closes it, renames it over the destination,
// and syncs the parent directory. [File.Abort] removes it. Exactly one
// of the two should run; calling Abort after Commit is a no-op, so
//
//	file, err := atomicfile.Create(path, 0o644)
//	if err != nil { ... }
//	defer file.Abort()
//	... write ...
//	return file.Commit()
//
// is the standard shape. [WriteFile] wraps that for a byte slice.
//
// The temporary file lives next to the destination because rename is
// only atomic within a filesystem.
package atomicfile
