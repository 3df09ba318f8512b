// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/textzip/lib/atomicfile"
	"github.com/bureau-foundation/textzip/lib/batch"
	"github.com/bureau-foundation/textzip/lib/codec"
)

// Version is the manifest format version this package writes.
const Version = 1

// Extension is appended to the archive path by DefaultPath.
const Extension = ".manifest"

// maxManifestSize bounds Read. A manifest entry is well under 256
// bytes, so this covers hundreds of thousands of records.
const maxManifestSize = 64 << 20

// ErrVersion reports a manifest written by an incompatible version.
var ErrVersion = errors.New("unsupported manifest version")

// Manifest describes every record of one archive.
type Manifest struct {
	Version  int     `json:"version"`
	Codec    string  `json:"codec"`
	Capacity int     `json:"capacity"`
	Entries  []Entry `json:"entries"`
}

// Entry describes one record. Entries[i].Ordinal is always i.
type Entry struct {
	Ordinal int    `json:"ordinal"`
	Name    string `json:"name"`

	// OriginalSize is the number of bytes compressed into the record.
	OriginalSize int64 `json:"original_size"`

	// CompressedSize is the record payload length. Zero for a
	// placeholder.
	CompressedSize int64 `json:"compressed_size"`

	// Status is a batch.Status name ("ok", "read_error", ...).
	Status string `json:"status"`

	// Digest covers the original bytes. Zero for a placeholder.
	Digest Digest `json:"digest"`

	Truncated bool `json:"truncated,omitempty"`
}

// Placeholder reports whether the record is a zero-length stand-in for
// a failed file.
func (e Entry) Placeholder() bool {
	return e.Status != batch.StatusOK.String()
}

// New returns an empty manifest for an archive of count records.
func New(codecName string, capacity, count int) *Manifest {
	return &Manifest{
		Version:  Version,
		Codec:    codecName,
		Capacity: capacity,
		Entries:  make([]Entry, 0, count),
	}
}

// Record appends the entry for result. Results must arrive in ordinal
// order, which is the order the archive merge observes them in.
func (m *Manifest) Record(result batch.Result) error {
	if result.Ordinal != len(m.Entries) {
		return fmt.Errorf("manifest entry %d recorded at position %d", result.Ordinal, len(m.Entries))
	}
	entry := Entry{
		Ordinal:   result.Ordinal,
		Name:      filepath.Base(result.Path),
		Status:    result.Status.String(),
		Truncated: result.Truncated,
	}
	if result.OK() {
		entry.OriginalSize = int64(result.OriginalSize)
		entry.CompressedSize = int64(len(result.Compressed))
		entry.Digest = Digest(result.Digest)
	}
	m.Entries = append(m.Entries, entry)
	return nil
}

// Validate checks the structural invariants Read relies on.
func (m *Manifest) Validate() error {
	if m.Version != Version {
		return fmt.Errorf("%w: %d (this build reads %d)", ErrVersion, m.Version, Version)
	}
	if m.Codec == "" {
		return errors.New("manifest has no codec")
	}
	seen := make(map[string]int, len(m.Entries))
	for i, entry := range m.Entries {
		if entry.Ordinal != i {
			return fmt.Errorf("manifest entry %d has ordinal %d", i, entry.Ordinal)
		}
		if entry.Name == "" || entry.Name != filepath.Base(entry.Name) || entry.Name == "." || entry.Name == ".." {
			return fmt.Errorf("manifest entry %d has invalid name %q", i, entry.Name)
		}
		if previous, duplicate := seen[entry.Name]; duplicate {
			return fmt.Errorf("manifest entries %d and %d share name %q", previous, i, entry.Name)
		}
		seen[entry.Name] = i
		if _, err := batch.ParseStatus(entry.Status); err != nil {
			return fmt.Errorf("manifest entry %d: %w", i, err)
		}
	}
	return nil
}

// DefaultPath returns the sidecar path for an archive.
func DefaultPath(archivePath string) string {
	return archivePath + Extension
}

// Write atomically writes m to path.
func Write(path string, m *Manifest) error {
	data, err := codec.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := atomicfile.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// Read reads and validates the manifest at path. When the file does not
// exist the error wraps os.ErrNotExist.
func Read(path string) (*Manifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxManifestSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	if len(data) > maxManifestSize {
		return nil, fmt.Errorf("manifest %s exceeds %d bytes", path, maxManifestSize)
	}

	var m Manifest
	if err := codec.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return &m, nil
}
