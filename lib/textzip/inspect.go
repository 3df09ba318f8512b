// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package textzip

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bureau-foundation/textzip/lib/archive"
	"github.com/bureau-foundation/textzip/lib/manifest"
)

// RecordInfo describes one archive record. Name, OriginalSize, Status,
// and Digest come from the manifest and are empty without one.
type RecordInfo struct {
	Ordinal int   `json:"ordinal"`
	Offset  int64 `json:"offset"`
	Size    int   `json:"size"`

	Placeholder bool `json:"placeholder"`

	Name         string          `json:"name,omitempty"`
	OriginalSize int64           `json:"original_size,omitempty"`
	Status       string          `json:"status,omitempty"`
	Digest       manifest.Digest `json:"digest,omitzero"`
	Truncated    bool            `json:"truncated,omitempty"`
}

// Inspect lists the records of an archive without decompressing them.
// manifestPath resolves as in ExtractOptions.Manifest. limit bounds the
// record size accepted; zero means the manifest capacity or 1 MiB.
func Inspect(path, manifestPath string, limit int) ([]RecordInfo, error) {
	sidecar, err := openManifest(path, manifestPath)
	if err != nil {
		return nil, err
	}
	_, limit, err = resolveCodec("", limit, sidecar)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var records []RecordInfo
	var offset int64
	reader := archive.NewReader(file, limit)
	for ordinal := 0; ; ordinal++ {
		payload, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return records, fmt.Errorf("reading %s: %w", path, err)
		}
		info := RecordInfo{
			Ordinal:     ordinal,
			Offset:      offset,
			Size:        len(payload),
			Placeholder: len(payload) == 0,
		}
		if sidecar != nil && ordinal < len(sidecar.Entries) {
			entry := sidecar.Entries[ordinal]
			info.Name = entry.Name
			info.OriginalSize = entry.OriginalSize
			info.Status = entry.Status
			info.Digest = entry.Digest
			info.Truncated = entry.Truncated
		}
		records = append(records, info)
		offset += int64(archive.LengthSize + len(payload))
	}

	if sidecar != nil && len(records) != len(sidecar.Entries) {
		return records, fmt.Errorf("archive has %d records, manifest lists %d", len(records), len(sidecar.Entries))
	}
	return records, nil
}
