// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package textzip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/textzip/lib/archive"
	"github.com/bureau-foundation/textzip/lib/atomicfile"
	"github.com/bureau-foundation/textzip/lib/manifest"
)

// ErrDigestMismatch reports a record whose decompressed bytes do not
// match the manifest digest.
var ErrDigestMismatch = errors.New("digest mismatch")

// ExtractOptions configures Extract.
type ExtractOptions struct {
	// Archive is the .tzip file to read. Required.
	Archive string

	// Manifest overrides the sidecar path. Empty means the default
	// path, used only if present.
	Manifest string

	// Destination is the directory to write files into. It is created
	// if missing. Required.
	Destination string

	// Codec overrides the codec name. Empty means the manifest's codec,
	// or zlib without a manifest.
	Codec string

	// Capacity bounds each record and each decompressed file. Zero
	// means the manifest's capacity, or 1 MiB without a manifest.
	Capacity int

	// Overwrite allows replacing existing files in Destination.
	Overwrite bool

	Logger *slog.Logger
}

// ExtractReport summarizes Extract.
type ExtractReport struct {
	Records int `json:"records"`

	// Files lists the written paths in record order.
	Files []string `json:"files"`

	// Skipped counts placeholder records.
	Skipped int `json:"skipped"`

	// Verified is true when every file was checked against a manifest
	// digest.
	Verified bool `json:"verified"`
}

// Extract writes every record of an archive to a directory. With a
// manifest, files get their original names and are checked against
// their digests; without one they are named record-NNNNNN.txt.
// Placeholder records are skipped.
func Extract(ctx context.Context, options ExtractOptions) (*ExtractReport, error) {
	if options.Archive == "" || options.Destination == "" {
		return nil, errors.New("extract: archive and destination are required")
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	sidecar, err := openManifest(options.Archive, options.Manifest)
	if err != nil {
		return nil, err
	}
	codec, capacity, err := resolveCodec(options.Codec, options.Capacity, sidecar)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(options.Archive)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if err := os.MkdirAll(options.Destination, 0o755); err != nil {
		return nil, fmt.Errorf("creating destination: %w", err)
	}

	report := &ExtractReport{Verified: sidecar != nil}
	reader := archive.NewReader(file, capacity)
	for ordinal := 0; ; ordinal++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		payload, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return report, fmt.Errorf("reading %s: %w", options.Archive, err)
		}
		report.Records++

		var entry *manifest.Entry
		if sidecar != nil {
			if ordinal >= len(sidecar.Entries) {
				return report, fmt.Errorf("archive has more records than the manifest's %d entries", len(sidecar.Entries))
			}
			entry = &sidecar.Entries[ordinal]
		}

		if len(payload) == 0 {
			logger.Warn("skipping placeholder record", "ordinal", ordinal)
			report.Skipped++
			continue
		}

		data, err := codec.Decompress(payload, capacity)
		if err != nil {
			return report, fmt.Errorf("record %d: %w", ordinal, err)
		}

		name := fmt.Sprintf("record-%06d.txt", ordinal)
		if entry != nil {
			if entry.Placeholder() {
				return report, fmt.Errorf("record %d has a payload but the manifest marks it %s", ordinal, entry.Status)
			}
			if digest := manifest.Sum(data); digest != entry.Digest {
				return report, fmt.Errorf("record %d (%s): %w: got %s, manifest %s",
					ordinal, entry.Name, ErrDigestMismatch, digest.Short(), entry.Digest.Short())
			}
			name = entry.Name
		}

		path := filepath.Join(options.Destination, name)
		if !options.Overwrite {
			if _, err := os.Lstat(path); err == nil {
				return report, fmt.Errorf("record %d: %s already exists", ordinal, path)
			}
		}
		if err := atomicfile.WriteFile(path, data, 0o644); err != nil {
			return report, fmt.Errorf("record %d: %w", ordinal, err)
		}
		logger.Debug("extracted", "ordinal", ordinal, "path", path, "bytes", len(data))
		report.Files = append(report.Files, path)
	}

	if sidecar != nil && report.Records != len(sidecar.Entries) {
		return report, fmt.Errorf("archive has %d records, manifest lists %d", report.Records, len(sidecar.Entries))
	}
	return report, nil
}
