// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package textzip

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/textzip/lib/archive"
	"github.com/bureau-foundation/textzip/lib/batch"
	"github.com/bureau-foundation/textzip/lib/compress"
	"github.com/bureau-foundation/textzip/lib/loader"
	"github.com/bureau-foundation/textzip/lib/manifest"
	"github.com/bureau-foundation/textzip/lib/scan"
)

var (
	// ErrContentMismatch reports a record that does not decompress to
	// its source file.
	ErrContentMismatch = errors.New("content mismatch")

	// ErrPlaceholder reports a zero-length record standing in for a
	// file that failed at compression time.
	ErrPlaceholder = errors.New("placeholder record")
)

// VerifyOptions configures Verify.
type VerifyOptions struct {
	// Archive is the .tzip file to check. Required.
	Archive string

	// Input is the source directory the archive was built from.
	// Required.
	Input string

	// Extension selects source files. Default: .txt
	Extension string

	// Manifest, Codec, and Capacity resolve as in ExtractOptions.
	Manifest string
	Codec    string
	Capacity int

	// Workers bounds the verification pool. Default: 8
	Workers int

	Logger *slog.Logger
}

// Mismatch describes one record that failed verification.
type Mismatch struct {
	Ordinal int    `json:"ordinal"`
	Path    string `json:"path"`
	Reason  string `json:"reason"`
}

// VerifyReport summarizes Verify.
type VerifyReport struct {
	Records    int        `json:"records"`
	Verified   int        `json:"verified"`
	Mismatches []Mismatch `json:"mismatches,omitempty"`
}

// OK reports whether every record matched its source file.
func (r *VerifyReport) OK() bool { return len(r.Mismatches) == 0 }

// Verify decompresses every record and compares it with the source file
// of the same ordinal. Records are checked in parallel on a worker pool
// and reported in ordinal order. Per-record problems are returned in
// the report; the error is reserved for failures that prevent checking
// at all (unreadable archive or directory, record count mismatch).
func Verify(ctx context.Context, options VerifyOptions) (*VerifyReport, error) {
	if options.Archive == "" || options.Input == "" {
		return nil, errors.New("verify: archive and input directory are required")
	}
	if options.Extension == "" {
		options.Extension = scan.DefaultExtension
	}
	if options.Workers == 0 {
		options.Workers = batch.DefaultPoolCapacity
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
	records, err := archive.ReadAll(file, capacity)
	file.Close()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", options.Archive, err)
	}

	paths, err := scan.Scan(options.Input, options.Extension)
	if err != nil && !errors.Is(err, scan.ErrEmptyInput) {
		return nil, err
	}
	if len(records) != len(paths) {
		return nil, fmt.Errorf("archive has %d records, %s has %d %s files",
			len(records), options.Input, len(paths), options.Extension)
	}
	if sidecar != nil && len(sidecar.Entries) != len(records) {
		return nil, fmt.Errorf("archive has %d records, manifest lists %d", len(records), len(sidecar.Entries))
	}

	// Truncate rather than reject: an archive built with the truncate
	// policy holds the first capacity bytes of an oversized file.
	fileLoader, err := loader.New(capacity, loader.Truncate)
	if err != nil {
		return nil, err
	}
	pool, err := batch.NewPool(options.Workers, logger)
	if err != nil {
		return nil, err
	}

	units := batch.NewUnits(paths)
	collector := batch.NewCollector(len(units))
	buffers := make([][]byte, pool.WorkersFor(len(units)))
	process := func(ctx context.Context, worker int, unit batch.Unit) batch.Result {
		if buffers[worker] == nil {
			buffers[worker] = fileLoader.NewBuffer()
		}
		var entry *manifest.Entry
		if sidecar != nil {
			entry = &sidecar.Entries[unit.Ordinal]
		}
		return verifyUnit(fileLoader, codec, capacity, buffers[worker], records[unit.Ordinal], entry, unit)
	}

	run, err := pool.Start(ctx, units, collector, process)
	if err != nil {
		return nil, err
	}

	report := &VerifyReport{Records: len(records)}
	var waitErr error
	for ordinal := range units {
		result, err := collector.AwaitAndTake(ctx, ordinal)
		if err != nil {
			waitErr = err
			break
		}
		if result.Status == batch.StatusCanceled {
			waitErr = result.Err
			break
		}
		if !result.OK() {
			logger.Warn("record mismatch", "ordinal", ordinal, "path", result.Path, "error", result.Err)
			report.Mismatches = append(report.Mismatches, Mismatch{
				Ordinal: ordinal,
				Path:    result.Path,
				Reason:  errorText(result.Err),
			})
			continue
		}
		report.Verified++
	}
	if err := run.Wait(); err != nil && waitErr == nil {
		waitErr = err
	}
	if waitErr != nil {
		return nil, waitErr
	}
	return report, nil
}

// verifyUnit checks one record against its source file.
func verifyUnit(fileLoader *loader.Loader, codec compress.Codec, capacity int, buffer, record []byte, entry *manifest.Entry, unit batch.Unit) batch.Result {
	if len(record) == 0 {
		return batch.Failure(unit, batch.StatusReadError, ErrPlaceholder)
	}
	if entry != nil && entry.Name != filepath.Base(unit.Path) {
		return batch.Failure(unit, batch.StatusReadError,
			fmt.Errorf("%w: manifest names record %d %q", ErrContentMismatch, unit.Ordinal, entry.Name))
	}

	loaded, err := fileLoader.Load(unit.Path, buffer)
	if err != nil {
		return batch.Failure(unit, batch.StatusReadError, err)
	}
	data, err := codec.Decompress(record, capacity)
	if err != nil {
		return batch.Failure(unit, batch.StatusCodecError, err)
	}
	if !bytes.Equal(data, loaded.Data) {
		return batch.Failure(unit, batch.StatusCodecError,
			fmt.Errorf("%w: record holds %d bytes, file has %d", ErrContentMismatch, len(data), len(loaded.Data)))
	}
	digest := manifest.Sum(data)
	if entry != nil && digest != entry.Digest {
		return batch.Failure(unit, batch.StatusCodecError,
			fmt.Errorf("%w: manifest %s, content %s", ErrDigestMismatch, entry.Digest.Short(), digest.Short()))
	}
	return batch.Result{OriginalSize: len(data), Digest: digest, Truncated: loaded.Truncated}
}
