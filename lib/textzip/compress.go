// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package textzip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/textzip/lib/archive"
	"github.com/bureau-foundation/textzip/lib/atomicfile"
	"github.com/bureau-foundation/textzip/lib/batch"
	"github.com/bureau-foundation/textzip/lib/clock"
	"github.com/bureau-foundation/textzip/lib/compress"
	"github.com/bureau-foundation/textzip/lib/loader"
	"github.com/bureau-foundation/textzip/lib/manifest"
	"github.com/bureau-foundation/textzip/lib/scan"
)

// Options configures Compress. Zero values select .txt inputs, 8
// workers, 1 MiB capacity, zlib level 9, rejection of oversized files,
// and placeholder records for failed files.
type Options struct {
	// Input is the directory to compress. Required.
	Input string

	// Extension selects input files. Default: .txt
	Extension string

	// Output is the archive path. Its directory must exist. Required.
	Output string

	// Workers bounds the worker pool. Default: 8
	Workers int

	// Capacity bounds each input file and each compressed record.
	// Default: 1 MiB
	Capacity int

	// Codec compresses each file. Default: zlib
	Codec compress.Codec

	// Oversize selects what happens to files beyond Capacity.
	// Default: reject
	Oversize loader.OversizePolicy

	// OnError selects what happens to files that fail.
	// Default: placeholder
	OnError archive.ErrorPolicy

	// Manifest enables the sidecar. ManifestPath overrides its
	// location (default: Output + ".manifest").
	Manifest     bool
	ManifestPath string

	// ProgressInterval enables periodic progress logging when positive.
	ProgressInterval time.Duration

	Logger *slog.Logger
	Clock  clock.Clock
}

func (o Options) withDefaults() Options {
	if o.Extension == "" {
		o.Extension = scan.DefaultExtension
	}
	if o.Workers == 0 {
		o.Workers = batch.DefaultPoolCapacity
	}
	if o.Capacity == 0 {
		o.Capacity = loader.DefaultCapacity
	}
	if o.Codec == nil {
		o.Codec, _ = compress.Lookup(compress.Zlib)
	}
	if o.Oversize == "" {
		o.Oversize = loader.Reject
	}
	if o.OnError == "" {
		o.OnError = archive.Placeholder
	}
	if o.Manifest && o.ManifestPath == "" {
		o.ManifestPath = manifest.DefaultPath(o.Output)
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	return o
}

// Failure describes one input file that did not produce a record.
type Failure struct {
	Ordinal int    `json:"ordinal"`
	Path    string `json:"path"`
	Status  string `json:"status"`
	Error   string `json:"error"`
}

// Report summarizes a successful Compress.
type Report struct {
	Output   string `json:"output"`
	Manifest string `json:"manifest,omitempty"`

	// Files is the number of input files, which is also the number of
	// records in the archive.
	Files   int `json:"files"`
	Workers int `json:"workers"`

	Stats        archive.Stats `json:"stats"`
	ArchiveBytes int64         `json:"archive_bytes"`

	// Failures lists files written as placeholder records.
	Failures []Failure `json:"failures,omitempty"`

	// Truncated lists files cut to the capacity.
	Truncated []string `json:"truncated,omitempty"`

	Elapsed time.Duration `json:"elapsed"`
}

// Compress builds an archive of every matching file in options.Input.
//
// Errors: a *scan.DirectoryError when the input cannot be listed,
// scan.ErrEmptyInput when nothing matches (no archive is written), an
// *archive.UnitError when a failed file stops the run, and the context
// error when ctx is canceled. In every error case the output path is
// left untouched.
func Compress(ctx context.Context, options Options) (*Report, error) {
	options = options.withDefaults()
	if options.Input == "" || options.Output == "" {
		return nil, errors.New("compress: input directory and output path are required")
	}
	logger := options.Logger
	started := options.Clock.Now()

	paths, err := scan.Scan(options.Input, options.Extension)
	if err != nil {
		return nil, err
	}

	fileLoader, err := loader.New(options.Capacity, options.Oversize)
	if err != nil {
		return nil, err
	}
	codec := compress.Bounded(options.Codec, options.Capacity)
	pool, err := batch.NewPool(options.Workers, logger)
	if err != nil {
		return nil, err
	}

	output, err := atomicfile.Create(options.Output, 0o644)
	if err != nil {
		return nil, err
	}
	defer output.Abort()

	units := batch.NewUnits(paths)
	collector := batch.NewCollector(len(units))

	// One read buffer per worker, allocated on first use. Worker i is
	// the only goroutine that touches buffers[i].
	buffers := make([][]byte, pool.WorkersFor(len(units)))
	process := func(ctx context.Context, worker int, unit batch.Unit) batch.Result {
		if buffers[worker] == nil {
			buffers[worker] = fileLoader.NewBuffer()
		}
		return compressUnit(fileLoader, codec, buffers[worker], unit)
	}

	runContext, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	run, err := pool.Start(runContext, units, collector, process)
	if err != nil {
		return nil, err
	}
	logger.Info("compressing",
		"input", options.Input,
		"files", len(units),
		"workers", run.Workers(),
		"codec", options.Codec.Name(),
	)

	var written atomic.Int64
	if options.ProgressInterval > 0 {
		stopProgress := startProgress(options.Clock, options.ProgressInterval, logger, len(units), &written)
		defer stopProgress()
	}

	var sidecar *manifest.Manifest
	if options.Manifest {
		sidecar = manifest.New(options.Codec.Name(), options.Capacity, len(units))
	}

	report := &Report{
		Output:  options.Output,
		Files:   len(units),
		Workers: run.Workers(),
	}
	observer := &recorder{
		logger:   logger,
		capacity: options.Capacity,
		sidecar:  sidecar,
		report:   report,
		written:  &written,
	}

	writer := archive.NewWriter(output)
	stats, mergeErr := archive.Merge(ctx, collector, len(units), writer, options.OnError, observer.observe)
	if mergeErr != nil {
		// Stop the workers from loading more files, then drain them so
		// no goroutine outlives the call.
		cancelRun()
	}
	if err := run.Wait(); err != nil && mergeErr == nil {
		mergeErr = err
	}
	if mergeErr == nil && observer.err != nil {
		mergeErr = fmt.Errorf("recording manifest entry: %w", observer.err)
	}
	if mergeErr != nil {
		logger.Error("compression stopped; no archive written", "output", options.Output, "error", mergeErr)
		return nil, mergeErr
	}

	if err := writer.Flush(); err != nil {
		return nil, err
	}

	// The manifest goes first: a failed manifest write leaves the old
	// archive and its old manifest in place as a pair.
	if sidecar != nil {
		if err := manifest.Write(options.ManifestPath, sidecar); err != nil {
			return nil, err
		}
		report.Manifest = options.ManifestPath
	}
	if err := output.Commit(); err != nil {
		if sidecar != nil {
			os.Remove(options.ManifestPath)
		}
		return nil, err
	}
	if err := removeStaleManifest(options.Output, report.Manifest); err != nil {
		return nil, err
	}

	report.Stats = stats
	report.ArchiveBytes = writer.BytesWritten()
	report.Elapsed = options.Clock.Now().Sub(started)

	logger.Info("archive written",
		"output", options.Output,
		"records", stats.Records,
		"failed", stats.Failed,
		"original_bytes", stats.OriginalBytes,
		"compressed_bytes", stats.CompressedBytes,
		"rate", fmt.Sprintf("%.2f%%", stats.Rate()),
		"elapsed", report.Elapsed,
	)
	return report, nil
}

// recorder sees every result in ordinal order before it is written.
// It fills the manifest and the report's failure lists and keeps the
// first manifest error.
type recorder struct {
	logger   *slog.Logger
	capacity int
	sidecar  *manifest.Manifest
	report   *Report
	written  *atomic.Int64
	err      error
}

func (r *recorder) observe(result batch.Result) {
	r.written.Add(1)
	if r.sidecar != nil && r.err == nil {
		r.err = r.sidecar.Record(result)
	}
	if result.Truncated {
		r.logger.Warn("file truncated to capacity",
			"ordinal", result.Ordinal, "path", result.Path, "capacity", r.capacity)
		r.report.Truncated = append(r.report.Truncated, result.Path)
	}
	if !result.OK() && result.Status != batch.StatusCanceled {
		r.logger.Warn("file failed",
			"ordinal", result.Ordinal, "path", result.Path,
			"status", result.Status, "error", result.Err)
		r.report.Failures = append(r.report.Failures, Failure{
			Ordinal: result.Ordinal,
			Path:    result.Path,
			Status:  result.Status.String(),
			Error:   errorText(result.Err),
		})
	}
}

// removeStaleManifest deletes a manifest left at the default path by an
// earlier run, since Extract and Verify would pair it with the new
// archive. written is the manifest this run produced, if any.
func removeStaleManifest(archivePath, written string) error {
	stale := manifest.DefaultPath(archivePath)
	if stale == written {
		return nil
	}
	if err := os.Remove(stale); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing stale manifest: %w", err)
	}
	return nil
}

// compressUnit loads, hashes, and compresses one file.
func compressUnit(fileLoader *loader.Loader, codec compress.Codec, buffer []byte, unit batch.Unit) batch.Result {
	loaded, err := fileLoader.Load(unit.Path, buffer)
	if err != nil {
		return batch.Failure(unit, batch.StatusReadError, err)
	}
	compressed, err := codec.Compress(loaded.Data)
	if err != nil {
		return batch.Failure(unit, batch.StatusCodecError, fmt.Errorf("compressing %s: %w", unit.Path, err))
	}
	return batch.Result{
		Compressed:   compressed,
		OriginalSize: len(loaded.Data),
		Digest:       manifest.Sum(loaded.Data),
		Truncated:    loaded.Truncated,
	}
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
