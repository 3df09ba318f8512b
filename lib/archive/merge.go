// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/textzip/lib/batch"
)

// ErrorPolicy decides how Merge handles a failed unit. One policy
// applies to every unit of a run.
type ErrorPolicy string

const (
	// Placeholder writes a zero-length record for a failed unit and
	// continues. The archive keeps one record per input file.
	Placeholder ErrorPolicy = "placeholder"

	// Abort stops the merge at the first failed unit.
	Abort ErrorPolicy = "abort"
)

// ParseErrorPolicy validates a policy name from configuration.
func ParseErrorPolicy(name string) (ErrorPolicy, error) {
	switch ErrorPolicy(name) {
	case Placeholder, Abort:
		return ErrorPolicy(name), nil
	default:
		return "", fmt.Errorf("unknown error policy %q (want %q or %q)", name, Placeholder, Abort)
	}
}

// UnitError is returned by Merge when a failed unit stops the archive.
type UnitError struct {
	Ordinal int
	Path    string
	Status  batch.Status
	Err     error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("record %d (%s): %s: %v", e.Ordinal, e.Path, e.Status, e.Err)
}

func (e *UnitError) Unwrap() error { return e.Err }

// Source yields results by ordinal. *batch.Collector implements it.
type Source interface {
	AwaitAndTake(ctx context.Context, ordinal int) (batch.Result, error)
}

// Stats summarizes a merge. Byte counts cover payloads only; length
// prefixes are excluded from CompressedBytes.
type Stats struct {
	Records         int   `json:"records"`
	Failed          int   `json:"failed"`
	OriginalBytes   int64 `json:"original_bytes"`
	CompressedBytes int64 `json:"compressed_bytes"`
}

// Ratio returns compressed/original, or 0 when nothing was read.
func (s Stats) Ratio() float64 {
	if s.OriginalBytes == 0 {
		return 0
	}
	return float64(s.CompressedBytes) / float64(s.OriginalBytes)
}

// Rate returns the space saved as a percentage:
// 100 × (original − compressed) / original. It is 0 when nothing was
// read, and negative when compression expanded the input.
func (s Stats) Rate() float64 {
	if s.OriginalBytes == 0 {
		return 0
	}
	return 100 * float64(s.OriginalBytes-s.CompressedBytes) / float64(s.OriginalBytes)
}

// Merge writes count records to writer, taking result i from source
// before record i. observe, if non-nil, sees every result in order
// before it is written (the payload is still attached).
//
// A StatusCanceled result always stops the merge. Other failures follow
// policy. The writer is not flushed; that is the caller's job once it
// decides to keep the archive.
func Merge(ctx context.Context, source Source, count int, writer *Writer, policy ErrorPolicy, observe func(batch.Result)) (Stats, error) {
	if _, err := ParseErrorPolicy(string(policy)); err != nil {
		return Stats{}, err
	}

	var stats Stats
	for ordinal := range count {
		result, err := source.AwaitAndTake(ctx, ordinal)
		if err != nil {
			return stats, fmt.Errorf("waiting for record %d: %w", ordinal, err)
		}
		if observe != nil {
			observe(result)
		}

		if !result.OK() {
			if result.Status == batch.StatusCanceled || policy == Abort {
				return stats, &UnitError{
					Ordinal: result.Ordinal,
					Path:    result.Path,
					Status:  result.Status,
					Err:     result.Err,
				}
			}
			if err := writer.WriteRecord(nil); err != nil {
				return stats, err
			}
			stats.Records++
			stats.Failed++
			continue
		}

		if err := writer.WriteRecord(result.Compressed); err != nil {
			return stats, err
		}
		stats.Records++
		stats.OriginalBytes += int64(result.OriginalSize)
		stats.CompressedBytes += int64(len(result.Compressed))
	}
	return stats, nil
}
