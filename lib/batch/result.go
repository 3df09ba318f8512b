// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import "fmt"

// Status classifies the outcome of one unit.
type Status uint8

const (
	// StatusOK means Compressed holds the unit's record payload.
	StatusOK Status = iota

	// StatusReadError means the file could not be loaded: it was
	// missing, unreadable, shrank while being read, or exceeded the
	// capacity under the reject policy.
	StatusReadError

	// StatusCodecError means the codec failed on loaded data, its
	// output exceeded the capacity, or the process function panicked.
	StatusCodecError

	// StatusCanceled means the unit was claimed after the run context
	// was canceled and was never processed.
	StatusCanceled
)

// String returns the name used in logs and manifests.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusReadError:
		return "read_error"
	case StatusCodecError:
		return "codec_error"
	case StatusCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(name string) (Status, error) {
	for status := StatusOK; status <= StatusCanceled; status++ {
		if status.String() == name {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", name)
}

// Result is the outcome of one unit. A worker owns it until Publish;
// the collector owns it until AwaitAndTake hands it to the consumer.
type Result struct {
	Ordinal int
	Path    string

	// Compressed is the record payload. Nil unless Status is StatusOK.
	Compressed []byte

	// OriginalSize is the number of bytes fed to the codec. For a
	// truncated file this is the capacity, not the file size.
	OriginalSize int

	Status Status
	Err    error

	// Digest is the BLAKE3-256 of the bytes fed to the codec.
	Digest [32]byte

	// Truncated is set when the file was cut to the capacity.
	Truncated bool
}

// OK reports whether the unit produced a payload.
func (r Result) OK() bool { return r.Status == StatusOK }

// Failure builds a failed Result for unit.
func Failure(unit Unit, status Status, err error) Result {
	return Result{
		Ordinal: unit.Ordinal,
		Path:    unit.Path,
		Status:  status,
		Err:     err,
	}
}
