// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package loader reads input files into bounded, reusable buffers.
//
// A file larger than the configured capacity is an explicit policy
// decision, never a silent truncation: [Reject] fails the file with
// [ErrOversize], [Truncate] keeps the first capacity bytes and marks the
// result as truncated so the caller can report it.
package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// DefaultCapacity is the per-file buffer capacity: 1 MiB.
const DefaultCapacity = 1 << 20

// OversizePolicy selects what happens to files larger than the capacity.
type OversizePolicy string

const (
	// Reject fails oversized files with ErrOversize.
	Reject OversizePolicy = "reject"

	// Truncate keeps the first capacity bytes of oversized files.
	Truncate OversizePolicy = "truncate"
)

// ParseOversizePolicy validates a policy name from configuration.
func ParseOversizePolicy(name string) (OversizePolicy, error) {
	switch OversizePolicy(name) {
	case Reject, Truncate:
		return OversizePolicy(name), nil
	default:
		return "", fmt.Errorf("unknown oversize policy %q (want %q or %q)", name, Reject, Truncate)
	}
}

var (
	// ErrOversize reports a file larger than the loader capacity
	// under the Reject policy.
	ErrOversize = errors.New("file exceeds buffer capacity")

	// ErrShortRead reports a file that yielded fewer bytes than its
	// size at open time (it shrank while being read).
	ErrShortRead = errors.New("short read")
)

// ReadError describes a failure to load one file.
type ReadError struct {
	Path string
	Op   string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Loaded is the outcome of a successful Load. Data aliases the buffer
// passed to Load and is only valid until the buffer is reused.
type Loaded struct {
	Data      []byte
	Truncated bool
}

// Loader reads whole files up to a fixed capacity. A Loader holds no
// mutable state and may be shared between goroutines; each goroutine
// supplies its own buffer.
type Loader struct {
	capacity int
	policy   OversizePolicy
}

// New returns a Loader for the given capacity and oversize policy.
func New(capacity int, policy OversizePolicy) (*Loader, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("loader capacity must be positive, got %d", capacity)
	}
	if _, err := ParseOversizePolicy(string(policy)); err != nil {
		return nil, err
	}
	return &Loader{capacity: capacity, policy: policy}, nil
}

// Capacity returns the maximum number of bytes Load returns.
func (l *Loader) Capacity() int { return l.capacity }

// NewBuffer allocates a buffer suitable for Load.
func (l *Loader) NewBuffer() []byte {
	return make([]byte, l.capacity+1)
}

// Load reads path into buffer. The buffer must come from NewBuffer (it
// needs one byte beyond the capacity to detect oversized input without
// a stat race).
func (l *Loader) Load(path string, buffer []byte) (Loaded, error) {
	if len(buffer) < l.capacity+1 {
		return Loaded{}, fmt.Errorf("load %s: buffer of %d bytes is smaller than capacity %d plus one",
			path, len(buffer), l.capacity)
	}
	buffer = buffer[:l.capacity+1]

	file, err := os.Open(path)
	if err != nil {
		return Loaded{}, &ReadError{Path: path, Op: "open", Err: err}
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Loaded{}, &ReadError{Path: path, Op: "stat", Err: err}
	}

	n, err := io.ReadFull(file, buffer)
	switch {
	case err == nil:
		// Filled capacity+1 bytes: the file is larger than capacity.
		if l.policy == Reject {
			return Loaded{}, &ReadError{Path: path, Op: "read", Err: fmt.Errorf(
				"%w: more than %d bytes", ErrOversize, l.capacity)}
		}
		return Loaded{Data: buffer[:l.capacity], Truncated: true}, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		// Whole file read.
	default:
		return Loaded{}, &ReadError{Path: path, Op: "read", Err: err}
	}

	if info.Mode().IsRegular() && int64(n) < info.Size() {
		return Loaded{}, &ReadError{Path: path, Op: "read", Err: fmt.Errorf(
			"%w: got %d of %d bytes", ErrShortRead, n, info.Size())}
	}
	return Loaded{Data: buffer[:n]}, nil
}
