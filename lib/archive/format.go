// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// LengthSize is the size of a record's length prefix in bytes.
const LengthSize = 4

// MaxRecordSize is the largest payload a length prefix can describe.
const MaxRecordSize = math.MaxUint32

var (
	// ErrTruncated reports an archive that ends inside a record.
	ErrTruncated = errors.New("archive truncated")

	// ErrRecordTooLarge reports a length prefix beyond the reader's limit.
	ErrRecordTooLarge = errors.New("archive record exceeds limit")
)

// Writer appends length-prefixed records to an underlying stream.
// Call Flush after the last record.
type Writer struct {
	buffered *bufio.Writer
	records  int
	written  int64
	scratch  [LengthSize]byte
}

// NewWriter returns a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{buffered: bufio.NewWriterSize(w, 256*1024)}
}

// WriteRecord writes one record. A nil or empty payload writes a
// zero-length placeholder.
func (w *Writer) WriteRecord(payload []byte) error {
	if uint64(len(payload)) > MaxRecordSize {
		return fmt.Errorf("record %d: %d bytes does not fit a %d-byte length prefix",
			w.records, len(payload), LengthSize)
	}
	binary.LittleEndian.PutUint32(w.scratch[:], uint32(len(payload)))
	if _, err := w.buffered.Write(w.scratch[:]); err != nil {
		return fmt.Errorf("writing record %d length: %w", w.records, err)
	}
	if _, err := w.buffered.Write(payload); err != nil {
		return fmt.Errorf("writing record %d payload: %w", w.records, err)
	}
	w.records++
	w.written += int64(LengthSize + len(payload))
	return nil
}

// Flush writes any buffered data to the underlying stream.
func (w *Writer) Flush() error {
	if err := w.buffered.Flush(); err != nil {
		return fmt.Errorf("flushing archive: %w", err)
	}
	return nil
}

// Records returns the number of records written.
func (w *Writer) Records() int { return w.records }

// BytesWritten returns the archive size so far, prefixes included.
func (w *Writer) BytesWritten() int64 { return w.written }

// Reader iterates over the records of an archive.
type Reader struct {
	buffered *bufio.Reader
	limit    int
	records  int
	scratch  [LengthSize]byte
}

// NewReader returns a Reader on r that rejects records longer than
// limit bytes. limit guards against allocating gigabytes for a corrupt
// length prefix.
func NewReader(r io.Reader, limit int) *Reader {
	return &Reader{buffered: bufio.NewReaderSize(r, 256*1024), limit: limit}
}

// Next returns the next record's payload. It returns io.EOF after the
// last record and ErrTruncated if the stream ends mid-record.
func (r *Reader) Next() ([]byte, error) {
	n, err := io.ReadFull(r.buffered, r.scratch[:])
	if err != nil {
		if errors.Is(err, io.EOF) && n == 0 {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("record %d length: %w", r.records, ErrTruncated)
		}
		return nil, fmt.Errorf("record %d length: %w", r.records, err)
	}

	length := binary.LittleEndian.Uint32(r.scratch[:])
	if uint64(length) > uint64(r.limit) {
		return nil, fmt.Errorf("record %d: length %d, limit %d: %w", r.records, length, r.limit, ErrRecordTooLarge)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r.buffered, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("record %d payload: %w", r.records, ErrTruncated)
		}
		return nil, fmt.Errorf("record %d payload: %w", r.records, err)
	}
	r.records++
	return payload, nil
}

// Records returns the number of records read so far.
func (r *Reader) Records() int { return r.records }

// ReadAll returns every record of the archive in order.
func ReadAll(r io.Reader, limit int) ([][]byte, error) {
	reader := NewReader(r, limit)
	var records [][]byte
	for {
		payload, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, payload)
	}
}
