// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package textzip

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/bureau-foundation/textzip/lib/archive"
	"github.com/bureau-foundation/textzip/lib/compress"
)

func zlibCodec(t *testing.T) compress.Codec {
	t.Helper()
	codec, err := compress.Lookup(compress.Zlib)
	if err != nil {
		t.Fatalf("Lookup(zlib): %v", err)
	}
	return codec
}

// gatedCodec calls gate before compressing, which lets a test hold
// chosen files in a worker while the others complete.
type gatedCodec struct {
	compress.Codec
	gate func(src []byte)
}

func (g gatedCodec) Compress(src []byte) ([]byte, error) {
	g.gate(src)
	return g.Codec.Compress(src)
}

// failingCodec fails every input whose first byte is failOn.
type failingCodec struct {
	compress.Codec
	failOn byte
}

var errInjected = errors.New("injected codec failure")

func (f failingCodec) Compress(src []byte) ([]byte, error) {
	if len(src) > 0 && src[0] == f.failOn {
		return nil, errInjected
	}
	return f.Codec.Compress(src)
}

// readArchive decompresses every record of the archive at path.
// Placeholder records come back as nil.
func readArchive(t *testing.T, path string) [][]byte {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	defer file.Close()

	records, err := archive.ReadAll(file, 1<<20)
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}
	codec := zlibCodec(t)
	decoded := make([][]byte, len(records))
	for i, record := range records {
		if len(record) == 0 {
			continue
		}
		decoded[i], err = codec.Decompress(record, 1<<20)
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	return decoded
}

// requireNoArchive fails if path exists or if dir holds leftover
// temporary files.
func requireNoArchive(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("archive %s exists after a failed run (stat: %v)", path, err)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, entry := range entries {
		if entry.Name() != filepath.Base(path) && bytes.Contains([]byte(entry.Name()), []byte(".tmp-")) {
			t.Errorf("temporary file %s left behind", entry.Name())
		}
	}
}

// recordHandler is a slog.Handler that forwards records with a given
// message to a channel.
type recordHandler struct {
	message string
	records chan slog.Record
}

func (h *recordHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Message == h.message {
		select {
		case h.records <- record:
		default:
		}
	}
	return nil
}

func (h *recordHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordHandler) WithGroup(string) slog.Handler      { return h }
