// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFiles creates dir (if needed) and writes each name→content pair
// into it. Map iteration order is random, which is exactly what ordering
// tests want: creation order must never leak into archive order.
func WriteFiles(t *testing.T, dir string, files map[string][]byte) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("creating %s: %v", dir, err)
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, content, 0o644); err != nil {
			t.Fatalf("writing %s: %v", path, err)
		}
	}
}

// ReadFile returns the contents of path or fails the test.
func ReadFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return data
}

// Repeat returns a buffer of size bytes filled with b.
func Repeat(b byte, size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = b
	}
	return data
}
