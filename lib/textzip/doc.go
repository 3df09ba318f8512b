// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package textzip runs whole-archive operations: [Compress] builds a
// .tzip archive from a directory of text files, [Extract] unpacks one,
// [Verify] checks one against its source directory, and [Inspect]
// lists its records.
//
// Compress wires the leaf packages together:
//
//	scan.Scan ─► batch.NewUnits ─► batch.Pool ─► batch.Collector
//	                                                 │
//	             atomicfile ◄─ archive.Writer ◄─ archive.Merge
//
// Workers load, hash, and compress files in whatever order they claim
// them; the merge writes records strictly by ordinal. The archive is
// written to a temporary file and renamed over the output only after
// every record is written and synced, so an aborted or canceled run
// leaves the previous output (or nothing) in place.
package textzip
