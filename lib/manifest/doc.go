// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest reads and writes the sidecar that names the records
// of a .tzip archive.
//
// The archive format carries only lengths and payloads. The manifest
// adds, per record, the source filename, sizes, outcome, and a BLAKE3
// digest of the bytes that were compressed, so an archive can be
// extracted under its original names and checked for corruption. The
// sidecar is optional: an archive without one is still complete.
//
// Manifests are CBOR documents encoded by lib/codec with Core
// Deterministic Encoding, so identical runs produce identical bytes.
// They live next to the archive at [DefaultPath] and are published with
// lib/atomicfile.
package manifest
