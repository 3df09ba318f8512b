// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides textzip's standard CBOR encoding configuration.
//
// textzip uses two serialization formats with a clear boundary:
//
//   - JSON for external interfaces: CLI --json output and the
//     configuration file (which may also be YAML).
//   - CBOR for on-disk sidecars: the archive manifest.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2), so the
// same manifest always produces identical bytes and two runs over the
// same input produce byte-identical sidecars.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For files, stream with [NewEncoder] and [NewDecoder].
//
// # Struct Tag Rules
//
//   - `cbor` tag: the type is only ever serialized as CBOR.
//   - `json` tag: the type may be serialized as both JSON and CBOR.
//     fxamacker/cbor v2 reads `json` tags when `cbor` tags are absent.
//
// Never use both tags on the same field.
package codec
