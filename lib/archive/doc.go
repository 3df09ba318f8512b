// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive reads and writes the .tzip record format and runs the
// ordered merge that turns a collector of results into an archive.
//
// # Format
//
// An archive is a plain sequence of records with no header, no names,
// and no trailing index:
//
//	record := length payload
//	length := uint32, little-endian, number of payload bytes
//	payload := length bytes of codec output
//
// Record i holds the input file with ordinal i. A zero-length record is
// a placeholder for a file that failed under the placeholder error
// policy; no codec produces empty output, so it never collides with a
// real record.
//
// # Merge
//
// [Merge] takes results from a [Source] strictly in ordinal order,
// suspending on each position until it is published, and writes one
// record per result. It is the only place where ordering is enforced;
// the workers run in whatever order the scheduler picks.
package archive
