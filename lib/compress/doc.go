// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package compress provides the whole-buffer codecs used to compress
// individual archive records.
//
// Every codec runs at its maximum-effort level: textzip compresses each
// file once and the archive is read many times, so ratio matters more
// than encode speed. The default is [Zlib] at level 9, which is the
// record encoding existing .tzip readers expect. [Zstd] and [LZ4] are
// available for archives that are only read back by textzip itself.
//
// [Bounded] enforces the per-record capacity on compressed output. A
// codec that expands incompressible input beyond the capacity reports
// [ErrOutputTooLarge], which the worker pool records as a codec error
// for that file only.
package compress
