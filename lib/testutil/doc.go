// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for textzip packages.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with a time.After fallback) so that concurrency
// tests fail with a message instead of hanging when a goroutine never
// publishes. These are the only place in the test suite where real
// wall-clock timeouts are used.
//
// [WriteFiles], [ReadFile], and [Repeat] build and read input files for
// compression tests.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
