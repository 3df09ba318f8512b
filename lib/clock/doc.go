// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Code that measures elapsed time or reports progress accepts a Clock
// instead of calling time.Now or time.NewTicker directly. In
// production, Real() provides the standard library behavior. In tests,
// Fake() provides a deterministic clock that advances only when
// Advance is called.
//
// In tests:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	options.Clock = c
//	// ... start the run ...
//	c.WaitForTimers(1)          // wait for the progress ticker
//	c.Advance(5 * time.Second)  // fire it deterministically
//
// # FakeClock Synchronization
//
// NewTicker on a FakeClock registers a pending waiter. Use
// WaitForTimers to block until a goroutine has registered its ticker
// before calling Advance, instead of sleeping.
package clock
