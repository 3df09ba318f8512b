// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package batch is the concurrent core of textzip: a bounded worker
// pool that processes a dense, pre-ordered list of work units, and a
// collector that hands results back in ordinal order regardless of the
// order in which workers finish.
//
// # Dispatch
//
// A [Run] starts K = min(capacity, N) goroutines (at least one). Each
// goroutine claims the next ordinal by incrementing a shared atomic
// cursor, so claims are exclusive without a lock and no goroutine ever
// waits for work: when the cursor passes N-1 the goroutine exits.
// [Run.Wait] joins them all (the drain).
//
// A failing unit never stops its worker. Whatever the process function
// returns, including a recovered panic, is published as that unit's
// [Result] and the worker moves on.
//
// # Ordering
//
// The [Collector] has one write-once slot per ordinal. Publishing fills
// the slot and closes its ready channel; [Collector.AwaitAndTake]
// suspends on that channel. Channel close happens-before the receive
// that observes it, so the consumer always sees the fully written
// Result without any per-slot lock. Calling AwaitAndTake for 0..N-1 in
// order yields results in ordinal order no matter how execution was
// scheduled.
//
// # Shutdown
//
// There is no mid-task abort. When the run context is canceled,
// workers keep claiming ordinals but publish [StatusCanceled] results
// instead of processing them, so every slot is still filled and the
// drain completes promptly.
package batch
