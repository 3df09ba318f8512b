// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultPoolCapacity is the maximum number of concurrent workers when
// none is configured.
const DefaultPoolCapacity = 8

// ProcessFunc computes the Result for one unit. worker is the index of
// the calling goroutine in [0, Run.Workers()), which lets the caller keep
// per-worker scratch buffers without locking. The returned Result's
// Ordinal and Path are overwritten from unit.
type ProcessFunc func(ctx context.Context, worker int, unit Unit) Result

// Pool starts bounded runs over a list of units.
type Pool struct {
	capacity int
	logger   *slog.Logger
}

// NewPool returns a Pool that runs at most capacity workers at a time.
// A nil logger discards output.
func NewPool(capacity int, logger *slog.Logger) (*Pool, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("pool capacity must be at least 1, got %d", capacity)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pool{capacity: capacity, logger: logger}, nil
}

// Capacity returns the configured maximum number of workers.
func (p *Pool) Capacity() int { return p.capacity }

// WorkersFor returns the number of workers a run over n units starts:
// min(capacity, n), and never less than one.
func (p *Pool) WorkersFor(n int) int {
	return max(1, min(p.capacity, n))
}

// dispatch is the state shared by the workers of one run. cursor is the
// only field mutated concurrently; everything else is fixed at Start.
type dispatch struct {
	units     []Unit
	cursor    atomic.Int64
	collector *Collector
	process   ProcessFunc
}

// claim returns the next unclaimed unit, or false once all are claimed.
func (d *dispatch) claim() (Unit, bool) {
	ordinal := d.cursor.Add(1) - 1
	if ordinal >= int64(len(d.units)) {
		return Unit{}, false
	}
	return d.units[ordinal], true
}

// Run is one execution of a pool over a fixed unit list.
type Run struct {
	dispatch *dispatch
	logger   *slog.Logger

	// claims[i] is written only by worker i and read after done.
	claims []int

	waitGroup sync.WaitGroup
	done      chan struct{}

	errorsMu sync.Mutex
	errors   []error
}

// Start launches the workers for units and returns immediately. Every
// unit's Result is published into collector, which must have exactly
// len(units) slots. units must have dense ordinals (see NewUnits).
func (p *Pool) Start(ctx context.Context, units []Unit, collector *Collector, process ProcessFunc) (*Run, error) {
	if process == nil {
		return nil, errors.New("pool start: nil process function")
	}
	if collector == nil || collector.Len() != len(units) {
		length := -1
		if collector != nil {
			length = collector.Len()
		}
		return nil, fmt.Errorf("pool start: collector has %d slots for %d units", length, len(units))
	}
	if err := checkDense(units); err != nil {
		return nil, fmt.Errorf("pool start: %w", err)
	}

	workers := p.WorkersFor(len(units))
	run := &Run{
		dispatch: &dispatch{
			units:     units,
			collector: collector,
			process:   process,
		},
		logger: p.logger,
		claims: make([]int, workers),
		done:   make(chan struct{}),
	}

	p.logger.Debug("pool starting", "units", len(units), "workers", workers)

	run.waitGroup.Add(workers)
	for worker := range workers {
		go run.work(ctx, worker)
	}
	go func() {
		run.waitGroup.Wait()
		close(run.done)
	}()

	return run, nil
}

// work is the loop of one worker goroutine.
func (r *Run) work(ctx context.Context, worker int) {
	defer r.waitGroup.Done()

	for {
		unit, ok := r.dispatch.claim()
		if !ok {
			r.logger.Debug("worker drained", "worker", worker, "claimed", r.claims[worker])
			return
		}
		r.claims[worker]++

		result := r.execute(ctx, worker, unit)
		result.Ordinal = unit.Ordinal
		result.Path = unit.Path

		if err := r.dispatch.collector.Publish(result); err != nil {
			r.logger.Error("publishing result", "ordinal", unit.Ordinal, "path", unit.Path, "error", err)
			r.errorsMu.Lock()
			r.errors = append(r.errors, err)
			r.errorsMu.Unlock()
		}
	}
}

// execute runs the process function for one unit, converting a
// canceled context or a panic into a failed Result.
func (r *Run) execute(ctx context.Context, worker int, unit Unit) (result Result) {
	if err := ctx.Err(); err != nil {
		return Failure(unit, StatusCanceled, err)
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			r.logger.Error("unit panicked", "ordinal", unit.Ordinal, "path", unit.Path, "panic", recovered)
			result = Failure(unit, StatusCodecError, fmt.Errorf("processing %s panicked: %v", unit.Path, recovered))
		}
	}()

	return r.dispatch.process(ctx, worker, unit)
}

// Workers returns the number of worker goroutines started.
func (r *Run) Workers() int { return len(r.claims) }

// Done is closed once every worker has exited.
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until every worker has exited and returns any
// publication errors. Those indicate a broken invariant (a slot
// published twice), never a per-unit failure.
func (r *Run) Wait() error {
	<-r.done
	r.errorsMu.Lock()
	defer r.errorsMu.Unlock()
	return errors.Join(r.errors...)
}

// Claims returns how many units each worker claimed. Only meaningful
// after Wait returns.
func (r *Run) Claims() []int {
	<-r.done
	claims := make([]int, len(r.claims))
	copy(claims, r.claims)
	return claims
}
