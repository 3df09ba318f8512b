// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

var (
	// ErrOrdinalRange is returned for an ordinal outside [0, Len()).
	ErrOrdinalRange = errors.New("ordinal out of range")

	// ErrAlreadyPublished is returned when a slot is published twice.
	// The first Result is kept.
	ErrAlreadyPublished = errors.New("result slot already published")

	// ErrAlreadyTaken is returned when a slot is taken twice.
	ErrAlreadyTaken = errors.New("result slot already taken")
)

// slot is one write-once result location. published and taken are
// claimed with CompareAndSwap; ready is closed exactly once, after
// result is written.
type slot struct {
	ready     chan struct{}
	published atomic.Bool
	taken     atomic.Bool
	result    Result
}

// Collector holds one result slot per ordinal. Any number of workers
// may Publish concurrently (each to its own ordinal); one consumer
// takes results with AwaitAndTake.
type Collector struct {
	slots []slot
}

// NewCollector returns a Collector with n empty slots.
func NewCollector(n int) *Collector {
	slots := make([]slot, n)
	for i := range slots {
		slots[i].ready = make(chan struct{})
	}
	return &Collector{slots: slots}
}

// Len returns the number of slots.
func (c *Collector) Len() int { return len(c.slots) }

func (c *Collector) slot(ordinal int) (*slot, error) {
	if ordinal < 0 || ordinal >= len(c.slots) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrOrdinalRange, ordinal, len(c.slots))
	}
	return &c.slots[ordinal], nil
}

// Publish stores result in the slot for result.Ordinal and wakes any
// consumer waiting on it.
func (c *Collector) Publish(result Result) error {
	s, err := c.slot(result.Ordinal)
	if err != nil {
		return err
	}
	if !s.published.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: ordinal %d", ErrAlreadyPublished, result.Ordinal)
	}
	s.result = result
	close(s.ready)
	return nil
}

// Ready reports, without blocking, whether ordinal has been published.
func (c *Collector) Ready(ordinal int) bool {
	s, err := c.slot(ordinal)
	if err != nil {
		return false
	}
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// AwaitAndTake blocks until ordinal is published, then returns its
// Result and releases the collector's reference to it. It returns
// ctx.Err() if ctx is done first. A published slot is returned even if
// ctx is already done.
func (c *Collector) AwaitAndTake(ctx context.Context, ordinal int) (Result, error) {
	s, err := c.slot(ordinal)
	if err != nil {
		return Result{}, err
	}

	select {
	case <-s.ready:
	default:
		select {
		case <-s.ready:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}

	if !s.taken.CompareAndSwap(false, true) {
		return Result{}, fmt.Errorf("%w: ordinal %d", ErrAlreadyTaken, ordinal)
	}
	result := s.result
	s.result = Result{}
	return result, nil
}
