// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package textzip

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/textzip/lib/clock"
)

// startProgress logs how many records have been written every interval
// until the returned stop function is called. stop blocks until the
// logging goroutine has exited.
func startProgress(timeSource clock.Clock, interval time.Duration, logger *slog.Logger, total int, written *atomic.Int64) (stop func()) {
	ticker := timeSource.NewTicker(interval)
	quit := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		for {
			select {
			case <-ticker.C:
				done := written.Load()
				logger.Info("progress",
					"records", done,
					"total", total,
					"percent", 100*done/int64(max(total, 1)),
				)
			case <-quit:
				return
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(quit)
		<-exited
	}
}
