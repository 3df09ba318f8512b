// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// textzip compresses a directory of text files into one archive of
// length-prefixed records, in parallel, in filename order.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/textzip/cmd/textzip/cli"
	"github.com/bureau-foundation/textzip/cmd/textzip/commands"
	"github.com/bureau-foundation/textzip/lib/process"
)

func main() {
	if err := run(); err != nil {
		// Commands that report their own outcome return an ExitError
		// with the desired code. Don't print a redundant "error:" line.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			process.Exit(nil, coder.ExitCode())
		}
		process.Fatal(err)
	}
}

func run() error {
	// The first signal cancels the run so workers drain and the
	// temporary archive is removed. A second one kills the process.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		stop()
	}()

	return commands.Root(os.Stdout, cli.NewCommandLogger).Execute(ctx, os.Args[1:])
}
