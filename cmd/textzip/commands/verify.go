// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/textzip/cmd/textzip/cli"
	"github.com/bureau-foundation/textzip/lib/textzip"
)

type verifyParams struct {
	cli.JSONOutput
	logParams
	readParams

	Extension string `flag:"extension" desc:"source filename suffix" default:".txt"`
	Workers   int    `flag:"workers,w" desc:"maximum concurrent workers" default:"8"`
}

func verifyCommand(env environment) *cli.Command {
	var params verifyParams

	return &cli.Command{
		Name:    "verify",
		Summary: "Check an archive against its source directory",
		Description: `Decompress every record of <archive> and compare it with the source
file of the same position in <dir>. Records are checked in parallel and
reported in order.

Exit status is 1 when any record does not match.`,
		Usage: "textzip verify <archive> <dir> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("verify", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected <archive> <dir>, got %d arguments", len(args))
			}
			logger, err := env.logger(params.LogLevel, "verify")
			if err != nil {
				return err
			}

			report, err := textzip.Verify(ctx, textzip.VerifyOptions{
				Archive:   args[0],
				Input:     args[1],
				Extension: params.Extension,
				Manifest:  params.Manifest,
				Codec:     params.Codec,
				Capacity:  params.Capacity.Int(),
				Workers:   params.Workers,
				Logger:    logger,
			})
			if err != nil {
				return err
			}

			if done, err := params.EmitJSON(env.stdout, report); done {
				if err == nil && !report.OK() {
					return &cli.ExitError{Code: 1}
				}
				return err
			}
			for _, mismatch := range report.Mismatches {
				fmt.Fprintf(env.stdout, "MISMATCH %d %s: %s\n", mismatch.Ordinal, mismatch.Path, mismatch.Reason)
			}
			fmt.Fprintf(env.stdout, "Verified %d of %d records\n", report.Verified, report.Records)
			if !report.OK() {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}
