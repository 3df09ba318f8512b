// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/textzip/cmd/textzip/cli"
	"github.com/bureau-foundation/textzip/lib/config"
	"github.com/bureau-foundation/textzip/lib/textzip"
)

// readParams are the flags shared by commands that read an archive.
type readParams struct {
	Manifest string      `flag:"manifest" desc:"manifest path (default: <archive>.manifest when present)"`
	Codec    string      `flag:"codec" desc:"codec override (default: from the manifest, else zlib)"`
	Capacity config.Size `flag:"capacity" desc:"largest record or file accepted (default: from the manifest, else 1MiB)"`
}

type extractParams struct {
	cli.JSONOutput
	logParams
	readParams

	Overwrite bool `flag:"overwrite" desc:"replace existing files in the destination"`
}

func extractCommand(env environment) *cli.Command {
	var params extractParams

	return &cli.Command{
		Name:    "extract",
		Summary: "Write the files of an archive to a directory",
		Description: `Decompress every record of <archive> into <dir>, creating <dir> if
needed. With a manifest, files get their original names and each one is
checked against its BLAKE3 digest. Without one they are named
record-000000.txt and so on. Placeholder records are skipped.`,
		Usage: "textzip extract <archive> <dir> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("extract", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected <archive> <dir>, got %d arguments", len(args))
			}
			logger, err := env.logger(params.LogLevel, "extract")
			if err != nil {
				return err
			}

			report, err := textzip.Extract(ctx, textzip.ExtractOptions{
				Archive:     args[0],
				Manifest:    params.Manifest,
				Destination: args[1],
				Codec:       params.Codec,
				Capacity:    params.Capacity.Int(),
				Overwrite:   params.Overwrite,
				Logger:      logger,
			})
			if err != nil {
				return err
			}

			if done, err := params.EmitJSON(env.stdout, report); done {
				return err
			}
			verified := "not verified (no manifest)"
			if report.Verified {
				verified = "digests verified"
			}
			_, err = fmt.Fprintf(env.stdout, "Extracted %d of %d records to %s, %d placeholders skipped, %s\n",
				len(report.Files), report.Records, args[1], report.Skipped, verified)
			return err
		},
	}
}
