// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/textzip/cmd/textzip/cli"
	"github.com/bureau-foundation/textzip/lib/codec"
	"github.com/bureau-foundation/textzip/lib/config"
	"github.com/bureau-foundation/textzip/lib/manifest"
	"github.com/bureau-foundation/textzip/lib/textzip"
)

type inspectParams struct {
	cli.JSONOutput

	Manifest string      `flag:"manifest" desc:"manifest path (default: <archive>.manifest when present)"`
	Limit    config.Size `flag:"limit" desc:"largest record accepted (default: from the manifest, else 1MiB)"`
	Diag     bool        `flag:"diag" desc:"print the manifest in CBOR diagnostic notation instead"`
}

func inspectCommand(env environment) *cli.Command {
	var params inspectParams

	return &cli.Command{
		Name:    "inspect",
		Summary: "List the records of an archive",
		Description: `List every record of <archive> with its offset and size, without
decompressing anything. With a manifest, each row also shows the
original filename, size, status, and a short digest.

--diag prints the raw manifest in CBOR diagnostic notation.`,
		Usage: "textzip inspect <archive> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("inspect", &params)
		},
		Run: func(_ context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected one archive path, got %d arguments", len(args))
			}
			if params.Diag {
				return printManifestDiag(env.stdout, args[0], params.Manifest)
			}

			records, err := textzip.Inspect(args[0], params.Manifest, params.Limit.Int())
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(env.stdout, records); done {
				return err
			}
			return printRecords(env.stdout, records)
		},
	}
}

func printRecords(w io.Writer, records []textzip.RecordInfo) error {
	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDINAL\tOFFSET\tSIZE\tORIGINAL\tSTATUS\tDIGEST\tNAME")

	var stored, original int64
	placeholders := 0
	for _, record := range records {
		stored += int64(record.Size)
		original += record.OriginalSize

		originalSize, status, digest := "-", "-", "-"
		if record.Status != "" {
			originalSize = humanize.IBytes(uint64(record.OriginalSize))
			status = record.Status
			if record.Truncated {
				status += " (truncated)"
			}
		}
		if !record.Digest.IsZero() {
			digest = record.Digest.Short()
		}
		if record.Placeholder {
			placeholders++
			if record.Status == "" {
				status = "placeholder"
			}
		}
		name := record.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
			record.Ordinal, record.Offset, humanize.IBytes(uint64(record.Size)),
			originalSize, status, digest, name)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	summary := fmt.Sprintf("%d records, %s stored", len(records), humanize.IBytes(uint64(stored)))
	if original > 0 {
		summary += fmt.Sprintf(" (%s original)", humanize.IBytes(uint64(original)))
	}
	if placeholders > 0 {
		summary += fmt.Sprintf(", %d placeholders", placeholders)
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}

func printManifestDiag(w io.Writer, archivePath, manifestPath string) error {
	if manifestPath == "" {
		manifestPath = manifest.DefaultPath(archivePath)
	}
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}
	notation, err := codec.Diagnose(data)
	if err != nil {
		return fmt.Errorf("decoding manifest %s: %w", manifestPath, err)
	}
	_, err = fmt.Fprintln(w, notation)
	return err
}
