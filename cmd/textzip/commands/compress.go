// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/textzip/cmd/textzip/cli"
	"github.com/bureau-foundation/textzip/lib/archive"
	"github.com/bureau-foundation/textzip/lib/compress"
	"github.com/bureau-foundation/textzip/lib/config"
	"github.com/bureau-foundation/textzip/lib/loader"
	"github.com/bureau-foundation/textzip/lib/scan"
	"github.com/bureau-foundation/textzip/lib/textzip"
)

type compressParams struct {
	cli.JSONOutput
	logParams

	Config       string        `flag:"config,c" desc:"YAML or JSONC config file (default: $TEXTZIP_CONFIG)"`
	Output       string        `flag:"output,o" desc:"archive path (default text.tzip)"`
	Extension    string        `flag:"extension" desc:"input filename suffix (default .txt)"`
	Workers      int           `flag:"workers,w" desc:"maximum concurrent workers (default 8)"`
	Capacity     config.Size   `flag:"capacity" desc:"per-file buffer capacity, e.g. 1MiB"`
	Codec        string        `flag:"codec" desc:"zlib, zstd, or lz4 (default zlib)"`
	Oversize     string        `flag:"oversize" desc:"files beyond capacity: reject or truncate"`
	OnError      string        `flag:"on-error" desc:"failed files: placeholder or abort"`
	Manifest     bool          `flag:"manifest,m" desc:"write a manifest sidecar next to the archive"`
	ManifestPath string        `flag:"manifest-path" desc:"manifest location (implies --manifest)"`
	Progress     time.Duration `flag:"progress" desc:"log progress at this interval (0 disables)"`
}

func compressCommand(env environment) *cli.Command {
	var (
		params  compressParams
		flagSet *pflag.FlagSet
	)

	return &cli.Command{
		Name:    "compress",
		Summary: "Compress a directory of text files into one archive",
		Description: `Compress every file in <dir> whose name ends in the configured
extension. Files are compressed independently and in parallel, then
written as length-prefixed records in lexicographic filename order.

Settings come from the config file named by --config or $TEXTZIP_CONFIG,
then from flags. A file that cannot be read or compressed becomes a
zero-length record (--on-error placeholder) or stops the run
(--on-error abort). The archive appears only when the run succeeds.

Exit status is 2 when <dir> holds no matching files.`,
		Usage: "textzip compress <dir> [flags]",
		Examples: []cli.Example{
			{
				Description: "Compress with the defaults",
				Command:     "textzip compress notes",
			},
			{
				Description: "Truncate oversized files instead of failing them",
				Command:     "textzip compress logs --extension .log --capacity 4MiB --oversize truncate",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet = cli.FlagsFromParams("compress", &params)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected one input directory, got %d arguments\n\nUsage: textzip compress <dir> [flags]", len(args))
			}
			return runCompress(ctx, env, args[0], &params, flagSet)
		},
	}
}

func runCompress(ctx context.Context, env environment, input string, params *compressParams, flagSet *pflag.FlagSet) error {
	cfg, source, err := loadConfig(params.Config)
	if err != nil {
		return err
	}
	applyCompressFlags(cfg, params, flagSet)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := env.logger(cfg.LogLevel, "compress")
	if err != nil {
		return err
	}
	if source != "" {
		logger.Debug("loaded config", "path", source)
	}

	// Validate has already accepted these names.
	codec, _ := compress.Lookup(cfg.Codec)
	oversize, _ := loader.ParseOversizePolicy(cfg.Oversize)
	onError, _ := archive.ParseErrorPolicy(cfg.OnError)

	report, err := textzip.Compress(ctx, textzip.Options{
		Input:            input,
		Extension:        cfg.Extension,
		Output:           cfg.Output,
		Workers:          cfg.MaxWorkers,
		Capacity:         cfg.BufferCapacity.Int(),
		Codec:            codec,
		Oversize:         oversize,
		OnError:          onError,
		Manifest:         cfg.Manifest || params.ManifestPath != "",
		ManifestPath:     params.ManifestPath,
		ProgressInterval: time.Duration(cfg.ProgressInterval),
		Logger:           logger,
	})
	if errors.Is(err, scan.ErrEmptyInput) {
		logger.Error("no input files", "input", input, "extension", cfg.Extension)
		return &cli.ExitError{Code: 2}
	}
	if err != nil {
		return err
	}

	logger.Info("compression summary",
		"output", report.Output,
		"files", report.Files,
		"failed", report.Stats.Failed,
		"original", humanize.IBytes(uint64(report.Stats.OriginalBytes)),
		"archive", humanize.IBytes(uint64(report.ArchiveBytes)),
		"elapsed", report.Elapsed,
	)

	if done, err := params.EmitJSON(env.stdout, report); done {
		return err
	}
	_, err = fmt.Fprintf(env.stdout, "Compression rate: %.2f%%\n", report.Stats.Rate())
	return err
}

// loadConfig reads the explicit config file, or falls back to
// $TEXTZIP_CONFIG and then the defaults.
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.LoadFile(path)
		return cfg, path, err
	}
	return config.Load()
}

// applyCompressFlags overrides config values with the flags the user
// actually set, so an unset flag never masks a config file value.
func applyCompressFlags(cfg *config.Config, params *compressParams, flagSet *pflag.FlagSet) {
	changed := func(name string) bool {
		return flagSet != nil && flagSet.Changed(name)
	}
	if changed("output") {
		cfg.Output = params.Output
	}
	if changed("extension") {
		cfg.Extension = params.Extension
	}
	if changed("workers") {
		cfg.MaxWorkers = params.Workers
	}
	if changed("capacity") {
		cfg.BufferCapacity = params.Capacity
	}
	if changed("codec") {
		cfg.Codec = params.Codec
	}
	if changed("oversize") {
		cfg.Oversize = params.Oversize
	}
	if changed("on-error") {
		cfg.OnError = params.OnError
	}
	if changed("manifest") {
		cfg.Manifest = params.Manifest
	}
	if changed("progress") {
		cfg.ProgressInterval = config.Duration(params.Progress)
	}
	if changed("log-level") {
		cfg.LogLevel = params.LogLevel
	}
}
