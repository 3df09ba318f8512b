// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the textzip command tree.
package commands

import (
	"io"
	"log/slog"

	"github.com/bureau-foundation/textzip/cmd/textzip/cli"
	"github.com/bureau-foundation/textzip/lib/config"
)

// LoggerFactory builds the logger for one command run at the given
// level. main passes cli.NewCommandLogger; tests capture output.
type LoggerFactory func(level slog.Level) *slog.Logger

// environment is what every command writes to.
type environment struct {
	stdout    io.Writer
	newLogger LoggerFactory
}

// logger returns the command's logger scoped with its name.
func (e environment) logger(levelName, command string) (*slog.Logger, error) {
	level, err := config.ParseLogLevel(levelName)
	if err != nil {
		return nil, err
	}
	return e.newLogger(level).With("command", command), nil
}

// logParams is embedded by every command that logs.
type logParams struct {
	LogLevel string `flag:"log-level" desc:"debug, info, warn, or error" default:"info"`
}

// Root builds the textzip command tree. Normal output goes to stdout;
// diagnostics go through the loggers newLogger builds.
func Root(stdout io.Writer, newLogger LoggerFactory) *cli.Command {
	env := environment{stdout: stdout, newLogger: newLogger}
	return &cli.Command{
		Name: "textzip",
		Description: `textzip: parallel text-file archiver.

Compresses every text file of a directory independently on a bounded
worker pool and writes one archive of length-prefixed records in
filename order. An optional manifest sidecar records names and BLAKE3
digests so archives can be extracted and verified.`,
		Subcommands: []*cli.Command{
			compressCommand(env),
			extractCommand(env),
			verifyCommand(env),
			inspectCommand(env),
			versionCommand(env),
		},
		Examples: []cli.Example{
			{
				Description: "Compress every .txt file in notes/ into text.tzip",
				Command:     "textzip compress notes",
			},
			{
				Description: "Use zstd, 16 workers, and write a manifest",
				Command:     "textzip compress notes -o notes.tzip --codec zstd --workers 16 --manifest",
			},
			{
				Description: "Restore the files of an archive",
				Command:     "textzip extract notes.tzip restored/",
			},
			{
				Description: "Check an archive against its source directory",
				Command:     "textzip verify notes.tzip notes",
			},
		},
	}
}
