// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for textzip.
//
// The central type is [Command]: a named command with optional nested
// [Command.Subcommands], a [pflag.FlagSet] factory, and a Run function
// that receives the process context. The tree is assembled in
// cmd/textzip/commands and dispatched via [Command.Execute], which
// handles flag parsing, subcommand routing, and help output with
// examples.
//
// Flags are declared as tagged struct fields and bound with
// [FlagsFromParams]. Embedding [JSONOutput] adds a --json flag.
//
// Unknown commands and flags get a "did you mean" suggestion from the
// closest known name by Levenshtein distance (at most 3).
//
// [ExitError] carries a specific exit code for outcomes the command has
// already reported, and [NewCommandLogger] builds the slog logger every
// command shares.
package cli
