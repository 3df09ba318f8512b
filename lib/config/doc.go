// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads textzip's run configuration.
//
// Configuration comes from a single optional file named by either the
// TEXTZIP_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no ~/.config discovery and no automatic
// file search. Without a file, [Default] applies.
//
// Files are YAML. A file ending in .json or .jsonc is read as JSON with
// comments and trailing commas: tidwall/jsonc strips them and the
// result is decoded by the same YAML decoder, since JSON is a subset of
// YAML. Unknown keys are rejected.
//
// Sizes accept plain byte counts or human units ("1MiB", "512 KB") and
// durations accept Go duration strings ("5s"). ${VAR} and
// ${VAR:-default} patterns are expanded in the output path.
//
// Command-line flags override file values; the CLI applies them after
// loading and then calls [Config.Validate].
//
// Key exports:
//
//   - [Config] -- every setting of a compress run
//   - [Default] -- built-in defaults (.txt inputs, text.tzip, zlib)
//   - [Load] and [LoadFile] -- the two entry points for loading
package config
