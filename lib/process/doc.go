// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers. It centralizes
// the raw stderr write that happens before the structured logger exists
// or after main() has given up on it, and the process exit that
// follows.
package process
