// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/bureau-foundation/textzip/cmd/textzip/cli"
	"github.com/bureau-foundation/textzip/lib/compress"
	"github.com/bureau-foundation/textzip/lib/version"
)

func versionCommand(env environment) *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Run: func(_ context.Context, args []string) error {
			_, err := fmt.Fprintf(env.stdout, "textzip %s\n  Codecs: %s\n",
				version.Full(), strings.Join(compress.Names(), ", "))
			return err
		},
	}
}
