// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Size is a byte count that unmarshals from either an integer or a
// human-readable string such as "1MiB" or "512 KB".
type Size int64

// ParseSize parses a byte count with optional SI or IEC units.
func ParseSize(text string) (Size, error) {
	bytes, err := humanize.ParseBytes(text)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", text, err)
	}
	if bytes > math.MaxInt64 {
		return 0, fmt.Errorf("size %q is too large", text)
	}
	return Size(bytes), nil
}

// String formats the size with IEC units.
func (s Size) String() string {
	if s < 0 {
		return fmt.Sprintf("%d B", int64(s))
	}
	return humanize.IBytes(uint64(s))
}

// Int returns the size as an int.
func (s Size) Int() int { return int(s) }

// UnmarshalYAML accepts integers and unit strings.
func (s *Size) UnmarshalYAML(node *yaml.Node) error {
	var count int64
	if node.Tag == "!!int" {
		if err := node.Decode(&count); err != nil {
			return err
		}
		*s = Size(count)
		return nil
	}
	var text string
	if err := node.Decode(&text); err != nil {
		return fmt.Errorf("line %d: size must be a number or a string like \"1MiB\"", node.Line)
	}
	parsed, err := ParseSize(text)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*s = parsed
	return nil
}

// Set implements pflag.Value so sizes can be overridden on the
// command line with the same syntax as the config file.
func (s *Size) Set(text string) error {
	parsed, err := ParseSize(text)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Type implements pflag.Value.
func (s *Size) Type() string { return "size" }

// Duration is a time.Duration that unmarshals from a Go duration
// string such as "5s".
type Duration time.Duration

// String formats the duration like time.Duration.
func (d Duration) String() string { return time.Duration(d).String() }

// UnmarshalYAML accepts duration strings.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var text string
	if err := node.Decode(&text); err != nil {
		return fmt.Errorf("line %d: duration must be a string like \"5s\"", node.Line)
	}
	parsed, err := time.ParseDuration(text)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}
