// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/textzip/lib/archive"
	"github.com/bureau-foundation/textzip/lib/batch"
	"github.com/bureau-foundation/textzip/lib/compress"
	"github.com/bureau-foundation/textzip/lib/loader"
	"github.com/bureau-foundation/textzip/lib/scan"
)

// EnvironmentVariable names the config file when --config is absent.
const EnvironmentVariable = "TEXTZIP_CONFIG"

// DefaultOutput is the archive written when no output is configured.
const DefaultOutput = "text.tzip"

// Config holds every setting of a compress run.
type Config struct {
	// Extension selects input files by filename suffix. Default: .txt
	Extension string `yaml:"extension"`

	// Output is the archive path. Default: text.tzip in the working
	// directory.
	Output string `yaml:"output"`

	// MaxWorkers bounds the worker pool. Default: 8
	MaxWorkers int `yaml:"max_workers"`

	// BufferCapacity bounds each input file and each compressed
	// record. Default: 1 MiB
	BufferCapacity Size `yaml:"buffer_capacity"`

	// Codec is one of compress.Names(). Default: zlib
	Codec string `yaml:"codec"`

	// Oversize is "reject" or "truncate". Default: reject
	Oversize string `yaml:"oversize"`

	// OnError is "placeholder" or "abort". Default: placeholder
	OnError string `yaml:"on_error"`

	// Manifest enables the CBOR sidecar next to the archive.
	Manifest bool `yaml:"manifest"`

	// LogLevel is debug, info, warn, or error. Default: info
	LogLevel string `yaml:"log_level"`

	// ProgressInterval is how often a long run logs progress. Zero
	// disables progress logging. Default: 0
	ProgressInterval Duration `yaml:"progress_interval"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Extension:      scan.DefaultExtension,
		Output:         DefaultOutput,
		MaxWorkers:     batch.DefaultPoolCapacity,
		BufferCapacity: Size(loader.DefaultCapacity),
		Codec:          compress.Zlib,
		Oversize:       string(loader.Reject),
		OnError:        string(archive.Placeholder),
		LogLevel:       "info",
	}
}

// Load loads the file named by TEXTZIP_CONFIG, or returns Default when
// the variable is unset. The returned path is empty when no file was
// read.
func Load() (*Config, string, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		return Default(), "", nil
	}
	cfg, err := LoadFile(path)
	return cfg, path, err
}

// LoadFile loads configuration from a specific file path. Keys absent
// from the file keep their defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	c.Output = expandVars(c.Output)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration for errors. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Extension == "" {
		errs = append(errs, errors.New("extension is required"))
	}
	if c.Output == "" {
		errs = append(errs, errors.New("output is required"))
	}
	if c.MaxWorkers < 1 {
		errs = append(errs, fmt.Errorf("max_workers must be at least 1, got %d", c.MaxWorkers))
	}
	if c.BufferCapacity < 1 {
		errs = append(errs, fmt.Errorf("buffer_capacity must be positive, got %d", c.BufferCapacity))
	} else if uint64(c.BufferCapacity) > archive.MaxRecordSize {
		errs = append(errs, fmt.Errorf("buffer_capacity %s exceeds the largest archive record (%s)",
			c.BufferCapacity, Size(archive.MaxRecordSize)))
	}
	if _, err := compress.Lookup(c.Codec); err != nil {
		errs = append(errs, fmt.Errorf("codec: %w", err))
	}
	if _, err := loader.ParseOversizePolicy(c.Oversize); err != nil {
		errs = append(errs, fmt.Errorf("oversize: %w", err))
	}
	if _, err := archive.ParseErrorPolicy(c.OnError); err != nil {
		errs = append(errs, fmt.Errorf("on_error: %w", err))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.ProgressInterval < 0 {
		errs = append(errs, fmt.Errorf("progress_interval must not be negative, got %s", c.ProgressInterval))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ParseLogLevel converts a log_level value to a slog.Level.
func ParseLogLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("unknown log level %q (want debug, info, warn, or error)", name)
	}
	return level, nil
}
