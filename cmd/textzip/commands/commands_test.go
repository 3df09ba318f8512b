// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/bureau-foundation/textzip/cmd/textzip/cli"
	"github.com/bureau-foundation/textzip/lib/compress"
	"github.com/bureau-foundation/textzip/lib/config"
	"github.com/bureau-foundation/textzip/lib/manifest"
	"github.com/bureau-foundation/textzip/lib/testutil"
	"github.com/bureau-foundation/textzip/lib/textzip"
)

// execute runs the command tree with args and returns what it printed
// to stdout and logged.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, logs bytes.Buffer
	newLogger := func(level slog.Level) *slog.Logger {
		return slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: level}))
	}
	root := Root(&stdout, newLogger)
	root.Output = &bytes.Buffer{}
	err := root.Execute(context.Background(), args)
	return stdout.String(), logs.String(), err
}

func sourceTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string][]byte{
		"alpha.txt":  []byte(strings.Repeat("alpha ", 200)),
		"bravo.txt":  []byte(strings.Repeat("bravo ", 300)),
		"charlie.md": []byte("not selected"),
		"delta.txt":  []byte("delta"),
	})
	return dir
}

func requireExitCode(t *testing.T, err error, code int) {
	t.Helper()
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %v, want *cli.ExitError", err)
	}
	if exitErr.Code != code {
		t.Fatalf("exit code = %d, want %d", exitErr.Code, code)
	}
}

var rateLine = regexp.MustCompile(`^Compression rate: -?\d+\.\d{2}%\n$`)

func TestCompressPrintsRate(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	input := sourceTree(t)
	output := filepath.Join(t.TempDir(), "notes.tzip")

	stdout, logs, err := execute(t, "compress", input, "-o", output)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if !rateLine.MatchString(stdout) {
		t.Errorf("stdout = %q, want a single Compression rate line", stdout)
	}
	if !strings.Contains(logs, `"msg":"compression summary"`) {
		t.Errorf("logs missing summary record:\n%s", logs)
	}
	if n := strings.Count(logs, `"msg":"archive written"`); n != 1 {
		t.Errorf("archive written logged %d times, want 1:\n%s", n, logs)
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("archive not written: %v", err)
	}
	if _, err := os.Stat(manifest.DefaultPath(output)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("manifest written without --manifest: %v", err)
	}
}

func TestCompressJSONReport(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	input := sourceTree(t)
	output := filepath.Join(t.TempDir(), "notes.tzip")

	stdout, _, err := execute(t, "compress", input, "-o", output, "--workers", "2", "--json")
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	var report textzip.Report
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("stdout is not a JSON report: %v\n%s", err, stdout)
	}
	if report.Files != 3 || report.Workers != 2 || report.Output != output {
		t.Errorf("report = %+v, want 3 files on 2 workers", report)
	}
}

func TestCompressEmptyInputExitsTwo(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	input := t.TempDir()
	testutil.WriteFiles(t, input, map[string][]byte{"readme.md": []byte("x")})
	output := filepath.Join(t.TempDir(), "empty.tzip")

	stdout, logs, err := execute(t, "compress", input, "-o", output)
	requireExitCode(t, err, 2)
	if stdout != "" {
		t.Errorf("stdout = %q, want nothing", stdout)
	}
	if !strings.Contains(logs, "no input files") {
		t.Errorf("logs = %q, want a no input files record", logs)
	}
	if _, err := os.Stat(output); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("archive exists after empty input: %v", err)
	}
}

func TestCompressConfigFileAndOverrides(t *testing.T) {
	input := sourceTree(t)
	outputDir := t.TempDir()
	t.Setenv("TEXTZIP_TEST_OUT", outputDir)

	configPath := filepath.Join(t.TempDir(), "textzip.yaml")
	testutil.WriteFiles(t, filepath.Dir(configPath), map[string][]byte{
		"textzip.yaml": []byte(`
output: ${TEXTZIP_TEST_OUT}/configured.tzip
codec: zstd
max_workers: 3
buffer_capacity: 64KiB
manifest: true
`),
	})

	// --workers overrides the file; codec and output come from it.
	stdout, _, err := execute(t, "compress", input, "--config", configPath, "--workers", "1", "--json")
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	var report textzip.Report
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	want := filepath.Join(outputDir, "configured.tzip")
	if report.Output != want {
		t.Errorf("output = %q, want %q", report.Output, want)
	}
	if report.Workers != 1 {
		t.Errorf("workers = %d, want 1 from the flag", report.Workers)
	}

	sidecar, err := manifest.Read(manifest.DefaultPath(want))
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	if sidecar.Codec != compress.Zstd || sidecar.Capacity != 64<<10 {
		t.Errorf("manifest codec %q capacity %d, want zstd and 64KiB", sidecar.Codec, sidecar.Capacity)
	}
}

func TestCompressConfigFromEnvironment(t *testing.T) {
	input := sourceTree(t)
	output := filepath.Join(t.TempDir(), "env.tzip")
	configDir := t.TempDir()
	testutil.WriteFiles(t, configDir, map[string][]byte{
		"textzip.jsonc": []byte(`{
  // picked up through the environment
  "output": "` + output + `",
  "codec": "lz4"
}`),
	})
	t.Setenv(config.EnvironmentVariable, filepath.Join(configDir, "textzip.jsonc"))

	if _, _, err := execute(t, "compress", input, "--manifest"); err != nil {
		t.Fatalf("compress: %v", err)
	}
	sidecar, err := manifest.Read(manifest.DefaultPath(output))
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	if sidecar.Codec != compress.LZ4 {
		t.Errorf("manifest codec = %q, want lz4", sidecar.Codec)
	}
}

func TestCompressRejectsInvalidSettings(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	input := sourceTree(t)
	output := filepath.Join(t.TempDir(), "bad.tzip")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"codec", []string{"--codec", "brotli"}, "unknown codec"},
		{"workers", []string{"--workers", "0"}, "max_workers"},
		{"policy", []string{"--on-error", "skip"}, "unknown error policy"},
		{"log level", []string{"--log-level", "loud"}, "unknown log level"},
		{"capacity", []string{"--capacity", "lots"}, "invalid size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"compress", input, "-o", output}, tt.args...)
			_, _, err := execute(t, args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("compress %v = %v, want error containing %q", tt.args, err, tt.want)
			}
			if _, err := os.Stat(output); !errors.Is(err, os.ErrNotExist) {
				t.Errorf("archive written despite invalid settings")
			}
		})
	}
}

func TestCompressRequiresOneDirectory(t *testing.T) {
	if _, _, err := execute(t, "compress"); err == nil {
		t.Error("compress without a directory should fail")
	}
}

func TestRoundTripThroughCommands(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	input := sourceTree(t)
	output := filepath.Join(t.TempDir(), "notes.tzip")

	if _, _, err := execute(t, "compress", input, "-o", output, "--manifest", "--codec", "zstd"); err != nil {
		t.Fatalf("compress: %v", err)
	}

	stdout, _, err := execute(t, "verify", output, input)
	if err != nil {
		t.Fatalf("verify: %v\n%s", err, stdout)
	}
	if !strings.Contains(stdout, "Verified 3 of 3 records") {
		t.Errorf("verify stdout = %q", stdout)
	}

	destination := filepath.Join(t.TempDir(), "restored")
	stdout, _, err = execute(t, "extract", output, destination)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(stdout, "Extracted 3 of 3 records") || !strings.Contains(stdout, "digests verified") {
		t.Errorf("extract stdout = %q", stdout)
	}
	for _, name := range []string{"alpha.txt", "bravo.txt", "delta.txt"} {
		got := testutil.ReadFile(t, filepath.Join(destination, name))
		want := testutil.ReadFile(t, filepath.Join(input, name))
		if !bytes.Equal(got, want) {
			t.Errorf("%s restored with different content", name)
		}
	}

	stdout, _, err = execute(t, "inspect", output)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"ORDINAL", "alpha.txt", "delta.txt", "3 records"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("inspect output missing %q:\n%s", want, stdout)
		}
	}

	stdout, _, err = execute(t, "inspect", output, "--json")
	if err != nil {
		t.Fatalf("inspect --json: %v", err)
	}
	var records []textzip.RecordInfo
	if err := json.Unmarshal([]byte(stdout), &records); err != nil {
		t.Fatalf("inspect --json output: %v", err)
	}
	if len(records) != 3 || records[1].Name != "bravo.txt" || records[0].Offset != 0 {
		t.Errorf("records = %+v", records)
	}

	stdout, _, err = execute(t, "inspect", output, "--diag")
	if err != nil {
		t.Fatalf("inspect --diag: %v", err)
	}
	if !strings.Contains(stdout, `"zstd"`) {
		t.Errorf("diagnostic notation = %q, want the codec name", stdout)
	}
}

func TestVerifyMismatchExitsOne(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	input := sourceTree(t)
	output := filepath.Join(t.TempDir(), "notes.tzip")
	if _, _, err := execute(t, "compress", input, "-o", output); err != nil {
		t.Fatalf("compress: %v", err)
	}

	testutil.WriteFiles(t, input, map[string][]byte{"bravo.txt": []byte("edited")})

	stdout, _, err := execute(t, "verify", output, input)
	requireExitCode(t, err, 1)
	if !strings.Contains(stdout, "MISMATCH 1") || !strings.Contains(stdout, "Verified 2 of 3 records") {
		t.Errorf("verify stdout = %q", stdout)
	}
}

func TestExtractWithoutManifestUsesRecordNames(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	input := sourceTree(t)
	output := filepath.Join(t.TempDir(), "notes.tzip")
	if _, _, err := execute(t, "compress", input, "-o", output); err != nil {
		t.Fatalf("compress: %v", err)
	}

	destination := t.TempDir()
	stdout, _, err := execute(t, "extract", output, destination)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(stdout, "not verified") {
		t.Errorf("extract stdout = %q", stdout)
	}
	got := testutil.ReadFile(t, filepath.Join(destination, "record-000002.txt"))
	if string(got) != "delta" {
		t.Errorf("record 2 = %q, want delta", got)
	}
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(stdout, "textzip ") || !strings.Contains(stdout, "zlib") {
		t.Errorf("version output = %q", stdout)
	}
}

func TestUnknownCommandSuggests(t *testing.T) {
	_, _, err := execute(t, "extarct")
	if err == nil || !strings.Contains(err.Error(), `did you mean "extract"`) {
		t.Errorf("error = %v, want a suggestion for extract", err)
	}
}
