// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package textzip

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bureau-foundation/textzip/lib/archive"
	"github.com/bureau-foundation/textzip/lib/batch"
	"github.com/bureau-foundation/textzip/lib/clock"
	"github.com/bureau-foundation/textzip/lib/loader"
	"github.com/bureau-foundation/textzip/lib/manifest"
	"github.com/bureau-foundation/textzip/lib/scan"
	"github.com/bureau-foundation/textzip/lib/testutil"
)

func TestCompressTwoFiles(t *testing.T) {
	input := t.TempDir()
	testutil.WriteFiles(t, input, map[string][]byte{
		"a.txt": testutil.Repeat('A', 4096),
		"b.txt": testutil.Repeat('B', 4096),
	})
	output := filepath.Join(t.TempDir(), "text.tzip")

	report, err := Compress(context.Background(), Options{Input: input, Output: output})
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	records := readArchive(t, output)
	if len(records) != 2 {
		t.Fatalf("archive has %d records, want 2", len(records))
	}
	if !bytes.Equal(records[0], testutil.Repeat('A', 4096)) || !bytes.Equal(records[1], testutil.Repeat('B', 4096)) {
		t.Error("records do not decompress to a.txt then b.txt")
	}

	if report.Files != 2 || report.Workers != 2 {
		t.Errorf("Files = %d, Workers = %d, want 2 and 2", report.Files, report.Workers)
	}
	if report.Stats.OriginalBytes != 8192 {
		t.Errorf("OriginalBytes = %d, want 8192", report.Stats.OriginalBytes)
	}
	if report.Stats.Rate() <= 90 {
		t.Errorf("Rate() = %.2f, want > 90 for repeated bytes", report.Stats.Rate())
	}
	if report.ArchiveBytes != int64(2*archive.LengthSize)+report.Stats.CompressedBytes {
		t.Errorf("ArchiveBytes = %d, want prefixes plus %d payload bytes", report.ArchiveBytes, report.Stats.CompressedBytes)
	}
}

func TestCompressOrdersByName(t *testing.T) {
	input := t.TempDir()
	files := map[string][]byte{
		"delta.txt":   []byte("delta"),
		"alpha.txt":   []byte("alpha"),
		"Charlie.txt": []byte("Charlie"),
		"bravo.txt":   []byte("bravo"),
		"notes.md":    []byte("not an input"),
		".txt":        []byte("not an input either"),
	}
	testutil.WriteFiles(t, input, files)
	output := filepath.Join(t.TempDir(), "text.tzip")

	if _, err := Compress(context.Background(), Options{Input: input, Output: output, Workers: 3}); err != nil {
		t.Fatalf("Compress: %v", err)
	}

	// Byte order: uppercase sorts before lowercase.
	want := []string{"Charlie", "alpha", "bravo", "delta"}
	records := readArchive(t, output)
	if len(records) != len(want) {
		t.Fatalf("archive has %d records, want %d", len(records), len(want))
	}
	for i := range want {
		if string(records[i]) != want[i] {
			t.Errorf("record %d = %q, want %q", i, records[i], want[i])
		}
	}
}

func TestCompressIsDeterministic(t *testing.T) {
	input := t.TempDir()
	files := make(map[string][]byte)
	for i := range 40 {
		files[string(rune('a'+i%26))+string(rune('a'+i/26))+".txt"] = testutil.Repeat(byte('0'+i%10), 100+i*37)
	}
	testutil.WriteFiles(t, input, files)
	outputDirectory := t.TempDir()

	var archives [][]byte
	for _, workers := range []int{1, 3, 8} {
		output := filepath.Join(outputDirectory, "run.tzip")
		if _, err := Compress(context.Background(), Options{Input: input, Output: output, Workers: workers}); err != nil {
			t.Fatalf("Compress with %d workers: %v", workers, err)
		}
		archives = append(archives, testutil.ReadFile(t, output))
	}
	for i := 1; i < len(archives); i++ {
		if !bytes.Equal(archives[0], archives[i]) {
			t.Errorf("archive %d differs from archive 0", i)
		}
	}
}

func TestCompressOrderSurvivesOutOfOrderCompletion(t *testing.T) {
	input := t.TempDir()
	testutil.WriteFiles(t, input, map[string][]byte{
		"a.txt": []byte("a-first"),
		"b.txt": []byte("b-second"),
		"c.txt": []byte("c-third"),
		"d.txt": []byte("d-fourth"),
	})
	output := filepath.Join(t.TempDir(), "text.tzip")

	// a.txt is held until the other three have compressed, so it
	// completes last.
	release := make(chan struct{})
	finished := make(chan struct{}, 3)
	codec := gatedCodec{Codec: zlibCodec(t), gate: func(src []byte) {
		if src[0] == 'a' {
			<-release
			return
		}
		finished <- struct{}{}
	}}
	go func() {
		for range 3 {
			<-finished
		}
		close(release)
	}()

	if _, err := Compress(context.Background(), Options{Input: input, Output: output, Workers: 4, Codec: codec}); err != nil {
		t.Fatalf("Compress: %v", err)
	}

	want := []string{"a-first", "b-second", "c-third", "d-fourth"}
	records := readArchive(t, output)
	for i := range want {
		if string(records[i]) != want[i] {
			t.Errorf("record %d = %q, want %q", i, records[i], want[i])
		}
	}
}

func TestCompressEmptyInput(t *testing.T) {
	input := t.TempDir()
	testutil.WriteFiles(t, input, map[string][]byte{"readme.md": []byte("x")})
	output := filepath.Join(t.TempDir(), "text.tzip")

	_, err := Compress(context.Background(), Options{Input: input, Output: output})
	if !errors.Is(err, scan.ErrEmptyInput) {
		t.Fatalf("Compress = %v, want scan.ErrEmptyInput", err)
	}
	requireNoArchive(t, output)
}

func TestCompressMissingDirectory(t *testing.T) {
	output := filepath.Join(t.TempDir(), "text.tzip")
	_, err := Compress(context.Background(), Options{Input: filepath.Join(t.TempDir(), "missing"), Output: output})

	var directoryErr *scan.DirectoryError
	if !errors.As(err, &directoryErr) {
		t.Fatalf("Compress = %v, want *scan.DirectoryError", err)
	}
	requireNoArchive(t, output)
}

func TestCompressCapacityBeyondFileCount(t *testing.T) {
	input := t.TempDir()
	testutil.WriteFiles(t, input, map[string][]byte{
		"one.txt": []byte("1"),
		"two.txt": []byte("2"),
	})
	report, err := Compress(context.Background(), Options{
		Input:   input,
		Output:  filepath.Join(t.TempDir(), "text.tzip"),
		Workers: 8,
	})
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if report.Workers != 2 {
		t.Errorf("Workers = %d, want 2", report.Workers)
	}
}

func oversizeInput(t *testing.T) string {
	t.Helper()
	input := t.TempDir()
	testutil.WriteFiles(t, input, map[string][]byte{
		"a.txt": testutil.Repeat('a', 100),
		"b.txt": testutil.Repeat('b', 2048),
		"c.txt": testutil.Repeat('c', 100),
	})
	return input
}

func TestCompressPlaceholderPolicy(t *testing.T) {
	input := oversizeInput(t)
	output := filepath.Join(t.TempDir(), "text.tzip")

	report, err := Compress(context.Background(), Options{Input: input, Output: output, Capacity: 1024})
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	records := readArchive(t, output)
	if len(records) != 3 {
		t.Fatalf("archive has %d records, want 3", len(records))
	}
	if records[1] != nil {
		t.Errorf("record 1 should be a placeholder, got %d bytes", len(records[1]))
	}
	if report.Stats.Failed != 1 || len(report.Failures) != 1 {
		t.Fatalf("Failed = %d, Failures = %v, want one", report.Stats.Failed, report.Failures)
	}
	failure := report.Failures[0]
	if failure.Ordinal != 1 || failure.Status != "read_error" || filepath.Base(failure.Path) != "b.txt" {
		t.Errorf("failure = %+v", failure)
	}
	if report.Stats.OriginalBytes != 200 {
		t.Errorf("OriginalBytes = %d, want 200 (failed files excluded)", report.Stats.OriginalBytes)
	}
}

func TestCompressAbortPolicy(t *testing.T) {
	input := oversizeInput(t)
	output := filepath.Join(t.TempDir(), "text.tzip")

	_, err := Compress(context.Background(), Options{
		Input:    input,
		Output:   output,
		Capacity: 1024,
		OnError:  archive.Abort,
	})

	var unitErr *archive.UnitError
	if !errors.As(err, &unitErr) {
		t.Fatalf("Compress = %v, want *archive.UnitError", err)
	}
	if unitErr.Ordinal != 1 {
		t.Errorf("UnitError.Ordinal = %d, want 1", unitErr.Ordinal)
	}
	if !errors.Is(err, loader.ErrOversize) {
		t.Errorf("error should wrap loader.ErrOversize: %v", err)
	}
	requireNoArchive(t, output)
}

func TestCompressTruncatePolicy(t *testing.T) {
	input := oversizeInput(t)
	output := filepath.Join(t.TempDir(), "text.tzip")

	report, err := Compress(context.Background(), Options{
		Input:    input,
		Output:   output,
		Capacity: 1024,
		Oversize: loader.Truncate,
		Manifest: true,
	})
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	records := readArchive(t, output)
	if !bytes.Equal(records[1], testutil.Repeat('b', 1024)) {
		t.Errorf("record 1 holds %d bytes, want the first 1024 bytes of b.txt", len(records[1]))
	}
	if len(report.Truncated) != 1 || filepath.Base(report.Truncated[0]) != "b.txt" {
		t.Errorf("Truncated = %v, want [b.txt]", report.Truncated)
	}
	if report.Stats.OriginalBytes != 100+1024+100 {
		t.Errorf("OriginalBytes = %d, want bytes actually compressed", report.Stats.OriginalBytes)
	}

	sidecar, err := manifest.Read(report.Manifest)
	if err != nil {
		t.Fatalf("manifest.Read: %v", err)
	}
	entry := sidecar.Entries[1]
	if !entry.Truncated || entry.OriginalSize != 1024 {
		t.Errorf("manifest entry 1 = %+v, want truncated at 1024", entry)
	}
}

func TestCompressCodecFailure(t *testing.T) {
	input := t.TempDir()
	testutil.WriteFiles(t, input, map[string][]byte{
		"a.txt": []byte("alpha"),
		"b.txt": []byte("bravo"),
	})
	output := filepath.Join(t.TempDir(), "text.tzip")

	report, err := Compress(context.Background(), Options{
		Input:  input,
		Output: output,
		Codec:  failingCodec{Codec: zlibCodec(t), failOn: 'b'},
	})
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if len(report.Failures) != 1 || report.Failures[0].Status != "codec_error" {
		t.Fatalf("Failures = %+v, want one codec_error", report.Failures)
	}
	records := readArchive(t, output)
	if string(records[0]) != "alpha" || records[1] != nil {
		t.Errorf("records = %q, want alpha then a placeholder", records)
	}
}

func TestCompressCanceledBeforeStart(t *testing.T) {
	input := oversizeInput(t)
	output := filepath.Join(t.TempDir(), "text.tzip")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Compress(ctx, Options{Input: input, Output: output})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Compress = %v, want context.Canceled", err)
	}
	requireNoArchive(t, output)
}

func TestCompressCanceledMidRun(t *testing.T) {
	input := t.TempDir()
	files := make(map[string][]byte)
	for i := range 20 {
		files[string(rune('a'+i))+".txt"] = []byte{byte('a' + i)}
	}
	testutil.WriteFiles(t, input, files)
	output := filepath.Join(t.TempDir(), "text.tzip")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The first compression cancels the run and then proceeds, so the
	// remaining claims see a canceled context.
	var once sync.Once
	codec := gatedCodec{Codec: zlibCodec(t), gate: func([]byte) {
		once.Do(cancel)
	}}

	done := make(chan error, 1)
	go func() {
		_, err := Compress(ctx, Options{Input: input, Output: output, Workers: 2, Codec: codec})
		done <- err
	}()

	err := testutil.RequireReceive[error](t, done, 10*time.Second, "Compress did not return after cancellation")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Compress = %v, want context.Canceled", err)
	}
	requireNoArchive(t, output)
}

func TestCompressWritesManifest(t *testing.T) {
	input := t.TempDir()
	testutil.WriteFiles(t, input, map[string][]byte{
		"b.txt": []byte("second"),
		"a.txt": []byte("first"),
	})
	output := filepath.Join(t.TempDir(), "text.tzip")

	report, err := Compress(context.Background(), Options{Input: input, Output: output, Manifest: true})
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if report.Manifest != manifest.DefaultPath(output) {
		t.Errorf("Manifest = %q, want %q", report.Manifest, manifest.DefaultPath(output))
	}

	sidecar, err := manifest.Read(report.Manifest)
	if err != nil {
		t.Fatalf("manifest.Read: %v", err)
	}
	if sidecar.Codec != "zlib" || sidecar.Capacity != loader.DefaultCapacity {
		t.Errorf("manifest header = %q %d", sidecar.Codec, sidecar.Capacity)
	}
	if len(sidecar.Entries) != 2 || sidecar.Entries[0].Name != "a.txt" || sidecar.Entries[1].Name != "b.txt" {
		t.Fatalf("manifest entries = %+v", sidecar.Entries)
	}
	if sidecar.Entries[0].Digest != manifest.Sum([]byte("first")) {
		t.Error("entry 0 digest does not cover a.txt")
	}
}

func TestCompressElapsedUsesClock(t *testing.T) {
	input := t.TempDir()
	testutil.WriteFiles(t, input, map[string][]byte{"a.txt": []byte("a")})

	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	report, err := Compress(context.Background(), Options{
		Input:  input,
		Output: filepath.Join(t.TempDir(), "text.tzip"),
		Clock:  fake,
	})
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if report.Elapsed != 0 {
		t.Errorf("Elapsed = %v, want 0 on a stopped clock", report.Elapsed)
	}
}

func TestCompressLogsProgress(t *testing.T) {
	input := t.TempDir()
	testutil.WriteFiles(t, input, map[string][]byte{
		"a.txt": []byte("a"),
		"b.txt": []byte("b"),
	})

	handler := &recordHandler{message: "progress", records: make(chan slog.Record, 1)}
	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	// Hold b.txt until a progress line has been logged.
	release := make(chan struct{})
	codec := gatedCodec{Codec: zlibCodec(t), gate: func(src []byte) {
		if src[0] == 'b' {
			<-release
		}
	}}

	output := filepath.Join(t.TempDir(), "text.tzip")
	done := make(chan error, 1)
	go func() {
		_, err := Compress(context.Background(), Options{
			Input:            input,
			Output:           output,
			Codec:            codec,
			ProgressInterval: time.Second,
			Logger:           slog.New(handler),
			Clock:            fake,
		})
		done <- err
	}()

	fake.WaitForTimers(1)
	fake.Advance(time.Second)
	record := testutil.RequireReceive[slog.Record](t, handler.records, 5*time.Second, "no progress line logged")
	var total int64
	record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == "total" {
			total = attr.Value.Int64()
		}
		return true
	})
	if total != 2 {
		t.Errorf("progress total = %d, want 2", total)
	}

	close(release)
	if err := testutil.RequireReceive[error](t, done, 10*time.Second, "Compress did not finish"); err != nil {
		t.Fatalf("Compress: %v", err)
	}
}

func TestCompressRequiresPaths(t *testing.T) {
	if _, err := Compress(context.Background(), Options{Output: "x.tzip"}); err == nil {
		t.Error("Compress without input should fail")
	}
	if _, err := Compress(context.Background(), Options{Input: t.TempDir()}); err == nil {
		t.Error("Compress without output should fail")
	}
}

func TestCompressWithoutManifestRemovesStaleOne(t *testing.T) {
	input := t.TempDir()
	testutil.WriteFiles(t, input, map[string][]byte{
		"a.txt": []byte("first version"),
		"b.txt": []byte("unchanged"),
	})
	output := filepath.Join(t.TempDir(), "text.tzip")

	if _, err := Compress(context.Background(), Options{Input: input, Output: output, Manifest: true}); err != nil {
		t.Fatalf("Compress with manifest: %v", err)
	}
	testutil.WriteFiles(t, input, map[string][]byte{"a.txt": []byte("second version")})

	report, err := Compress(context.Background(), Options{Input: input, Output: output})
	if err != nil {
		t.Fatalf("Compress without manifest: %v", err)
	}
	if report.Manifest != "" {
		t.Errorf("Manifest = %q, want none", report.Manifest)
	}
	if _, err := os.Stat(manifest.DefaultPath(output)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("manifest from the earlier run still present: %v", err)
	}

	destination := t.TempDir()
	if _, err := Extract(context.Background(), ExtractOptions{Archive: output, Destination: destination}); err != nil {
		t.Fatalf("Extract after rewrite: %v", err)
	}
	got := testutil.ReadFile(t, filepath.Join(destination, "record-000000.txt"))
	if string(got) != "second version" {
		t.Errorf("record 0 = %q, want the rewritten a.txt", got)
	}
}

func TestCompressCustomManifestPathRemovesDefaultOne(t *testing.T) {
	input := t.TempDir()
	testutil.WriteFiles(t, input, map[string][]byte{"a.txt": []byte("a")})
	output := filepath.Join(t.TempDir(), "text.tzip")

	if _, err := Compress(context.Background(), Options{Input: input, Output: output, Manifest: true}); err != nil {
		t.Fatalf("Compress: %v", err)
	}
	custom := filepath.Join(t.TempDir(), "elsewhere.manifest")
	report, err := Compress(context.Background(), Options{Input: input, Output: output, Manifest: true, ManifestPath: custom})
	if err != nil {
		t.Fatalf("Compress with custom manifest: %v", err)
	}
	if report.Manifest != custom {
		t.Errorf("Manifest = %q, want %q", report.Manifest, custom)
	}
	if _, err := os.Stat(manifest.DefaultPath(output)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("default manifest left beside the new archive: %v", err)
	}
}

func TestCompressManifestWriteFailureLeavesNoArchive(t *testing.T) {
	input := t.TempDir()
	testutil.WriteFiles(t, input, map[string][]byte{"a.txt": []byte("a")})
	output := filepath.Join(t.TempDir(), "text.tzip")

	_, err := Compress(context.Background(), Options{
		Input:        input,
		Output:       output,
		Manifest:     true,
		ManifestPath: filepath.Join(t.TempDir(), "missing", "text.tzip.manifest"),
	})
	if err == nil {
		t.Fatal("Compress with an unwritable manifest path should fail")
	}
	requireNoArchive(t, output)
}

func TestRecorderKeepsFirstManifestError(t *testing.T) {
	var written atomic.Int64
	observer := &recorder{
		logger:  slog.New(slog.DiscardHandler),
		sidecar: manifest.New("zlib", 1024, 2),
		report:  &Report{},
		written: &written,
	}

	observer.observe(batch.Result{Ordinal: 1, Path: "b.txt", Compressed: []byte("x"), OriginalSize: 1})
	first := observer.err
	if first == nil {
		t.Fatal("recording ordinal 1 before 0 should fail")
	}
	observer.observe(batch.Result{Ordinal: 0, Path: "a.txt", Compressed: []byte("x"), OriginalSize: 1})
	if observer.err != first {
		t.Errorf("err = %v, want the first error %v", observer.err, first)
	}
	if len(observer.sidecar.Entries) != 0 {
		t.Errorf("entries recorded after the error: %+v", observer.sidecar.Entries)
	}
	if written.Load() != 2 {
		t.Errorf("written = %d, want 2", written.Load())
	}
}
