// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec compresses a whole buffer at once. Implementations are
// deterministic (same input, same output) and safe for concurrent use
// by multiple workers.
type Codec interface {
	// Name is the identifier used in configuration and manifests.
	Name() string

	// Compress returns the compressed form of src. The returned slice
	// is newly allocated and owned by the caller. Output is never empty,
	// even for empty input.
	Compress(src []byte) ([]byte, error)

	// Decompress reverses Compress. Output larger than limit bytes is
	// rejected with ErrOutputTooLarge.
	Decompress(src []byte, limit int) ([]byte, error)
}

// ErrOutputTooLarge is returned when a codec's output would exceed the
// buffer capacity it is allowed to fill.
var ErrOutputTooLarge = errors.New("codec output exceeds capacity")

// Codec names. These values appear in configuration files and in
// archive manifests, so they are protocol constants.
const (
	// Zlib is an RFC 1950 zlib stream at level 9. It is the default
	// and the only codec existing .tzip readers understand.
	Zlib = "zlib"

	// Zstd is a zstd frame at the best-compression level.
	Zstd = "zstd"

	// LZ4 is an LZ4 frame at level 9.
	LZ4 = "lz4"
)

var registry = map[string]Codec{
	Zlib: zlibCodec{},
	Zstd: zstdCodec{},
	LZ4:  lz4Codec{},
}

// Lookup returns the codec registered under name.
func Lookup(name string) (Codec, error) {
	codec, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown codec %q (known: %v)", name, Names())
	}
	return codec, nil
}

// Names returns the registered codec names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bounded wraps codec so that compressed output larger than capacity
// is reported as ErrOutputTooLarge instead of being returned.
func Bounded(codec Codec, capacity int) Codec {
	return boundedCodec{Codec: codec, capacity: capacity}
}

type boundedCodec struct {
	Codec
	capacity int
}

func (b boundedCodec) Compress(src []byte) ([]byte, error) {
	compressed, err := b.Codec.Compress(src)
	if err != nil {
		return nil, err
	}
	if len(compressed) > b.capacity {
		return nil, fmt.Errorf("%s: %d bytes compressed to %d, capacity %d: %w",
			b.Name(), len(src), len(compressed), b.capacity, ErrOutputTooLarge)
	}
	return compressed, nil
}

// readLimited drains r, failing if more than limit bytes are produced.
func readLimited(name string, r io.Reader, limit int) ([]byte, error) {
	var output bytes.Buffer
	n, err := io.Copy(&output, io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, fmt.Errorf("%s decompress: %w", name, err)
	}
	if n > int64(limit) {
		return nil, fmt.Errorf("%s decompress: more than %d bytes: %w", name, limit, ErrOutputTooLarge)
	}
	return output.Bytes(), nil
}

// Zlib at level 9 (zlib.BestCompression). Writers are pooled because
// deflate state is large and not safe to share between goroutines.

type zlibCodec struct{}

var zlibWriters = sync.Pool{
	New: func() any {
		writer, err := zlib.NewWriterLevel(io.Discard, zlib.BestCompression)
		if err != nil {
			panic("compress: zlib writer initialization failed: " + err.Error())
		}
		return writer
	},
}

func (zlibCodec) Name() string { return Zlib }

func (zlibCodec) Compress(src []byte) ([]byte, error) {
	var output bytes.Buffer
	writer := zlibWriters.Get().(*zlib.Writer)
	defer zlibWriters.Put(writer)
	writer.Reset(&output)

	if _, err := writer.Write(src); err != nil {
		return nil, fmt.Errorf("zlib compress: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("zlib compress: %w", err)
	}
	return output.Bytes(), nil
}

func (zlibCodec) Decompress(src []byte, limit int) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("zlib decompress: %w", err)
	}
	defer reader.Close()
	return readLimited(Zlib, reader, limit)
}

// Zstd at SpeedBestCompression. zstd.Encoder and zstd.Decoder are safe
// for concurrent use through EncodeAll/DecodeAll, so one of each is
// shared. WithZeroFrames makes empty input produce a real frame.

type zstdCodec struct{}

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedBestCompression),
		zstd.WithZeroFrames(true),
	)
	if err != nil {
		panic("compress: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecodeAllCapLimit(true))
	if err != nil {
		panic("compress: zstd decoder initialization failed: " + err.Error())
	}
}

func (zstdCodec) Name() string { return Zstd }

func (zstdCodec) Compress(src []byte) ([]byte, error) {
	return zstdEncoder.EncodeAll(src, nil), nil
}

func (zstdCodec) Decompress(src []byte, limit int) ([]byte, error) {
	// The cap limit stops decoding once dst is full, so a frame that
	// expands past limit never allocates more than limit bytes.
	result, err := zstdDecoder.DecodeAll(src, make([]byte, 0, limit))
	if errors.Is(err, zstd.ErrDecoderSizeExceeded) {
		return nil, fmt.Errorf("zstd decompress: more than %d bytes: %w", limit, ErrOutputTooLarge)
	}
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(result) > limit {
		return nil, fmt.Errorf("zstd decompress: %d bytes, limit %d: %w", len(result), limit, ErrOutputTooLarge)
	}
	return result, nil
}

// LZ4 frame format at Level9. Block mode would be smaller but cannot
// represent empty input as a non-empty payload.

type lz4Codec struct{}

var lz4Writers = sync.Pool{
	New: func() any {
		writer := lz4.NewWriter(io.Discard)
		if err := writer.Apply(lz4.CompressionLevelOption(lz4.Level9)); err != nil {
			panic("compress: lz4 writer initialization failed: " + err.Error())
		}
		return writer
	},
}

func (lz4Codec) Name() string { return LZ4 }

func (lz4Codec) Compress(src []byte) ([]byte, error) {
	var output bytes.Buffer
	writer := lz4Writers.Get().(*lz4.Writer)
	defer lz4Writers.Put(writer)
	writer.Reset(&output)

	if _, err := writer.Write(src); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	return output.Bytes(), nil
}

func (lz4Codec) Decompress(src []byte, limit int) ([]byte, error) {
	return readLimited(LZ4, lz4.NewReader(bytes.NewReader(src)), limit)
}
