// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package textzip

import (
	"errors"
	"fmt"
	"os"

	"github.com/bureau-foundation/textzip/lib/compress"
	"github.com/bureau-foundation/textzip/lib/loader"
	"github.com/bureau-foundation/textzip/lib/manifest"
)

// openManifest reads the sidecar for archivePath. An explicit
// manifestPath must exist; the default path is optional and a missing
// file yields nil.
func openManifest(archivePath, manifestPath string) (*manifest.Manifest, error) {
	explicit := manifestPath != ""
	if !explicit {
		manifestPath = manifest.DefaultPath(archivePath)
	}
	sidecar, err := manifest.Read(manifestPath)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return sidecar, nil
}

// resolveCodec picks the codec and record limit for reading an archive.
// An explicit name wins but must agree with the manifest when there is
// one. Without either, the archive is assumed to be zlib.
func resolveCodec(name string, capacity int, sidecar *manifest.Manifest) (compress.Codec, int, error) {
	if sidecar != nil {
		if name != "" && name != sidecar.Codec {
			return nil, 0, fmt.Errorf("codec %q requested but the manifest records %q", name, sidecar.Codec)
		}
		name = sidecar.Codec
		if capacity == 0 {
			capacity = sidecar.Capacity
		}
	}
	if name == "" {
		name = compress.Zlib
	}
	if capacity <= 0 {
		capacity = loader.DefaultCapacity
	}
	codec, err := compress.Lookup(name)
	if err != nil {
		return nil, 0, err
	}
	return codec, capacity, nil
}
