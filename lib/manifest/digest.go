// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte BLAKE3 keyed hash of a record's original bytes.
type Digest [32]byte

// digestKey separates manifest digests from any other BLAKE3 use of
// the same bytes. ASCII domain name, zero-padded to 32 bytes.
var digestKey = [32]byte{
	't', 'e', 'x', 't', 'z', 'i', 'p', '.', 'm', 'a', 'n', 'i', 'f', 'e', 's', 't',
	'.', 'd', 'i', 'g', 'e', 's', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Sum returns the digest of data.
func Sum(data []byte) Digest {
	// NewKeyed only fails for a key that is not 32 bytes.
	hasher, err := blake3.NewKeyed(digestKey[:])
	if err != nil {
		panic("manifest: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// String returns the hex encoding used in logs and CLI output.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the first 12 hex characters.
func (d Digest) Short() string {
	return hex.EncodeToString(d[:6])
}

// IsZero reports whether the digest is unset.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// MarshalText encodes the digest as hex for JSON output. CBOR encodes
// the raw 32 bytes.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses a 64-character hex digest.
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := ParseDigest(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDigest parses a 64-character hex string.
func ParseDigest(hexString string) (Digest, error) {
	var digest Digest
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != len(digest) {
		return digest, fmt.Errorf("digest is %d bytes, want %d", len(decoded), len(digest))
	}
	copy(digest[:], decoded)
	return digest, nil
}
