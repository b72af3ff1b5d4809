// Package digest computes the fixed-width content fingerprints stored in
// snapshots and listings.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/zeebo/blake3"
)

// Size is the width of every digest in bytes.
const Size = 32

// Digest is a content fingerprint.
type Digest [Size]byte

// String returns the lowercase hex encoding used in listings.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// ParseHex decodes a hex digest. The input must be exactly 2*Size lowercase
// hex characters, the form String produces.
func ParseHex(s string) (Digest, error) {
	var d Digest
	if len(s) == 0 || len(s)%2 != 0 {
		return d, fmt.Errorf("digest %q: odd or empty length", s)
	}
	if len(s) != 2*Size {
		return d, fmt.Errorf("digest %q: want %d hex characters, got %d", s, 2*Size, len(s))
	}
	if strings.ContainsAny(s, "ABCDEF") {
		return d, fmt.Errorf("digest %q: hex must be lowercase", s)
	}
	if _, err := hex.Decode(d[:], []byte(s)); err != nil {
		return d, fmt.Errorf("digest %q: %w", s, err)
	}
	return d, nil
}

// Algorithm identifies the hash function behind a digest. It is fixed for a
// whole run and recorded on every snapshot.
type Algorithm uint8

const (
	SHA256 Algorithm = iota + 1
	BLAKE3
)

// Default is the canonical algorithm for new listings.
const Default = SHA256

var algorithmNames = [...]string{
	SHA256: "sha256",
	BLAKE3: "blake3",
}

func (a Algorithm) String() string {
	if int(a) < len(algorithmNames) && algorithmNames[a] != "" {
		return algorithmNames[a]
	}
	return fmt.Sprintf("unknown(%d)", uint8(a))
}

// Valid reports whether a names a supported algorithm.
func (a Algorithm) Valid() bool {
	return a == SHA256 || a == BLAKE3
}

// Algorithms lists the supported algorithms in a stable order.
func Algorithms() []Algorithm {
	return []Algorithm{SHA256, BLAKE3}
}

// ParseAlgorithm parses an algorithm name, case-insensitively.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sha256", "sha-256":
		return SHA256, nil
	case "blake3":
		return BLAKE3, nil
	default:
		return 0, fmt.Errorf("unknown digest algorithm %q (use sha256 or blake3)", name)
	}
}

// Hasher accumulates content and produces a Digest. The zero value is not
// usable; call NewHasher.
type Hasher struct {
	h hash.Hash
}

// NewHasher starts a new digest computation.
func NewHasher(alg Algorithm) *Hasher {
	switch alg {
	case BLAKE3:
		return &Hasher{h: blake3.New()}
	default:
		return &Hasher{h: sha256.New()}
	}
}

// Write adds p to the digest. It never returns an error.
func (h *Hasher) Write(p []byte) (int, error) {
	return h.h.Write(p)
}

// Sum finalizes the digest. The Hasher must not be written to afterwards.
func (h *Hasher) Sum() Digest {
	var d Digest
	copy(d[:], h.h.Sum(nil))
	return d
}

// HashReader digests everything readable from r and returns the byte count.
func HashReader(alg Algorithm, r io.Reader) (Digest, int64, error) {
	h := NewHasher(alg)
	buf := make([]byte, 32*1024)
	n, err := io.CopyBuffer(h, r, buf)
	if err != nil {
		return Digest{}, n, err
	}
	return h.Sum(), n, nil
}
