// Package digest drives a streaming hash over an opened image's bytes,
// the "generic hashing over consumed bytes" collaborator the core
// accessor deliberately leaves external: it reads only through
// Accessor.ReadAt, never touching segment files or chunk descriptors
// directly.
package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"strings"
)

// Algorithm names a supported whole-image digest.
type Algorithm string

const (
	MD5    Algorithm = "md5"
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
	SHA512 Algorithm = "sha512"
)

func newHash(a Algorithm) (hash.Hash, error) {
	switch a {
	case MD5:
		return md5.New(), nil
	case SHA1:
		return sha1.New(), nil
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("unsupported digest algorithm %q", a)
	}
}

// reader is the minimal surface digest needs from an Accessor, so this
// package never imports the ewf package directly and stays a leaf.
type reader interface {
	ReadAt(offset uint64, buf []byte) (int, error)
	ImageSize() uint64
	ChunkSize() uint64
}

// Compute streams the whole image through the named algorithm in
// chunk-sized strides and returns the resulting digest bytes.
func Compute(r reader, algo Algorithm) ([]byte, error) {
	h, err := newHash(algo)
	if err != nil {
		return nil, err
	}

	stride := r.ChunkSize()
	if stride == 0 {
		stride = 1 << 20
	}
	buf := make([]byte, stride)

	imageSize := r.ImageSize()
	for offset := uint64(0); offset < imageSize; {
		end := offset + stride
		if end > imageSize {
			end = imageSize
		}
		n, err := r.ReadAt(offset, buf[:end-offset])
		if err != nil {
			return nil, err
		}
		h.Write(buf[:n])
		offset += uint64(n)
	}

	return h.Sum(nil), nil
}

// Verify computes algo over r and reports whether it matches want
// (typically the accessor's StoredMD5/StoredSHA1, or an externally
// supplied expected value), along with the computed digest for display.
func Verify(r reader, algo Algorithm, want []byte) (ok bool, got []byte, err error) {
	got, err = Compute(r, algo)
	if err != nil {
		return false, nil, err
	}
	return hashesEqual(got, want), got, nil
}

func hashesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Format renders a digest as lowercase hex, the convention used by the
// CLI front-end and by the stored MD5/SHA-1 comparisons.
func Format(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b) * 2)
	const hexDigits = "0123456789abcdef"
	for _, c := range b {
		sb.WriteByte(hexDigits[c>>4])
		sb.WriteByte(hexDigits[c&0x0f])
	}
	return sb.String()
}
