package format

import (
	"hash/adler32"
	"io"
)

// Adler32Bytes checksums a byte slice as specified by RFC 1950. Section
// descriptors, table headers/trailers, volume bodies, and uncompressed
// chunks are all verified this way.
func Adler32Bytes(b []byte) uint32 {
	return adler32.Checksum(b)
}

// Adler32Reader checksums the next len bytes read through r without
// buffering the whole window, letting a caller checksum "from here to 4
// bytes before the stored trailer" in place as it reads a record.
func Adler32Reader(r io.Reader, n int) (uint32, error) {
	h := adler32.New()
	if _, err := io.CopyN(h, r, int64(n)); err != nil {
		return 0, err
	}
	return h.Sum32(), nil
}
