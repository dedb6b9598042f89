package chunkio

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-forensics/ewf/chunkindex"
	"github.com/go-forensics/ewf/errs"
	"github.com/go-forensics/ewf/internal/format"
)

type fakeOpener struct {
	segments [][]byte
}

func (f *fakeOpener) Open(i int) (io.ReadSeeker, error) {
	return bytes.NewReader(f.segments[i]), nil
}

func buildUncompressedChunk(payload []byte) []byte {
	checksum := format.Adler32Bytes(payload)
	var buf bytes.Buffer
	buf.Write(payload)
	_ = binary.Write(&buf, binary.LittleEndian, checksum)
	return buf.Bytes()
}

func buildCompressedChunk(t *testing.T, payload []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestReadChunkUncompressed(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 16)
	raw := buildUncompressedChunk(payload)

	opener := &fakeOpener{segments: [][]byte{raw}}
	r := NewReader(opener, 16, 16, CorruptChunkError)

	dest := make([]byte, 16)
	d := chunkindex.Descriptor{SegmentIndex: 0, DataOffset: 0, EndOffset: uint64(len(raw))}
	require.NoError(t, r.ReadChunk(0, d, dest, 0, 16))
	assert.Equal(t, payload, dest)
}

func TestReadChunkUncompressedPartialRange(t *testing.T) {
	payload := []byte("0123456789ABCDEF")
	raw := buildUncompressedChunk(payload)

	opener := &fakeOpener{segments: [][]byte{raw}}
	r := NewReader(opener, 16, 16, CorruptChunkError)

	dest := make([]byte, 4)
	d := chunkindex.Descriptor{SegmentIndex: 0, DataOffset: 0, EndOffset: uint64(len(raw))}
	require.NoError(t, r.ReadChunk(0, d, dest, 4, 8))
	assert.Equal(t, []byte("4567"), dest)
}

func TestReadChunkUncompressedBadChecksumError(t *testing.T) {
	payload := bytes.Repeat([]byte{0x01}, 16)
	raw := buildUncompressedChunk(payload)
	raw[len(raw)-1] ^= 0xFF

	opener := &fakeOpener{segments: [][]byte{raw}}
	r := NewReader(opener, 16, 16, CorruptChunkError)

	dest := make([]byte, 16)
	d := chunkindex.Descriptor{SegmentIndex: 0, DataOffset: 0, EndOffset: uint64(len(raw))}
	err := r.ReadChunk(0, d, dest, 0, 16)
	require.Error(t, err)
	assert.IsType(t, &errs.BadChecksum{}, err)
}

func TestReadChunkUncompressedBadChecksumZero(t *testing.T) {
	payload := bytes.Repeat([]byte{0x01}, 16)
	raw := buildUncompressedChunk(payload)
	raw[len(raw)-1] ^= 0xFF

	opener := &fakeOpener{segments: [][]byte{raw}}
	r := NewReader(opener, 16, 16, CorruptChunkZero)

	dest := bytes.Repeat([]byte{0xFF}, 16)
	d := chunkindex.Descriptor{SegmentIndex: 0, DataOffset: 0, EndOffset: uint64(len(raw))}
	require.NoError(t, r.ReadChunk(0, d, dest, 0, 16))
	assert.Equal(t, make([]byte, 16), dest)
}

func TestReadChunkUncompressedBadChecksumRawIfPossible(t *testing.T) {
	payload := bytes.Repeat([]byte{0x02}, 16)
	raw := buildUncompressedChunk(payload)
	raw[len(raw)-1] ^= 0xFF

	opener := &fakeOpener{segments: [][]byte{raw}}
	r := NewReader(opener, 16, 16, CorruptChunkRawIfPossible)

	dest := make([]byte, 16)
	d := chunkindex.Descriptor{SegmentIndex: 0, DataOffset: 0, EndOffset: uint64(len(raw))}
	require.NoError(t, r.ReadChunk(0, d, dest, 0, 16))
	assert.Equal(t, payload, dest)
}

func TestReadChunkTooShort(t *testing.T) {
	opener := &fakeOpener{segments: [][]byte{{1, 2, 3}}}
	r := NewReader(opener, 16, 16, CorruptChunkError)

	dest := make([]byte, 3)
	d := chunkindex.Descriptor{SegmentIndex: 0, DataOffset: 0, EndOffset: 3}
	err := r.ReadChunk(0, d, dest, 0, 3)
	require.Error(t, err)
	assert.IsType(t, &errs.ChunkTooShort{}, err)
}

func TestReadChunkCompressed(t *testing.T) {
	payload := bytes.Repeat([]byte("hello world "), 4)
	raw := buildCompressedChunk(t, payload)

	opener := &fakeOpener{segments: [][]byte{raw}}
	r := NewReader(opener, uint64(len(payload)), uint64(len(payload)), CorruptChunkError)

	dest := make([]byte, len(payload))
	d := chunkindex.Descriptor{SegmentIndex: 0, DataOffset: 0, EndOffset: uint64(len(raw)), Compressed: true}
	require.NoError(t, r.ReadChunk(0, d, dest, 0, len(payload)))
	assert.Equal(t, payload, dest)
}

// TestReadChunkCompressedPartialRangeLargeChunk exercises the
// decompress-into-outScratch-then-copy-subrange branch (readCompressed,
// the len(dest) != want case) against a chunk well above flate's 32KB
// window, which is legal since SectorsPerChunk/BytesPerSector place no
// upper bound on chunk size. A dest narrower than the full chunk forces
// this path rather than the direct-to-dest branch that TestReadChunkCompressed
// covers.
func TestReadChunkCompressedPartialRangeLargeChunk(t *testing.T) {
	const payloadLen = 128 * 1024
	payload := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), payloadLen/46+1)[:payloadLen]
	raw := buildCompressedChunk(t, payload)

	opener := &fakeOpener{segments: [][]byte{raw}}
	r := NewReader(opener, uint64(len(payload)), uint64(len(payload)), CorruptChunkError)

	begin, end := 40000, 40016
	dest := make([]byte, end-begin)
	d := chunkindex.Descriptor{SegmentIndex: 0, DataOffset: 0, EndOffset: uint64(len(raw)), Compressed: true}
	require.NoError(t, r.ReadChunk(0, d, dest, begin, end))
	assert.Equal(t, payload[begin:end], dest)
}

func TestReadChunkCompressedDecompressionFailureZero(t *testing.T) {
	garbage := []byte{0x00, 0x01, 0x02, 0x03}

	opener := &fakeOpener{segments: [][]byte{garbage}}
	r := NewReader(opener, 16, 16, CorruptChunkZero)

	dest := bytes.Repeat([]byte{0xFF}, 16)
	d := chunkindex.Descriptor{SegmentIndex: 0, DataOffset: 0, EndOffset: uint64(len(garbage)), Compressed: true}
	require.NoError(t, r.ReadChunk(0, d, dest, 0, 16))
	assert.Equal(t, make([]byte, 16), dest)
}

func TestReadChunkCompressedDecompressionFailureError(t *testing.T) {
	garbage := []byte{0x00, 0x01, 0x02, 0x03}

	opener := &fakeOpener{segments: [][]byte{garbage}}
	r := NewReader(opener, 16, 16, CorruptChunkError)

	dest := make([]byte, 16)
	d := chunkindex.Descriptor{SegmentIndex: 0, DataOffset: 0, EndOffset: uint64(len(garbage)), Compressed: true}
	err := r.ReadChunk(0, d, dest, 0, 16)
	require.Error(t, err)
	assert.IsType(t, &errs.DecompressionFailed{}, err)
}
