package digest

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryImage is a trivial in-memory reader implementing the interface
// digest.Compute needs, standing in for a real Accessor in tests.
type memoryImage struct {
	data      []byte
	chunkSize uint64
}

func (m *memoryImage) ReadAt(offset uint64, buf []byte) (int, error) {
	n := copy(buf, m.data[offset:])
	return n, nil
}

func (m *memoryImage) ImageSize() uint64 { return uint64(len(m.data)) }
func (m *memoryImage) ChunkSize() uint64 { return m.chunkSize }

func TestComputeMatchesStdlibHash(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog, repeated many times to span chunks")
	img := &memoryImage{data: data, chunkSize: 7}

	got, err := Compute(img, SHA256)
	require.NoError(t, err)

	want := sha256.Sum256(data)
	assert.Equal(t, want[:], got)
}

func TestVerifyReportsMismatch(t *testing.T) {
	img := &memoryImage{data: []byte("abc"), chunkSize: 2}
	ok, _, err := Verify(img, MD5, []byte{0, 1, 2})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFormatHex(t *testing.T) {
	assert.Equal(t, "00ff10", Format([]byte{0x00, 0xff, 0x10}))
}
