// Package chunkindex holds the flat, offset-addressable array of chunk
// descriptors built while a segment's table and sectors sections are read,
// giving O(1) lookup from a logical chunk number to its storage location.
package chunkindex

// Descriptor locates one chunk's raw (possibly compressed) bytes within a
// specific segment file.
type Descriptor struct {
	SegmentIndex int
	DataOffset   uint64
	EndOffset    uint64
	Compressed   bool
}

// RawLen returns end_offset - data_offset.
func (d Descriptor) RawLen() uint64 {
	return d.EndOffset - d.DataOffset
}

// Index is the ordered sequence of exactly ChunkCount descriptors built
// across all segments. It is appended to and back-patched only while the
// segments are being opened; nothing modifies it after Open returns.
type Index struct {
	chunks []Descriptor
}

// New reserves capacity for the declared chunk count, avoiding reallocation
// as tables from each segment are appended.
func New(expectedCount int) *Index {
	return &Index{chunks: make([]Descriptor, 0, expectedCount)}
}

// Append adds one chunk descriptor, returning its position in the index.
func (idx *Index) Append(d Descriptor) int {
	idx.chunks = append(idx.chunks, d)
	return len(idx.chunks) - 1
}

// Len returns the number of chunks appended so far.
func (idx *Index) Len() int {
	return len(idx.chunks)
}

// Last returns a pointer to the most recently appended descriptor, or nil
// if the index is empty. Used to back-patch EndOffset from a following
// sectors section.
func (idx *Index) Last() *Descriptor {
	if len(idx.chunks) == 0 {
		return nil
	}
	return &idx.chunks[len(idx.chunks)-1]
}

// At returns the descriptor for chunk i. Panics if i is out of range,
// matching the precondition that callers have already validated offsets
// against ImageSize.
func (idx *Index) At(i int) Descriptor {
	return idx.chunks[i]
}
