// Package chunkio reads one chunk's bytes given its descriptor: seek,
// read the raw bytes, then either verify-and-passthrough (uncompressed) or
// inflate (compressed), applying a configurable corruption policy on
// failure. A single Reader reuses its scratch buffers and one zlib decoder
// across calls so random-access reads don't allocate per chunk.
package chunkio

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zlib"
	log "github.com/sirupsen/logrus"

	"github.com/go-forensics/ewf/chunkindex"
	"github.com/go-forensics/ewf/errs"
	"github.com/go-forensics/ewf/internal/format"
)

// CorruptChunkPolicy controls how a chunk-level checksum mismatch
// (uncompressed chunks) or decompression failure (compressed chunks) is
// reshaped into accessor output.
type CorruptChunkPolicy int

const (
	// CorruptChunkError surfaces the failure to the caller.
	CorruptChunkError CorruptChunkPolicy = iota
	// CorruptChunkZero substitutes a run of zero bytes the length of the
	// chunk's expected size.
	CorruptChunkZero
	// CorruptChunkRawIfPossible returns the chunk's raw, unverified bytes.
	// Only meaningful for the uncompressed branch; compressed chunks that
	// fail to inflate have no usable raw payload and fall back to zero.
	CorruptChunkRawIfPossible
)

// SegmentOpener lazily resolves a segment index to a seekable reader,
// opening the underlying file handle on first use.
type SegmentOpener interface {
	Open(segmentIndex int) (io.ReadSeeker, error)
}

// Reader reads chunk bytes from an already-built ChunkIndex, dispatching on
// each chunk's Compressed flag and applying policy on failure.
//
// rawScratch and outScratch are kept as two distinct backing arrays, never
// aliased to each other: readCompressed streams the zlib decoder from
// rawScratch into outScratch, and a decoder reading and writing the same
// buffer concurrently can read already-overwritten "compressed" bytes back
// as if they were still pending input, corrupting the output silently.
type Reader struct {
	segments  SegmentOpener
	chunkSize uint64
	imageSize uint64
	policy    CorruptChunkPolicy

	rawScratch []byte
	outScratch []byte
	zr         io.ReadCloser
}

// NewReader builds a Reader sized to chunkSize, the declared (uniform,
// except for a possibly-short last chunk) chunk length for this image.
func NewReader(segments SegmentOpener, chunkSize, imageSize uint64, policy CorruptChunkPolicy) *Reader {
	return &Reader{
		segments:   segments,
		chunkSize:  chunkSize,
		imageSize:  imageSize,
		policy:     policy,
		rawScratch: make([]byte, chunkSize+4), // +4 for an uncompressed chunk's trailing Adler-32
		outScratch: make([]byte, chunkSize),
	}
}

// expectedLen returns the number of logical bytes chunk chunkIndex holds:
// chunkSize for every chunk except possibly a shorter final one.
func (r *Reader) expectedLen(chunkIndex int) uint64 {
	begin := uint64(chunkIndex) * r.chunkSize
	end := begin + r.chunkSize
	if end > r.imageSize {
		end = r.imageSize
	}
	return end - begin
}

// ReadChunk fills dest with chunk[begInChunk:endInChunk) of the chunk
// described by d, which is chunk number chunkIndex in the image.
func (r *Reader) ReadChunk(chunkIndex int, d chunkindex.Descriptor, dest []byte, begInChunk, endInChunk int) error {
	seg, err := r.segments.Open(d.SegmentIndex)
	if err != nil {
		return err
	}
	if _, err := seg.Seek(int64(d.DataOffset), io.SeekStart); err != nil {
		return err
	}

	rawLen := int(d.RawLen())
	raw := r.rawScratch
	if cap(raw) < rawLen {
		raw = make([]byte, rawLen)
	}
	raw = raw[:rawLen]
	if _, err := io.ReadFull(seg, raw); err != nil {
		return err
	}

	if d.Compressed {
		return r.readCompressed(chunkIndex, raw, dest, begInChunk, endInChunk)
	}
	return r.readUncompressed(chunkIndex, raw, dest, begInChunk, endInChunk)
}

func (r *Reader) readUncompressed(chunkIndex int, raw []byte, dest []byte, begInChunk, endInChunk int) error {
	if len(raw) < 5 {
		return &errs.ChunkTooShort{ChunkIndex: chunkIndex, RawLen: len(raw)}
	}

	payload := raw[:len(raw)-4]
	storedChecksum := binary.LittleEndian.Uint32(raw[len(raw)-4:])
	computed := format.Adler32Bytes(payload)

	if computed != storedChecksum {
		log.WithField("chunk", chunkIndex).Warn("chunk checksum mismatch")
		switch r.policy {
		case CorruptChunkError:
			return &errs.BadChecksum{Context: "chunk", Computed: computed, Expected: storedChecksum}
		case CorruptChunkZero:
			copy(dest, make([]byte, endInChunk-begInChunk))
			return nil
		case CorruptChunkRawIfPossible:
			// fall through and copy the raw bytes as-is
		}
	}

	copy(dest, payload[begInChunk:endInChunk])
	return nil
}

func (r *Reader) readCompressed(chunkIndex int, raw []byte, dest []byte, begInChunk, endInChunk int) error {
	if r.zr == nil {
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return r.handleDecompressFailure(chunkIndex, err, dest, begInChunk, endInChunk)
		}
		r.zr = zr
	} else if rs, ok := r.zr.(zlib.Resetter); ok {
		if err := rs.Reset(bytes.NewReader(raw), nil); err != nil {
			return r.handleDecompressFailure(chunkIndex, err, dest, begInChunk, endInChunk)
		}
	}

	want := r.expectedLen(chunkIndex)

	// Decompress directly into the destination when it can hold the whole
	// chunk; otherwise decompress into the reusable scratch buffer and copy
	// the requested sub-range out of it.
	if uint64(len(dest)) == want {
		if _, err := io.ReadFull(r.zr, dest); err != nil {
			return r.handleDecompressFailure(chunkIndex, err, dest, begInChunk, endInChunk)
		}
		return nil
	}

	out := r.outScratch
	if cap(out) < int(want) {
		out = make([]byte, want)
	}
	out = out[:want]
	if _, err := io.ReadFull(r.zr, out); err != nil {
		return r.handleDecompressFailure(chunkIndex, err, dest, begInChunk, endInChunk)
	}
	copy(dest, out[begInChunk:endInChunk])
	return nil
}

func (r *Reader) handleDecompressFailure(chunkIndex int, cause error, dest []byte, begInChunk, endInChunk int) error {
	log.WithField("chunk", chunkIndex).WithError(cause).Warn("chunk decompression failed")
	switch r.policy {
	case CorruptChunkError:
		return &errs.DecompressionFailed{ChunkIndex: chunkIndex, Cause: cause}
	case CorruptChunkZero, CorruptChunkRawIfPossible:
		for i := range dest {
			dest[i] = 0
		}
		return nil
	default:
		return &errs.DecompressionFailed{ChunkIndex: chunkIndex, Cause: cause}
	}
}
