// Package errs defines the error taxonomy shared by every component of the
// EWF accessor: path resolution, segment parsing, and chunk reads each
// return one of these kinds so callers can switch on behavior without
// string-matching messages.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Path errors, raised by segpath during prototype resolution.

// UnrecognizedExtension is returned when a path's extension does not match
// the EWF segment extension grammar, or (for a prototype) does not start
// with E, L, or S.
type UnrecognizedExtension struct {
	Path string
}

func (e *UnrecognizedExtension) Error() string {
	return fmt.Sprintf("%s: unrecognized segment extension", e.Path)
}

// DuplicateSegmentFile is returned when both the upper- and lower-case forms
// of a candidate extension exist on disk for the same base path.
type DuplicateSegmentFile struct {
	Path string
}

func (e *DuplicateSegmentFile) Error() string {
	return fmt.Sprintf("%s: case-insensitively ambiguous segment file", e.Path)
}

// NoSegmentFiles is returned by Open when given an empty segment path list.
var NoSegmentFiles = errors.New("no segment files given")

// Parse errors, raised while decoding a segment's header or sections.

// InvalidSegmentFileHeader is returned when a segment's first 8 bytes don't
// match any recognized EWF signature.
type InvalidSegmentFileHeader struct {
	Path string
}

func (e *InvalidSegmentFileHeader) Error() string {
	return fmt.Sprintf("%s: invalid segment file header", e.Path)
}

// UnknownCompressionMethod is returned for a v2 header whose compression
// method field is not one of None, Deflate, or Bzip.
type UnknownCompressionMethod struct {
	Value uint16
}

func (e *UnknownCompressionMethod) Error() string {
	return fmt.Sprintf("unknown compression method: %d", e.Value)
}

// UnexpectedVolumeSize is returned when a volume/disk section's payload is
// neither 1052 bytes (EnCase) nor 94 bytes (SMART).
type UnexpectedVolumeSize struct {
	Size uint64
}

func (e *UnexpectedVolumeSize) Error() string {
	return fmt.Sprintf("unexpected volume section size: %d", e.Size)
}

// DeserializationFailed wraps a lower-level decode failure with the name of
// the struct being decoded.
type DeserializationFailed struct {
	StructName string
	Cause      error
}

func (e *DeserializationFailed) Error() string {
	return fmt.Sprintf("failed to deserialize %s: %v", e.StructName, e.Cause)
}

func (e *DeserializationFailed) Unwrap() error { return e.Cause }

// Integrity errors.

// BadChecksum is returned when a computed Adler-32 does not match the
// value stored on disk, for either a section descriptor or a chunk.
type BadChecksum struct {
	Context  string
	Computed uint32
	Expected uint32
}

func (e *BadChecksum) Error() string {
	return fmt.Sprintf("%s: checksum mismatch, computed %#08x, expected %#08x",
		e.Context, e.Computed, e.Expected)
}

// Structural errors, raised by Accessor.Open after all segments are read.

// MissingVolumeSection is returned when the first segment file never
// produced a volume/disk section.
type MissingVolumeSection struct {
	Path string
}

func (e *MissingVolumeSection) Error() string {
	return fmt.Sprintf("%s: no volume section found", e.Path)
}

// TooFewChunks is returned when fewer chunks were assembled than the volume
// section declared.
type TooFewChunks struct {
	Actual, Expected int
}

func (e *TooFewChunks) Error() string {
	return fmt.Sprintf("too few chunks: found %d, expected %d", e.Actual, e.Expected)
}

// TooManyChunks is returned when more chunks were assembled than the volume
// section declared.
type TooManyChunks struct {
	Actual, Expected int
}

func (e *TooManyChunks) Error() string {
	return fmt.Sprintf("too many chunks: found %d, expected %d", e.Actual, e.Expected)
}

// Read-time errors, raised by Accessor.ReadAt and the chunk reader.

// OffsetBeyondEnd is returned when a read starts past the end of the image.
type OffsetBeyondEnd struct {
	Offset, ImageSize uint64
}

func (e *OffsetBeyondEnd) Error() string {
	return fmt.Sprintf("offset %d is beyond end of image (%d bytes)", e.Offset, e.ImageSize)
}

// ChunkTooShort is returned when an uncompressed chunk's raw length is under
// 5 bytes, too small to hold even a trailing Adler-32.
type ChunkTooShort struct {
	ChunkIndex int
	RawLen     int
}

func (e *ChunkTooShort) Error() string {
	return fmt.Sprintf("chunk %d is %d bytes long, must be at least 5", e.ChunkIndex, e.RawLen)
}

// DecompressionFailed is returned when a compressed chunk fails to inflate.
type DecompressionFailed struct {
	ChunkIndex int
	Cause      error
}

func (e *DecompressionFailed) Error() string {
	return fmt.Sprintf("decompression of chunk %d failed: %v", e.ChunkIndex, e.Cause)
}

func (e *DecompressionFailed) Unwrap() error { return e.Cause }

// WithPath annotates an I/O or data error with the segment path on which it
// occurred. Open uses it for failures opening, seeking, and reading section
// descriptors and payloads; at read time it annotates a failure to open a
// segment file. Seek and read failures inside chunkio.Reader, and a short
// read within a segment's file header, are returned without a path.
func WithPath(err error, path string) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, "%s", path)
}
