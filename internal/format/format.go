// Package format holds the fixed on-disk layouts of an EWF segment file:
// the v1/v2 file headers, the section descriptor, and the volume, table,
// hash, and digest section bodies. Everything here is field semantics only,
// decoded with encoding/binary the way the teacher codebase does it; no
// parser-generator is involved (that's an external collaborator per the
// spec's scope).
package format

import "github.com/google/uuid"

// Segment file signatures, compared against the first 8 bytes of a segment.
var (
	SignatureV1    = [8]byte{'E', 'V', 'F', 0x09, 0x0d, 0x0a, 0xff, 0x00}
	SignatureL01V1 = [8]byte{'L', 'V', 'F', 0x09, 0x0d, 0x0a, 0xff, 0x00}
	SignatureEVF2  = [8]byte{'E', 'V', 'F', '2', 0x0d, 0x0a, 0x81, 0x00}
	SignatureLEF2  = [8]byte{'L', 'E', 'F', '2', 0x0d, 0x0a, 0x81, 0x00}
)

// SegmentVersion distinguishes the two file header layouts.
type SegmentVersion uint8

const (
	SegmentVersionUnknown SegmentVersion = iota
	SegmentVersion1
	SegmentVersion2
)

// CompressionMethod is the v2 header's declared compression scheme.
type CompressionMethod uint16

const (
	CompressionMethodNone    CompressionMethod = 0
	CompressionMethodDeflate CompressionMethod = 1
	CompressionMethodBzip    CompressionMethod = 2
)

// FileHeaderV1 is the 13-byte header of an EWF v1 (E01/L01/S01) segment.
type FileHeaderV1 struct {
	Signature     [8]byte
	FieldsStart   uint8
	SegmentNumber uint16
	FieldsEnd     uint16
}

const FileHeaderV1Size = 13

// FileHeaderV2 is the 30-byte header of an EVF2/LEF2 (v2) segment.
type FileHeaderV2 struct {
	Signature   [8]byte
	MajorVer    uint8
	MinorVer    uint8
	Compression CompressionMethod
	SegmentNum  uint16
	SetID       uuid.UUID
}

const FileHeaderV2Size = 30

// MediaType enumerates the §4.4 volume media_type byte.
type MediaType uint8

const (
	MediaTypeRemovable   MediaType = 0x00
	MediaTypeFixed       MediaType = 0x01
	MediaTypeOptical     MediaType = 0x03
	MediaTypeSingleFiles MediaType = 0x0e
	MediaTypeMemory      MediaType = 0x10
)

// MediaFlags is the bitfield in the EnCase volume layout.
type MediaFlags uint8

const (
	MediaFlagImage    MediaFlags = 0x01
	MediaFlagPhysical MediaFlags = 0x02
	MediaFlagFastbloc MediaFlags = 0x04
	MediaFlagTableau  MediaFlags = 0x08
)

// CompressionLevel is the EnCase volume layout's compression_level byte.
type CompressionLevel uint8

const (
	CompressionLevelFalse CompressionLevel = 0
	CompressionLevelGood  CompressionLevel = 1
	CompressionLevelBest  CompressionLevel = 2
)

// SectionDescriptorSize is the fixed size of a v1 section descriptor.
const SectionDescriptorSize = 76

// SectionDescriptor is the 76-byte header preceding every section's
// payload. Type is the NUL-padded 16-byte type string; compare it trimmed.
type SectionDescriptor struct {
	Type       [16]byte
	NextOffset uint64
	Size       uint64
	Padding    [40]byte
	Checksum   uint32
}

// PayloadSize returns max(0, Size-SectionDescriptorSize).
func (s *SectionDescriptor) PayloadSize() uint64 {
	if s.Size < SectionDescriptorSize {
		return 0
	}
	return s.Size - SectionDescriptorSize
}

// EncaseVolumeSize is the payload size of the 1052-byte EnCase volume layout.
const EncaseVolumeSize = 1052

// SmartVolumeSize is the payload size of the 94-byte SMART volume layout.
const SmartVolumeSize = 94

// EncaseVolume is the 1052-byte EnCase volume/disk section body.
type EncaseVolume struct {
	MediaType              uint8
	Reserved1              [3]byte
	ChunkCount             uint32
	SectorsPerChunk        uint32
	BytesPerSector         uint32
	SectorCount            uint64
	CHSCylinders           uint32
	CHSHeads               uint32
	CHSSectors             uint32
	MediaFlags             uint8
	Reserved2              [3]byte
	PALMVolumeStartSector  uint32
	Reserved3              uint32
	SMARTLogsStartSector   uint32
	CompressionLevel       uint8
	Reserved4              [3]byte
	ErrorGranularity       uint32
	Reserved5              uint32
	SetIdentifier          [16]byte
	Reserved6              [963]byte
	Signature              [5]byte
	Checksum               uint32
}

// SmartVolume is the 94-byte SMART volume/disk section body.
type SmartVolume struct {
	Reserved1       uint32
	ChunkCount      uint32
	SectorsPerChunk uint32
	BytesPerSector  uint32
	SectorCount     uint32
	Reserved2       [20]byte
	Reserved3       [45]byte
	Signature       [5]byte
	Checksum        uint32
}

// TableHeaderSize is the fixed size of a table section's header, before the
// entry array.
const TableHeaderSize = 24

// TableHeader is the 24-byte header of a table section.
type TableHeader struct {
	EntryCount      uint32
	Padding1        [4]byte
	TableBaseOffset uint64
	Padding2        [4]byte
	Checksum        uint32
}

// TableEntrySize is the width of one table entry.
const TableEntrySize = 4

// TableEntryCompressedFlag marks a chunk as zlib-compressed.
const TableEntryCompressedFlag = uint32(1) << 31

// TableEntryOffsetMask extracts the offset portion of a raw table entry.
const TableEntryOffsetMask = uint32(0x7FFFFFFF)

// HashSectionSize is the fixed size of a hash section's payload.
const HashSectionSize = 36

// HashSection is the payload of a "hash" section: MD5 plus padding and its
// own trailing checksum (accounted for separately from the 76-byte
// descriptor checksum).
type HashSection struct {
	MD5      [16]byte
	Padding  [16]byte
	Checksum uint32
}

// DigestSectionSize is the fixed size of a digest section's payload.
const DigestSectionSize = 80

// DigestSection is the payload of a "digest" section: MD5 + SHA-1 + padding
// + checksum.
type DigestSection struct {
	MD5      [16]byte
	SHA1     [20]byte
	Padding  [40]byte
	Checksum uint32
}

// Recognized section type strings, compared after trimming trailing NULs.
const (
	SectionTypeDisk    = "disk"
	SectionTypeVolume  = "volume"
	SectionTypeTable   = "table"
	SectionTypeSectors = "sectors"
	SectionTypeHash    = "hash"
	SectionTypeDigest  = "digest"
	SectionTypeHeader  = "header"
	SectionTypeHeader2 = "header2"
	SectionTypeDone    = "done"
)
