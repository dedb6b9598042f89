package section

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/go-forensics/ewf/errs"
	"github.com/go-forensics/ewf/internal/format"
)

// CorruptSectionPolicy controls whether a section descriptor, volume,
// table, hash, or digest checksum failure aborts iteration or is ignored.
type CorruptSectionPolicy int

const (
	// CorruptSectionError aborts the section chain on any checksum mismatch.
	CorruptSectionError CorruptSectionPolicy = iota
	// CorruptSectionDamnTheTorpedoes skips every checksum computation.
	CorruptSectionDamnTheTorpedoes
)

// Kind tags which variant a decoded Section holds.
type Kind int

const (
	KindVolume Kind = iota
	KindTable
	KindSectors
	KindHash
	KindDigest
	KindHeader
	KindDone
	KindOther
)

// ChunkStub is a table entry before its end_offset is known; the accessor
// back-patches EndOffset once the following sectors section is seen.
type ChunkStub struct {
	DataOffset uint64
	Compressed bool
}

// Section is the tagged variant produced by one iteration step. Only the
// fields relevant to Kind are populated.
type Section struct {
	Kind Kind

	Volume VolumeInfo

	TableEntries []ChunkStub

	SectorsEnd uint64

	HashMD5 [16]byte

	DigestMD5  [16]byte
	DigestSHA1 [20]byte

	CaseMetadata CaseMetadata
}

// Iterator walks the linked section-descriptor chain of one segment,
// starting just after the file header, yielding decoded Sections until it
// hits a self-loop, runs past the end of the segment, or the checksum
// policy aborts it. A "done" section does not by itself end iteration.
type Iterator struct {
	r             io.ReadSeeker
	currentOffset int64
	fileSize      int64
	policy        CorruptSectionPolicy
	path          string
	finished      bool
}

// NewIterator constructs an Iterator starting at startOffset, the position
// just after the segment's file header. fileSize bounds iteration the same
// way the original end-of-segment check does: once current_offset reaches
// or passes it, the chain is exhausted even without a "done" section.
func NewIterator(r io.ReadSeeker, startOffset, fileSize int64, policy CorruptSectionPolicy, path string) *Iterator {
	return &Iterator{r: r, currentOffset: startOffset, fileSize: fileSize, policy: policy, path: path}
}

// Next decodes the section at the iterator's current offset and advances.
// It returns (nil, nil) once the chain is exhausted: a self-loop
// terminator, or the offset running past the end of the segment. Note that
// seeing a "done" Section does NOT by itself stop iteration — callers that
// want to detect trailing sections after "done" should keep calling Next
// once more, as the spec's warning for "extra sections after Done" requires.
func (it *Iterator) Next() (*Section, error) {
	if it.finished || it.currentOffset >= it.fileSize {
		return nil, nil
	}

	if _, err := it.r.Seek(it.currentOffset, io.SeekStart); err != nil {
		return nil, errs.WithPath(err, it.path)
	}

	descBuf := make([]byte, format.SectionDescriptorSize)
	if _, err := io.ReadFull(it.r, descBuf); err != nil {
		return nil, errs.WithPath(err, it.path)
	}

	var desc format.SectionDescriptor
	if err := binary.Read(bytes.NewReader(descBuf), binary.LittleEndian, &desc); err != nil {
		return nil, &errs.DeserializationFailed{StructName: "SectionDescriptor", Cause: err}
	}

	if it.policy == CorruptSectionError {
		computed := format.Adler32Bytes(descBuf[:72])
		if computed != desc.Checksum {
			return nil, &errs.BadChecksum{
				Context:  fmt.Sprintf("%s: section descriptor at %d", it.path, it.currentOffset),
				Computed: computed,
				Expected: desc.Checksum,
			}
		}
	}

	typeName := strings.TrimRight(string(desc.Type[:]), "\x00")
	payloadSize := desc.PayloadSize()
	payloadStart := it.currentOffset + format.SectionDescriptorSize

	sec, err := it.decodePayload(typeName, payloadStart, payloadSize)
	if err != nil {
		return nil, err
	}

	next := int64(desc.NextOffset)
	if next == it.currentOffset {
		it.finished = true
	} else {
		it.currentOffset = next
	}

	return sec, nil
}

func (it *Iterator) decodePayload(typeName string, payloadStart int64, payloadSize uint64) (*Section, error) {
	switch typeName {
	case format.SectionTypeDisk, format.SectionTypeVolume:
		v, err := decodeVolume(it.r, payloadStart, payloadSize, it.policy, it.path)
		if err != nil {
			return nil, err
		}
		return &Section{Kind: KindVolume, Volume: *v}, nil

	case format.SectionTypeTable:
		stubs, err := decodeTable(it.r, payloadStart, it.policy, it.path)
		if err != nil {
			return nil, err
		}
		return &Section{Kind: KindTable, TableEntries: stubs}, nil

	case format.SectionTypeSectors:
		return &Section{Kind: KindSectors, SectorsEnd: uint64(payloadStart) + payloadSize}, nil

	case format.SectionTypeHash:
		h, err := decodeHash(it.r, payloadStart, it.policy, it.path)
		if err != nil {
			return nil, err
		}
		return &Section{Kind: KindHash, HashMD5: h}, nil

	case format.SectionTypeDigest:
		md5, sha1, err := decodeDigest(it.r, payloadStart, it.policy, it.path)
		if err != nil {
			return nil, err
		}
		return &Section{Kind: KindDigest, DigestMD5: md5, DigestSHA1: sha1}, nil

	case format.SectionTypeHeader, format.SectionTypeHeader2:
		meta, err := decodeHeaderText(it.r, payloadStart, payloadSize, it.path)
		if err != nil {
			return nil, err
		}
		return &Section{Kind: KindHeader, CaseMetadata: *meta}, nil

	case format.SectionTypeDone:
		return &Section{Kind: KindDone}, nil

	default:
		log.WithField("type", typeName).Trace("ignoring unrecognized section type")
		return &Section{Kind: KindOther}, nil
	}
}

func decodeHash(r io.ReadSeeker, payloadStart int64, policy CorruptSectionPolicy, path string) ([16]byte, error) {
	if _, err := r.Seek(payloadStart, io.SeekStart); err != nil {
		return [16]byte{}, errs.WithPath(err, path)
	}
	buf := make([]byte, format.HashSectionSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return [16]byte{}, errs.WithPath(err, path)
	}
	var hs format.HashSection
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &hs); err != nil {
		return [16]byte{}, &errs.DeserializationFailed{StructName: "HashSection", Cause: err}
	}
	if policy == CorruptSectionError {
		computed := format.Adler32Bytes(buf[:len(buf)-4])
		if computed != hs.Checksum {
			return [16]byte{}, &errs.BadChecksum{Context: path + ": hash section", Computed: computed, Expected: hs.Checksum}
		}
	}
	return hs.MD5, nil
}

func decodeDigest(r io.ReadSeeker, payloadStart int64, policy CorruptSectionPolicy, path string) ([16]byte, [20]byte, error) {
	if _, err := r.Seek(payloadStart, io.SeekStart); err != nil {
		return [16]byte{}, [20]byte{}, errs.WithPath(err, path)
	}
	buf := make([]byte, format.DigestSectionSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return [16]byte{}, [20]byte{}, errs.WithPath(err, path)
	}
	var ds format.DigestSection
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &ds); err != nil {
		return [16]byte{}, [20]byte{}, &errs.DeserializationFailed{StructName: "DigestSection", Cause: err}
	}
	if policy == CorruptSectionError {
		computed := format.Adler32Bytes(buf[:len(buf)-4])
		if computed != ds.Checksum {
			return [16]byte{}, [20]byte{}, &errs.BadChecksum{Context: path + ": digest section", Computed: computed, Expected: ds.Checksum}
		}
	}
	return ds.MD5, ds.SHA1, nil
}
