package section

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/go-forensics/ewf/errs"
	"github.com/go-forensics/ewf/internal/format"
)

// decodeTable reads a table section's header, its entry array, and its
// trailing checksum, producing ChunkStubs whose EndOffset is left for the
// accessor to back-patch once the following sectors section is seen.
func decodeTable(r io.ReadSeeker, payloadStart int64, policy CorruptSectionPolicy, path string) ([]ChunkStub, error) {
	if _, err := r.Seek(payloadStart, io.SeekStart); err != nil {
		return nil, errs.WithPath(err, path)
	}

	headerBuf := make([]byte, format.TableHeaderSize)
	if _, err := io.ReadFull(r, headerBuf); err != nil {
		return nil, errs.WithPath(err, path)
	}

	var th format.TableHeader
	if err := binary.Read(bytes.NewReader(headerBuf), binary.LittleEndian, &th); err != nil {
		return nil, &errs.DeserializationFailed{StructName: "TableHeader", Cause: err}
	}

	if policy == CorruptSectionError {
		computed := format.Adler32Bytes(headerBuf[:20])
		if computed != th.Checksum {
			return nil, &errs.BadChecksum{Context: path + ": table header", Computed: computed, Expected: th.Checksum}
		}
	}

	entryBytes := make([]byte, int(th.EntryCount)*format.TableEntrySize)
	if _, err := io.ReadFull(r, entryBytes); err != nil {
		return nil, errs.WithPath(err, path)
	}

	stubs := make([]ChunkStub, th.EntryCount)
	er := bytes.NewReader(entryBytes)
	for i := range stubs {
		var raw uint32
		if err := binary.Read(er, binary.LittleEndian, &raw); err != nil {
			return nil, &errs.DeserializationFailed{StructName: "TableEntry", Cause: err}
		}
		stubs[i] = ChunkStub{
			DataOffset: th.TableBaseOffset + uint64(raw&format.TableEntryOffsetMask),
			Compressed: raw&format.TableEntryCompressedFlag != 0,
		}
	}

	if policy == CorruptSectionError {
		var trailer uint32
		if err := binary.Read(r, binary.LittleEndian, &trailer); err != nil {
			return nil, errs.WithPath(err, path)
		}
		computed := format.Adler32Bytes(entryBytes)
		if computed != trailer {
			return nil, &errs.BadChecksum{Context: path + ": table offset array", Computed: computed, Expected: trailer}
		}
	}

	return stubs, nil
}
