package section

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/go-forensics/ewf/errs"
	"github.com/go-forensics/ewf/internal/format"
)

// VolumeInfo is the geometry decoded from a volume/disk section, common to
// both the EnCase and SMART layouts.
type VolumeInfo struct {
	ChunkCount      uint32
	SectorsPerChunk uint32
	BytesPerSector  uint32
	SectorCount     uint64
}

// ChunkSize returns sectors_per_chunk * bytes_per_sector.
func (v VolumeInfo) ChunkSize() uint64 {
	return uint64(v.SectorsPerChunk) * uint64(v.BytesPerSector)
}

// ImageSize returns total_sector_count * bytes_per_sector.
func (v VolumeInfo) ImageSize() uint64 {
	return v.SectorCount * uint64(v.BytesPerSector)
}

// decodeVolume dispatches on payload size to the EnCase (1052-byte) or
// SMART (94-byte) layout.
func decodeVolume(r io.ReadSeeker, payloadStart int64, payloadSize uint64, policy CorruptSectionPolicy, path string) (*VolumeInfo, error) {
	if _, err := r.Seek(payloadStart, io.SeekStart); err != nil {
		return nil, errs.WithPath(err, path)
	}

	switch payloadSize {
	case format.EncaseVolumeSize:
		return decodeEncaseVolume(r, policy, path)
	case format.SmartVolumeSize:
		return decodeSmartVolume(r, policy, path)
	default:
		return nil, &errs.UnexpectedVolumeSize{Size: payloadSize}
	}
}

func decodeEncaseVolume(r io.Reader, policy CorruptSectionPolicy, path string) (*VolumeInfo, error) {
	buf := make([]byte, format.EncaseVolumeSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errs.WithPath(err, path)
	}
	var ev format.EncaseVolume
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &ev); err != nil {
		return nil, &errs.DeserializationFailed{StructName: "EncaseVolume", Cause: err}
	}
	if policy == CorruptSectionError {
		computed := format.Adler32Bytes(buf[:len(buf)-4])
		if computed != ev.Checksum {
			return nil, &errs.BadChecksum{Context: path + ": volume section", Computed: computed, Expected: ev.Checksum}
		}
	}
	return &VolumeInfo{
		ChunkCount:      ev.ChunkCount,
		SectorsPerChunk: ev.SectorsPerChunk,
		BytesPerSector:  ev.BytesPerSector,
		SectorCount:     ev.SectorCount,
	}, nil
}

func decodeSmartVolume(r io.Reader, policy CorruptSectionPolicy, path string) (*VolumeInfo, error) {
	buf := make([]byte, format.SmartVolumeSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errs.WithPath(err, path)
	}
	var sv format.SmartVolume
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &sv); err != nil {
		return nil, &errs.DeserializationFailed{StructName: "SmartVolume", Cause: err}
	}
	if policy == CorruptSectionError {
		computed := format.Adler32Bytes(buf[:len(buf)-4])
		if computed != sv.Checksum {
			return nil, &errs.BadChecksum{Context: path + ": volume section", Computed: computed, Expected: sv.Checksum}
		}
	}
	return &VolumeInfo{
		ChunkCount:      sv.ChunkCount,
		SectorsPerChunk: sv.SectorsPerChunk,
		BytesPerSector:  sv.BytesPerSector,
		SectorCount:     uint64(sv.SectorCount),
	}, nil
}
