// Package section decodes one segment file's section chain: the file
// header, then each descriptor-prefixed section in turn, dispatching on
// type string into the tagged Section variants the accessor consumes.
package section

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/google/uuid"

	"github.com/go-forensics/ewf/errs"
	"github.com/go-forensics/ewf/internal/format"
)

// Header is the decoded result of SegmentFileHeaderDecoder: which version
// the segment is, its declared segment number, and (v2 only) its
// compression method and set identifier.
type Header struct {
	Version       format.SegmentVersion
	SegmentNumber uint16
	Compression   format.CompressionMethod
	SetIdentifier uuid.UUID
	bodySize      int64
}

// BodyOffset is the absolute offset in the segment where the first section
// descriptor begins, i.e. the size of the header just decoded.
func (h *Header) BodyOffset() int64 { return h.bodySize }

// DecodeHeader reads and validates a segment file's header, positioning the
// cursor at the start of the first section descriptor on return.
func DecodeHeader(r io.ReadSeeker, path string) (*Header, error) {
	var magic [8]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, errs.WithPath(err, path)
	}

	switch magic {
	case format.SignatureV1, format.SignatureL01V1:
		return decodeHeaderV1(r, magic)
	case format.SignatureEVF2, format.SignatureLEF2:
		return decodeHeaderV2(r, magic)
	default:
		return nil, &errs.InvalidSegmentFileHeader{Path: path}
	}
}

func decodeHeaderV1(r io.Reader, magic [8]byte) (*Header, error) {
	rest := make([]byte, format.FileHeaderV1Size-8)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, err
	}
	var fh format.FileHeaderV1
	fh.Signature = magic
	br := bytes.NewReader(append(magic[:], rest...))
	if err := binary.Read(br, binary.LittleEndian, &fh); err != nil {
		return nil, &errs.DeserializationFailed{StructName: "FileHeaderV1", Cause: err}
	}
	return &Header{
		Version:       format.SegmentVersion1,
		SegmentNumber: fh.SegmentNumber,
		bodySize:      format.FileHeaderV1Size,
	}, nil
}

func decodeHeaderV2(r io.Reader, magic [8]byte) (*Header, error) {
	rest := make([]byte, format.FileHeaderV2Size-8)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, err
	}
	var fh format.FileHeaderV2
	fh.Signature = magic
	br := bytes.NewReader(append(magic[:], rest...))
	if err := binary.Read(br, binary.LittleEndian, &fh); err != nil {
		return nil, &errs.DeserializationFailed{StructName: "FileHeaderV2", Cause: err}
	}
	switch fh.Compression {
	case format.CompressionMethodNone, format.CompressionMethodDeflate, format.CompressionMethodBzip:
	default:
		return nil, &errs.UnknownCompressionMethod{Value: uint16(fh.Compression)}
	}
	return &Header{
		Version:       format.SegmentVersion2,
		SegmentNumber: fh.SegmentNum,
		Compression:   fh.Compression,
		SetIdentifier: fh.SetID,
		bodySize:      format.FileHeaderV2Size,
	}, nil
}
