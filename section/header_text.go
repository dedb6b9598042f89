package section

import (
	"bytes"
	"io"
	"strings"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/text/encoding/unicode"

	"github.com/go-forensics/ewf/errs"
)

// CaseMetadata is the best-effort decoding of a "header"/"header2" section's
// tab-separated case data: a category-set line, a column-name line, and a
// values line, in the layout EnCase/libewf writers have used since EWF v1.
// Only the commonly populated single-letter field codes are surfaced;
// anything else is kept verbatim in Raw for a caller that needs it.
type CaseMetadata struct {
	CaseNumber      string
	Description     string
	ExaminerName    string
	Notes           string
	AcquiredDate    string
	SystemDate      string
	SoftwareVersion string
	Platform        string
	Raw             string
}

func (m *CaseMetadata) codes() map[string]*string {
	return map[string]*string{
		"c":  &m.CaseNumber,
		"n":  &m.Description,
		"e":  &m.ExaminerName,
		"t":  &m.Notes,
		"m":  &m.AcquiredDate,
		"u":  &m.SystemDate,
		"av": &m.SoftwareVersion,
		"ov": &m.Platform,
	}
}

// decodeHeaderText reads a header/header2 payload: zlib-compressed text,
// UTF-16LE-with-BOM for "header2", plain ASCII/UTF-8 for the legacy
// "header" type. It tolerates payloads that turn out not to be
// zlib-compressed (some writers store "header" uncompressed) by falling
// back to the raw bytes when zlib.NewReader rejects them.
func decodeHeaderText(r io.ReadSeeker, payloadStart int64, payloadSize uint64, path string) (*CaseMetadata, error) {
	if _, err := r.Seek(payloadStart, io.SeekStart); err != nil {
		return nil, errs.WithPath(err, path)
	}
	raw := make([]byte, payloadSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, errs.WithPath(err, path)
	}

	text := raw
	if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
		inflated, err := io.ReadAll(zr)
		if err == nil {
			text = inflated
		}
	}

	decoded, err := decodeHeaderCharset(text)
	if err != nil {
		return nil, &errs.DeserializationFailed{StructName: "HeaderText", Cause: err}
	}

	return parseHeaderText(decoded), nil
}

// decodeHeaderCharset transcodes a UTF-16LE-with-BOM buffer to UTF-8, or
// returns the input unchanged if it carries no BOM (the legacy "header"
// type is already single-byte-per-character text).
func decodeHeaderCharset(b []byte) (string, error) {
	if len(b) >= 2 && b[0] == 0xff && b[1] == 0xfe {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		out, err := dec.Bytes(b)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
	return string(b), nil
}

// parseHeaderText extracts the known field codes from the conventional
// three-or-more-line layout: a category-set count, one "main" marker line,
// a tab-separated column-code line, then one tab-separated values line per
// category. Only the first category's values are extracted into the typed
// fields; the full decoded text is always retained in Raw.
func parseHeaderText(text string) *CaseMetadata {
	m := &CaseMetadata{Raw: text}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i := 0; i+1 < len(lines); i++ {
		codes := strings.Split(lines[i], "\t")
		if len(codes) < 2 {
			continue
		}
		values := strings.Split(lines[i+1], "\t")

		dest := m.codes()
		matched := false
		for j, code := range codes {
			if j >= len(values) {
				break
			}
			if field, ok := dest[strings.ToLower(strings.TrimSpace(code))]; ok {
				*field = values[j]
				matched = true
			}
		}
		if matched {
			break
		}
	}

	return m
}
