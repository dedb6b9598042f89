// Package ewf provides read-only, random-access access to an EWF/E01
// forensic disk image spread across one or more segment files. Open
// resolves and parses every segment's section chain up front, building a
// flat chunk index; ReadAt then serves arbitrary byte ranges against that
// index without re-parsing anything.
package ewf

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/go-forensics/ewf/chunkindex"
	"github.com/go-forensics/ewf/chunkio"
	"github.com/go-forensics/ewf/errs"
	"github.com/go-forensics/ewf/section"
	"github.com/go-forensics/ewf/segpath"
)

// Options configures how Open reacts to corrupted sections and chunks.
type Options struct {
	CorruptSectionPolicy section.CorruptSectionPolicy
	CorruptChunkPolicy   chunkio.CorruptChunkPolicy
}

type segmentRef struct {
	path string
	file *os.File
}

// segmentOpener implements chunkio.SegmentOpener over the Accessor's own
// segment files, opening each lazily and reusing the handle thereafter.
type segmentOpener struct {
	refs []*segmentRef
}

func (o *segmentOpener) Open(i int) (io.ReadSeeker, error) {
	r := o.refs[i]
	if r.file != nil {
		return r.file, nil
	}
	f, err := os.Open(r.path)
	if err != nil {
		return nil, errs.WithPath(err, r.path)
	}
	r.file = f
	return f, nil
}

// Accessor is an opened EWF image: its segment files, its flat chunk
// index, the geometry and hashes recovered from its sections, and the
// chunk reader used to serve ReadAt.
type Accessor struct {
	segments []*segmentRef
	opener   *segmentOpener

	chunks *chunkindex.Index
	volume section.VolumeInfo

	storedMD5  *[16]byte
	storedSHA1 *[20]byte
	caseMeta   *section.CaseMetadata

	chunkReader *chunkio.Reader
	imageSize   uint64
	chunkSize   uint64
}

// Open parses every segment in segmentPaths, in order, and returns an
// Accessor ready to serve ReadAt. segmentPaths must be non-empty and
// already ordered (see segpath.Resolve, or OpenGlob to do both steps).
func Open(segmentPaths []string, opts Options) (*Accessor, error) {
	if len(segmentPaths) == 0 {
		return nil, errs.NoSegmentFiles
	}

	refs := make([]*segmentRef, len(segmentPaths))
	for i, p := range segmentPaths {
		refs[i] = &segmentRef{path: p}
	}

	acc := &Accessor{
		segments: refs,
		opener:   &segmentOpener{refs: refs},
	}

	haveVolume := false

	for segIdx, ref := range refs {
		f, err := os.Open(ref.path)
		if err != nil {
			acc.Close()
			return nil, errs.WithPath(err, ref.path)
		}
		ref.file = f

		fi, err := f.Stat()
		if err != nil {
			acc.Close()
			return nil, errs.WithPath(err, ref.path)
		}

		hdr, err := section.DecodeHeader(f, ref.path)
		if err != nil {
			acc.Close()
			return nil, err
		}

		it := section.NewIterator(f, hdr.BodyOffset(), fi.Size(), opts.CorruptSectionPolicy, ref.path)

		sawDone := false

	segmentLoop:
		for {
			sec, err := it.Next()
			if err != nil {
				acc.Close()
				return nil, err
			}
			if sec == nil {
				break
			}

			switch sec.Kind {
			case section.KindVolume:
				if !haveVolume {
					acc.volume = sec.Volume
					haveVolume = true
					if acc.chunks == nil {
						acc.chunks = chunkindex.New(int(sec.Volume.ChunkCount))
					}
				} else {
					log.WithField("segment", ref.path).Warn("duplicate volume section; keeping first")
				}

			case section.KindTable:
				if acc.chunks == nil {
					// A table section arrived before any volume section;
					// no declared chunk count is available to reserve
					// against yet.
					acc.chunks = chunkindex.New(0)
				}
				for i, stub := range sec.TableEntries {
					d := chunkindex.Descriptor{
						SegmentIndex: segIdx,
						DataOffset:   stub.DataOffset,
						Compressed:   stub.Compressed,
					}
					if i+1 < len(sec.TableEntries) {
						d.EndOffset = sec.TableEntries[i+1].DataOffset
					}
					acc.chunks.Append(d)
				}

			case section.KindSectors:
				if acc.chunks != nil {
					if last := acc.chunks.Last(); last != nil && last.EndOffset == 0 {
						last.EndOffset = sec.SectorsEnd
					}
				}

			case section.KindHash:
				if acc.storedMD5 == nil {
					md5 := sec.HashMD5
					acc.storedMD5 = &md5
				} else if *acc.storedMD5 != sec.HashMD5 {
					log.WithField("segment", ref.path).Warn("duplicate hash section disagrees with first; keeping first")
				}

			case section.KindDigest:
				if acc.storedMD5 == nil {
					md5 := sec.DigestMD5
					acc.storedMD5 = &md5
				} else if *acc.storedMD5 != sec.DigestMD5 {
					log.WithField("segment", ref.path).Warn("duplicate digest MD5 disagrees with first; keeping first")
				}
				if acc.storedSHA1 == nil {
					sha1 := sec.DigestSHA1
					acc.storedSHA1 = &sha1
				} else if *acc.storedSHA1 != sec.DigestSHA1 {
					log.WithField("segment", ref.path).Warn("duplicate digest SHA-1 disagrees with first; keeping first")
				}

			case section.KindHeader:
				if acc.caseMeta == nil {
					meta := sec.CaseMetadata
					acc.caseMeta = &meta
				}

			case section.KindDone:
				sawDone = true
				extra, err := it.Next()
				if err != nil {
					acc.Close()
					return nil, err
				}
				if extra != nil {
					log.WithField("segment", ref.path).Warn("section(s) found after done")
				}
				break segmentLoop
			}
		}

		if !sawDone {
			log.WithField("segment", ref.path).Warn("segment has no done section")
		}

		if segIdx == 0 && !haveVolume {
			acc.Close()
			return nil, &errs.MissingVolumeSection{Path: ref.path}
		}

		// The parse-time handle is released here; segmentOpener reopens the
		// file on the first read that touches this segment.
		f.Close()
		ref.file = nil
	}

	expected := int(acc.volume.ChunkCount)
	if acc.chunks.Len() < expected {
		acc.Close()
		return nil, &errs.TooFewChunks{Actual: acc.chunks.Len(), Expected: expected}
	}
	if acc.chunks.Len() > expected {
		acc.Close()
		return nil, &errs.TooManyChunks{Actual: acc.chunks.Len(), Expected: expected}
	}

	acc.chunkSize = acc.volume.ChunkSize()
	acc.imageSize = acc.volume.ImageSize()
	acc.chunkReader = chunkio.NewReader(acc.opener, acc.chunkSize, acc.imageSize, opts.CorruptChunkPolicy)

	return acc, nil
}

// OpenGlob resolves the segment sequence starting from protoPath, then
// opens it. It is the usual entrypoint: callers hand it the first segment
// file (e.g. "case.E01") and never enumerate the rest themselves.
func OpenGlob(protoPath string, opts Options) (*Accessor, error) {
	paths, err := segpath.Resolve(protoPath)
	if err != nil {
		return nil, err
	}
	return Open(paths, opts)
}

// ReadAt fills buf with image bytes starting at offset, stopping short of
// len(buf) only when offset+len(buf) runs past the end of the image (the
// io.ReaderAt convention: a short read at EOF is not itself an error).
func (a *Accessor) ReadAt(offset uint64, buf []byte) (int, error) {
	if offset > a.imageSize {
		return 0, &errs.OffsetBeyondEnd{Offset: offset, ImageSize: a.imageSize}
	}

	end := offset + uint64(len(buf))
	if end > a.imageSize {
		end = a.imageSize
	}

	total := 0
	cur := offset
	for cur < end {
		chunkIdx := int(cur / a.chunkSize)
		chunkStart := uint64(chunkIdx) * a.chunkSize

		avail := a.chunkSize
		if chunkStart+avail > a.imageSize {
			avail = a.imageSize - chunkStart
		}

		begInChunk := int(cur - chunkStart)
		endInChunk := int(avail)
		if chunkStart+uint64(endInChunk) > end {
			endInChunk = int(end - chunkStart)
		}

		d := a.chunks.At(chunkIdx)
		n := endInChunk - begInChunk
		if err := a.chunkReader.ReadChunk(chunkIdx, d, buf[total:total+n], begInChunk, endInChunk); err != nil {
			return total, err
		}

		total += n
		cur += uint64(n)
	}

	return total, nil
}

// ChunkSize returns the image's uniform chunk size in bytes (the final
// chunk may be shorter).
func (a *Accessor) ChunkSize() uint64 { return a.chunkSize }

// ChunkCount returns the number of chunks in the image.
func (a *Accessor) ChunkCount() int { return a.chunks.Len() }

// SectorCount returns the declared total sector count.
func (a *Accessor) SectorCount() uint64 { return a.volume.SectorCount }

// SectorSize returns the declared bytes-per-sector.
func (a *Accessor) SectorSize() uint32 { return a.volume.BytesPerSector }

// ImageSize returns the total logical image size in bytes.
func (a *Accessor) ImageSize() uint64 { return a.imageSize }

// StoredMD5 returns the MD5 recorded in the image's hash or digest
// section, or nil if neither was present.
func (a *Accessor) StoredMD5() *[16]byte { return a.storedMD5 }

// StoredSHA1 returns the SHA-1 recorded in the image's digest section, or
// nil if it was absent.
func (a *Accessor) StoredSHA1() *[20]byte { return a.storedSHA1 }

// CaseMetadata returns the acquisition case metadata decoded from the
// first "header"/"header2" section seen, or nil if none was present.
func (a *Accessor) CaseMetadata() *section.CaseMetadata { return a.caseMeta }

// SegmentPaths returns the ordered segment file paths this Accessor opened.
func (a *Accessor) SegmentPaths() []string {
	paths := make([]string, len(a.segments))
	for i, s := range a.segments {
		paths[i] = s.path
	}
	return paths
}

// Close releases every segment file handle the Accessor currently holds,
// returning the first error encountered, if any.
func (a *Accessor) Close() error {
	var first error
	for _, s := range a.segments {
		if s.file == nil {
			continue
		}
		if err := s.file.Close(); err != nil && first == nil {
			first = err
		}
		s.file = nil
	}
	return first
}
