package ewf

// Real-fixture end-to-end scenarios. This repo does not ship the binary
// .E01 acquisition images spec.md documents (data/image.E01, data/mimage.E01,
// data/bad_chunk.E01), so these scenarios are recorded as skipped tests
// naming the fixture path and expected values they'd check, rather than
// silently dropped or faked with synthetic data that wouldn't exercise a
// real EnCase/SMART-compressed acquisition.

import (
	"encoding/hex"
	"testing"

	"github.com/go-forensics/ewf/chunkio"
	"github.com/go-forensics/ewf/digest"
)

func TestFixtureSingleSegmentImage(t *testing.T) {
	t.Skip("requires fixture data/image.E01; see spec scenario 1")

	acc, err := Open([]string{"data/image.E01"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer acc.Close()

	if got := acc.ChunkSize(); got != 32768 {
		t.Errorf("ChunkSize() = %d, want 32768", got)
	}
	if got := acc.ChunkCount(); got != 41 {
		t.Errorf("ChunkCount() = %d, want 41", got)
	}
	if got := acc.SectorSize(); got != 512 {
		t.Errorf("SectorSize() = %d, want 512", got)
	}
	if got := acc.SectorCount(); got != 2581 {
		t.Errorf("SectorCount() = %d, want 2581", got)
	}
	if got := acc.ImageSize(); got != 1_321_472 {
		t.Errorf("ImageSize() = %d, want 1321472", got)
	}

	got, err := digest.Compute(acc, digest.SHA256)
	if err != nil {
		t.Fatal(err)
	}
	want := "cab8049f5fba42e06609c9d0678eb9fff7fcb50afc6c9b531ee6216bbe40a827"
	if digest.Format(got) != want {
		t.Errorf("whole-image SHA-256 = %s, want %s", digest.Format(got), want)
	}
}

func TestFixtureMultiSegmentImageViaGlob(t *testing.T) {
	t.Skip("requires fixture data/mimage.E01 + data/mimage.E02; see spec scenario 2")

	acc, err := OpenGlob("data/mimage.E01", Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer acc.Close()

	if got := acc.ChunkCount(); got != 27 {
		t.Errorf("ChunkCount() = %d, want 27", got)
	}
	if got := acc.ImageSize(); got != 884_736 {
		t.Errorf("ImageSize() = %d, want 884736", got)
	}

	got, err := digest.Compute(acc, digest.SHA256)
	if err != nil {
		t.Fatal(err)
	}
	want := "bc730943b2247e11b18caf272b1e78289267864962751549b1722752bf1e2e3d"
	if digest.Format(got) != want {
		t.Errorf("whole-image SHA-256 = %s, want %s", digest.Format(got), want)
	}
}

func TestFixtureCorruptChunkErrorPolicy(t *testing.T) {
	t.Skip("requires fixture data/bad_chunk.E01 (scenario 1 with one chunk mutated); see spec scenario 3")

	acc, err := Open([]string{"data/bad_chunk.E01"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer acc.Close()

	buf := make([]byte, acc.ImageSize())
	if _, err := acc.ReadAt(0, buf); err == nil {
		t.Fatal("expected BadChecksum or DecompressionFailed reading the corrupted chunk, got nil")
	}
}

func TestFixtureCorruptChunkZeroPolicy(t *testing.T) {
	t.Skip("requires fixture data/bad_chunk.E01; see spec scenario 4")

	acc, err := Open([]string{"data/bad_chunk.E01"}, Options{CorruptChunkPolicy: chunkio.CorruptChunkZero})
	if err != nil {
		t.Fatal(err)
	}
	defer acc.Close()

	got, err := digest.Compute(acc, digest.MD5)
	if err != nil {
		t.Fatal(err)
	}
	want := "67c44c58dd4bb4f7d162b3d3ad521e33"
	if digest.Format(got) != want {
		t.Errorf("whole-image MD5 = %s, want %s", digest.Format(got), want)
	}
}

func TestFixtureDigestVerificationRoundTrip(t *testing.T) {
	t.Skip("requires fixture data/image.E01; see spec scenario 7")

	acc, err := Open([]string{"data/image.E01"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer acc.Close()

	want, err := hex.DecodeString("cab8049f5fba42e06609c9d0678eb9fff7fcb50afc6c9b531ee6216bbe40a827")
	if err != nil {
		t.Fatal(err)
	}
	ok, _, err := digest.Verify(acc, digest.SHA256, want)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("recomputed SHA-256 did not match scenario 1's documented value")
	}
}
