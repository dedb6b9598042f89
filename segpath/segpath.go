// Package segpath discovers the ordered sequence of EWF segment files that
// make up one image, starting from a single prototype path. It is purely
// lexical: it never opens or parses a segment, only probes for existence.
package segpath

import (
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/go-forensics/ewf/errs"
)

// validSegmentExt reports whether ext (already three characters) follows
// the E01..ZZZ grammar described in the spec: first char E-Z, then either
// "0" + 1-9, 1-9 + 0-9, or A-Z + A-Z.
func validSegmentExt(ext string) bool {
	if len(ext) != 3 {
		return false
	}
	u := strings.ToUpper(ext)
	first, second, third := u[0], u[1], u[2]

	if first < 'E' || first > 'Z' {
		return false
	}
	switch {
	case second == '0':
		return third >= '1' && third <= '9'
	case second >= '1' && second <= '9':
		return third >= '0' && third <= '9'
	case second >= 'A' && second <= 'Z':
		return third >= 'A' && third <= 'Z'
	default:
		return false
	}
}

// validPrototypeExt additionally requires the extension to start with E, L,
// or S; only those letters may open a segment sequence.
func validPrototypeExt(ext string) bool {
	if !validSegmentExt(ext) {
		return false
	}
	switch strings.ToUpper(ext)[0] {
	case 'E', 'L', 'S':
		return true
	default:
		return false
	}
}

// extensions yields the lexicographic sequence of segment extensions
// starting at the two-character point "start+01": X01, X02, ..., X99, XAA,
// ..., XZZ, (X+1)AA, ..., ZZZ.
func extensions(start byte) []string {
	var out []string
	for n := 1; n <= 99; n++ {
		out = append(out, string(start)+twoDigit(n))
	}
	for a := start; a <= 'Z'; a++ {
		for b := byte('A'); b <= 'Z'; b++ {
			for c := byte('A'); c <= 'Z'; c++ {
				out = append(out, string([]byte{a, b, c}))
			}
		}
	}
	return out
}

func twoDigit(n int) string {
	const digits = "0123456789"
	return string([]byte{digits[n/10], digits[n%10]})
}

// ExistsChecker abstracts the filesystem probe so tests can substitute a
// fake sequence of existence results, matching the original implementation's
// ExistsChecker trait.
type ExistsChecker interface {
	IsFile(path string) bool
}

// osChecker is the production ExistsChecker, backed by os.Stat.
type osChecker struct{}

func (osChecker) IsFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

// Resolve discovers the ordered sequence of existing segment paths starting
// from protoPath, probing the real filesystem.
func Resolve(protoPath string) ([]string, error) {
	return ResolveWith(protoPath, osChecker{})
}

// ResolveWith is Resolve parameterized over the existence checker, for
// testing without touching disk.
func ResolveWith(protoPath string, checker ExistsChecker) ([]string, error) {
	ext := strings.TrimPrefix(filepath.Ext(protoPath), ".")
	if ext == "" || !validPrototypeExt(ext) {
		return nil, &errs.UnrecognizedExtension{Path: protoPath}
	}

	base := strings.TrimSuffix(protoPath, filepath.Ext(protoPath))
	startIdx := indexOfExt(ext, strings.ToUpper(ext)[0])

	var out []string
	for _, candidate := range extensions(strings.ToUpper(ext)[0])[startIdx:] {
		path, err := probeOne(base, candidate, checker)
		if err != nil {
			return nil, err
		}
		if path == "" {
			break
		}
		out = append(out, path)
	}
	log.WithField("prototype", protoPath).WithField("count", len(out)).Debug("resolved segment sequence")
	return out, nil
}

// indexOfExt finds the position of ext (case-insensitive) within the full
// extension sequence generated from the same starting letter, so resolution
// can begin exactly at the prototype's own position rather than at X01.
func indexOfExt(ext string, start byte) int {
	upper := strings.ToUpper(ext)
	for i, candidate := range extensions(start) {
		if candidate == upper {
			return i
		}
	}
	return 0
}

// probeOne checks both the upper- and lower-case forms of base+"."+ext,
// returning the single path that exists, "" if neither exists, or
// DuplicateSegmentFile if both do.
func probeOne(base, ext string, checker ExistsChecker) (string, error) {
	upperPath := base + "." + strings.ToUpper(ext)
	lowerPath := base + "." + strings.ToLower(ext)

	upperExists := checker.IsFile(upperPath)
	lowerExists := checker.IsFile(lowerPath)

	switch {
	case upperExists && lowerExists:
		return "", &errs.DuplicateSegmentFile{Path: upperPath}
	case upperExists:
		return upperPath, nil
	case lowerExists:
		return lowerPath, nil
	default:
		return "", nil
	}
}
