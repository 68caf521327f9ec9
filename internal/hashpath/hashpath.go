// Package hashpath derives storage paths from photo identifiers.
//
// An identifier is bucketed by its first six hex characters into three
// two-character directory levels, bounding fan-out to 65536 leaf
// directories regardless of how many photos are stored.
package hashpath

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// ErrInvalidIdentifier is returned for identifiers that are not in the
// canonical 8-4-4-4-12 hyphenated UUID form.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// NoSequence marks a single ("search") photo that carries no sequence suffix.
const NoSequence = -1

const (
	canonicalLen = 36
	ext          = ".jpg"
)

// Validate checks that id is a canonically formatted UUID. uuid.Parse alone
// is too lenient (it accepts braced, URN and compact forms), so the 36-char
// hyphenated layout is required first.
func Validate(id string) error {
	if len(id) != canonicalLen {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}
	return nil
}

// HashPath returns the bucket prefix for id: its first six hex characters
// split into three two-character segments joined by sep. It performs no I/O.
func HashPath(id, sep string) (string, error) {
	if err := Validate(id); err != nil {
		return "", err
	}
	return id[0:2] + sep + id[2:4] + sep + id[4:6], nil
}

// FileName returns the artifact file name for id: "<id>.jpg", or
// "<id>-<seq>.jpg" when seq is not NoSequence.
func FileName(id string, seq int) string {
	if seq == NoSequence {
		return id + ext
	}
	return fmt.Sprintf("%s-%d%s", id, seq, ext)
}

// StoredPath returns the full relative path for (id, seq): the hash prefix
// joined with the file name.
func StoredPath(id string, seq int, sep string) (string, error) {
	prefix, err := HashPath(id, sep)
	if err != nil {
		return "", err
	}
	return prefix + sep + FileName(id, seq), nil
}

// Separator is the platform path separator as a string, the default
// separator for on-disk layouts.
var Separator = string(os.PathSeparator)
