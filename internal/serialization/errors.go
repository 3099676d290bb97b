package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrOffsetOverlap      = errors.New("entry offsets overlap")
	ErrOutOfBounds        = errors.New("entry extends beyond data section")
	ErrTooManyEntries     = errors.New("too many entries in file")
	ErrInvalidName        = errors.New("invalid entry name")
	ErrDuplicateName      = errors.New("duplicate entry name")
	ErrInvalidGraph       = errors.New("invalid graph description")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
)

// ValidationError describes a malformed header entry. It matches its Kind
// sentinel with errors.Is.
type ValidationError struct {
	Kind    error  // One of the sentinels above
	Name    string // Primary entry involved
	Name2   string // Secondary entry (overlaps, duplicates)
	Details string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Name2 != "" {
		return fmt.Sprintf("%v: entries %q and %q: %s", e.Kind, e.Name, e.Name2, e.Details)
	}
	if e.Name != "" {
		return fmt.Sprintf("%v: entry %q: %s", e.Kind, e.Name, e.Details)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Details)
}

// Unwrap returns the sentinel.
func (e *ValidationError) Unwrap() error { return e.Kind }
