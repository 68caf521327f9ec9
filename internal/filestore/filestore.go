package filestore

import (
	"errors"
	"io"
)

// ErrNotFound is returned when a requested path has no stored content.
// Callers distinguish it from other I/O failures to map it to a 404.
var ErrNotFound = errors.New("file not found")

// AccessMode selects which permissions Access verifies.
type AccessMode int

const (
	ModeExists AccessMode = 1 << iota
	ModeRead
	ModeWrite
)

// VFSStats reports filesystem capacity for the volume backing a path.
type VFSStats struct {
	BlockSize  uint64
	Blocks     uint64
	BlocksFree uint64
	Files      uint64
	FilesFree  uint64
}

// FileStore is an interface for durable byte storage addressed by relative
// paths. Implementations must be safe for concurrent use.
type FileStore interface {
	// Access checks existence and permissions of path without reading it.
	Access(path string, mode AccessMode) error

	// MkdirAll creates a directory and any missing parents. It is
	// idempotent: an existing directory is not an error.
	MkdirAll(path string) error

	// OpenRead returns a reader over the content at path.
	// A missing file is reported as ErrNotFound.
	OpenRead(path string) (io.ReadCloser, error)

	// Write durably replaces the content at path with the bytes read
	// from r. Readers never observe a partially written file: the old
	// content stays visible until the new content is complete.
	Write(path string, r io.Reader) error

	// ReadDir lists entry names in a directory. Order is not significant.
	ReadDir(path string) ([]string, error)

	// StatVFS reports capacity statistics for the volume backing path.
	StatVFS(path string) (VFSStats, error)
}
