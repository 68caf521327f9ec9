package filestore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// DiskStore implements FileStore on the local filesystem, rooted at a base
// directory. All paths passed to its methods are relative to the root.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create root directory: %w", err)
	}
	return &DiskStore{root: root}, nil
}

// Root returns the base directory of the store.
func (s *DiskStore) Root() string {
	return s.root
}

func (s *DiskStore) abs(path string) string {
	return filepath.Join(s.root, path)
}

func (s *DiskStore) Access(path string, mode AccessMode) error {
	var m uint32 // F_OK
	if mode&ModeRead != 0 {
		m |= unix.R_OK
	}
	if mode&ModeWrite != 0 {
		m |= unix.W_OK
	}
	if err := unix.Access(s.abs(path), m); err != nil {
		return fmt.Errorf("not accessible %s: %w", path, err)
	}
	return nil
}

func (s *DiskStore) MkdirAll(path string) error {
	if err := os.MkdirAll(s.abs(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

func (s *DiskStore) OpenRead(path string) (io.ReadCloser, error) {
	f, err := os.Open(s.abs(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	return f, nil
}

func (s *DiskStore) Write(path string, r io.Reader) error {
	abs := s.abs(path)
	dir := filepath.Dir(abs)

	// Write to a temporary file in the destination directory, then
	// rename over the target. Readers see either the previous complete
	// artifact or the new one, never a torn write.
	tmp, err := os.CreateTemp(dir, "upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name()) // Clean up if rename fails
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), abs); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}

func (s *DiskStore) ReadDir(path string) ([]string, error) {
	entries, err := os.ReadDir(s.abs(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (s *DiskStore) StatVFS(path string) (VFSStats, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(s.abs(path), &st); err != nil {
		return VFSStats{}, fmt.Errorf("statfs failed for %s: %w", path, err)
	}
	return VFSStats{
		BlockSize:  uint64(st.Bsize),
		Blocks:     st.Blocks,
		BlocksFree: st.Bavail,
		Files:      st.Files,
		FilesFree:  st.Ffree,
	}, nil
}
