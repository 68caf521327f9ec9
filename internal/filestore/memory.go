package filestore

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
)

// MemStore implements FileStore entirely in memory. It is the test double
// used across packages; paths use "/" as separator.
type MemStore struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool

	// FailWrites, when set, makes every Write fail. Used to exercise
	// storage error paths.
	FailWrites bool
}

func NewMemStore() *MemStore {
	return &MemStore{
		files: make(map[string][]byte),
		dirs:  map[string]bool{".": true},
	}
}

func (s *MemStore) Access(p string, _ AccessMode) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p = path.Clean(p)
	if _, ok := s.files[p]; ok {
		return nil
	}
	if s.dirs[p] {
		return nil
	}
	return fmt.Errorf("not accessible %s: %w", p, ErrNotFound)
}

func (s *MemStore) MkdirAll(p string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p = path.Clean(p)
	for p != "." && p != "/" {
		s.dirs[p] = true
		p = path.Dir(p)
	}
	return nil
}

func (s *MemStore) OpenRead(p string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[path.Clean(p)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemStore) Write(p string, r io.Reader) error {
	if s.FailWrites {
		return fmt.Errorf("write %s: storage failure injected", p)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path.Clean(p)] = data
	return nil
}

func (s *MemStore) ReadDir(p string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p = path.Clean(p)
	if !s.dirs[p] {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	var names []string
	prefix := p + "/"
	for f := range s.files {
		if strings.HasPrefix(f, prefix) && !strings.Contains(f[len(prefix):], "/") {
			names = append(names, f[len(prefix):])
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemStore) StatVFS(string) (VFSStats, error) {
	return VFSStats{
		BlockSize:  4096,
		Blocks:     1 << 20,
		BlocksFree: 1 << 19,
		Files:      1 << 20,
		FilesFree:  1 << 19,
	}, nil
}

// Contents returns a copy of the stored bytes at p, or nil if absent.
func (s *MemStore) Contents(p string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[path.Clean(p)]
	if !ok {
		return nil
	}
	return bytes.Clone(data)
}

// Paths returns all stored file paths in sorted order.
func (s *MemStore) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.files))
	for f := range s.files {
		paths = append(paths, f)
	}
	sort.Strings(paths)
	return paths
}
