// Package retriever maps identifiers back to stored artifacts.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/c-pro/geche"
	"github.com/rs/zerolog"

	"picstash/internal/filestore"
	"picstash/internal/hashpath"
)

// Service resolves read handles and artifact counts. Counts are cached for
// a short TTL because clients poll the count endpoint while an upload
// batch is in flight.
type Service struct {
	store  filestore.FileStore
	counts geche.Geche[string, int]
	log    zerolog.Logger
}

func New(ctx context.Context, store filestore.FileStore, countTTL time.Duration, log zerolog.Logger) *Service {
	return &Service{
		store:  store,
		counts: geche.NewMapTTLCache[string, int](ctx, countTTL, countTTL),
		log:    log,
	}
}

// GetFile returns a read handle for the artifact stored under (id, seq).
// Pass hashpath.NoSequence for the singular search photo. A missing
// artifact is reported as filestore.ErrNotFound.
func (s *Service) GetFile(id string, seq int) (io.ReadCloser, error) {
	path, err := hashpath.StoredPath(id, seq, "/")
	if err != nil {
		return nil, err
	}
	return s.store.OpenRead(path)
}

// CountFiles reports how many artifacts are stored for id. Only entries
// named exactly "<id>.jpg" or "<id>-<n>.jpg" are counted: the hash bucket
// is shared by every identifier with the same six-character prefix, so
// co-located files for other identifiers must not leak into the count.
func (s *Service) CountFiles(id string) (int, error) {
	if err := hashpath.Validate(id); err != nil {
		return 0, err
	}

	if n, err := s.counts.Get(id); err == nil {
		return n, nil
	}

	prefix, err := hashpath.HashPath(id, "/")
	if err != nil {
		return 0, err
	}

	entries, err := s.store.ReadDir(prefix)
	if err != nil {
		if errors.Is(err, filestore.ErrNotFound) {
			// Bucket directory not created yet: nothing uploaded.
			s.counts.Set(id, 0)
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list bucket for %s: %w", id, err)
	}

	pattern := regexp.MustCompile("^" + regexp.QuoteMeta(id) + `(-\d+)?\.jpg$`)
	n := 0
	for _, name := range entries {
		if pattern.MatchString(name) {
			n++
		}
	}

	s.counts.Set(id, n)
	return n, nil
}
