// Package uploader implements the upload pipeline: read the source, apply
// EXIF auto-rotation, canonicalize to JPEG and write the artifact at its
// hash-derived path.
package uploader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"picstash/internal/filestore"
	"picstash/internal/hashpath"
	"picstash/internal/transform"
)

var (
	// ErrSourceUnreadable wraps failures to read or decode the upload
	// source.
	ErrSourceUnreadable = errors.New("source unreadable")

	// ErrStorageUnavailable wraps directory-creation and write failures.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Service orchestrates upload normalization and storage. It holds no
// per-request state and is safe for concurrent use.
type Service struct {
	store filestore.FileStore
	tr    transform.Transformer
	log   zerolog.Logger
}

func New(store filestore.FileStore, tr transform.Transformer, log zerolog.Logger) *Service {
	return &Service{store: store, tr: tr, log: log}
}

// UploadFile normalizes the image in src and stores it for (id, seq),
// replacing any previous artifact at that slot. Pass hashpath.NoSequence
// for the singular search photo. It returns the relative stored path.
//
// The identifier is validated before any I/O happens, and a failed upload
// leaves no partially written artifact behind. The pipeline never retries;
// cleanup of the source itself is the caller's responsibility.
func (s *Service) UploadFile(ctx context.Context, src Source, id string, seq int) (string, error) {
	prefix, err := hashpath.HashPath(id, "/")
	if err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := readSource(src)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
	}

	// Rotation must run first: the canonicalization short-circuit
	// inspects the original encoding, which rotation preserves for
	// already-upright images.
	rotated, err := s.tr.AutoRotate(data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
	}

	canonical, err := s.tr.CanonicalJPEG(rotated)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
	}

	if err := s.store.MkdirAll(prefix); err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	dest := prefix + "/" + hashpath.FileName(id, seq)
	if err := s.store.Write(dest, bytes.NewReader(canonical)); err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	s.log.Debug().
		Str("guid", id).
		Int("seq", seq).
		Str("path", dest).
		Int("bytes", len(canonical)).
		Bool("reencoded", len(canonical) != len(data)).
		Msg("stored photo")

	return dest, nil
}

// UploadBatch stores the compare photo set for id: srcs[i] becomes
// sequence number i. Uploads run concurrently and the call fails if any
// one of them fails; artifacts already written by successful siblings are
// not rolled back.
func (s *Service) UploadBatch(ctx context.Context, srcs []Source, id string) ([]string, error) {
	if err := hashpath.Validate(id); err != nil {
		return nil, err
	}

	paths := make([]string, len(srcs))
	g, gCtx := errgroup.WithContext(ctx)
	for i, src := range srcs {
		g.Go(func() error {
			p, err := s.UploadFile(gCtx, src, id, i)
			if err != nil {
				return fmt.Errorf("photo %d: %w", i, err)
			}
			paths[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func readSource(src Source) ([]byte, error) {
	r, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("source is empty")
	}
	return data, nil
}
