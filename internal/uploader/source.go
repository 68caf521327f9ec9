package uploader

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Source is an uploaded image origin. The HTTP layer produces either a
// spooled temp file or an in-memory buffer depending on how the multipart
// body was materialized; the pipeline treats both uniformly.
type Source interface {
	// Open returns a reader over the source bytes. Each call returns an
	// independent reader positioned at the start.
	Open() (io.ReadCloser, error)
}

type fileSource struct {
	path string
}

// FileSource wraps a temp file already materialized on disk.
func FileSource(path string) Source {
	return fileSource{path: path}
}

func (s fileSource) Open() (io.ReadCloser, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source %s: %w", s.path, err)
	}
	return f, nil
}

type bufferSource struct {
	data []byte
}

// BufferSource wraps an in-memory multipart body.
func BufferSource(data []byte) Source {
	return bufferSource{data: data}
}

func (s bufferSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}
