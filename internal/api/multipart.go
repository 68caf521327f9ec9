package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/h2non/filetype"

	"picstash/internal/uploader"
)

// multipart bodies up to this size stay in memory; larger parts are
// spooled to temp files by net/http and reach the pipeline as file paths.
const multipartMemoryLimit = 4 << 20

// uploadError carries an envelope code for a rejected part.
type uploadError struct {
	status  int
	code    string
	message string
}

func (e *uploadError) Error() string { return e.message }

// sourcesFromRequest parses the multipart body and turns every part of the
// named field into an upload Source: in-memory parts become buffers,
// disk-spooled parts stay on disk and are referenced by path. The caller
// must arrange for r.MultipartForm.RemoveAll once the sources are consumed.
func sourcesFromRequest(r *http.Request, field string, maxFileSize int64) ([]uploader.Source, error) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		return nil, &uploadError{
			status:  http.StatusBadRequest,
			code:    CodeNoFiles,
			message: fmt.Sprintf("failed to parse multipart body: %v", err),
		}
	}

	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, &uploadError{
			status:  http.StatusBadRequest,
			code:    CodeNoFiles,
			message: "No files found in the request",
		}
	}

	headers := r.MultipartForm.File[field]
	sources := make([]uploader.Source, 0, len(headers))
	for _, fh := range headers {
		src, err := sourceFromPart(fh, maxFileSize)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func sourceFromPart(fh *multipart.FileHeader, maxFileSize int64) (uploader.Source, error) {
	if fh.Size == 0 {
		return nil, &uploadError{
			status:  http.StatusBadRequest,
			code:    CodeEmptyFile,
			message: "Empty file uploaded",
		}
	}
	if fh.Size > maxFileSize {
		return nil, &uploadError{
			status:  http.StatusBadRequest,
			code:    CodeFileTooLarge,
			message: fmt.Sprintf("File exceeds the %d byte limit", maxFileSize),
		}
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded part: %w", err)
	}
	defer func() { _ = f.Close() }()

	// Sniff the real content; the declared Content-Type is not trusted.
	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("failed to read uploaded part: %w", err)
	}
	head = head[:n]

	if !filetype.IsImage(head) {
		return nil, &uploadError{
			status:  http.StatusBadRequest,
			code:    CodeUnsupportedFile,
			message: "Unsupported file type",
		}
	}

	if osf, ok := f.(*os.File); ok {
		return uploader.FileSource(osf.Name()), nil
	}

	rest, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded part: %w", err)
	}
	return uploader.BufferSource(append(head, rest...)), nil
}
