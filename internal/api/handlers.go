package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/hlog"

	"picstash/internal/filestore"
	"picstash/internal/hashpath"
	"picstash/internal/retriever"
	"picstash/internal/uploader"
)

// Stored photos never change at a given path, so clients may cache them
// for a year.
const cacheMaxAge = 31556952

type API struct {
	uploads     *uploader.Service
	photos      *retriever.Service
	maxFileSize int64
	minCompare  int
	maxCompare  int
}

func New(uploads *uploader.Service, photos *retriever.Service, maxFileSize int64, minCompare, maxCompare int) *API {
	return &API{
		uploads:     uploads,
		photos:      photos,
		maxFileSize: maxFileSize,
		minCompare:  minCompare,
		maxCompare:  maxCompare,
	}
}

type uploadResponse struct {
	Success bool `json:"success"`
}

type countResponse struct {
	Success bool `json:"success"`
	Files   int  `json:"files"`
}

// SearchUploadHandler stores the single search photo for a GUID.
func (a *API) SearchUploadHandler(w http.ResponseWriter, r *http.Request) {
	defer cleanupMultipart(r)

	guid := r.PathValue("guid")
	sources, err := sourcesFromRequest(r, "photo", a.maxFileSize)
	if err != nil {
		a.respondUploadError(w, r, err)
		return
	}
	if len(sources) > 1 {
		writeError(w, r, http.StatusBadRequest, CodeTooManyFiles, "Too many files uploaded")
		return
	}

	if _, err := a.uploads.UploadFile(r.Context(), sources[0], guid, hashpath.NoSequence); err != nil {
		a.respondUploadError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, uploadResponse{Success: true})
}

// CompareUploadHandler stores a numbered photo set for a GUID.
func (a *API) CompareUploadHandler(w http.ResponseWriter, r *http.Request) {
	defer cleanupMultipart(r)

	guid := r.PathValue("guid")
	sources, err := sourcesFromRequest(r, "photos", a.maxFileSize)
	if err != nil {
		a.respondUploadError(w, r, err)
		return
	}
	if len(sources) < a.minCompare {
		writeError(w, r, http.StatusBadRequest, CodeTooFewFiles, "Too few files uploaded")
		return
	}
	if len(sources) > a.maxCompare {
		writeError(w, r, http.StatusBadRequest, CodeTooManyFiles, "Too many files uploaded")
		return
	}

	if _, err := a.uploads.UploadBatch(r.Context(), sources, guid); err != nil {
		a.respondUploadError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, uploadResponse{Success: true})
}

// GetSearchHandler serves the search photo for a GUID.
func (a *API) GetSearchHandler(w http.ResponseWriter, r *http.Request) {
	a.servePhoto(w, r, r.PathValue("guid"), hashpath.NoSequence)
}

// GetCompareHandler serves one photo of a compare set.
func (a *API) GetCompareHandler(w http.ResponseWriter, r *http.Request) {
	seq, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || seq < 0 || seq >= a.maxCompare {
		writeError(w, r, http.StatusBadRequest, CodeBadNumber, "Invalid photo number")
		return
	}
	a.servePhoto(w, r, r.PathValue("guid"), seq)
}

// CountHandler reports how many photos are stored for a GUID.
func (a *API) CountHandler(w http.ResponseWriter, r *http.Request) {
	guid := r.PathValue("guid")

	n, err := a.photos.CountFiles(guid)
	if err != nil {
		if errors.Is(err, hashpath.ErrInvalidIdentifier) {
			writeError(w, r, http.StatusBadRequest, CodeInvalidGUID, "Invalid GUID")
			return
		}
		hlog.FromRequest(r).Error().Err(err).Str("guid", guid).Msg("count failed")
		writeError(w, r, http.StatusInternalServerError, CodeInternalError, "Internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, countResponse{Success: true, Files: n})
}

func (a *API) servePhoto(w http.ResponseWriter, r *http.Request, guid string, seq int) {
	f, err := a.photos.GetFile(guid, seq)
	if err != nil {
		switch {
		case errors.Is(err, hashpath.ErrInvalidIdentifier):
			writeError(w, r, http.StatusBadRequest, CodeInvalidGUID, "Invalid GUID")
		case errors.Is(err, filestore.ErrNotFound):
			writeError(w, r, http.StatusNotFound, CodeNotFound, "File not found")
		default:
			hlog.FromRequest(r).Error().Err(err).Str("guid", guid).Msg("retrieval failed")
			writeError(w, r, http.StatusInternalServerError, CodeInternalError, "Internal server error")
		}
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(cacheMaxAge))
	if _, err := io.Copy(w, f); err != nil {
		// Headers are gone already; all we can do is log.
		hlog.FromRequest(r).Error().Err(err).Str("guid", guid).Msg("failed to stream photo")
	}
}

func (a *API) respondUploadError(w http.ResponseWriter, r *http.Request, err error) {
	var ue *uploadError
	switch {
	case errors.As(err, &ue):
		writeError(w, r, ue.status, ue.code, ue.message)
	case errors.Is(err, hashpath.ErrInvalidIdentifier):
		writeError(w, r, http.StatusBadRequest, CodeInvalidGUID, "Invalid GUID")
	case errors.Is(err, uploader.ErrSourceUnreadable):
		writeError(w, r, http.StatusBadRequest, CodeUnsupportedFile, "Unsupported file type")
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("upload failed")
		writeError(w, r, http.StatusInternalServerError, CodeInternalError, "Internal server error")
	}
}

// cleanupMultipart removes spooled temp files once the request is done,
// whether or not the upload succeeded.
func cleanupMultipart(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}
