package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/hlog"
)

// ErrorResponse is the JSON envelope returned for every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes shared with the API consumers.
const (
	CodeNoFiles         = "NO_FILES"
	CodeTooFewFiles     = "TOO_FEW_FILES"
	CodeTooManyFiles    = "UPLOAD_LIMIT_FILE_COUNT"
	CodeUnsupportedFile = "UNSUPPORTED_FILE"
	CodeEmptyFile       = "EMPTY_FILE"
	CodeFileTooLarge    = "UPLOAD_LIMIT_FILE_SIZE"
	CodeInvalidGUID     = "INVALID_GUID"
	CodeBadNumber       = "BAD_NUMBER"
	CodeNotFound        = "NOT_FOUND"
	CodeInternalError   = "INTERNAL_SERVER_ERROR"
)

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, r, status, ErrorResponse{
		Success: false,
		Status:  status,
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("failed to encode response")
	}
}
