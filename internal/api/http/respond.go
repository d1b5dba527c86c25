package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mind-engage/mindengage-sheetgrader/internal/exam"
	"github.com/mind-engage/mindengage-sheetgrader/internal/grading"
	"github.com/mind-engage/mindengage-sheetgrader/internal/storage"
)

const (
	maxJSONBody = 1 << 20  // 1 MiB
	maxUpload   = 16 << 20 // 16 MiB
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, grading.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, exam.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, exam.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(w http.ResponseWriter, what string, err error) {
	http.Error(w, what+": "+err.Error(), statusFor(err))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
}
