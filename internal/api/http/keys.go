package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-sheetgrader/internal/exam"
	"github.com/mind-engage/mindengage-sheetgrader/internal/extract"
)

// POST /keys  body: answer key JSON (records under "answers"/"questions" or a bare array)
func CreateKeyHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(w, r)
		if err != nil {
			http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
			return
		}
		k, err := extract.DecodeKey(body)
		if err != nil {
			writeErr(w, "decode key", err)
			return
		}
		k, err = svc.StoreKey(r.Context(), k)
		if err != nil {
			writeErr(w, "store key", err)
			return
		}
		writeJSON(w, http.StatusCreated, k)
	}
}

// GET /keys?q=&limit=&offset=
func ListKeysHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))
		keys, err := svc.Store().ListKeys(r.Context(), exam.ListOpts{Q: q.Get("q"), Limit: limit, Offset: offset})
		if err != nil {
			writeErr(w, "list keys", err)
			return
		}
		out := make([]exam.KeySummary, 0, len(keys))
		for _, k := range keys {
			out = append(out, k.Summary(svc.Evaluator()))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GET /keys/{keyID}
func GetKeyHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keyID := strings.TrimSpace(chi.URLParam(r, "keyID"))
		k, err := svc.Store().GetKey(r.Context(), keyID)
		if err != nil {
			writeErr(w, "get key", err)
			return
		}
		writeJSON(w, http.StatusOK, k)
	}
}

// POST /keys/scan  multipart: file=<image>, title=<optional>
func ScanKeyHandler(svc *exam.Service, ext extract.Extractor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ext == nil {
			http.Error(w, extract.ErrNoExtractor.Error(), http.StatusNotImplemented)
			return
		}
		img, _, err := readUpload(w, r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		k, err := ext.ExtractKey(r.Context(), img)
		if err != nil {
			http.Error(w, "extract key: "+err.Error(), extractStatus(err))
			return
		}
		if t := strings.TrimSpace(r.FormValue("title")); t != "" {
			k.Title = t
		}
		k, err = svc.StoreKey(r.Context(), k)
		if err != nil {
			writeErr(w, "store key", err)
			return
		}
		writeJSON(w, http.StatusCreated, k)
	}
}
