package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/mindengage-sheetgrader/internal/auth/middleware"
	"github.com/mind-engage/mindengage-sheetgrader/internal/exam"
	"github.com/mind-engage/mindengage-sheetgrader/internal/extract"
	"github.com/mind-engage/mindengage-sheetgrader/internal/grading"
	"github.com/mind-engage/mindengage-sheetgrader/internal/storage"
)

// POST /keys/{keyID}/scans  multipart: file=<image of the student's sheet>
// The scan is kept in the blob store and referenced by the evaluation.
func ScanSheetHandler(svc *exam.Service, ext extract.Extractor, bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ext == nil {
			http.Error(w, extract.ErrNoExtractor.Error(), http.StatusNotImplemented)
			return
		}
		keyID := strings.TrimSpace(chi.URLParam(r, "keyID"))
		if _, err := svc.Store().GetKey(r.Context(), keyID); err != nil {
			writeErr(w, "get key", err)
			return
		}
		img, filename, err := readUpload(w, r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		scanKey, err := bs.Put(storage.ScanKey(keyID, filename), bytes.NewReader(img.Data))
		if err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		sheet, err := ext.ExtractSheet(r.Context(), img)
		if err != nil {
			log.Printf("extract sheet key=%s scan=%s engine=%s by=%s: %v", keyID, scanKey, ext.Name(), auth.SubjectFromContext(r.Context()), err)
			_ = bs.Delete(scanKey)
			http.Error(w, "extract sheet: "+err.Error(), extractStatus(err))
			return
		}
		if roll := strings.TrimSpace(r.FormValue("roll_number")); roll != "" {
			sheet.RollNumber = roll
		}
		if sec := strings.TrimSpace(r.FormValue("section")); sec != "" {
			sheet.Section = sec
		}
		ev, err := svc.Grade(r.Context(), keyID, sheet, scanKey)
		if err != nil {
			_ = bs.Delete(scanKey)
			writeErr(w, "grade", err)
			return
		}
		writeJSON(w, http.StatusCreated, ev)
	}
}

// MountScans serves stored scan images: GET /scans/*
func MountScans(r chi.Router, bs storage.BlobStore) {
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "*")        // everything after /scans/
		key = strings.TrimPrefix(key, "/") // normalize
		rc, err := bs.Get("scans/" + key)
		if err != nil {
			writeErr(w, "get scan", err)
			return
		}
		defer rc.Close()
		head := make([]byte, 512)
		n, _ := io.ReadFull(rc, head)
		w.Header().Set("Content-Type", http.DetectContentType(head[:n]))
		_, _ = w.Write(head[:n])
		_, _ = io.Copy(w, rc)
	})
}

func readUpload(w http.ResponseWriter, r *http.Request) (extract.Image, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		return extract.Image{}, "", fmt.Errorf("multipart: %w", err)
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return extract.Image{}, "", errors.New("file required")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return extract.Image{}, "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return extract.Image{}, "", errors.New("empty file")
	}
	mt := hdr.Header.Get("Content-Type")
	if mt == "application/octet-stream" {
		mt = "" // sniffed by the extractor
	}
	return extract.Image{Data: data, MIMEType: mt}, hdr.Filename, nil
}

// extractStatus reports unusable extractor output as 422 and engine failures as 502.
func extractStatus(err error) int {
	if errors.Is(err, grading.ErrInvalidInput) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}
