// Package extract turns scans and loosely shaped JSON into answer keys and
// student sheets. Nothing here scores; the records it yields go to grading.
package extract

import (
	"context"
	"errors"
	"net/http"

	"github.com/mind-engage/mindengage-sheetgrader/internal/exam"
)

// ErrNoExtractor is returned when scan uploads arrive but OCR is disabled.
var ErrNoExtractor = errors.New("no OCR engine configured")

// Image is an uploaded scan.
type Image struct {
	Data     []byte
	MIMEType string // sniffed from Data when empty
}

func (im Image) mime() string {
	if im.MIMEType != "" {
		return im.MIMEType
	}
	if len(im.Data) > 0 {
		return http.DetectContentType(im.Data)
	}
	return "image/jpeg"
}

// Extractor reads answer keys and student sheets off scans.
type Extractor interface {
	Name() string
	ExtractKey(ctx context.Context, img Image) (exam.AnswerKey, error)
	ExtractSheet(ctx context.Context, img Image) (exam.StudentSheet, error)
}
