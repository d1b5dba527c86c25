package extract

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/mind-engage/mindengage-sheetgrader/internal/exam"
)

// Tesseract runs the tesseract binary and parses its plain-text output with
// ParseKeyText and ParseSheetText. It suits typed or printed sheets; pen marks
// need the Gemini extractor.
type Tesseract struct {
	Lang    string
	Timeout time.Duration
	Bin     string // defaults to "tesseract" on PATH
}

func NewTesseract(lang string) *Tesseract {
	if lang == "" {
		lang = "eng"
	}
	return &Tesseract{Lang: lang, Timeout: 20 * time.Second, Bin: "tesseract"}
}

func (t *Tesseract) Name() string { return "tesseract" }

func (t *Tesseract) ExtractKey(ctx context.Context, img Image) (exam.AnswerKey, error) {
	text, err := t.Text(ctx, bytes.NewReader(img.Data))
	if err != nil {
		return exam.AnswerKey{}, err
	}
	return ParseKeyText(text)
}

func (t *Tesseract) ExtractSheet(ctx context.Context, img Image) (exam.StudentSheet, error) {
	text, err := t.Text(ctx, bytes.NewReader(img.Data))
	if err != nil {
		return exam.StudentSheet{}, err
	}
	return ParseSheetText(text)
}

// Text returns the raw OCR text of the image read from r.
func (t *Tesseract) Text(ctx context.Context, r io.Reader) (string, error) {
	f, err := os.CreateTemp("", "scan-*.img")
	if err != nil {
		return "", errors.Wrap(err, "tesseract temp file")
	}
	defer func() { f.Close(); os.Remove(f.Name()) }()
	if _, err := io.Copy(f, r); err != nil {
		return "", errors.Wrap(err, "tesseract temp file")
	}
	return t.exec(ctx, f.Name())
}

func (t *Tesseract) exec(ctx context.Context, inPath string) (string, error) {
	bin := t.Bin
	if bin == "" {
		bin = "tesseract"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return "", errors.Errorf("%s not found in PATH", bin)
	}
	args := []string{inPath, "stdout"}
	if t.Lang != "" {
		args = append(args, "-l", t.Lang)
	}
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", errors.Wrapf(err, "tesseract: %s", strings.TrimSpace(stderr.String()))
	}
	return out.String(), nil
}
