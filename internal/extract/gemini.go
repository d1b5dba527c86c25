package extract

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/mind-engage/mindengage-sheetgrader/internal/exam"
)

const DefaultGeminiModel = "gemini-1.5-flash"

const keyInstruction = `Read this MCQ answer key. For every question report the options marked as correct
and the marks annotation exactly as written (e.g. "Mark: 2", "a=2, d=3").
Return JSON: {"title": "", "answers": [{"question_number": 1, "correct_options": ["B","D"], "marks_text": "Mark: 2"}]}`

const sheetInstruction = `Read this student's MCQ answer sheet. For every question report all options the
student marked, and the roll number and section if visible.
Return JSON: {"roll_number": "", "section": "", "answers": [{"question_number": 1, "selected_options": ["B","D"]}]}`

// generateFunc sends one prompt plus image and returns the model's text.
type generateFunc func(ctx context.Context, instruction string, img Image) (string, error)

// Gemini extracts records with a Gemini vision model. Each call makes a
// single request; the response must be valid JSON.
type Gemini struct {
	APIKey string
	Model  string

	generate generateFunc
}

func NewGemini(apiKey, model string) *Gemini {
	g := &Gemini{APIKey: strings.TrimSpace(apiKey), Model: strings.TrimSpace(model)}
	if g.Model == "" {
		g.Model = DefaultGeminiModel
	}
	g.generate = g.callModel
	return g
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) ExtractKey(ctx context.Context, img Image) (exam.AnswerKey, error) {
	txt, err := g.generate(ctx, keyInstruction, img)
	if err != nil {
		return exam.AnswerKey{}, errors.Wrap(err, "gemini key")
	}
	k, err := DecodeKey([]byte(txt))
	return k, errors.Wrap(err, "gemini key")
}

func (g *Gemini) ExtractSheet(ctx context.Context, img Image) (exam.StudentSheet, error) {
	txt, err := g.generate(ctx, sheetInstruction, img)
	if err != nil {
		return exam.StudentSheet{}, errors.Wrap(err, "gemini sheet")
	}
	s, err := DecodeSheet([]byte(txt))
	return s, errors.Wrap(err, "gemini sheet")
}

func (g *Gemini) callModel(ctx context.Context, instruction string, img Image) (string, error) {
	if g.APIKey == "" {
		return "", errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(g.APIKey))
	if err != nil {
		return "", err
	}
	defer cl.Close()

	m := cl.GenerativeModel(g.Model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(instruction)}}

	resp, err := m.GenerateContent(ctx,
		genai.Text("Answer with JSON only."),
		&genai.Blob{MIMEType: img.mime(), Data: img.Data},
	)
	if err != nil {
		return "", err
	}
	txt := strings.TrimSpace(firstText(resp))
	if txt == "" {
		return "", errors.New("empty response")
	}
	return txt, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
