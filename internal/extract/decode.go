package extract

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/mind-engage/mindengage-sheetgrader/internal/exam"
	"github.com/mind-engage/mindengage-sheetgrader/internal/grading"
)

// DecodeKey reads an answer key as produced by an extractor or posted by a
// client. The records may be the top-level array or sit under "answers" or
// "questions". Field-name variants (correct_option, correct, marks) are
// accepted.
func DecodeKey(data []byte) (exam.AnswerKey, error) {
	root, records, err := recordsOf(data, "answers", "questions")
	if err != nil {
		return exam.AnswerKey{}, err
	}
	k := exam.AnswerKey{
		ID:    root.Get("id").String(),
		Title: root.Get("title").String(),
	}
	for i, rec := range records {
		qn, err := questionNumber(rec.Get("question_number"))
		if err != nil {
			return exam.AnswerKey{}, fmt.Errorf("record %d: %w", i, err)
		}
		item := grading.KeyItem{QuestionNumber: qn, MarksText: strings.TrimSpace(rec.Get("marks_text").String())}
		item.CorrectOptions, err = options(rec, "correct_options", "correct_option", "correct")
		if err != nil {
			return exam.AnswerKey{}, fmt.Errorf("question %d: %w", qn, err)
		}
		switch m := rec.Get("marks"); m.Type {
		case gjson.Number:
			v := m.Float()
			if v < 0 || math.IsInf(v, 0) {
				return exam.AnswerKey{}, fmt.Errorf("%w: question %d has negative marks", grading.ErrInvalidInput, qn)
			}
			item.Marks = &v
		case gjson.String:
			if item.MarksText == "" {
				item.MarksText = strings.TrimSpace(m.Str)
			}
		}
		k.Questions = append(k.Questions, item)
	}
	return k, nil
}

// DecodeSheet reads a student's sheet: records at the top level or under
// "answers" or "responses", plus optional roll_number and section.
func DecodeSheet(data []byte) (exam.StudentSheet, error) {
	root, records, err := recordsOf(data, "answers", "responses")
	if err != nil {
		return exam.StudentSheet{}, err
	}
	sheet := exam.StudentSheet{
		RollNumber: scalar(root.Get("roll_number")),
		Section:    scalar(root.Get("section")),
		Answers:    make([]grading.Response, 0, len(records)),
	}
	for i, rec := range records {
		qn, err := questionNumber(rec.Get("question_number"))
		if err != nil {
			return exam.StudentSheet{}, fmt.Errorf("record %d: %w", i, err)
		}
		sel, err := options(rec, "selected_options", "selected_option")
		if err != nil {
			return exam.StudentSheet{}, fmt.Errorf("question %d: %w", qn, err)
		}
		sheet.Answers = append(sheet.Answers, grading.Response{QuestionNumber: qn, SelectedOptions: sel})
	}
	return sheet, nil
}

func recordsOf(data []byte, fields ...string) (gjson.Result, []gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, nil, fmt.Errorf("%w: malformed JSON", grading.ErrInvalidInput)
	}
	root := gjson.ParseBytes(data)
	if root.IsArray() {
		return gjson.Result{}, root.Array(), nil
	}
	if !root.IsObject() {
		return gjson.Result{}, nil, fmt.Errorf("%w: expected an object or an array of records", grading.ErrInvalidInput)
	}
	for _, f := range fields {
		v := root.Get(f)
		if !v.Exists() {
			continue
		}
		if !v.IsArray() {
			return gjson.Result{}, nil, fmt.Errorf("%w: %q must be an array", grading.ErrInvalidInput, f)
		}
		return root, v.Array(), nil
	}
	return gjson.Result{}, nil, fmt.Errorf("%w: no %s field", grading.ErrInvalidInput, strings.Join(fields, " or "))
}

// questionNumber accepts a positive integer, as a number or a digit string.
func questionNumber(v gjson.Result) (int, error) {
	switch v.Type {
	case gjson.Number:
		f := v.Float()
		if f >= 1 && f == math.Trunc(f) && f <= math.MaxInt32 {
			return int(f), nil
		}
	case gjson.String:
		s := strings.TrimLeft(strings.TrimSpace(v.Str), "Qq")
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n, nil
		}
	}
	if !v.Exists() {
		return 0, fmt.Errorf("%w: question_number is missing", grading.ErrInvalidInput)
	}
	return 0, fmt.Errorf("%w: question_number %s is not a positive integer", grading.ErrInvalidInput, v.Raw)
}

// options reads the plural field (an array) or, failing that, one of the
// singular variants, which may be an array or a delimited string.
func options(rec gjson.Result, plural string, singular ...string) ([]string, error) {
	if v := rec.Get(plural); v.Exists() && v.Type != gjson.Null {
		if !v.IsArray() {
			return nil, fmt.Errorf("%w: %s must be an array", grading.ErrInvalidInput, plural)
		}
		return stringsOf(v), nil
	}
	for _, f := range singular {
		v := rec.Get(f)
		switch {
		case v.IsArray():
			return stringsOf(v), nil
		case v.Type == gjson.String:
			return grading.SplitOptions(v.Str), nil
		case v.Type == gjson.Number:
			return []string{v.Raw}, nil
		}
	}
	return nil, nil
}

func stringsOf(v gjson.Result) []string {
	arr := v.Array()
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		if s := scalar(e); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// scalar renders strings and numbers as text; null and structures yield "".
func scalar(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return strings.TrimSpace(v.Str)
	case gjson.Number:
		return v.Raw
	}
	return ""
}
