package extract

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mind-engage/mindengage-sheetgrader/internal/exam"
	"github.com/mind-engage/mindengage-sheetgrader/internal/grading"
)

var (
	questionLine = regexp.MustCompile(`(?i)^\s*(?:q(?:uestion)?\s*)?(\d+)\s*[.):\-]\s*(.*)$`)
	marksSplit   = regexp.MustCompile(`(?i)\bmarks?\b`)
	rollLine     = regexp.MustCompile(`(?i)^\s*roll\b\s*(?:no\.?|number|#)?\s*[:=\-]?\s*(\S+)`)
	sectionLine  = regexp.MustCompile(`(?i)^\s*section\b\s*[:=\-]?\s*(\S+)`)
	titleLine    = regexp.MustCompile(`(?i)^\s*title\s*[:=\-]\s*(.+)$`)
)

// ParseKeyText reads plain OCR text of an answer key, one question per line:
//
//	Title: Physics unit test
//	1. B, D   Mark: 2
//	Q3) A D E  Marks: a=2, d=3, e=1
func ParseKeyText(text string) (exam.AnswerKey, error) {
	var k exam.AnswerKey
	err := scanLines(text, func(line string) {
		if m := titleLine.FindStringSubmatch(line); m != nil && k.Title == "" {
			k.Title = strings.TrimSpace(m[1])
			return
		}
		qn, rest, ok := splitQuestion(line)
		if !ok {
			return
		}
		opts, marks := rest, ""
		if loc := marksSplit.FindStringIndex(rest); loc != nil {
			opts, marks = rest[:loc[0]], strings.TrimSpace(rest[loc[0]:])
		}
		k.Questions = append(k.Questions, grading.KeyItem{
			QuestionNumber: qn,
			CorrectOptions: grading.SplitOptions(opts),
			MarksText:      marks,
		})
	})
	if err != nil {
		return exam.AnswerKey{}, err
	}
	if len(k.Questions) == 0 {
		return exam.AnswerKey{}, fmt.Errorf("%w: no question lines found", grading.ErrInvalidInput)
	}
	return k, nil
}

// ParseSheetText reads plain OCR text of a student's sheet. Besides question
// lines ("2) (b)") it picks up "Roll No: 17" and "Section: B".
func ParseSheetText(text string) (exam.StudentSheet, error) {
	var sheet exam.StudentSheet
	err := scanLines(text, func(line string) {
		if m := rollLine.FindStringSubmatch(line); m != nil && sheet.RollNumber == "" {
			sheet.RollNumber = strings.Trim(m[1], ".,;")
			return
		}
		if m := sectionLine.FindStringSubmatch(line); m != nil && sheet.Section == "" {
			sheet.Section = strings.Trim(m[1], ".,;")
			return
		}
		qn, rest, ok := splitQuestion(line)
		if !ok {
			return
		}
		sheet.Answers = append(sheet.Answers, grading.Response{
			QuestionNumber:  qn,
			SelectedOptions: grading.SplitOptions(rest),
		})
	})
	if err != nil {
		return exam.StudentSheet{}, err
	}
	if len(sheet.Answers) == 0 {
		return exam.StudentSheet{}, fmt.Errorf("%w: no answer lines found", grading.ErrInvalidInput)
	}
	return sheet, nil
}

func splitQuestion(line string) (int, string, bool) {
	m := questionLine.FindStringSubmatch(line)
	if m == nil {
		return 0, "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, "", false
	}
	return n, m[2], true
}

func scanLines(text string, fn func(line string)) error {
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			fn(line)
		}
	}
	return sc.Err()
}
