// Package report renders graded sheets as text tables.
package report

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/mind-engage/mindengage-sheetgrader/internal/exam"
	"github.com/mind-engage/mindengage-sheetgrader/internal/grading"
)

// Render writes one row per question followed by the sheet totals.
func Render(w io.Writer, title string, res grading.SheetResult) error {
	if w == nil {
		w = os.Stdout
	}
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{
				PerColumn: []tw.Align{tw.AlignRight, tw.AlignLeft, tw.AlignLeft, tw.AlignLeft, tw.AlignRight, tw.AlignRight, tw.AlignLeft},
			},
		},
	}))
	table.Header("Q", "Selected", "Correct", "Mode", "Awarded", "Max", "Explanation")
	for _, q := range res.Order {
		d := res.Details[q]
		if err := table.Append(
			strconv.Itoa(q),
			joinOrDash(d.Selected),
			joinOrDash(d.Correct),
			string(d.MarkingMode),
			marks(d.MarksAwarded),
			marks(d.MaxMarks),
			d.Explanation,
		); err != nil {
			return err
		}
	}
	table.Footer("", fmt.Sprintf("attempted %d/%d", res.Attempted, res.Questions), "", "Total",
		marks(res.Total), marks(res.MaxTotal), fmt.Sprintf("%.2f%%", res.Percentage()))
	return table.Render()
}

// RenderEvaluation adds the student's identity to the title line.
func RenderEvaluation(w io.Writer, k exam.AnswerKey, ev exam.Evaluation) error {
	title := "Key " + k.ID
	if k.Title != "" {
		title = k.Title + " (" + k.ID + ")"
	}
	if ev.RollNumber != "" {
		title += " | roll " + ev.RollNumber
	}
	if ev.Section != "" {
		title += " | section " + ev.Section
	}
	return Render(w, title, ev.Result)
}

func joinOrDash(opts []string) string {
	if len(opts) == 0 {
		return "-"
	}
	return strings.Join(opts, ",")
}

func marks(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
