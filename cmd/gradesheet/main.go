// Command gradesheet grades a student's sheet against an answer key, both
// given as JSON files, and prints the per-question table.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/peterbourgon/ff/v3"

	"github.com/mind-engage/mindengage-sheetgrader/internal/extract"
	"github.com/mind-engage/mindengage-sheetgrader/internal/grading"
	"github.com/mind-engage/mindengage-sheetgrader/internal/report"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "gradesheet: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("gradesheet", flag.ContinueOnError)
	var (
		_            = fs.String("config", "", "config file (optional), json format")
		keyPath      = fs.String("key", "", "answer key JSON file")
		sheetPath    = fs.String("sheet", "", "student sheet JSON file")
		defaultMarks = fs.Float64("default-marks", grading.DefaultMarks, "marks for a question whose marks text cannot be read")
		lenient      = fs.Bool("lenient", false, "half credit when a single-answer question is answered with the correct option plus others")
		asJSON       = fs.Bool("json", false, "print the result as JSON instead of a table")
	)
	if err := ff.Parse(fs, args,
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.JSONParser),
		ff.WithEnvVarPrefix("GRADESHEET"),
	); err != nil {
		return err
	}
	if *keyPath == "" || *sheetPath == "" {
		return errors.New("both -key and -sheet are required")
	}

	raw, err := os.ReadFile(*keyPath)
	if err != nil {
		return err
	}
	k, err := extract.DecodeKey(raw)
	if err != nil {
		return fmt.Errorf("key %s: %w", *keyPath, err)
	}
	raw, err = os.ReadFile(*sheetPath)
	if err != nil {
		return err
	}
	sheet, err := extract.DecodeSheet(raw)
	if err != nil {
		return fmt.Errorf("sheet %s: %w", *sheetPath, err)
	}

	ev := grading.NewEvaluator(grading.WithDefaultMarks(*defaultMarks), grading.WithLenientSingleAnswer(*lenient))
	res, err := ev.Evaluate(k.Questions, sheet.Answers)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"roll_number": sheet.RollNumber,
			"section":     sheet.Section,
			"result":      res,
			"percentage":  res.Percentage(),
		})
	}
	title := k.Title
	if sheet.RollNumber != "" {
		title += " / roll " + sheet.RollNumber
	}
	return report.Render(stdout, title, res)
}
