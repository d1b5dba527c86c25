package grading_test

import (
	"strings"
	"testing"

	"github.com/mind-engage/mindengage-sheetgrader/internal/grading"
)

func TestScoreScenarios(t *testing.T) {
	cases := []struct {
		name    string
		correct []string
		marks   string
		student []string
		want    float64
	}{
		{"A full equal", []string{"B", "D"}, "Mark: 2", []string{"B", "D"}, 2},
		{"B wrong option", []string{"C"}, "Mark: 3", []string{"A", "C"}, 0},
		{"C partial weightage", []string{"A", "D", "E"}, "Mark: a=2, d=3, e=1", []string{"D", "E"}, 4},
		{"D full weightage", []string{"B", "D"}, "Mark: b=2, d=3", []string{"B", "D"}, 5},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res := grading.Score(c.student, c.correct, grading.ParseScheme(c.marks))
			if res.MarksAwarded != c.want {
				t.Fatalf("MarksAwarded = %v; want %v (%s)", res.MarksAwarded, c.want, res.Explanation)
			}
			if res.IsFullyCorrect && res.IsPartiallyCorrect {
				t.Fatalf("fully and partially correct at once")
			}
		})
	}
}

func TestScoreStrictPenalty(t *testing.T) {
	schemes := []grading.Scheme{
		grading.Equal(4),
		grading.Weightage(map[string]float64{"A": 2, "B": 2, "C": 9}),
	}
	for _, s := range schemes {
		res := grading.Score([]string{"A", "B", "C"}, []string{"A", "B"}, s)
		if res.MarksAwarded != 0 || !res.HasWrongOptions {
			t.Fatalf("%s: got %v wrong=%v; want 0 with wrong options", s.Mode, res.MarksAwarded, res.HasWrongOptions)
		}
		if len(res.Wrong) != 1 || res.Wrong[0] != "C" {
			t.Fatalf("%s: Wrong = %v", s.Mode, res.Wrong)
		}
		if !strings.Contains(res.Explanation, "Selected wrong option(s): C") {
			t.Fatalf("%s: Explanation = %q", s.Mode, res.Explanation)
		}
	}
}

func TestScoreProportional(t *testing.T) {
	res := grading.Score([]string{"A"}, []string{"A", "B", "C"}, grading.Equal(2))
	if res.MarksAwarded != 0.67 {
		t.Fatalf("MarksAwarded = %v; want 0.67", res.MarksAwarded)
	}
	if !res.IsPartiallyCorrect || res.IsFullyCorrect {
		t.Fatalf("flags = full %v partial %v", res.IsFullyCorrect, res.IsPartiallyCorrect)
	}
	if len(res.Missing) != 2 || res.Missing[0] != "B" || res.Missing[1] != "C" {
		t.Fatalf("Missing = %v", res.Missing)
	}
	if res.MaxMarks != 2 {
		t.Fatalf("MaxMarks = %v; want 2", res.MaxMarks)
	}
}

func TestScoreEdgeCases(t *testing.T) {
	res := grading.Score(nil, []string{"A"}, grading.Equal(3))
	if res.MarksAwarded != 0 || res.Explanation != "No options selected" || res.HasWrongOptions {
		t.Fatalf("empty selection: %+v", res)
	}
	res = grading.Score([]string{"A"}, nil, grading.Equal(3))
	if res.MarksAwarded != 0 || res.Explanation != "No correct options defined" || !res.HasWrongOptions {
		t.Fatalf("empty key: %+v", res)
	}
	// duplicates in input are ignored
	res = grading.Score([]string{"A", "A", "B"}, []string{"B", "A"}, grading.Equal(3))
	if res.MarksAwarded != 3 || !res.IsFullyCorrect {
		t.Fatalf("duplicates: %+v", res)
	}
	// a correct option without a weight contributes nothing
	res = grading.Score([]string{"A", "B"}, []string{"A", "B"}, grading.Weightage(map[string]float64{"A": 2}))
	if res.MarksAwarded != 2 || res.MaxMarks != 2 {
		t.Fatalf("unweighted option: %+v", res)
	}
}

func TestLenientSingleAnswer(t *testing.T) {
	lenient := grading.NewScorer(grading.WithLenientSingleAnswer(true))
	res := lenient.Score([]string{"A", "C"}, []string{"C"}, grading.Equal(3))
	if res.MarksAwarded != 1.5 || !res.HasWrongOptions || !res.IsPartiallyCorrect {
		t.Fatalf("lenient single: %+v", res)
	}
	// multi-answer questions keep the strict penalty
	res = lenient.Score([]string{"A", "C", "D"}, []string{"C", "D"}, grading.Equal(3))
	if res.MarksAwarded != 0 {
		t.Fatalf("lenient multi: %+v", res)
	}
	// the correct option must be among the picks
	res = lenient.Score([]string{"A"}, []string{"C"}, grading.Equal(3))
	if res.MarksAwarded != 0 {
		t.Fatalf("lenient miss: %+v", res)
	}
	res = grading.Score([]string{"A", "C"}, []string{"C"}, grading.Equal(3))
	if res.MarksAwarded != 0 {
		t.Fatalf("default policy must stay strict: %+v", res)
	}
}
