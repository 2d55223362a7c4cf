package scoring

import (
	"testing"
	"time"

	"github.com/edulita/tryout-backend/internal/model"
)

func fp(v float64) *float64 { return &v }

func TestAutoGrade(t *testing.T) {
	tests := []struct {
		name     string
		answer   string
		key      string
		maxPoint float64
		correct  bool
		point    float64
	}{
		{"exact match", "A", "A", 5, true, 5},
		{"case insensitive", "true", "TRUE", 2, true, 2},
		{"trims whitespace", " B ", "B", 1, true, 1},
		{"wrong answer", "C", "A", 5, false, 0},
		{"empty answer", "", "A", 5, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			correct, point := AutoGrade(tt.answer, tt.key, tt.maxPoint)
			if correct != tt.correct || point != tt.point {
				t.Errorf("AutoGrade(%q, %q) = (%v, %v), want (%v, %v)",
					tt.answer, tt.key, correct, point, tt.correct, tt.point)
			}
		})
	}
}

func TestGradeDefault(t *testing.T) {
	items := []Item{
		{Type: model.QuestionTypeMultipleChoice, MaxPoint: 10, Point: fp(10), CategoryEnded: true},
		{Type: model.QuestionTypeMultipleChoice, MaxPoint: 10, Point: fp(0), CategoryEnded: true},
		{Type: model.QuestionTypeTrueFalse, MaxPoint: 5, Point: fp(5), CategoryEnded: true},
	}
	got := Grade(model.ScoreDefault, items)
	want := 60.0 // 15 of 25
	if got != want {
		t.Fatalf("Grade = %v, want %v", got, want)
	}
}

func TestGradeIgnoresOpenCategories(t *testing.T) {
	items := []Item{
		{Type: model.QuestionTypeMultipleChoice, MaxPoint: 10, Point: fp(10), CategoryEnded: true},
		// Still-open category must not contribute, answered or not.
		{Type: model.QuestionTypeMultipleChoice, MaxPoint: 10, Point: fp(10), CategoryEnded: false},
	}
	if got := Grade(model.ScoreDefault, items); got != 100 {
		t.Fatalf("Grade = %v, want 100 (open category excluded)", got)
	}
}

func TestGradeEssayOnlyAfterManualGrading(t *testing.T) {
	items := []Item{
		{Type: model.QuestionTypeMultipleChoice, MaxPoint: 10, Point: fp(10), CategoryEnded: true},
		{Type: model.QuestionTypeEssay, MaxPoint: 10, Point: fp(4), IsGraded: false, CategoryEnded: true},
	}
	if got := Grade(model.ScoreDefault, items); got != 100 {
		t.Fatalf("Grade = %v, want 100 (ungraded essay excluded)", got)
	}

	items[1].IsGraded = true
	if got := Grade(model.ScoreDefault, items); got != 70 {
		t.Fatalf("Grade = %v, want 70 after essay graded", got)
	}
}

func TestGradeIRT(t *testing.T) {
	// Two items, equal points; the harder, more discriminating one weighs more,
	// so answering only it must beat answering only the easy one.
	hard := Item{
		Type: model.QuestionTypeMultipleChoice, MaxPoint: 1,
		IRTDifficulty: 2, IRTDiscrimination: 1.5, CategoryEnded: true,
	}
	easy := Item{
		Type: model.QuestionTypeMultipleChoice, MaxPoint: 1,
		IRTDifficulty: -2, IRTDiscrimination: 1.5, CategoryEnded: true,
	}

	hardRight := hard
	hardRight.Point = fp(1)
	onlyHard := Grade(model.ScoreIRT, []Item{hardRight, easy})

	easyRight := easy
	easyRight.Point = fp(1)
	onlyEasy := Grade(model.ScoreIRT, []Item{hard, easyRight})

	if onlyHard <= onlyEasy {
		t.Fatalf("IRT grade: hard-only %v should exceed easy-only %v", onlyHard, onlyEasy)
	}

	// Full marks normalize to 100 regardless of weights.
	if got := Grade(model.ScoreIRT, []Item{hardRight, easyRight}); got != 100 {
		t.Fatalf("IRT full marks = %v, want 100", got)
	}
}

func TestGradeIRTUncalibratedFallsBackToFlat(t *testing.T) {
	items := []Item{
		{Type: model.QuestionTypeMultipleChoice, MaxPoint: 1, Point: fp(1), CategoryEnded: true},
		{Type: model.QuestionTypeMultipleChoice, MaxPoint: 1, CategoryEnded: true},
	}
	if got := Grade(model.ScoreIRT, items); got != 50 {
		t.Fatalf("Grade = %v, want 50 (uncalibrated items weigh 1)", got)
	}
}

func TestGradeEmpty(t *testing.T) {
	if got := Grade(model.ScoreDefault, nil); got != 0 {
		t.Fatalf("Grade(nil) = %v, want 0", got)
	}
	if got := Grade(model.ScoreIRT, []Item{}); got != 0 {
		t.Fatalf("Grade(empty) = %v, want 0", got)
	}
}

func TestRankingScoreTieBreaksByFinishTime(t *testing.T) {
	first := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(1 * time.Second)

	early := RankingScore(80, &first)
	late := RankingScore(80, &second)
	if early <= late {
		t.Fatalf("equal grades: earlier finish %v should outscore later %v", early, late)
	}

	// A real grade difference always dominates the time shift.
	if lower := RankingScore(79.99, &first); lower >= late {
		t.Fatalf("grade 79.99 scored %v, must stay below grade 80's %v", lower, late)
	}

	if got := RankingScore(80, nil); got != 80 {
		t.Fatalf("RankingScore without finish time = %v, want bare grade", got)
	}
}
