// Package scoring computes grades over frozen question snapshots. It is pure:
// callers load the snapshot rows and pass them in, nothing here touches I/O.
package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/edulita/tryout-backend/internal/model"
)

// Item is the scoring view of one ParticipantQuestion snapshot.
type Item struct {
	Type              model.QuestionType
	MaxPoint          float64
	Point             *float64 // nil until answered/graded
	IsGraded          bool     // essays only
	IRTDifficulty     float64
	IRTDiscrimination float64
	CategoryEnded     bool
}

// countable reports whether the item may contribute to the grade: its
// category must be ended, and essays must have been manually graded.
func (it Item) countable() bool {
	if !it.CategoryEnded {
		return false
	}
	if it.Type == model.QuestionTypeEssay {
		return it.IsGraded
	}
	return true
}

// AutoGrade scores an auto-gradable answer against the snapshot key.
// Comparison is case-insensitive on trimmed values, matching how the
// platform stores option keys ("A", "B", "true", ...).
func AutoGrade(answer, key string, maxPoint float64) (correct bool, point float64) {
	if strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(key)) {
		return true, maxPoint
	}
	return false, 0
}

// Grade computes the 0–100 aggregate grade for an attempt.
//
// default: 100 × Σ earned / Σ max over countable items.
// irt:     two-parameter logistic weighting; each countable item weighs
//          discrimination × (1 − 1/(1+e^difficulty)), normalized over the
//          set, and contributes its earned/max ratio.
//
// Ungraded essays are excluded from numerator and denominator alike, so the
// grade stays a provisional average over graded material until essay grading
// finishes. Returns 0 when nothing is countable.
func Grade(scoreType model.ScoreType, items []Item) float64 {
	if scoreType == model.ScoreIRT {
		return gradeIRT(items)
	}
	return gradeDefault(items)
}

func gradeDefault(items []Item) float64 {
	var earned, max float64
	for _, it := range items {
		if !it.countable() || it.MaxPoint <= 0 {
			continue
		}
		max += it.MaxPoint
		if it.Point != nil {
			earned += *it.Point
		}
	}
	if max == 0 {
		return 0
	}
	return round2(100 * earned / max)
}

func gradeIRT(items []Item) float64 {
	var weighted, totalWeight float64
	for _, it := range items {
		if !it.countable() || it.MaxPoint <= 0 {
			continue
		}
		w := itemWeight(it)
		totalWeight += w
		if it.Point != nil {
			weighted += w * (*it.Point / it.MaxPoint)
		}
	}
	if totalWeight == 0 {
		return 0
	}
	return round2(100 * weighted / totalWeight)
}

// itemWeight derives the IRT weight from the snapshot's calibration
// parameters. Items without a calibrated discrimination weigh 1, so a
// partially calibrated bank degrades toward flat scoring.
func itemWeight(it Item) float64 {
	if it.IRTDiscrimination <= 0 {
		return 1
	}
	return it.IRTDiscrimination * (1 - 1/(1+math.Exp(it.IRTDifficulty)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// rankingEpoch anchors the finish-time component of a ranking score. Grades
// are rounded to 2 decimals, so the time shift (at most ~1e-3 for dates this
// century) can never reorder distinct grades.
var rankingEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// RankingScore folds the ranking order (grade descending, earlier finish
// first) into a single sorted-set score: equal grades are separated by the
// finish time scaled down to 1e-12 per second, earlier finishes scoring
// higher. Attempts without a recorded finish keep the bare grade.
func RankingScore(grade float64, endedAt *time.Time) float64 {
	if endedAt == nil {
		return grade
	}
	return grade - endedAt.Sub(rankingEpoch).Seconds()*1e-12
}
