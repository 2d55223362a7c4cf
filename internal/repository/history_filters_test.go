package repository

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func bp(v bool) *bool { return &v }
func ip(v int) *int   { return &v }

func TestBuildWhereComposesAsIntersection(t *testing.T) {
	testID := uuid.New()
	f := HistoryFilters{
		TestID:      &testID,
		UserID:      ip(9),
		IsOngoing:   bp(true),
		IsCompleted: bp(false),
	}

	where, args := f.BuildWhere()
	if len(args) != 4 {
		t.Fatalf("args = %d, want 4", len(args))
	}
	for _, frag := range []string{"pt.test_id = $1", "pt.user_id = $2", "pt.is_ongoing = $3", "pt.is_completed = $4"} {
		if !strings.Contains(where, frag) {
			t.Errorf("where %q missing %q", where, frag)
		}
	}
	if strings.Count(where, " AND ") != 3 {
		t.Errorf("filters must intersect, got %q", where)
	}
}

func TestBuildWhereFreeTextSearch(t *testing.T) {
	f := HistoryFilters{Search: "budi"}
	where, args := f.BuildWhere()
	if !strings.Contains(where, "ILIKE") {
		t.Fatalf("free-text search should be fuzzy, got %q", where)
	}
	if args[0] != "%budi%" {
		t.Fatalf("args[0] = %v, want wildcard pattern", args[0])
	}
}

func TestBuildWhereSearchBySpecificBypassesFreeText(t *testing.T) {
	f := HistoryFilters{Search: "42", SearchBySpecific: "class_id"}
	where, args := f.BuildWhere()
	if strings.Contains(where, "ILIKE") {
		t.Fatalf("specific search must bypass fuzzy match, got %q", where)
	}
	if !strings.Contains(where, "u.class_id::text = $1") {
		t.Fatalf("want exact class_id match, got %q", where)
	}
	if args[0] != "42" {
		t.Fatalf("args[0] = %v, want exact value", args[0])
	}
}

func TestBuildWhereStatusSpecific(t *testing.T) {
	for search, frag := range map[string]string{
		"ongoing":   "pt.is_ongoing",
		"completed": "pt.is_completed",
		"bogus":     "FALSE",
	} {
		f := HistoryFilters{Search: search, SearchBySpecific: "status"}
		where, args := f.BuildWhere()
		if !strings.Contains(where, frag) {
			t.Errorf("status %q: where %q missing %q", search, where, frag)
		}
		if len(args) != 0 {
			t.Errorf("status %q: status match should not bind args, got %v", search, args)
		}
	}
}

func TestBuildWhereUnknownSpecificMatchesNothing(t *testing.T) {
	f := HistoryFilters{Search: "x", SearchBySpecific: "password_hash"}
	where, _ := f.BuildWhere()
	if !strings.Contains(where, "FALSE") {
		t.Fatalf("unknown specific field must match nothing, got %q", where)
	}
}

func TestBuildWhereEmpty(t *testing.T) {
	where, args := HistoryFilters{}.BuildWhere()
	if where != "" || len(args) != 0 {
		t.Fatalf("empty filters should render nothing, got %q %v", where, args)
	}
}

func TestOrderClause(t *testing.T) {
	if got := (HistoryFilters{}).OrderClause(); !strings.Contains(got, "pt.updated_at DESC") {
		t.Errorf("default order = %q, want last-updated descending", got)
	}

	ranking := HistoryFilters{OrderBy: "grade"}.OrderClause()
	gradeIdx := strings.Index(ranking, "pt.grade DESC")
	tieIdx := strings.Index(ranking, "pt.ended_at ASC")
	if gradeIdx == -1 || tieIdx == -1 || tieIdx < gradeIdx {
		t.Errorf("ranking order = %q, want grade desc then ended_at asc tie-break", ranking)
	}
	if !strings.Contains(ranking, "pt.id ASC") {
		t.Errorf("ranking order must be total, got %q", ranking)
	}
}
