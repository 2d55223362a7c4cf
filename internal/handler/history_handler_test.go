package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newListContext(t *testing.T, rawQuery string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/v1/participant/history-test?"+rawQuery, nil)
	return c
}

func TestParseHistoryFiltersOrderBy(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"camel case as sent by the client", "orderBy=grade", "grade"},
		{"snake case still accepted", "order_by=grade", "grade"},
		{"camel case wins when both present", "orderBy=grade&order_by=started_at", "grade"},
		{"absent", "page=1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newListContext(t, tt.query)
			f, ok := parseHistoryFilters(c)
			if !ok {
				t.Fatal("expected parse to succeed")
			}
			if f.OrderBy != tt.want {
				t.Errorf("OrderBy = %q, want %q", f.OrderBy, tt.want)
			}
		})
	}
}

func TestParseHistoryFiltersRejectsBadIDs(t *testing.T) {
	c := newListContext(t, "test_id=not-a-uuid")
	if _, ok := parseHistoryFilters(c); ok {
		t.Fatal("expected parse to fail on malformed test_id")
	}

	c = newListContext(t, "user_id=abc")
	if _, ok := parseHistoryFilters(c); ok {
		t.Fatal("expected parse to fail on malformed user_id")
	}
}

func TestParseHistoryFiltersDateRangeInclusive(t *testing.T) {
	c := newListContext(t, "start_date=2026-01-01&end_date=2026-01-31")
	f, ok := parseHistoryFilters(c)
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if f.StartDate == nil || f.EndDate == nil {
		t.Fatal("expected both dates parsed")
	}
	// end_date is exclusive upper bound one day past the named date.
	if got := f.EndDate.Sub(*f.StartDate).Hours(); got != 31*24 {
		t.Errorf("range = %v hours, want %v", got, 31*24)
	}
}
