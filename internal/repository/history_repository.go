package repository

import (
	"fmt"
	"strings"
	"time"

	"context"

	"github.com/edulita/tryout-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HistoryFilters compose as an intersection over the attempt list.
// When SearchBySpecific is set, free-text Search is redirected to an exact
// match on that field and the fuzzy search is bypassed.
type HistoryFilters struct {
	Page             int
	PerPage          int
	Search           string
	SearchBySpecific string
	TestID           *uuid.UUID
	UserID           *int
	StartDate        *time.Time
	EndDate          *time.Time
	IsOngoing        *bool
	IsCompleted      *bool
	OrderBy          string // "grade" switches to ranking order
	// SupervisorID restricts rows to tests supervised by this user
	// (monitoring scope for non-superadmins).
	SupervisorID *int
}

// HistoryItem is one row of the history/ranking list.
type HistoryItem struct {
	model.ParticipantTest
	UserName  string  `json:"user_name"`
	SchoolID  *int    `json:"school_id,omitempty"`
	ClassID   *int    `json:"class_id,omitempty"`
	TestTitle string  `json:"test_title"`
	PassGrade float64 `json:"pass_grade"`
}

// HistoryRepository is the read-optimized index over attempts.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// BuildWhere renders the filter set into a WHERE fragment with positional
// args. Split out so the composition rules are unit-testable without a
// database.
func (f HistoryFilters) BuildWhere() (string, []any) {
	var clauses []string
	var args []any

	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if f.TestID != nil {
		add("pt.test_id = $%d", *f.TestID)
	}
	if f.UserID != nil {
		add("pt.user_id = $%d", *f.UserID)
	}
	if f.StartDate != nil {
		add("pt.started_at >= $%d", *f.StartDate)
	}
	if f.EndDate != nil {
		add("pt.started_at < $%d", *f.EndDate)
	}
	if f.IsOngoing != nil {
		add("pt.is_ongoing = $%d", *f.IsOngoing)
	}
	if f.IsCompleted != nil {
		add("pt.is_completed = $%d", *f.IsCompleted)
	}
	if f.SupervisorID != nil {
		add("t.supervisor_id = $%d", *f.SupervisorID)
	}

	search := strings.TrimSpace(f.Search)
	switch {
	case f.SearchBySpecific != "" && search != "":
		switch f.SearchBySpecific {
		case "user_id":
			add("pt.user_id::text = $%d", search)
		case "test_id":
			add("pt.test_id::text = $%d", search)
		case "participant_test_id":
			add("pt.id::text = $%d", search)
		case "class_id":
			add("u.class_id::text = $%d", search)
		case "school_id":
			add("u.school_id::text = $%d", search)
		case "status":
			// "ongoing" / "completed" exact status match.
			if search == "ongoing" {
				clauses = append(clauses, "pt.is_ongoing")
			} else if search == "completed" {
				clauses = append(clauses, "pt.is_completed")
			} else {
				clauses = append(clauses, "FALSE")
			}
		default:
			clauses = append(clauses, "FALSE")
		}
	case search != "":
		args = append(args, "%"+search+"%")
		clauses = append(clauses, fmt.Sprintf("(u.name ILIKE $%d OR t.title ILIKE $%d)", len(args), len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// OrderClause renders the ordering. Default is last-updated descending;
// grade ordering is the ranking view with a deterministic tie-break
// (earlier ended_at first, then id).
func (f HistoryFilters) OrderClause() string {
	if f.OrderBy == "grade" {
		return " ORDER BY pt.grade DESC NULLS LAST, pt.ended_at ASC NULLS LAST, pt.id ASC"
	}
	return " ORDER BY pt.updated_at DESC"
}

const historyBase = `
	FROM participant_tests pt
	JOIN tests t ON t.id = pt.test_id
	JOIN users u ON u.id = pt.user_id`

const historySelect = `
	SELECT pt.id, pt.test_id, pt.user_id, pt.started_at, pt.ended_at, pt.grade,
		pt.is_ongoing, pt.is_completed, pt.created_at, pt.updated_at,
		u.name, u.school_id, u.class_id, t.title, t.pass_grade`

// List returns one page of attempts plus the filtered total.
func (r *HistoryRepository) List(ctx context.Context, f HistoryFilters) ([]HistoryItem, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = 10
	}

	where, args := f.BuildWhere()

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*)"+historyBase+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := historySelect + historyBase + where + f.OrderClause() +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []HistoryItem
	for rows.Next() {
		var it HistoryItem
		if err := rows.Scan(&it.ID, &it.TestID, &it.UserID, &it.StartedAt, &it.EndedAt,
			&it.Grade, &it.IsOngoing, &it.IsCompleted, &it.CreatedAt, &it.UpdatedAt,
			&it.UserName, &it.SchoolID, &it.ClassID, &it.TestTitle, &it.PassGrade); err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	return items, total, rows.Err()
}

// GetItem retrieves one attempt with the joined user/test columns.
func (r *HistoryRepository) GetItem(ctx context.Context, attemptID uuid.UUID) (*HistoryItem, error) {
	it := &HistoryItem{}
	err := r.pool.QueryRow(ctx,
		historySelect+historyBase+` WHERE pt.id = $1`, attemptID,
	).Scan(&it.ID, &it.TestID, &it.UserID, &it.StartedAt, &it.EndedAt,
		&it.Grade, &it.IsOngoing, &it.IsCompleted, &it.CreatedAt, &it.UpdatedAt,
		&it.UserName, &it.SchoolID, &it.ClassID, &it.TestTitle, &it.PassGrade)
	if err != nil {
		return nil, err
	}
	return it, nil
}

// RankingEntry is one leaderboard row.
type RankingEntry struct {
	AttemptID uuid.UUID  `json:"attempt_id"`
	UserID    int        `json:"user_id"`
	UserName  string     `json:"user_name"`
	Grade     float64    `json:"grade"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Ranking returns a test's completed attempts in leaderboard order. Used to
// rebuild the cached ZSET and as the cold-cache fallback.
func (r *HistoryRepository) Ranking(ctx context.Context, testID uuid.UUID, limit int64) ([]RankingEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT pt.id, pt.user_id, u.name, pt.grade, pt.ended_at
		 FROM participant_tests pt
		 JOIN users u ON u.id = pt.user_id
		 WHERE pt.test_id = $1 AND pt.is_completed AND pt.grade IS NOT NULL
		 ORDER BY pt.grade DESC, pt.ended_at ASC NULLS LAST, pt.id ASC
		 LIMIT $2`, testID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []RankingEntry
	for rows.Next() {
		var e RankingEntry
		if err := rows.Scan(&e.AttemptID, &e.UserID, &e.UserName, &e.Grade, &e.EndedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
