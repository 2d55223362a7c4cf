package repository

import (
	"context"
	"fmt"

	"github.com/edulita/tryout-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const testColumns = `id, school_id, title, sub_title, slug, description, timer_type, score_type,
	total_time, pass_grade, shuffle_questions, start_date, end_date, code, max_attempts,
	allow_concurrent, is_graded, is_explanation_released, supervisor_id, created_at, updated_at`

// TestRepository handles test definition data access.
type TestRepository struct {
	pool *pgxpool.Pool
}

// NewTestRepository creates a new TestRepository.
func NewTestRepository(pool *pgxpool.Pool) *TestRepository {
	return &TestRepository{pool: pool}
}

func scanTest(row pgx.Row) (*model.Test, error) {
	t := &model.Test{}
	err := row.Scan(&t.ID, &t.SchoolID, &t.Title, &t.SubTitle, &t.Slug, &t.Description,
		&t.TimerType, &t.ScoreType, &t.TotalTime, &t.PassGrade, &t.ShuffleQuestions,
		&t.StartDate, &t.EndDate, &t.Code, &t.MaxAttempts, &t.AllowConcurrent,
		&t.IsGraded, &t.IsExplanationReleased, &t.SupervisorID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetByID retrieves a test definition.
func (r *TestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	return scanTest(r.pool.QueryRow(ctx,
		`SELECT `+testColumns+` FROM tests WHERE id = $1`, id))
}

// Create inserts a new test definition.
func (r *TestRepository) Create(ctx context.Context, t *model.Test) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO tests (school_id, title, sub_title, slug, description, timer_type,
			score_type, total_time, pass_grade, shuffle_questions, start_date, end_date,
			code, max_attempts, allow_concurrent, is_graded, is_explanation_released, supervisor_id)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		 RETURNING id, created_at, updated_at`,
		t.SchoolID, t.Title, t.SubTitle, t.Slug, t.Description, t.TimerType,
		t.ScoreType, t.TotalTime, t.PassGrade, t.ShuffleQuestions, t.StartDate, t.EndDate,
		t.Code, t.MaxAttempts, t.AllowConcurrent, t.IsGraded, t.IsExplanationReleased, t.SupervisorID,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// Update overwrites a test definition (administrative edit).
func (r *TestRepository) Update(ctx context.Context, t *model.Test) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tests SET school_id=$1, title=$2, sub_title=$3, slug=$4, description=$5,
			timer_type=$6, score_type=$7, total_time=$8, pass_grade=$9, shuffle_questions=$10,
			start_date=$11, end_date=$12, code=$13, max_attempts=$14, allow_concurrent=$15,
			is_graded=$16, is_explanation_released=$17, supervisor_id=$18, updated_at=NOW()
		 WHERE id=$19`,
		t.SchoolID, t.Title, t.SubTitle, t.Slug, t.Description,
		t.TimerType, t.ScoreType, t.TotalTime, t.PassGrade, t.ShuffleQuestions,
		t.StartDate, t.EndDate, t.Code, t.MaxAttempts, t.AllowConcurrent,
		t.IsGraded, t.IsExplanationReleased, t.SupervisorID, t.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// List returns paginated test definitions, optionally filtered by school and
// a title search.
func (r *TestRepository) List(ctx context.Context, schoolID *int, search string, page, perPage int) ([]model.Test, int64, error) {
	baseQuery := ` FROM tests WHERE TRUE`
	args := []any{}
	if schoolID != nil {
		args = append(args, *schoolID)
		baseQuery += fmt.Sprintf(" AND school_id = $%d", len(args))
	}
	if search != "" {
		args = append(args, "%"+search+"%")
		baseQuery += fmt.Sprintf(" AND title ILIKE $%d", len(args))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*)"+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + testColumns + baseQuery +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tests []model.Test
	for rows.Next() {
		var t model.Test
		if err := rows.Scan(&t.ID, &t.SchoolID, &t.Title, &t.SubTitle, &t.Slug, &t.Description,
			&t.TimerType, &t.ScoreType, &t.TotalTime, &t.PassGrade, &t.ShuffleQuestions,
			&t.StartDate, &t.EndDate, &t.Code, &t.MaxAttempts, &t.AllowConcurrent,
			&t.IsGraded, &t.IsExplanationReleased, &t.SupervisorID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		tests = append(tests, t)
	}
	return tests, total, rows.Err()
}

// ListCategories returns a test's question-category definitions in order.
func (r *TestRepository) ListCategories(ctx context.Context, testID uuid.UUID) ([]model.QuestionCategory, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, test_id, name, position, time_limit
		 FROM question_categories WHERE test_id = $1 ORDER BY position ASC`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []model.QuestionCategory
	for rows.Next() {
		var c model.QuestionCategory
		if err := rows.Scan(&c.ID, &c.TestID, &c.Name, &c.Position, &c.TimeLimit); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CreateCategory adds a question-category definition to a test.
func (r *TestRepository) CreateCategory(ctx context.Context, c *model.QuestionCategory) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO question_categories (test_id, name, position, time_limit)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		c.TestID, c.Name, c.Position, c.TimeLimit,
	).Scan(&c.ID)
}

// CreateQuestion adds a bank question to a category definition.
func (r *TestRepository) CreateQuestion(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (question_category_id, question_text, question_type, options,
			answer_key, point, irt_difficulty, irt_discrimination, explanation, order_num)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id`,
		q.QuestionCategoryID, q.QuestionText, q.QuestionType, q.Options,
		q.AnswerKey, q.Point, q.IRTDifficulty, q.IRTDiscrimination, q.Explanation, q.OrderNum,
	).Scan(&q.ID)
}
