package repository

import (
	"context"
	"time"

	"github.com/edulita/tryout-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const participantCategoryColumns = `id, participant_test_id, question_category_id, name, position, time_limit, start_date, end_date`

// CategoryRepository handles participant_question_categories data access.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

func scanParticipantCategory(row pgx.Row) (*model.ParticipantQuestionCategory, error) {
	c := &model.ParticipantQuestionCategory{}
	err := row.Scan(&c.ID, &c.ParticipantTestID, &c.QuestionCategoryID,
		&c.Name, &c.Position, &c.TimeLimit, &c.StartDate, &c.EndDate)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetByID retrieves a participant category by id.
func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ParticipantQuestionCategory, error) {
	return scanParticipantCategory(r.pool.QueryRow(ctx,
		`SELECT `+participantCategoryColumns+`
		 FROM participant_question_categories WHERE id = $1`, id))
}

// GetForUpdate locks a participant category row inside the caller's transaction.
func (r *CategoryRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.ParticipantQuestionCategory, error) {
	return scanParticipantCategory(tx.QueryRow(ctx,
		`SELECT `+participantCategoryColumns+`
		 FROM participant_question_categories WHERE id = $1 FOR UPDATE`, id))
}

// GetOpen returns the most recently started category of an attempt that has
// no end_date, if any.
func (r *CategoryRepository) GetOpen(ctx context.Context, attemptID uuid.UUID) (*model.ParticipantQuestionCategory, error) {
	return scanParticipantCategory(r.pool.QueryRow(ctx,
		`SELECT `+participantCategoryColumns+`
		 FROM participant_question_categories
		 WHERE participant_test_id = $1 AND end_date IS NULL
		 ORDER BY start_date DESC
		 LIMIT 1`, attemptID))
}

// GetLatest returns the attempt's most recently started category regardless
// of state (used by reopen).
func (r *CategoryRepository) GetLatest(ctx context.Context, attemptID uuid.UUID) (*model.ParticipantQuestionCategory, error) {
	return scanParticipantCategory(r.pool.QueryRow(ctx,
		`SELECT `+participantCategoryColumns+`
		 FROM participant_question_categories
		 WHERE participant_test_id = $1
		 ORDER BY start_date DESC
		 LIMIT 1`, attemptID))
}

// ListByAttempt returns every participant category of an attempt in section order.
func (r *CategoryRepository) ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.ParticipantQuestionCategory, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+participantCategoryColumns+`
		 FROM participant_question_categories
		 WHERE participant_test_id = $1
		 ORDER BY position ASC`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []model.ParticipantQuestionCategory
	for rows.Next() {
		var c model.ParticipantQuestionCategory
		if err := rows.Scan(&c.ID, &c.ParticipantTestID, &c.QuestionCategoryID,
			&c.Name, &c.Position, &c.TimeLimit, &c.StartDate, &c.EndDate); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// NextDefinition returns the test's first question-category definition that
// has no participant category under this attempt yet (lazy creation order).
func (r *CategoryRepository) NextDefinition(ctx context.Context, testID, attemptID uuid.UUID) (*model.QuestionCategory, error) {
	qc := &model.QuestionCategory{}
	err := r.pool.QueryRow(ctx,
		`SELECT qc.id, qc.test_id, qc.name, qc.position, qc.time_limit
		 FROM question_categories qc
		 WHERE qc.test_id = $1
		   AND NOT EXISTS (
			SELECT 1 FROM participant_question_categories pc
			WHERE pc.participant_test_id = $2 AND pc.question_category_id = qc.id
		   )
		 ORDER BY qc.position ASC
		 LIMIT 1`, testID, attemptID,
	).Scan(&qc.ID, &qc.TestID, &qc.Name, &qc.Position, &qc.TimeLimit)
	if err != nil {
		return nil, err
	}
	return qc, nil
}

// CreateWithSnapshot opens a participant category for the given definition and
// copies the definition's questions into frozen participant_questions rows in
// one transaction. Shuffle controls snapshot order.
func (r *CategoryRepository) CreateWithSnapshot(ctx context.Context, def *model.QuestionCategory, attemptID uuid.UUID, shuffle bool) (*model.ParticipantQuestionCategory, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	c, err := scanParticipantCategory(tx.QueryRow(ctx,
		`INSERT INTO participant_question_categories
			(participant_test_id, question_category_id, name, position, time_limit)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+participantCategoryColumns,
		attemptID, def.ID, def.Name, def.Position, def.TimeLimit))
	if err != nil {
		return nil, err
	}

	orderClause := `ORDER BY order_num ASC, id ASC`
	if shuffle {
		orderClause = `ORDER BY random()`
	}

	// Snapshot by value: the attempt never points back at the live bank row
	// for content, only records question_id for provenance. The chosen order
	// (bank or shuffled) is frozen into order_num; reads sort by it.
	_, err = tx.Exec(ctx,
		`INSERT INTO participant_questions
			(participant_category_id, question_id, question_text, question_type,
			 options, answer_key, max_point, irt_difficulty, irt_discrimination, order_num)
		 SELECT $1, id, question_text, question_type,
			options, answer_key, point, irt_difficulty, irt_discrimination,
			row_number() OVER (`+orderClause+`)
		 FROM questions
		 WHERE question_category_id = $2`,
		c.ID, def.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// EndTx closes a locked category and zero-fills unanswered auto-gradable
// snapshots so the section's scoring is final. Returns pgx.ErrNoRows when the
// category was already ended (replay).
func (r *CategoryRepository) EndTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, endedAt time.Time) error {
	tag, err := tx.Exec(ctx,
		`UPDATE participant_question_categories
		 SET end_date = $1
		 WHERE id = $2 AND end_date IS NULL`, endedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	_, err = tx.Exec(ctx,
		`UPDATE participant_questions
		 SET point = 0, updated_at = NOW()
		 WHERE participant_category_id = $1
		   AND point IS NULL
		   AND question_type <> 'ESSAY'`, id)
	return err
}

// EndAllOpenTx closes every still-open category of an attempt (end-session
// cascade) with the same recorded end time.
func (r *CategoryRepository) EndAllOpenTx(ctx context.Context, tx pgx.Tx, attemptID uuid.UUID, endedAt time.Time) error {
	rows, err := tx.Query(ctx,
		`SELECT id FROM participant_question_categories
		 WHERE participant_test_id = $1 AND end_date IS NULL
		 FOR UPDATE`, attemptID)
	if err != nil {
		return err
	}
	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range ids {
		if err := r.EndTx(ctx, tx, id, endedAt); err != nil && !IsNoRows(err) {
			return err
		}
	}
	return nil
}

// ReactivateTx clears a category's end_date and restarts its section timer.
func (r *CategoryRepository) ReactivateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, startedAt time.Time) error {
	_, err := tx.Exec(ctx,
		`UPDATE participant_question_categories
		 SET end_date = NULL, start_date = $1
		 WHERE id = $2`, startedAt, id)
	return err
}
