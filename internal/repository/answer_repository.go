package repository

import (
	"context"
	"fmt"

	"github.com/edulita/tryout-backend/internal/model"
	"github.com/edulita/tryout-backend/internal/scoring"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const participantQuestionColumns = `pq.id, pq.participant_category_id, pq.question_id, pq.question_text,
	pq.question_type, pq.options, pq.answer_key, pq.max_point, pq.irt_difficulty, pq.irt_discrimination,
	pq.user_answer, pq.point, pq.is_correct, pq.is_flagged, pq.is_graded, pq.order_num, pq.created_at, pq.updated_at`

// AnswerRepository handles participant_questions (answer record) data access.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

func scanParticipantQuestion(row pgx.Row) (*model.ParticipantQuestion, error) {
	q := &model.ParticipantQuestion{}
	err := row.Scan(&q.ID, &q.ParticipantCategoryID, &q.QuestionID, &q.QuestionText,
		&q.QuestionType, &q.Options, &q.AnswerKey, &q.MaxPoint, &q.IRTDifficulty,
		&q.IRTDiscrimination, &q.UserAnswer, &q.Point, &q.IsCorrect, &q.IsFlagged,
		&q.IsGraded, &q.OrderNum, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// AnswerOwnership carries the lifecycle context an answer write must check.
type AnswerOwnership struct {
	Record        *model.ParticipantQuestion
	Category      *model.ParticipantQuestionCategory
	AttemptID     uuid.UUID
	AttemptUserID int
}

// GetByAttemptAndQuestion resolves a bank question id to its snapshot record
// within the attempt, together with the owning category.
func (r *AnswerRepository) GetByAttemptAndQuestion(ctx context.Context, attemptID, questionID uuid.UUID) (*AnswerOwnership, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+participantQuestionColumns+`,
			pc.id, pc.participant_test_id, pc.question_category_id, pc.name,
			pc.position, pc.time_limit, pc.start_date, pc.end_date,
			pt.user_id
		 FROM participant_questions pq
		 JOIN participant_question_categories pc ON pc.id = pq.participant_category_id
		 JOIN participant_tests pt ON pt.id = pc.participant_test_id
		 WHERE pt.id = $1 AND pq.question_id = $2`, attemptID, questionID)

	q := &model.ParticipantQuestion{}
	c := &model.ParticipantQuestionCategory{}
	var userID int
	err := row.Scan(&q.ID, &q.ParticipantCategoryID, &q.QuestionID, &q.QuestionText,
		&q.QuestionType, &q.Options, &q.AnswerKey, &q.MaxPoint, &q.IRTDifficulty,
		&q.IRTDiscrimination, &q.UserAnswer, &q.Point, &q.IsCorrect, &q.IsFlagged,
		&q.IsGraded, &q.OrderNum, &q.CreatedAt, &q.UpdatedAt,
		&c.ID, &c.ParticipantTestID, &c.QuestionCategoryID, &c.Name,
		&c.Position, &c.TimeLimit, &c.StartDate, &c.EndDate,
		&userID)
	if err != nil {
		return nil, err
	}
	return &AnswerOwnership{Record: q, Category: c, AttemptID: attemptID, AttemptUserID: userID}, nil
}

// GetRecordByID retrieves one answer record by its own id (essay grading).
func (r *AnswerRepository) GetRecordByID(ctx context.Context, id uuid.UUID) (*model.ParticipantQuestion, error) {
	return scanParticipantQuestion(r.pool.QueryRow(ctx,
		`SELECT `+participantQuestionColumns+`
		 FROM participant_questions pq WHERE pq.id = $1`, id))
}

// ListByCategory returns a category's snapshot questions in the order frozen
// at snapshot time (bank order, or the shuffled order the participant saw).
func (r *AnswerRepository) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]model.ParticipantQuestion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+participantQuestionColumns+`
		 FROM participant_questions pq
		 WHERE pq.participant_category_id = $1
		 ORDER BY pq.order_num ASC, pq.id ASC`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectParticipantQuestions(rows)
}

// SaveAnswer stores the answer value. Auto-gradable snapshots are scored in
// the same statement; the write is rejected (no row) if the owning category
// closed between the ownership check and this update — fail closed.
func (r *AnswerRepository) SaveAnswer(ctx context.Context, recordID uuid.UUID, answer string, correct *bool, point *float64) (*model.ParticipantQuestion, error) {
	return scanParticipantQuestion(r.pool.QueryRow(ctx,
		`UPDATE participant_questions pq
		 SET user_answer = $1, is_correct = $2, point = $3, updated_at = NOW()
		 FROM participant_question_categories pc
		 WHERE pq.id = $4 AND pc.id = pq.participant_category_id AND pc.end_date IS NULL
		 RETURNING `+participantQuestionColumns,
		answer, correct, point, recordID))
}

// ResetAnswer clears the stored answer and its grading without touching the flag.
func (r *AnswerRepository) ResetAnswer(ctx context.Context, recordID uuid.UUID) (*model.ParticipantQuestion, error) {
	return scanParticipantQuestion(r.pool.QueryRow(ctx,
		`UPDATE participant_questions pq
		 SET user_answer = NULL, is_correct = NULL, point = NULL, updated_at = NOW()
		 FROM participant_question_categories pc
		 WHERE pq.id = $1 AND pc.id = pq.participant_category_id AND pc.end_date IS NULL
		 RETURNING `+participantQuestionColumns,
		recordID))
}

// SetFlag sets or clears the review flag.
func (r *AnswerRepository) SetFlag(ctx context.Context, recordID uuid.UUID, flagged bool) (*model.ParticipantQuestion, error) {
	return scanParticipantQuestion(r.pool.QueryRow(ctx,
		`UPDATE participant_questions pq
		 SET is_flagged = $1, updated_at = NOW()
		 FROM participant_question_categories pc
		 WHERE pq.id = $2 AND pc.id = pq.participant_category_id AND pc.end_date IS NULL
		 RETURNING `+participantQuestionColumns,
		flagged, recordID))
}

// GradeEssayTx awards a manual point to an essay record inside the caller's
// transaction (grade recomputation follows in the same tx).
func (r *AnswerRepository) GradeEssayTx(ctx context.Context, tx pgx.Tx, recordID uuid.UUID, point float64, isGraded bool) (*model.ParticipantQuestion, error) {
	return scanParticipantQuestion(tx.QueryRow(ctx,
		`UPDATE participant_questions pq
		 SET point = $1, is_graded = $2, updated_at = NOW()
		 WHERE pq.id = $3 AND pq.question_type = 'ESSAY'
		 RETURNING `+participantQuestionColumns,
		point, isGraded, recordID))
}

// AttemptOfRecordTx resolves and locks the attempt owning an answer record
// (essay grading recomputes the grade under this lock).
func (r *AnswerRepository) AttemptOfRecordTx(ctx context.Context, tx pgx.Tx, recordID uuid.UUID) (*model.ParticipantTest, error) {
	return scanAttempt(tx.QueryRow(ctx,
		`SELECT `+attemptColumnsAliased("pt")+`
		 FROM participant_tests pt
		 JOIN participant_question_categories pc ON pc.participant_test_id = pt.id
		 JOIN participant_questions pq ON pq.participant_category_id = pc.id
		 WHERE pq.id = $1
		 FOR UPDATE OF pt`, recordID))
}

// ScoringItemsTx loads every snapshot of an attempt as scoring items, with
// the owning category's terminal state resolved.
func (r *AnswerRepository) ScoringItemsTx(ctx context.Context, tx pgx.Tx, attemptID uuid.UUID) ([]scoring.Item, error) {
	rows, err := tx.Query(ctx,
		`SELECT pq.question_type, pq.max_point, pq.point, pq.is_graded,
			pq.irt_difficulty, pq.irt_discrimination, pc.end_date IS NOT NULL
		 FROM participant_questions pq
		 JOIN participant_question_categories pc ON pc.id = pq.participant_category_id
		 WHERE pc.participant_test_id = $1`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []scoring.Item
	for rows.Next() {
		var it scoring.Item
		if err := rows.Scan(&it.Type, &it.MaxPoint, &it.Point, &it.IsGraded,
			&it.IRTDifficulty, &it.IRTDiscrimination, &it.CategoryEnded); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// EssayAnswerItem is one row of the essay grading list.
type EssayAnswerItem struct {
	model.ParticipantQuestion
	ParticipantTestID uuid.UUID `json:"participant_test_id"`
	UserID            int       `json:"user_id"`
	UserName          string    `json:"user_name"`
	TestID            uuid.UUID `json:"test_id"`
	TestTitle         string    `json:"test_title"`
}

// ListEssays returns paginated essay answers for grading, filtered by test,
// attempt and graded state. Total reflects the filtered row count.
func (r *AnswerRepository) ListEssays(ctx context.Context, testID *uuid.UUID, participantTestID *uuid.UUID, isGraded *bool, page, perPage int) ([]EssayAnswerItem, int64, error) {
	baseQuery := `
		FROM participant_questions pq
		JOIN participant_question_categories pc ON pc.id = pq.participant_category_id
		JOIN participant_tests pt ON pt.id = pc.participant_test_id
		JOIN tests t ON t.id = pt.test_id
		JOIN users u ON u.id = pt.user_id
		WHERE pq.question_type = 'ESSAY' AND pq.user_answer IS NOT NULL
	`
	args := []any{}

	if testID != nil {
		args = append(args, *testID)
		baseQuery += fmt.Sprintf(" AND t.id = $%d", len(args))
	}
	if participantTestID != nil {
		args = append(args, *participantTestID)
		baseQuery += fmt.Sprintf(" AND pt.id = $%d", len(args))
	}
	if isGraded != nil {
		args = append(args, *isGraded)
		baseQuery += fmt.Sprintf(" AND pq.is_graded = $%d", len(args))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + participantQuestionColumns + `,
			pt.id, pt.user_id, u.name, t.id, t.title
		` + baseQuery + `
		ORDER BY pq.updated_at DESC
		LIMIT $` + fmt.Sprintf("%d", len(args)+1) + ` OFFSET $` + fmt.Sprintf("%d", len(args)+2)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []EssayAnswerItem
	for rows.Next() {
		var it EssayAnswerItem
		if err := rows.Scan(&it.ID, &it.ParticipantCategoryID, &it.QuestionID, &it.QuestionText,
			&it.QuestionType, &it.Options, &it.AnswerKey, &it.MaxPoint, &it.IRTDifficulty,
			&it.IRTDiscrimination, &it.UserAnswer, &it.Point, &it.IsCorrect, &it.IsFlagged,
			&it.IsGraded, &it.OrderNum, &it.CreatedAt, &it.UpdatedAt,
			&it.ParticipantTestID, &it.UserID, &it.UserName, &it.TestID, &it.TestTitle); err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	return items, total, rows.Err()
}

func collectParticipantQuestions(rows pgx.Rows) ([]model.ParticipantQuestion, error) {
	var questions []model.ParticipantQuestion
	for rows.Next() {
		var q model.ParticipantQuestion
		if err := rows.Scan(&q.ID, &q.ParticipantCategoryID, &q.QuestionID, &q.QuestionText,
			&q.QuestionType, &q.Options, &q.AnswerKey, &q.MaxPoint, &q.IRTDifficulty,
			&q.IRTDiscrimination, &q.UserAnswer, &q.Point, &q.IsCorrect, &q.IsFlagged,
			&q.IsGraded, &q.OrderNum, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
