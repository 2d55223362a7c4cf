package repository

import (
	"context"
	"errors"
	"time"

	"github.com/edulita/tryout-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const attemptColumns = `id, test_id, user_id, started_at, ended_at, grade, is_ongoing, is_completed, created_at, updated_at`

// AttemptRepository handles participant_tests data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

func scanAttempt(row pgx.Row) (*model.ParticipantTest, error) {
	a := &model.ParticipantTest{}
	err := row.Scan(&a.ID, &a.TestID, &a.UserID, &a.StartedAt, &a.EndedAt,
		&a.Grade, &a.IsOngoing, &a.IsCompleted, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByID retrieves an attempt by id.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ParticipantTest, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM participant_tests WHERE id = $1`, id))
}

// GetForUpdate locks the attempt row inside the caller's transaction.
// This is the single authoritative lock for end/reopen transitions.
func (r *AttemptRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.ParticipantTest, error) {
	return scanAttempt(tx.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM participant_tests WHERE id = $1 FOR UPDATE`, id))
}

// GetOngoing retrieves the user's non-completed attempt for a test, if any.
func (r *AttemptRepository) GetOngoing(ctx context.Context, testID uuid.UUID, userID int) (*model.ParticipantTest, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM participant_tests
		 WHERE test_id = $1 AND user_id = $2 AND is_ongoing`, testID, userID))
}

// Create inserts a new ongoing attempt. The partial unique index on
// (user_id, test_id) WHERE is_ongoing makes this idempotent under
// concurrent duplicate calls: the loser scans no row (pgx.ErrNoRows) and
// must refetch the winner's attempt.
func (r *AttemptRepository) Create(ctx context.Context, a *model.ParticipantTest) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO participant_tests (test_id, user_id, is_ongoing, is_completed)
		 VALUES ($1, $2, TRUE, FALSE)
		 ON CONFLICT (user_id, test_id) WHERE is_ongoing DO NOTHING
		 RETURNING id, started_at, created_at, updated_at`,
		a.TestID, a.UserID,
	).Scan(&a.ID, &a.StartedAt, &a.CreatedAt, &a.UpdatedAt)
}

// CountCompleted counts the user's completed attempts for a test
// (max_attempts enforcement).
func (r *AttemptRepository) CountCompleted(ctx context.Context, testID uuid.UUID, userID int) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM participant_tests
		 WHERE test_id = $1 AND user_id = $2 AND is_completed`, testID, userID).Scan(&n)
	return n, err
}

// FindExclusiveOngoingElsewhere returns the user's ongoing attempt on a
// different test whose definition forbids concurrent attempts, if one exists.
func (r *AttemptRepository) FindExclusiveOngoingElsewhere(ctx context.Context, userID int, exceptTestID uuid.UUID) (*model.ParticipantTest, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumnsAliased("pt")+`
		 FROM participant_tests pt
		 JOIN tests t ON t.id = pt.test_id
		 WHERE pt.user_id = $1 AND pt.is_ongoing AND pt.test_id <> $2
		   AND NOT t.allow_concurrent
		 LIMIT 1`, userID, exceptTestID))
}

// CompleteTx marks a locked attempt completed with its final grade.
func (r *AttemptRepository) CompleteTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, grade float64, endedAt time.Time) error {
	tag, err := tx.Exec(ctx,
		`UPDATE participant_tests
		 SET ended_at = $1, grade = $2, is_ongoing = FALSE, is_completed = TRUE, updated_at = NOW()
		 WHERE id = $3 AND NOT is_completed`,
		endedAt, grade, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ReopenTx provisionally clears completion on a locked attempt.
func (r *AttemptRepository) ReopenTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx,
		`UPDATE participant_tests
		 SET ended_at = NULL, grade = NULL, is_ongoing = TRUE, is_completed = FALSE, updated_at = NOW()
		 WHERE id = $1 AND is_completed`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetGradeTx recomputes only the stored grade (essay grading on a completed
// attempt) without touching lifecycle columns.
func (r *AttemptRepository) SetGradeTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, grade float64) error {
	_, err := tx.Exec(ctx,
		`UPDATE participant_tests SET grade = $1, updated_at = NOW() WHERE id = $2`, grade, id)
	return err
}

// IsNoRows reports whether err means "no matching row".
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// attemptColumnsAliased prefixes every attempt column with the given alias.
func attemptColumnsAliased(alias string) string {
	return alias + `.id, ` + alias + `.test_id, ` + alias + `.user_id, ` + alias + `.started_at, ` +
		alias + `.ended_at, ` + alias + `.grade, ` + alias + `.is_ongoing, ` +
		alias + `.is_completed, ` + alias + `.created_at, ` + alias + `.updated_at`
}
