package service

import (
	"context"
	"fmt"

	"github.com/edulita/tryout-backend/internal/apperr"
	"github.com/edulita/tryout-backend/internal/cache"
	"github.com/edulita/tryout-backend/internal/model"
	"github.com/edulita/tryout-backend/internal/repository"
	"github.com/edulita/tryout-backend/internal/scoring"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// AnswerService is the Answer Store: save, reset and flag writes against the
// frozen snapshots of an ongoing section, plus manual essay grading. Every
// write settles expired timers first and fails with CategoryClosed once the
// owning section is terminal.
type AnswerService struct {
	pool     *pgxpool.Pool
	attempts *repository.AttemptRepository
	answers  *repository.AnswerRepository
	tests    *repository.TestRepository
	sessions *SessionService

	invalidator *cache.Invalidator
	log         zerolog.Logger
}

// NewAnswerService creates a new AnswerService.
func NewAnswerService(
	pool *pgxpool.Pool,
	attempts *repository.AttemptRepository,
	answers *repository.AnswerRepository,
	tests *repository.TestRepository,
	sessions *SessionService,
	invalidator *cache.Invalidator,
	log zerolog.Logger,
) *AnswerService {
	return &AnswerService{
		pool:        pool,
		attempts:    attempts,
		answers:     answers,
		tests:       tests,
		sessions:    sessions,
		invalidator: invalidator,
		log:         log.With().Str("component", "answer_service").Logger(),
	}
}

// SaveAnswer stores the participant's answer. Auto-gradable types are scored
// synchronously against the snapshot key; essays stay ungraded until a
// grader awards points.
func (s *AnswerService) SaveAnswer(ctx context.Context, userID int, attemptID, questionID uuid.UUID, answer string) (*model.ParticipantQuestion, error) {
	own, attempt, err := s.writableRecord(ctx, userID, attemptID, questionID)
	if err != nil {
		return nil, err
	}

	var correct *bool
	var point *float64
	if own.Record.QuestionType.AutoGradable() {
		c, p := scoring.AutoGrade(answer, own.Record.AnswerKey, own.Record.MaxPoint)
		correct, point = &c, &p
	}

	rec, err := s.answers.SaveAnswer(ctx, own.Record.ID, answer, correct, point)
	if err != nil {
		if repository.IsNoRows(err) {
			// The section closed between the check and the write.
			return nil, apperr.ErrCategoryClosed
		}
		return nil, fmt.Errorf("save answer: %w", err)
	}

	s.invalidateAnswer(ctx, cache.OpSaveAnswer, attempt, questionID)
	return rec, nil
}

// ResetAnswer clears the stored answer and its grading. The review flag is
// untouched.
func (s *AnswerService) ResetAnswer(ctx context.Context, userID int, attemptID, questionID uuid.UUID) (*model.ParticipantQuestion, error) {
	own, attempt, err := s.writableRecord(ctx, userID, attemptID, questionID)
	if err != nil {
		return nil, err
	}

	rec, err := s.answers.ResetAnswer(ctx, own.Record.ID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, apperr.ErrCategoryClosed
		}
		return nil, fmt.Errorf("reset answer: %w", err)
	}

	s.invalidateAnswer(ctx, cache.OpResetAnswer, attempt, questionID)
	return rec, nil
}

// FlagQuestion marks or unmarks a question for review.
func (s *AnswerService) FlagQuestion(ctx context.Context, userID int, attemptID, questionID uuid.UUID, flagged bool) (*model.ParticipantQuestion, error) {
	own, attempt, err := s.writableRecord(ctx, userID, attemptID, questionID)
	if err != nil {
		return nil, err
	}

	rec, err := s.answers.SetFlag(ctx, own.Record.ID, flagged)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, apperr.ErrCategoryClosed
		}
		return nil, fmt.Errorf("flag question: %w", err)
	}

	s.invalidateAnswer(ctx, cache.OpFlagQuestion, attempt, questionID)
	return rec, nil
}

// GradeEssay awards manual points to an essay answer. The point cannot
// exceed the snapshot's maximum. When the owning attempt is already
// completed its stored grade is recomputed in the same transaction, so essay
// grading after the fact updates rankings.
func (s *AnswerService) GradeEssay(ctx context.Context, actor Actor, recordID uuid.UUID, point float64, isGraded bool) (*model.ParticipantQuestion, error) {
	if !actor.Role.Admin() {
		return nil, apperr.ErrUnauthorized
	}

	existing, err := s.answers.GetRecordByID(ctx, recordID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("get answer record: %w", err)
	}
	if existing.QuestionType != model.QuestionTypeEssay {
		return nil, apperr.ErrValidation
	}
	if point < 0 || point > existing.MaxPoint {
		return nil, apperr.ErrValidation
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	attempt, err := s.answers.AttemptOfRecordTx(ctx, tx, recordID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("lock attempt: %w", err)
	}

	rec, err := s.answers.GradeEssayTx(ctx, tx, recordID, point, isGraded)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("grade essay: %w", err)
	}

	if attempt.IsCompleted {
		test, err := s.tests.GetByID(ctx, attempt.TestID)
		if err != nil {
			return nil, fmt.Errorf("get test: %w", err)
		}
		items, err := s.answers.ScoringItemsTx(ctx, tx, attempt.ID)
		if err != nil {
			return nil, fmt.Errorf("load scoring items: %w", err)
		}
		grade := scoring.Grade(test.ScoreType, items)
		if err := s.attempts.SetGradeTx(ctx, tx, attempt.ID, grade); err != nil {
			return nil, fmt.Errorf("update grade: %w", err)
		}
		attempt.Grade = &grade
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	if attempt.IsCompleted {
		test, err := s.tests.GetByID(ctx, attempt.TestID)
		if err == nil {
			s.sessions.enqueueLeaderboardRefresh(ctx, test, attempt)
		}
	}

	s.invalidator.Invalidate(ctx, cache.OpGradeEssay, cache.Refs{
		AttemptID: attempt.ID.String(),
		TestID:    attempt.TestID.String(),
	})

	s.log.Info().
		Str("record_id", recordID.String()).
		Float64("point", point).
		Bool("is_graded", isGraded).
		Int("grader_id", actor.UserID).
		Msg("essay graded")
	return rec, nil
}

// ListEssays returns paginated essay answers for the grading screen.
func (s *AnswerService) ListEssays(ctx context.Context, actor Actor, testID, participantTestID *uuid.UUID, isGraded *bool, page, perPage int) ([]repository.EssayAnswerItem, int64, error) {
	if !actor.Role.Admin() {
		return nil, 0, apperr.ErrUnauthorized
	}
	return s.answers.ListEssays(ctx, testID, participantTestID, isGraded, page, perPage)
}

// writableRecord resolves the snapshot record, verifies ownership and that
// its section still accepts writes, settling expired timers on the way.
func (s *AnswerService) writableRecord(ctx context.Context, userID int, attemptID, questionID uuid.UUID) (*repository.AnswerOwnership, *model.ParticipantTest, error) {
	own, err := s.answers.GetByAttemptAndQuestion(ctx, attemptID, questionID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, nil, apperr.ErrNotFound
		}
		return nil, nil, fmt.Errorf("resolve answer record: %w", err)
	}
	if own.AttemptUserID != userID {
		return nil, nil, apperr.ErrUnauthorized
	}
	if own.Category.Ended() {
		return nil, nil, apperr.ErrCategoryClosed
	}

	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, nil, fmt.Errorf("get attempt: %w", err)
	}
	if attempt.IsCompleted {
		return nil, nil, apperr.ErrCategoryClosed
	}

	closed, err := s.sessions.SettleTimers(ctx, attempt, own.Category)
	if err != nil {
		return nil, nil, err
	}
	if closed {
		return nil, nil, apperr.ErrCategoryClosed
	}
	return own, attempt, nil
}

func (s *AnswerService) invalidateAnswer(ctx context.Context, op cache.Operation, attempt *model.ParticipantTest, questionID uuid.UUID) {
	s.invalidator.Invalidate(ctx, op, cache.Refs{
		AttemptID:  attempt.ID.String(),
		QuestionID: questionID.String(),
		TestID:     attempt.TestID.String(),
	})
}
