package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/edulita/tryout-backend/internal/apperr"
	"github.com/edulita/tryout-backend/internal/cache"
	"github.com/edulita/tryout-backend/internal/config"
	"github.com/edulita/tryout-backend/internal/model"
	"github.com/edulita/tryout-backend/internal/repository"
	"github.com/edulita/tryout-backend/internal/scoring"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// sessionCacheTTL bounds the Redis lifetime of the active-category pointer
// and deadline hints. Postgres stays authoritative; an evicted key is
// re-derived on the next read.
const sessionCacheTTL = 30 * time.Minute

// SessionService drives the attempt lifecycle: generate, continue, end, and
// the admin reopen edge. Timers are enforced lazily — every entry point
// re-validates deadlines and force-ends with the recorded deadline as the end
// time before touching anything else.
type SessionService struct {
	pool        *pgxpool.Pool
	rdb         *redis.Client
	tests       *repository.TestRepository
	attempts    *repository.AttemptRepository
	categories  *repository.CategoryRepository
	answers     *repository.AnswerRepository
	invalidator *cache.Invalidator
	log         zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	pool *pgxpool.Pool,
	rdb *redis.Client,
	tests *repository.TestRepository,
	attempts *repository.AttemptRepository,
	categories *repository.CategoryRepository,
	answers *repository.AnswerRepository,
	invalidator *cache.Invalidator,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		pool:        pool,
		rdb:         rdb,
		tests:       tests,
		attempts:    attempts,
		categories:  categories,
		answers:     answers,
		invalidator: invalidator,
		log:         log.With().Str("component", "session_service").Logger(),
	}
}

// Generate idempotently returns the user's ongoing attempt for the test or
// creates a new one. Availability checks (schedule window, access code,
// exclusive ongoing attempt elsewhere, attempt quota) only gate creation; an
// already-ongoing attempt is always resumable.
func (s *SessionService) Generate(ctx context.Context, userID int, req *model.GenerateTestRequest) (*model.ParticipantTest, error) {
	testID, err := uuid.Parse(req.TestID)
	if err != nil {
		return nil, apperr.ErrValidation
	}

	test, err := s.tests.GetByID(ctx, testID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("get test: %w", err)
	}

	if existing, err := s.attempts.GetOngoing(ctx, testID, userID); err == nil {
		return existing, nil
	} else if !repository.IsNoRows(err) {
		return nil, fmt.Errorf("get ongoing attempt: %w", err)
	}

	now := time.Now()
	if !windowOpen(test, now) {
		return nil, apperr.ErrTestNotAvailable
	}
	if test.Code != "" && req.Code != test.Code {
		return nil, apperr.ErrInvalidCode
	}

	if _, err := s.attempts.FindExclusiveOngoingElsewhere(ctx, userID, testID); err == nil {
		return nil, apperr.ErrAlreadyOngoingElsewhere
	} else if !repository.IsNoRows(err) {
		return nil, fmt.Errorf("check exclusive attempt: %w", err)
	}

	if test.MaxAttempts > 0 {
		completed, err := s.attempts.CountCompleted(ctx, testID, userID)
		if err != nil {
			return nil, fmt.Errorf("count attempts: %w", err)
		}
		if completed >= test.MaxAttempts {
			return nil, apperr.ErrMaxAttempts
		}
	}

	attempt := &model.ParticipantTest{TestID: testID, UserID: userID, IsOngoing: true}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		if !repository.IsNoRows(err) {
			return nil, fmt.Errorf("create attempt: %w", err)
		}
		// Lost a concurrent duplicate call; the winner's row is ours too.
		attempt, err = s.attempts.GetOngoing(ctx, testID, userID)
		if err != nil {
			return nil, fmt.Errorf("refetch attempt: %w", err)
		}
	}

	s.cacheDeadline(ctx, test, attempt)
	s.invalidator.Invalidate(ctx, cache.OpGenerate, cache.Refs{
		AttemptID: attempt.ID.String(),
		TestID:    testID.String(),
	})

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("test_id", testID.String()).
		Int("user_id", userID).
		Msg("attempt generated")
	return attempt, nil
}

// Continue resumes an ongoing attempt: returns the currently open category
// with its frozen questions, opening the next section lazily when none is
// open. Expired timers are settled first; exhausting the last section ends
// the whole session and returns the completed attempt with no category.
func (s *SessionService) Continue(ctx context.Context, userID int, attemptID uuid.UUID) (*model.ContinueTestData, error) {
	attempt, test, err := s.ownedOngoing(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if deadline, has := AttemptDeadline(test, attempt); Expired(now, deadline, has) {
		completed, err := s.completeAttempt(ctx, test, attempt.ID, deadline)
		if err != nil {
			return nil, err
		}
		return &model.ContinueTestData{ParticipantTest: completed}, nil
	}

	open, err := s.categories.GetOpen(ctx, attemptID)
	if err != nil && !repository.IsNoRows(err) {
		return nil, fmt.Errorf("get open category: %w", err)
	}
	if open != nil {
		if deadline, has := CategoryDeadline(test, attempt, open); Expired(now, deadline, has) {
			if err := s.expireCategory(ctx, test, attempt, open, deadline); err != nil {
				return nil, err
			}
			open = nil
		}
	}

	if open == nil {
		open, err = s.openNextCategory(ctx, test, attempt)
		if err != nil {
			return nil, err
		}
		if open == nil {
			// Every section has run; the attempt is over.
			completed, err := s.completeAttempt(ctx, test, attempt.ID, now)
			if err != nil {
				return nil, err
			}
			return &model.ContinueTestData{ParticipantTest: completed}, nil
		}
	}

	questions, err := s.answers.ListByCategory(ctx, open.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	s.setActivePointer(ctx, attempt.ID, open.ID)
	s.invalidator.Invalidate(ctx, cache.OpContinue, cache.Refs{
		AttemptID: attempt.ID.String(),
		TestID:    attempt.TestID.String(),
	})

	return &model.ContinueTestData{
		ParticipantTest: attempt,
		ActiveCategory:  open,
		Questions:       questions,
	}, nil
}

// ContinueCategory switches the active pointer to the named category. A
// finished section cannot be resumed.
func (s *SessionService) ContinueCategory(ctx context.Context, userID int, attemptID, categoryID uuid.UUID) (*model.ContinueTestData, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if attempt.UserID != userID {
		return nil, apperr.ErrUnauthorized
	}
	if attempt.IsCompleted {
		return nil, apperr.ErrInvalidTransition
	}

	test, err := s.tests.GetByID(ctx, attempt.TestID)
	if err != nil {
		return nil, fmt.Errorf("get test: %w", err)
	}

	cat, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	if cat.ParticipantTestID != attemptID {
		return nil, apperr.ErrNotFound
	}
	if cat.Ended() {
		return nil, apperr.ErrInvalidTransition
	}

	now := time.Now()
	if deadline, has := AttemptDeadline(test, attempt); Expired(now, deadline, has) {
		if _, err := s.completeAttempt(ctx, test, attempt.ID, deadline); err != nil {
			return nil, err
		}
		return nil, apperr.ErrInvalidTransition
	}
	if deadline, has := CategoryDeadline(test, attempt, cat); Expired(now, deadline, has) {
		if err := s.expireCategory(ctx, test, attempt, cat, deadline); err != nil {
			return nil, err
		}
		return nil, apperr.ErrInvalidTransition
	}

	questions, err := s.answers.ListByCategory(ctx, cat.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	s.setActivePointer(ctx, attempt.ID, cat.ID)
	s.invalidator.Invalidate(ctx, cache.OpContinueCategory, cache.Refs{
		AttemptID: attempt.ID.String(),
		TestID:    attempt.TestID.String(),
	})

	return &model.ContinueTestData{
		ParticipantTest: attempt,
		ActiveCategory:  cat,
		Questions:       questions,
	}, nil
}

// EndCategory closes a section and finalizes its scoring (unanswered
// auto-gradable snapshots become zero). Replays against an already-ended
// section fail with InvalidTransition. A section whose timer already expired
// is closed at the deadline, not at the request time.
func (s *SessionService) EndCategory(ctx context.Context, userID int, attemptID, categoryID uuid.UUID) (*model.ParticipantQuestionCategory, error) {
	attempt, test, err := s.ownedOngoing(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	cat, err := s.categories.GetForUpdate(ctx, tx, categoryID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("lock category: %w", err)
	}
	if cat.ParticipantTestID != attemptID {
		return nil, apperr.ErrNotFound
	}
	if cat.Ended() {
		return nil, apperr.ErrInvalidTransition
	}

	endedAt := time.Now()
	if deadline, has := CategoryDeadline(test, attempt, cat); Expired(endedAt, deadline, has) {
		endedAt = deadline
	}

	if err := s.categories.EndTx(ctx, tx, cat.ID, endedAt); err != nil {
		if repository.IsNoRows(err) {
			return nil, apperr.ErrInvalidTransition
		}
		return nil, fmt.Errorf("end category: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	cat.EndDate = &endedAt
	s.invalidator.Invalidate(ctx, cache.OpEndCategory, cache.Refs{
		AttemptID: attemptID.String(),
		TestID:    attempt.TestID.String(),
	})

	s.log.Info().
		Str("attempt_id", attemptID.String()).
		Str("category_id", cat.ID.String()).
		Msg("category ended")
	return cat, nil
}

// EndSession completes the attempt: closes any still-open category, records
// ended_at and the final grade. Idempotent — a second call returns the same
// completed state. Participants may only end their own attempt; supervisors
// reach this through force-finish.
func (s *SessionService) EndSession(ctx context.Context, actor Actor, attemptID uuid.UUID) (*model.ParticipantTest, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if attempt.UserID != actor.UserID && !actor.Role.Admin() {
		return nil, apperr.ErrUnauthorized
	}
	if attempt.IsCompleted {
		return attempt, nil
	}

	test, err := s.tests.GetByID(ctx, attempt.TestID)
	if err != nil {
		return nil, fmt.Errorf("get test: %w", err)
	}

	endedAt := time.Now()
	if deadline, has := AttemptDeadline(test, attempt); Expired(endedAt, deadline, has) {
		endedAt = deadline
	}
	return s.completeAttempt(ctx, test, attemptID, endedAt)
}

// Regenerate is the admin reopen edge: completion is cleared provisionally
// (grade included) and the most recent section is reactivated with a fresh
// timer, or the first section is created if the attempt somehow had none.
func (s *SessionService) Regenerate(ctx context.Context, actor Actor, attemptID uuid.UUID) (*model.ContinueTestData, error) {
	if !actor.Role.Admin() {
		return nil, apperr.ErrUnauthorized
	}

	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}

	test, err := s.tests.GetByID(ctx, attempt.TestID)
	if err != nil {
		return nil, fmt.Errorf("get test: %w", err)
	}

	now := time.Now()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	locked, err := s.attempts.GetForUpdate(ctx, tx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("lock attempt: %w", err)
	}
	if !locked.IsCompleted {
		return nil, apperr.ErrInvalidTransition
	}

	if err := s.attempts.ReopenTx(ctx, tx, attemptID); err != nil {
		if repository.IsNoRows(err) {
			return nil, apperr.ErrInvalidTransition
		}
		return nil, fmt.Errorf("reopen attempt: %w", err)
	}

	var active *model.ParticipantQuestionCategory
	latest, err := s.categories.GetLatest(ctx, attemptID)
	switch {
	case err == nil:
		if err := s.categories.ReactivateTx(ctx, tx, latest.ID, now); err != nil {
			return nil, fmt.Errorf("reactivate category: %w", err)
		}
		latest.StartDate = now
		latest.EndDate = nil
		active = latest
	case repository.IsNoRows(err):
		// No section ever ran; the first one is created after commit.
	default:
		return nil, fmt.Errorf("get latest category: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	attempt, err = s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("refetch attempt: %w", err)
	}

	if active == nil {
		active, err = s.openNextCategory(ctx, test, attempt)
		if err != nil {
			return nil, err
		}
	}

	var questions []model.ParticipantQuestion
	if active != nil {
		questions, err = s.answers.ListByCategory(ctx, active.ID)
		if err != nil {
			return nil, fmt.Errorf("list questions: %w", err)
		}
		s.setActivePointer(ctx, attemptID, active.ID)
	}

	s.invalidator.Invalidate(ctx, cache.OpRegenerate, cache.Refs{
		AttemptID: attemptID.String(),
		TestID:    attempt.TestID.String(),
	})

	s.log.Info().
		Str("attempt_id", attemptID.String()).
		Int("actor_id", actor.UserID).
		Msg("attempt reopened")
	return &model.ContinueTestData{
		ParticipantTest: attempt,
		ActiveCategory:  active,
		Questions:       questions,
	}, nil
}

// ActiveCategory resolves the attempt's currently open category, or nil when
// none is open. The Redis pointer is tried first; a stale or missing pointer
// is healed from Postgres.
func (s *SessionService) ActiveCategory(ctx context.Context, actor Actor, attemptID uuid.UUID) (*model.ParticipantQuestionCategory, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if attempt.UserID != actor.UserID && !actor.Role.Admin() {
		return nil, apperr.ErrUnauthorized
	}
	if attempt.IsCompleted {
		return nil, nil
	}

	pointerKey := config.CacheKey.ActiveCategoryKey(attemptID.String())
	var cat *model.ParticipantQuestionCategory
	if cached, err := s.rdb.Get(ctx, pointerKey).Result(); err == nil {
		if id, parseErr := uuid.Parse(cached); parseErr == nil {
			if c, getErr := s.categories.GetByID(ctx, id); getErr == nil && !c.Ended() && c.ParticipantTestID == attemptID {
				cat = c
			} else {
				s.rdb.Del(ctx, pointerKey)
			}
		}
	}

	if cat == nil {
		cat, err = s.categories.GetOpen(ctx, attemptID)
		if err != nil {
			if repository.IsNoRows(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("get open category: %w", err)
		}
	}

	test, err := s.tests.GetByID(ctx, attempt.TestID)
	if err != nil {
		return nil, fmt.Errorf("get test: %w", err)
	}

	now := time.Now()
	if deadline, has := AttemptDeadline(test, attempt); Expired(now, deadline, has) {
		if _, err := s.completeAttempt(ctx, test, attempt.ID, deadline); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if deadline, has := CategoryDeadline(test, attempt, cat); Expired(now, deadline, has) {
		if err := s.expireCategory(ctx, test, attempt, cat, deadline); err != nil {
			return nil, err
		}
		return nil, nil
	}

	s.setActivePointer(ctx, attemptID, cat.ID)
	return cat, nil
}

// SettleTimers enforces the lazy timer contract on behalf of the Answer
// Store before a write: an expired section (or attempt) is force-ended with
// the deadline as its recorded end time. Returns true when the category is
// closed as a result.
func (s *SessionService) SettleTimers(ctx context.Context, attempt *model.ParticipantTest, cat *model.ParticipantQuestionCategory) (bool, error) {
	test, err := s.tests.GetByID(ctx, attempt.TestID)
	if err != nil {
		return false, fmt.Errorf("get test: %w", err)
	}

	now := time.Now()
	if deadline, has := AttemptDeadline(test, attempt); Expired(now, deadline, has) {
		if _, err := s.completeAttempt(ctx, test, attempt.ID, deadline); err != nil {
			return false, err
		}
		return true, nil
	}
	if deadline, has := CategoryDeadline(test, attempt, cat); Expired(now, deadline, has) {
		if err := s.expireCategory(ctx, test, attempt, cat, deadline); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// ownedOngoing loads an attempt, verifies ownership and that it is still
// ongoing, and resolves its test definition.
func (s *SessionService) ownedOngoing(ctx context.Context, userID int, attemptID uuid.UUID) (*model.ParticipantTest, *model.Test, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, nil, apperr.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get attempt: %w", err)
	}
	if attempt.UserID != userID {
		return nil, nil, apperr.ErrUnauthorized
	}
	if attempt.IsCompleted {
		return nil, nil, apperr.ErrAlreadyCompleted
	}

	test, err := s.tests.GetByID(ctx, attempt.TestID)
	if err != nil {
		return nil, nil, fmt.Errorf("get test: %w", err)
	}
	return attempt, test, nil
}

// openNextCategory creates the participant category for the test's next
// unvisited section definition, snapshotting its questions. Returns nil when
// every definition already ran under this attempt.
func (s *SessionService) openNextCategory(ctx context.Context, test *model.Test, attempt *model.ParticipantTest) (*model.ParticipantQuestionCategory, error) {
	def, err := s.categories.NextDefinition(ctx, test.ID, attempt.ID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("next category definition: %w", err)
	}

	cat, err := s.categories.CreateWithSnapshot(ctx, def, attempt.ID, test.ShuffleQuestions)
	if err != nil {
		return nil, fmt.Errorf("open category: %w", err)
	}

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("category_id", cat.ID.String()).
		Str("name", cat.Name).
		Msg("category opened")
	return cat, nil
}

// expireCategory closes an overrun section at its deadline. When nothing is
// left to run afterwards, the whole session is completed at the same time —
// fail closed with a recorded end time.
func (s *SessionService) expireCategory(ctx context.Context, test *model.Test, attempt *model.ParticipantTest, cat *model.ParticipantQuestionCategory, deadline time.Time) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := s.categories.GetForUpdate(ctx, tx, cat.ID); err != nil {
		if repository.IsNoRows(err) {
			return nil
		}
		return fmt.Errorf("lock category: %w", err)
	}
	if err := s.categories.EndTx(ctx, tx, cat.ID, deadline); err != nil && !repository.IsNoRows(err) {
		return fmt.Errorf("end expired category: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	cat.EndDate = &deadline
	s.invalidator.Invalidate(ctx, cache.OpEndCategory, cache.Refs{
		AttemptID: attempt.ID.String(),
		TestID:    attempt.TestID.String(),
	})
	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("category_id", cat.ID.String()).
		Time("deadline", deadline).
		Msg("category force-ended on expiry")

	if _, err := s.categories.GetOpen(ctx, attempt.ID); err == nil {
		return nil
	} else if !repository.IsNoRows(err) {
		return fmt.Errorf("get open category: %w", err)
	}
	if _, err := s.categories.NextDefinition(ctx, test.ID, attempt.ID); err == nil {
		return nil
	} else if !repository.IsNoRows(err) {
		return fmt.Errorf("next category definition: %w", err)
	}

	// That was the last section.
	_, err = s.completeAttempt(ctx, test, attempt.ID, deadline)
	return err
}

// completeAttempt is the single terminal transition: under a row lock it
// closes every open category, computes the final grade over the frozen
// snapshots, and marks the attempt completed. Safe to replay — a completed
// attempt is returned as-is.
func (s *SessionService) completeAttempt(ctx context.Context, test *model.Test, attemptID uuid.UUID, endedAt time.Time) (*model.ParticipantTest, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	locked, err := s.attempts.GetForUpdate(ctx, tx, attemptID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("lock attempt: %w", err)
	}
	if locked.IsCompleted {
		return locked, nil
	}

	if err := s.categories.EndAllOpenTx(ctx, tx, attemptID, endedAt); err != nil {
		return nil, fmt.Errorf("end open categories: %w", err)
	}

	items, err := s.answers.ScoringItemsTx(ctx, tx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("load scoring items: %w", err)
	}
	grade := scoring.Grade(test.ScoreType, items)

	if err := s.attempts.CompleteTx(ctx, tx, attemptID, grade, endedAt); err != nil {
		if repository.IsNoRows(err) {
			// Raced another completion; the lock means this cannot happen,
			// but replays stay harmless either way.
			return s.attempts.GetByID(ctx, attemptID)
		}
		return nil, fmt.Errorf("complete attempt: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	locked.EndedAt = &endedAt
	locked.Grade = &grade
	locked.IsOngoing = false
	locked.IsCompleted = true

	s.enqueueLeaderboardRefresh(ctx, test, locked)
	s.invalidator.Invalidate(ctx, cache.OpEndSession, cache.Refs{
		AttemptID: attemptID.String(),
		TestID:    test.ID.String(),
	})

	s.log.Info().
		Str("attempt_id", attemptID.String()).
		Float64("grade", grade).
		Time("ended_at", endedAt).
		Msg("attempt completed")
	return locked, nil
}

// enqueueLeaderboardRefresh hands the completed attempt to the leaderboard
// worker. Best-effort: the ranking ZSET is a cache over Postgres.
func (s *SessionService) enqueueLeaderboardRefresh(ctx context.Context, test *model.Test, attempt *model.ParticipantTest) {
	job := model.LeaderboardJob{
		TestID:    test.ID.String(),
		AttemptID: attempt.ID.String(),
		UserID:    attempt.UserID,
	}
	if attempt.Grade != nil {
		job.Grade = *attempt.Grade
	}
	if attempt.EndedAt != nil {
		job.EndedAt = attempt.EndedAt.UTC().Format(time.RFC3339)
	}

	raw, err := json.Marshal(job)
	if err != nil {
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.RefreshLeaderboardQueue, raw).Err(); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", job.AttemptID).Msg("enqueue leaderboard refresh failed")
	}
}

// setActivePointer caches the active-category pointer. Best-effort.
func (s *SessionService) setActivePointer(ctx context.Context, attemptID, categoryID uuid.UUID) {
	key := config.CacheKey.ActiveCategoryKey(attemptID.String())
	if err := s.rdb.Set(ctx, key, categoryID.String(), sessionCacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", attemptID.String()).Msg("cache active category failed")
	}
}

// cacheDeadline publishes the attempt deadline as a unix-seconds hint so
// clients can render a countdown without recomputing timer math.
func (s *SessionService) cacheDeadline(ctx context.Context, test *model.Test, attempt *model.ParticipantTest) {
	deadline, has := AttemptDeadline(test, attempt)
	if !has {
		return
	}
	key := config.CacheKey.AttemptDeadlineKey(attempt.ID.String())
	ttl := time.Until(deadline)
	if ttl <= 0 {
		return
	}
	if err := s.rdb.Set(ctx, key, deadline.Unix(), ttl).Err(); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", attempt.ID.String()).Msg("cache deadline failed")
	}
}
