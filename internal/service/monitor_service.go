package service

import (
	"context"
	"fmt"

	"github.com/edulita/tryout-backend/internal/apperr"
	"github.com/edulita/tryout-backend/internal/model"
	"github.com/edulita/tryout-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MonitorService is the supervisor surface: live views over one test's
// attempts plus the privileged force-finish and reopen transitions. A
// supervisor only reaches tests they supervise; superadmins reach all.
type MonitorService struct {
	tests    *repository.TestRepository
	attempts *repository.AttemptRepository
	history  *repository.HistoryRepository
	sessions *SessionService
	log      zerolog.Logger
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(
	tests *repository.TestRepository,
	attempts *repository.AttemptRepository,
	history *repository.HistoryRepository,
	sessions *SessionService,
	log zerolog.Logger,
) *MonitorService {
	return &MonitorService{
		tests:    tests,
		attempts: attempts,
		history:  history,
		sessions: sessions,
		log:      log.With().Str("component", "monitor_service").Logger(),
	}
}

// ListOngoing returns one page of a test's ongoing attempts, optionally
// restricted to one participant.
func (s *MonitorService) ListOngoing(ctx context.Context, actor Actor, testID uuid.UUID, userID *int, page, perPage int) ([]repository.HistoryItem, int64, error) {
	return s.list(ctx, actor, testID, userID, true, page, perPage)
}

// ListCompleted returns one page of a test's completed attempts, optionally
// restricted to one participant.
func (s *MonitorService) ListCompleted(ctx context.Context, actor Actor, testID uuid.UUID, userID *int, page, perPage int) ([]repository.HistoryItem, int64, error) {
	return s.list(ctx, actor, testID, userID, false, page, perPage)
}

func (s *MonitorService) list(ctx context.Context, actor Actor, testID uuid.UUID, userID *int, ongoing bool, page, perPage int) ([]repository.HistoryItem, int64, error) {
	if _, err := s.supervisedTest(ctx, actor, testID); err != nil {
		return nil, 0, err
	}

	flag := true
	f := repository.HistoryFilters{
		Page:    page,
		PerPage: perPage,
		TestID:  &testID,
		UserID:  userID,
	}
	if ongoing {
		f.IsOngoing = &flag
	} else {
		f.IsCompleted = &flag
		f.OrderBy = "grade"
	}
	return s.history.List(ctx, f)
}

// ForceFinish ends a participant's attempt on behalf of a supervisor. It is
// the same terminal transition as endSession and just as idempotent.
func (s *MonitorService) ForceFinish(ctx context.Context, actor Actor, attemptID uuid.UUID) (*model.ParticipantTest, error) {
	attempt, err := s.supervisedAttempt(ctx, actor, attemptID)
	if err != nil {
		return nil, err
	}

	finished, err := s.sessions.EndSession(ctx, actor, attempt.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("attempt_id", attemptID.String()).
		Int("supervisor_id", actor.UserID).
		Msg("attempt force-finished")
	return finished, nil
}

// Reopen returns a completed attempt to ongoing via the regenerate edge.
func (s *MonitorService) Reopen(ctx context.Context, actor Actor, attemptID uuid.UUID) (*model.ContinueTestData, error) {
	if _, err := s.supervisedAttempt(ctx, actor, attemptID); err != nil {
		return nil, err
	}
	return s.sessions.Regenerate(ctx, actor, attemptID)
}

// CanMonitor checks the actor may attach to a test's live monitor.
func (s *MonitorService) CanMonitor(ctx context.Context, actor Actor, testID uuid.UUID) error {
	_, err := s.supervisedTest(ctx, actor, testID)
	return err
}

// supervisedTest loads a test and checks the actor may monitor it.
func (s *MonitorService) supervisedTest(ctx context.Context, actor Actor, testID uuid.UUID) (*model.Test, error) {
	if !actor.Role.Admin() {
		return nil, apperr.ErrUnauthorized
	}

	test, err := s.tests.GetByID(ctx, testID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("get test: %w", err)
	}

	if actor.Role != model.RoleSuperadmin {
		if test.SupervisorID == nil || *test.SupervisorID != actor.UserID {
			return nil, apperr.ErrUnauthorized
		}
	}
	return test, nil
}

// supervisedAttempt resolves an attempt and checks the actor supervises its test.
func (s *MonitorService) supervisedAttempt(ctx context.Context, actor Actor, attemptID uuid.UUID) (*model.ParticipantTest, error) {
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

	if _, err := s.supervisedTest(ctx, actor, attempt.TestID); err != nil {
		return nil, err
	}
	return attempt, nil
}
