package service

import (
	"context"
	"fmt"
	"time"

	"github.com/edulita/tryout-backend/internal/apperr"
	"github.com/edulita/tryout-backend/internal/model"
	"github.com/edulita/tryout-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TestService is the administrative surface over test definitions: the
// tests themselves, their question categories and bank questions. Attempt
// snapshots never read these rows again after category start, so edits here
// cannot corrupt running attempts.
type TestService struct {
	tests *repository.TestRepository
	log   zerolog.Logger
}

// NewTestService creates a new TestService.
func NewTestService(tests *repository.TestRepository, log zerolog.Logger) *TestService {
	return &TestService{
		tests: tests,
		log:   log.With().Str("component", "test_service").Logger(),
	}
}

// TestWithCategories is a definition plus its section list.
type TestWithCategories struct {
	model.Test
	Categories []model.QuestionCategory `json:"categories"`
}

// Get returns one test definition with its categories.
func (s *TestService) Get(ctx context.Context, id uuid.UUID) (*TestWithCategories, error) {
	test, err := s.tests.GetByID(ctx, id)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("get test: %w", err)
	}

	cats, err := s.tests.ListCategories(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return &TestWithCategories{Test: *test, Categories: cats}, nil
}

// List returns paginated test definitions.
func (s *TestService) List(ctx context.Context, actor Actor, schoolID *int, search string, page, perPage int) ([]model.Test, int64, error) {
	if !actor.Role.Admin() {
		return nil, 0, apperr.ErrUnauthorized
	}
	return s.tests.List(ctx, schoolID, search, page, perPage)
}

// Create inserts a new test definition.
func (s *TestService) Create(ctx context.Context, actor Actor, req *model.CreateTestRequest) (*model.Test, error) {
	if !actor.Role.Admin() {
		return nil, apperr.ErrUnauthorized
	}

	test := &model.Test{
		SchoolID:              req.SchoolID,
		Title:                 req.Title,
		SubTitle:              req.SubTitle,
		Slug:                  req.Slug,
		Description:           req.Description,
		TimerType:             model.TimerType(req.TimerType),
		ScoreType:             model.ScoreType(req.ScoreType),
		TotalTime:             req.TotalTime,
		PassGrade:             req.PassGrade,
		ShuffleQuestions:      req.ShuffleQuestions,
		Code:                  req.Code,
		MaxAttempts:           req.MaxAttempts,
		AllowConcurrent:       req.AllowConcurrent == nil || *req.AllowConcurrent,
		IsGraded:              req.IsGraded,
		IsExplanationReleased: req.IsExplanationReleased,
		SupervisorID:          req.SupervisorID,
	}

	var err error
	if test.StartDate, err = parseDate(req.StartDate); err != nil {
		return nil, apperr.ErrValidation
	}
	if test.EndDate, err = parseDate(req.EndDate); err != nil {
		return nil, apperr.ErrValidation
	}

	if err := s.tests.Create(ctx, test); err != nil {
		return nil, fmt.Errorf("create test: %w", err)
	}

	s.log.Info().
		Str("test_id", test.ID.String()).
		Str("title", test.Title).
		Int("actor_id", actor.UserID).
		Msg("test created")
	return test, nil
}

// Update applies a partial administrative edit. Supervisors may only edit
// tests assigned to them.
func (s *TestService) Update(ctx context.Context, actor Actor, id uuid.UUID, req *model.UpdateTestRequest) (*model.Test, error) {
	test, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		test.Title = req.Title
	}
	if req.SubTitle != nil {
		test.SubTitle = *req.SubTitle
	}
	if req.Description != nil {
		test.Description = *req.Description
	}
	if req.TimerType != "" {
		test.TimerType = model.TimerType(req.TimerType)
	}
	if req.ScoreType != "" {
		test.ScoreType = model.ScoreType(req.ScoreType)
	}
	if req.TotalTime != nil {
		test.TotalTime = *req.TotalTime
	}
	if req.PassGrade != nil {
		test.PassGrade = *req.PassGrade
	}
	if req.ShuffleQuestions != nil {
		test.ShuffleQuestions = *req.ShuffleQuestions
	}
	if req.StartDate != "" {
		if test.StartDate, err = parseDate(req.StartDate); err != nil {
			return nil, apperr.ErrValidation
		}
	}
	if req.EndDate != "" {
		if test.EndDate, err = parseDate(req.EndDate); err != nil {
			return nil, apperr.ErrValidation
		}
	}
	if req.Code != nil {
		test.Code = *req.Code
	}
	if req.MaxAttempts != nil {
		test.MaxAttempts = *req.MaxAttempts
	}
	if req.AllowConcurrent != nil {
		test.AllowConcurrent = *req.AllowConcurrent
	}
	if req.IsGraded != nil {
		test.IsGraded = *req.IsGraded
	}
	if req.IsExplanationReleased != nil {
		test.IsExplanationReleased = *req.IsExplanationReleased
	}
	if req.SupervisorID != nil {
		test.SupervisorID = req.SupervisorID
	}

	if err := s.tests.Update(ctx, test); err != nil {
		if repository.IsNoRows(err) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("update test: %w", err)
	}
	return test, nil
}

// AddCategory appends a question-category definition to a test.
func (s *TestService) AddCategory(ctx context.Context, actor Actor, testID uuid.UUID, req *model.AddCategoryRequest) (*model.QuestionCategory, error) {
	if _, err := s.editable(ctx, actor, testID); err != nil {
		return nil, err
	}

	cat := &model.QuestionCategory{
		TestID:    testID,
		Name:      req.Name,
		Position:  req.Position,
		TimeLimit: req.TimeLimit,
	}
	if err := s.tests.CreateCategory(ctx, cat); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return cat, nil
}

// AddQuestion appends a bank question to a category of the test.
func (s *TestService) AddQuestion(ctx context.Context, actor Actor, testID, categoryID uuid.UUID, req *model.AddQuestionRequest) (*model.Question, error) {
	if _, err := s.editable(ctx, actor, testID); err != nil {
		return nil, err
	}

	cats, err := s.tests.ListCategories(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	found := false
	for _, c := range cats {
		if c.ID == categoryID {
			found = true
			break
		}
	}
	if !found {
		return nil, apperr.ErrNotFound
	}

	qType := model.QuestionType(req.QuestionType)
	if qType.AutoGradable() && req.AnswerKey == "" {
		return nil, apperr.ErrValidation
	}

	q := &model.Question{
		QuestionCategoryID: categoryID,
		QuestionText:       req.QuestionText,
		QuestionType:       qType,
		Options:            req.Options,
		AnswerKey:          req.AnswerKey,
		Point:              req.Point,
		IRTDifficulty:      req.IRTDifficulty,
		IRTDiscrimination:  req.IRTDiscrimination,
		Explanation:        req.Explanation,
		OrderNum:           req.OrderNum,
	}
	if err := s.tests.CreateQuestion(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

// editable loads a test and checks the actor may modify it.
func (s *TestService) editable(ctx context.Context, actor Actor, id uuid.UUID) (*model.Test, error) {
	if !actor.Role.Admin() {
		return nil, apperr.ErrUnauthorized
	}

	test, err := s.tests.GetByID(ctx, id)
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

func parseDate(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
