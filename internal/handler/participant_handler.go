package handler

import (
	"net/http"

	"github.com/edulita/tryout-backend/internal/middleware"
	"github.com/edulita/tryout-backend/internal/model"
	"github.com/edulita/tryout-backend/internal/response"
	"github.com/edulita/tryout-backend/internal/service"
	"github.com/edulita/tryout-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ParticipantHandler handles the attempt lifecycle and answer endpoints.
type ParticipantHandler struct {
	sessionService *service.SessionService
	answerService  *service.AnswerService
}

// NewParticipantHandler creates a new ParticipantHandler.
func NewParticipantHandler(sessionService *service.SessionService, answerService *service.AnswerService) *ParticipantHandler {
	return &ParticipantHandler{
		sessionService: sessionService,
		answerService:  answerService,
	}
}

// GenerateTest godoc
// POST /api/v1/participant/generate-test
// Idempotently starts (or resumes) an attempt at a test.
func (h *ParticipantHandler) GenerateTest(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.GenerateTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, err := h.sessionService.Generate(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"participant_test": attempt})
}

// ContinueTest godoc
// PUT /api/v1/participant/continue/:attempt_id
// Resumes an attempt: returns the open category and its questions, opening
// the next section lazily.
func (h *ParticipantHandler) ContinueTest(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	data, err := h.sessionService.Continue(c.Request.Context(), claims.UserID, attemptID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, data)
}

// ContinueCategory godoc
// PUT /api/v1/participant/continue/:attempt_id/:category_id
// Switches the active pointer to the named category.
func (h *ParticipantHandler) ContinueCategory(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	categoryID, err := uuid.Parse(c.Param("category_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	data, err := h.sessionService.ContinueCategory(c.Request.Context(), claims.UserID, attemptID, categoryID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, data)
}

// EndCategory godoc
// PUT /api/v1/participant/end-category/:attempt_id/:category_id
// Closes a section; its scoring becomes final.
func (h *ParticipantHandler) EndCategory(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	categoryID, err := uuid.Parse(c.Param("category_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	cat, err := h.sessionService.EndCategory(c.Request.Context(), claims.UserID, attemptID, categoryID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"category": cat})
}

// EndSession godoc
// PUT /api/v1/participant/end-session/:attempt_id
// Completes the attempt and computes the final grade. Idempotent.
func (h *ParticipantHandler) EndSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	attempt, err := h.sessionService.EndSession(c.Request.Context(), claims.Actor(), attemptID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"participant_test": attempt})
}

// ActiveCategory godoc
// GET /api/v1/participant/active-category/:attempt_id
// Returns the currently open category, or null when none is open.
func (h *ParticipantHandler) ActiveCategory(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	cat, err := h.sessionService.ActiveCategory(c.Request.Context(), claims.Actor(), attemptID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"active_category": cat})
}

// SaveAnswer godoc
// PUT /api/v1/participant/save-answer/:attempt_id
// Stores an answer; auto-gradable types are scored synchronously.
func (h *ParticipantHandler) SaveAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SaveAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	rec, err := h.answerService.SaveAnswer(c.Request.Context(), claims.UserID, attemptID, questionID, req.Answer)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"answer": rec})
}

// ResetAnswer godoc
// PUT /api/v1/participant/reset-answer/:attempt_id
// Clears a saved answer without touching the review flag.
func (h *ParticipantHandler) ResetAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.ResetAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	rec, err := h.answerService.ResetAnswer(c.Request.Context(), claims.UserID, attemptID, questionID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"answer": rec})
}

// FlagQuestion godoc
// PUT /api/v1/participant/flag-question/:attempt_id
// Marks or unmarks a question for review.
func (h *ParticipantHandler) FlagQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.FlagQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	rec, err := h.answerService.FlagQuestion(c.Request.Context(), claims.UserID, attemptID, questionID, *req.Flagged)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"answer": rec})
}

// RegenerateTest godoc
// PUT /api/v1/participant/regenerate-test/:attempt_id
// Admin reopen edge: a completed attempt returns to ongoing.
func (h *ParticipantHandler) RegenerateTest(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	data, err := h.sessionService.Regenerate(c.Request.Context(), claims.Actor(), attemptID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, data)
}
