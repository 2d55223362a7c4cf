package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/edulita/tryout-backend/internal/middleware"
	"github.com/edulita/tryout-backend/internal/model"
	"github.com/edulita/tryout-backend/internal/repository"
	"github.com/edulita/tryout-backend/internal/response"
	"github.com/edulita/tryout-backend/internal/service"
	"github.com/edulita/tryout-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HistoryHandler handles the history/ranking read surface and essay grading.
type HistoryHandler struct {
	historyService *service.HistoryService
	answerService  *service.AnswerService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(historyService *service.HistoryService, answerService *service.AnswerService) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
		answerService:  answerService,
	}
}

// ListHistory godoc
// GET /api/v1/participant/history-test
// Filtered, paginated attempt list. Participants only ever see their own
// attempts; filters compose as an intersection.
func (h *HistoryHandler) ListHistory(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	f, ok := parseHistoryFilters(c)
	if !ok {
		return
	}

	page, err := h.historyService.List(c.Request.Context(), claims.Actor(), f)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK,
		gin.H{"history": page.Items},
		response.NewPagination(f.Page, f.PerPage, page.Total))
}

// HistoryDetail godoc
// GET /api/v1/participant/history-test/:id
// One attempt with its sections and answer records.
func (h *HistoryHandler) HistoryDetail(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	detail, err := h.historyService.Detail(c.Request.Context(), claims.Actor(), attemptID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, detail)
}

// Leaderboard godoc
// GET /api/v1/participant/leaderboard/:test_id
// A test's completed attempts in ranking order.
func (h *HistoryHandler) Leaderboard(c *gin.Context) {
	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	entries, err := h.historyService.Leaderboard(c.Request.Context(), testID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"leaderboard": entries})
}

// ListEssayAnswers godoc
// GET /api/v1/participant/essay-answers
// Privileged list of essay answers awaiting (or after) manual grading.
func (h *HistoryHandler) ListEssayAnswers(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("paginate", "10"))

	var testID, participantTestID *uuid.UUID
	if raw := c.Query("test_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		testID = &id
	}
	if raw := c.Query("participant_test_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		participantTestID = &id
	}
	var isGraded *bool
	if raw := c.Query("is_graded"); raw != "" {
		v := raw == "1" || raw == "true"
		isGraded = &v
	}

	items, total, err := h.answerService.ListEssays(c.Request.Context(), claims.Actor(), testID, participantTestID, isGraded, page, perPage)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK,
		gin.H{"essay_answers": items},
		response.NewPagination(page, perPage, total))
}

// GradeEssay godoc
// PUT /api/v1/participant/essay-answers/:id
// Awards manual points to one essay answer.
func (h *HistoryHandler) GradeEssay(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.GradeEssayRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	rec, err := h.answerService.GradeEssay(c.Request.Context(), claims.Actor(), recordID, req.Point, *req.IsGraded)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"answer": rec})
}

// parseHistoryFilters reads the list query params. Reports false after
// writing the error response when a param is malformed.
func parseHistoryFilters(c *gin.Context) (repository.HistoryFilters, bool) {
	f := repository.HistoryFilters{
		Search:           c.Query("search"),
		SearchBySpecific: c.Query("searchBySpecific"),
		OrderBy:          c.DefaultQuery("orderBy", c.Query("order_by")),
	}
	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	f.PerPage, _ = strconv.Atoi(c.DefaultQuery("paginate", "10"))

	if raw := c.Query("test_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return f, false
		}
		f.TestID = &id
	}
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return f, false
		}
		f.UserID = &id
	}
	if raw := c.Query("start_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrValidation)
			return f, false
		}
		f.StartDate = &t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrValidation)
			return f, false
		}
		// End of day, so the range is inclusive of the named date.
		t = t.Add(24 * time.Hour)
		f.EndDate = &t
	}
	if raw := c.Query("is_ongoing"); raw != "" {
		v := raw == "1" || raw == "true"
		f.IsOngoing = &v
	}
	if raw := c.Query("is_completed"); raw != "" {
		v := raw == "1" || raw == "true"
		f.IsCompleted = &v
	}
	return f, true
}
