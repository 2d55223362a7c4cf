package handler

import (
	"net/http"
	"strconv"

	"github.com/edulita/tryout-backend/internal/middleware"
	"github.com/edulita/tryout-backend/internal/response"
	"github.com/edulita/tryout-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MonitorHandler handles the supervisor monitoring endpoints.
type MonitorHandler struct {
	monitorService *service.MonitorService
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(monitorService *service.MonitorService) *MonitorHandler {
	return &MonitorHandler{monitorService: monitorService}
}

// ListOngoing godoc
// GET /api/v1/admin/tests/:id/monitor/ongoing
func (h *MonitorHandler) ListOngoing(c *gin.Context) {
	h.list(c, true)
}

// ListCompleted godoc
// GET /api/v1/admin/tests/:id/monitor/completed
func (h *MonitorHandler) ListCompleted(c *gin.Context) {
	h.list(c, false)
}

func (h *MonitorHandler) list(c *gin.Context, ongoing bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	testID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("paginate", "10"))

	var userID *int
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		userID = &id
	}

	var (
		items interface{}
		total int64
	)
	if ongoing {
		items, total, err = h.monitorService.ListOngoing(c.Request.Context(), claims.Actor(), testID, userID, page, perPage)
	} else {
		items, total, err = h.monitorService.ListCompleted(c.Request.Context(), claims.Actor(), testID, userID, page, perPage)
	}
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK,
		gin.H{"attempts": items},
		response.NewPagination(page, perPage, total))
}

// ForceFinish godoc
// PUT /api/v1/admin/attempts/:id/force-finish
func (h *MonitorHandler) ForceFinish(c *gin.Context) {
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

	attempt, err := h.monitorService.ForceFinish(c.Request.Context(), claims.Actor(), attemptID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"participant_test": attempt})
}

// Reopen godoc
// PUT /api/v1/admin/attempts/:id/reopen
func (h *MonitorHandler) Reopen(c *gin.Context) {
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

	data, err := h.monitorService.Reopen(c.Request.Context(), claims.Actor(), attemptID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, data)
}
