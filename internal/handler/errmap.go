package handler

import (
	"errors"
	"net/http"

	"github.com/edulita/tryout-backend/internal/apperr"
	"github.com/edulita/tryout-backend/internal/response"
	"github.com/gin-gonic/gin"
)

// failFromErr maps the engine's sentinel errors to HTTP status and response
// codes. Handlers never translate errors ad hoc.
func failFromErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, apperr.ErrAlreadyCompleted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadyCompleted)
	case errors.Is(err, apperr.ErrInvalidTransition):
		response.Fail(c, http.StatusConflict, response.ErrInvalidTransition)
	case errors.Is(err, apperr.ErrCategoryClosed):
		response.Fail(c, http.StatusConflict, response.ErrCategoryClosed)
	case errors.Is(err, apperr.ErrAlreadyOngoingElsewhere):
		response.Fail(c, http.StatusConflict, response.ErrAlreadyOngoingElsewhere)
	case errors.Is(err, apperr.ErrUnauthorized):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, apperr.ErrTestNotAvailable):
		response.Fail(c, http.StatusForbidden, response.ErrTestNotAvailable)
	case errors.Is(err, apperr.ErrInvalidCode):
		response.Fail(c, http.StatusForbidden, response.ErrInvalidAccessCode)
	case errors.Is(err, apperr.ErrMaxAttempts):
		response.Fail(c, http.StatusForbidden, response.ErrMaxAttemptsReached)
	case errors.Is(err, apperr.ErrValidation):
		response.Fail(c, http.StatusBadRequest, response.ErrValidation)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
