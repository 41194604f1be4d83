package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperr "github.com/studypulse/studypulse-backend/internal/pkg/errors"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps domain sentinel errors onto HTTP statuses.
func RespondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		RespondError(c, http.StatusBadRequest, "invalid_input", err)
	case errors.Is(err, apperr.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, apperr.ErrConcurrencyConflict):
		RespondError(c, http.StatusConflict, "conflict", err)
	case errors.Is(err, apperr.ErrPlanClosed):
		RespondError(c, http.StatusConflict, "plan_closed", err)
	case errors.Is(err, apperr.ErrDataInsufficient):
		RespondError(c, http.StatusUnprocessableEntity, "insufficient_data", err)
	case errors.Is(err, apperr.ErrUpstreamUnavailable):
		RespondError(c, http.StatusServiceUnavailable, "upstream_unavailable", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}
