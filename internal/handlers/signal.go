package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studypulse/studypulse-backend/internal/pkg/dbctx"
	apperr "github.com/studypulse/studypulse-backend/internal/pkg/errors"
	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
	"github.com/studypulse/studypulse-backend/internal/requestdata"
	"github.com/studypulse/studypulse-backend/internal/services"
)

type SignalHandler struct {
	log       *logger.Logger
	signalSvc services.SignalService
}

func NewSignalHandler(log *logger.Logger, ssvc services.SignalService) *SignalHandler {
	return &SignalHandler{
		log:       log.With("handler", "SignalHandler"),
		signalSvc: ssvc,
	}
}

// POST /api/signals
// { "events": [ { ts, latency_samples_ms, error_count, ... } ] }
func (h *SignalHandler) Ingest(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request scope"))
		return
	}
	sessionID := rd.SessionID
	if sessionID == uuid.Nil {
		RespondError(c, http.StatusBadRequest, "invalid_input",
			fmt.Errorf("no active session: %w", apperr.ErrValidation))
		return
	}

	var body struct {
		Events []services.RawSignalInput `json:"events"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_input", err)
		return
	}

	res, err := h.signalSvc.Ingest(dbctx.Context{Ctx: c.Request.Context()}, rd.UserID, sessionID, body.Events)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, res)
}
