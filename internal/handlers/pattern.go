package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studypulse/studypulse-backend/internal/pkg/dbctx"
	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
	"github.com/studypulse/studypulse-backend/internal/requestdata"
	"github.com/studypulse/studypulse-backend/internal/services"
)

type PatternHandler struct {
	log        *logger.Logger
	patternSvc services.StressPatternService
}

func NewPatternHandler(log *logger.Logger, psvc services.StressPatternService) *PatternHandler {
	return &PatternHandler{
		log:        log.With("handler", "PatternHandler"),
		patternSvc: psvc,
	}
}

// GET /api/pattern
func (h *PatternHandler) Get(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request scope"))
		return
	}
	pattern, err := h.patternSvc.Get(dbctx.Context{Ctx: c.Request.Context()}, rd.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, pattern)
}

// POST /api/pattern/reanalyze
func (h *PatternHandler) Reanalyze(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request scope"))
		return
	}
	pattern, err := h.patternSvc.Reanalyze(dbctx.Context{Ctx: c.Request.Context()}, rd.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, pattern)
}
