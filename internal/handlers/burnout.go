package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studypulse/studypulse-backend/internal/pkg/dbctx"
	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
	"github.com/studypulse/studypulse-backend/internal/requestdata"
	"github.com/studypulse/studypulse-backend/internal/services"
)

type BurnoutHandler struct {
	log        *logger.Logger
	burnoutSvc services.BurnoutService
}

func NewBurnoutHandler(log *logger.Logger, bsvc services.BurnoutService) *BurnoutHandler {
	return &BurnoutHandler{
		log:        log.With("handler", "BurnoutHandler"),
		burnoutSvc: bsvc,
	}
}

// GET /api/burnout/current
func (h *BurnoutHandler) Current(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request scope"))
		return
	}
	row, err := h.burnoutSvc.Latest(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, row)
}

// GET /api/burnout/history?days=90
func (h *BurnoutHandler) History(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request scope"))
		return
	}
	days, _ := strconv.Atoi(c.DefaultQuery("days", "90"))

	rows, err := h.burnoutSvc.History(dbctx.Context{Ctx: c.Request.Context()}, rd.UserID, days)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"assessments": rows})
}

// POST /api/burnout/assess
// On-demand assessment outside the nightly sweep.
func (h *BurnoutHandler) Assess(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request scope"))
		return
	}
	row, err := h.burnoutSvc.Assess(dbctx.Context{Ctx: c.Request.Context()}, rd.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, row)
}
