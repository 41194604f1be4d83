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

type LoadHandler struct {
	log     *logger.Logger
	loadSvc services.LoadService
	sink    services.OverloadSink
}

func NewLoadHandler(log *logger.Logger, lsvc services.LoadService, sink services.OverloadSink) *LoadHandler {
	return &LoadHandler{
		log:     log.With("handler", "LoadHandler"),
		loadSvc: lsvc,
		sink:    sink,
	}
}

// POST /api/load/compute
// Scores the caller's recent signals on demand.
func (h *LoadHandler) Compute(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request scope"))
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}

	score, event, err := h.loadSvc.ComputeCurrentLoad(dbc, rd.UserID, rd.SessionID, nil)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if event != nil && h.sink != nil {
		if err := h.sink.HandleOverload(dbc, event); err != nil {
			h.log.Error("overload handling failed", "user_id", rd.UserID, "error", err)
		}
	}
	RespondOK(c, gin.H{
		"score":    score,
		"overload": event != nil,
	})
}

// GET /api/load/current
func (h *LoadHandler) Current(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request scope"))
		return
	}
	snap, err := h.loadSvc.GetCurrentLoad(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, snap)
}

// GET /api/load/history?days=14
func (h *LoadHandler) History(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request scope"))
		return
	}
	days, _ := strconv.Atoi(c.DefaultQuery("days", "14"))

	rows, err := h.loadSvc.History(dbctx.Context{Ctx: c.Request.Context()}, rd.UserID, days)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"scores": rows})
}
