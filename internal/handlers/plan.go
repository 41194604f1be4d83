package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/studypulse/studypulse-backend/internal/domain"
	"github.com/studypulse/studypulse-backend/internal/pkg/dbctx"
	apperr "github.com/studypulse/studypulse-backend/internal/pkg/errors"
	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
	"github.com/studypulse/studypulse-backend/internal/requestdata"
	"github.com/studypulse/studypulse-backend/internal/services"
)

type PlanHandler struct {
	log     *logger.Logger
	planSvc services.OrchestrationService
	loadSvc services.LoadService
}

func NewPlanHandler(log *logger.Logger, psvc services.OrchestrationService, lsvc services.LoadService) *PlanHandler {
	return &PlanHandler{
		log:     log.With("handler", "PlanHandler"),
		planSvc: psvc,
		loadSvc: lsvc,
	}
}

// POST /api/plans
// { mission_id, planned_start, base_duration_min }
func (h *PlanHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request scope"))
		return
	}
	var body struct {
		MissionID       uuid.UUID `json:"mission_id"`
		PlannedStart    time.Time `json:"planned_start"`
		BaseDurationMin int       `json:"base_duration_min"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_input", err)
		return
	}

	plan, err := h.planSvc.GeneratePlan(dbctx.Context{Ctx: c.Request.Context()}, services.PlanRequest{
		UserID:          rd.UserID,
		MissionID:       body.MissionID,
		PlannedStart:    body.PlannedStart,
		BaseDurationMin: body.BaseDurationMin,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// GET /api/plans/:id
func (h *PlanHandler) Get(c *gin.Context) {
	plan, ok := h.ownedPlan(c)
	if !ok {
		return
	}
	RespondOK(c, plan)
}

// POST /api/plans/:id/activate
// { session_id }
func (h *PlanHandler) Activate(c *gin.Context) {
	plan, ok := h.ownedPlan(c)
	if !ok {
		return
	}
	var body struct {
		SessionID *uuid.UUID `json:"session_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil && err.Error() != "EOF" {
		RespondError(c, http.StatusBadRequest, "invalid_input", err)
		return
	}

	out, err := h.planSvc.Activate(dbctx.Context{Ctx: c.Request.Context()}, plan.ID, body.SessionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, out)
}

// POST /api/plans/:id/adapt
// Recomputes the caller's load and folds it into the plan.
func (h *PlanHandler) Adapt(c *gin.Context) {
	plan, ok := h.ownedPlan(c)
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	dbc := dbctx.Context{Ctx: c.Request.Context()}

	score, _, err := h.loadSvc.ComputeCurrentLoad(dbc, rd.UserID, rd.SessionID, nil)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	out, err := h.planSvc.AdaptToLoad(dbc, plan.ID, score)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"plan": out, "score": score})
}

// POST /api/plans/:id/close
// { actual_duration_min, actual_load }
func (h *PlanHandler) Close(c *gin.Context) {
	plan, ok := h.ownedPlan(c)
	if !ok {
		return
	}
	var body struct {
		ActualDurationMin *int     `json:"actual_duration_min"`
		ActualLoad        *float64 `json:"actual_load"`
	}
	if err := c.ShouldBindJSON(&body); err != nil && err.Error() != "EOF" {
		RespondError(c, http.StatusBadRequest, "invalid_input", err)
		return
	}

	out, err := h.planSvc.Close(dbctx.Context{Ctx: c.Request.Context()}, plan.ID, body.ActualDurationMin, body.ActualLoad)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, out)
}

// ownedPlan resolves :id and enforces that the plan belongs to the caller.
func (h *PlanHandler) ownedPlan(c *gin.Context) (*types.SessionOrchestrationPlan, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request scope"))
		return nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_input", fmt.Errorf("bad plan id"))
		return nil, false
	}
	plan, err := h.planSvc.Get(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		RespondServiceError(c, err)
		return nil, false
	}
	if plan.UserID != rd.UserID {
		RespondServiceError(c, fmt.Errorf("plan %s: %w", id, apperr.ErrNotFound))
		return nil, false
	}
	return plan, true
}
