package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/studypulse/studypulse-backend/internal/domain"
	"github.com/studypulse/studypulse-backend/internal/pkg/dbctx"
	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
	"github.com/studypulse/studypulse-backend/internal/requestdata"
	"github.com/studypulse/studypulse-backend/internal/services"
)

type InterventionHandler struct {
	log             *logger.Logger
	interventionSvc services.InterventionService
}

func NewInterventionHandler(log *logger.Logger, isvc services.InterventionService) *InterventionHandler {
	return &InterventionHandler{
		log:             log.With("handler", "InterventionHandler"),
		interventionSvc: isvc,
	}
}

// GET /api/interventions?status=pending
func (h *InterventionHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request scope"))
		return
	}
	status := types.InterventionStatus(c.Query("status"))

	rows, err := h.interventionSvc.List(dbctx.Context{Ctx: c.Request.Context()}, rd.UserID, status)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"interventions": rows})
}

// POST /api/interventions/:id/apply
func (h *InterventionHandler) Apply(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request scope"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_input", fmt.Errorf("bad intervention id"))
		return
	}

	row, err := h.interventionSvc.Apply(dbctx.Context{Ctx: c.Request.Context()}, rd.UserID, id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, row)
}

// POST /api/interventions/:id/skip
func (h *InterventionHandler) Skip(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request scope"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_input", fmt.Errorf("bad intervention id"))
		return
	}

	if err := h.interventionSvc.Skip(dbctx.Context{Ctx: c.Request.Context()}, rd.UserID, id); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
