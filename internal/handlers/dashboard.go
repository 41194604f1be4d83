package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
	"github.com/studypulse/studypulse-backend/internal/requestdata"
	"github.com/studypulse/studypulse-backend/internal/services"
)

type DashboardHandler struct {
	log          *logger.Logger
	dashboardSvc services.DashboardService
}

func NewDashboardHandler(log *logger.Logger, dsvc services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		log:          log.With("handler", "DashboardHandler"),
		dashboardSvc: dsvc,
	}
}

// GET /api/dashboard
func (h *DashboardHandler) Get(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request scope"))
		return
	}
	summary, err := h.dashboardSvc.Summary(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, summary)
}
