package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/tablostudio/guestflow/internal/services"
	"github.com/tablostudio/guestflow/pkg/response"
)

type MonitoringHandler struct {
	monitoring *services.MonitoringService
	selection  *services.SelectionService
}

func NewMonitoringHandler(monitoring *services.MonitoringService, selection *services.SelectionService) *MonitoringHandler {
	return &MonitoringHandler{monitoring: monitoring, selection: selection}
}

// GetMonitoring returns one row per roster person plus summary counters
// GET /api/projects/:project_id/galleries/:gallery_id/monitoring
func (h *MonitoringHandler) GetMonitoring(c *gin.Context) {
	projectID, galleryID, err := scope(c)
	if err != nil {
		fail(c, err)
		return
	}

	resp, err := h.monitoring.GetMonitoring(c.Request.Context(), projectID, galleryID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, resp)
}

// GetProgressSummary returns workflow step counts of a gallery
// GET /api/galleries/:gallery_id/progress-summary
func (h *MonitoringHandler) GetProgressSummary(c *gin.Context) {
	galleryID, err := uintParam(c, "gallery_id")
	if err != nil {
		fail(c, err)
		return
	}

	counts, err := h.monitoring.GetProgressSummary(c.Request.Context(), galleryID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, counts)
}

// GetPersonSelections returns the photos one person selected
// GET /api/projects/:project_id/galleries/:gallery_id/persons/:person_id/selections
func (h *MonitoringHandler) GetPersonSelections(c *gin.Context) {
	projectID, galleryID, err := scope(c)
	if err != nil {
		fail(c, err)
		return
	}
	personID, err := uintParam(c, "person_id")
	if err != nil {
		fail(c, err)
		return
	}

	view, err := h.selection.GetPersonSelections(c.Request.Context(), projectID, galleryID, personID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, view)
}
