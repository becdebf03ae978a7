package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/academia-hub/agenda-api/internal/service"
	"github.com/academia-hub/agenda-api/pkg/response"
)

// AvailabilityHandler exposes the evaluated slot horizon.
type AvailabilityHandler struct {
	service *service.AvailabilityService
}

// NewAvailabilityHandler constructs an availability handler.
func NewAvailabilityHandler(svc *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// Evaluate godoc
// @Summary Evaluate a teacher's weekly slot availability
// @Description Classifies every 45-minute slot of the teacher's active schedule as available, occupied or reopenable.
// @Tags Availability
// @Produce json
// @Param teacherId path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{teacherId}/availability [get]
func (h *AvailabilityHandler) Evaluate(c *gin.Context) {
	evaluation, err := h.service.Evaluate(c.Request.Context(), c.Param("teacherId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, evaluation, nil)
}
