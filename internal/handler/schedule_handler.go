package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/academia-hub/agenda-api/internal/dto"
	"github.com/academia-hub/agenda-api/internal/models"
	"github.com/academia-hub/agenda-api/internal/service"
	appErrors "github.com/academia-hub/agenda-api/pkg/errors"
	"github.com/academia-hub/agenda-api/pkg/response"
)

// ScheduleHandler exposes weekly availability endpoints.
type ScheduleHandler struct {
	service *service.WeeklyScheduleService
}

// NewScheduleHandler constructs a schedule handler.
func NewScheduleHandler(svc *service.WeeklyScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// GetActive godoc
// @Summary Get a teacher's active weekly schedule
// @Tags Schedules
// @Produce json
// @Param teacherId query string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) GetActive(c *gin.Context) {
	teacherID := c.Query("teacherId")
	if teacherID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "teacherId query parameter is required"))
		return
	}
	schedule, err := h.service.GetActiveByTeacher(c.Request.Context(), teacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Create godoc
// @Summary Register a teacher's weekly availability
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.CreateScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req dto.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	schedule, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, schedule)
}

// UpdateState godoc
// @Summary Transition a weekly schedule's lifecycle state
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body dto.TransitionScheduleRequest true "Transition payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /schedules/{id}/state [patch]
func (h *ScheduleHandler) UpdateState(c *gin.Context) {
	var req dto.TransitionScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if req.State != string(models.ScheduleCancelled) {
		response.Error(c, appErrors.Clone(appErrors.ErrStateTransition,
			fmt.Sprintf("a weekly schedule cannot move to %q", req.State)))
		return
	}
	schedule, err := h.service.Cancel(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}
