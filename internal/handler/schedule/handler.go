package schedule

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tojmed/booking-api/internal/model"
	"github.com/tojmed/booking-api/internal/service/availability"
	"github.com/tojmed/booking-api/internal/service/schedule"
	"github.com/tojmed/booking-api/pkg/errors"
	"github.com/tojmed/booking-api/pkg/httputil"
)

type Handler struct {
	service      *schedule.Service
	availability *availability.Service
}

func NewHandler(service *schedule.Service, availability *availability.Service) *Handler {
	return &Handler{service: service, availability: availability}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	schedules := r.Group("/schedules")
	{
		schedules.PUT("", h.UpsertSchedule)
		schedules.GET("", h.ListSchedules)
		schedules.GET("/:doctorID/:workplaceID", h.GetSchedule)
		schedules.DELETE("/:doctorID/:workplaceID", h.DeleteSchedule)
	}
}

func (h *Handler) UpsertSchedule(c *gin.Context) {
	var req model.UpsertScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation("", err.Error()))
		return
	}

	sched, err := h.service.Upsert(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.availability.InvalidateDoctor(req.DoctorID)
	httputil.RespondWithSuccess(c, http.StatusOK, sched)
}

func (h *Handler) ListSchedules(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Query("doctor_id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("doctor_id", "invalid doctor ID"))
		return
	}

	schedules, err := h.service.ListForDoctor(c.Request.Context(), doctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, schedules)
}

func (h *Handler) GetSchedule(c *gin.Context) {
	doctorID, workplaceID, ok := parseScheduleKey(c)
	if !ok {
		return
	}

	sched, err := h.service.Get(c.Request.Context(), doctorID, workplaceID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, sched)
}

func (h *Handler) DeleteSchedule(c *gin.Context) {
	doctorID, workplaceID, ok := parseScheduleKey(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), doctorID, workplaceID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.availability.InvalidateDoctor(doctorID)
	httputil.RespondWithSuccess(c, http.StatusOK, nil)
}

func parseScheduleKey(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	doctorID, err := uuid.Parse(c.Param("doctorID"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("doctorID", "invalid doctor ID"))
		return uuid.Nil, uuid.Nil, false
	}
	workplaceID, err := uuid.Parse(c.Param("workplaceID"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("workplaceID", "invalid workplace ID"))
		return uuid.Nil, uuid.Nil, false
	}
	return doctorID, workplaceID, true
}
