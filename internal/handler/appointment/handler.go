package appointment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tojmed/booking-api/internal/middleware"
	"github.com/tojmed/booking-api/internal/model"
	"github.com/tojmed/booking-api/internal/service/appointment"
	"github.com/tojmed/booking-api/internal/service/availability"
	"github.com/tojmed/booking-api/pkg/errors"
	"github.com/tojmed/booking-api/pkg/httputil"
)

type Handler struct {
	service      *appointment.Service
	availability *availability.Service
}

func NewHandler(service *appointment.Service, availability *availability.Service) *Handler {
	return &Handler{service: service, availability: availability}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("/availability", h.GetAvailability)
		appointments.POST("", h.CreateAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.POST("/:id/cancel", h.CancelAppointment)
		appointments.POST("/:id/complete", h.CompleteAppointment)
		appointments.POST("/:id/noshow", h.MarkNoShow)
		appointments.POST("/:id/reschedule", h.RescheduleAppointment)
	}
}

// GetAvailability returns the free slots of a doctor for one date.
func (h *Handler) GetAvailability(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Query("doctor_id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("doctor_id", "invalid doctor ID"))
		return
	}

	date, err := model.ParseDate(c.Query("date"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("date", "invalid date, expected YYYY-MM-DD"))
		return
	}

	slots, err := h.availability.AvailableSlots(c.Request.Context(), doctorID, date)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if slots == nil {
		slots = []model.TimeSlot{}
	}

	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{
		"doctor_id": doctorID,
		"date":      date,
		"slots":     slots,
	})
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation("", err.Error()))
		return
	}

	if actor, ok := middleware.ActorFrom(c); ok && actor.Role == middleware.RolePatient {
		// Patients book for themselves (possibly as a proxy for another
		// named person); the identity layer decides everything else.
		req.PatientID = actor.ID
	}

	apt, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, apt)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("id", "invalid appointment ID"))
		return
	}

	apt, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}

// ListAppointments serves both query surfaces: a doctor's day (with
// optional status) and a patient's history.
func (h *Handler) ListAppointments(c *gin.Context) {
	if patientParam := c.Query("patient_id"); patientParam != "" {
		patientID, err := uuid.Parse(patientParam)
		if err != nil {
			httputil.RespondWithError(c, errors.Validation("patient_id", "invalid patient ID"))
			return
		}

		appointments, err := h.service.ListForPatient(c.Request.Context(), patientID)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithSuccess(c, http.StatusOK, appointments)
		return
	}

	doctorID, err := uuid.Parse(c.Query("doctor_id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("doctor_id", "invalid doctor ID"))
		return
	}

	date, err := model.ParseDate(c.Query("date"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("date", "invalid date, expected YYYY-MM-DD"))
		return
	}

	appointments, err := h.service.ListForDoctor(c.Request.Context(), doctorID, date,
		model.AppointmentStatus(c.Query("status")))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, appointments)
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	id, ok := h.authorizeMutation(c)
	if !ok {
		return
	}

	var req model.CancelAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation("", err.Error()))
		return
	}

	cancelled, err := h.service.Cancel(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, cancelled)
}

func (h *Handler) CompleteAppointment(c *gin.Context) {
	id, ok := h.authorizeMutation(c)
	if !ok {
		return
	}

	apt, err := h.service.Complete(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}

func (h *Handler) MarkNoShow(c *gin.Context) {
	id, ok := h.authorizeMutation(c)
	if !ok {
		return
	}

	apt, err := h.service.MarkNoShow(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}

func (h *Handler) RescheduleAppointment(c *gin.Context) {
	id, ok := h.authorizeMutation(c)
	if !ok {
		return
	}

	var req model.RescheduleAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation("", err.Error()))
		return
	}

	apt, err := h.service.Reschedule(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}

// authorizeMutation parses the path ID and checks that the caller owns
// the appointment (patient or doctor side) or is an administrator.
func (h *Handler) authorizeMutation(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("id", "invalid appointment ID"))
		return uuid.Nil, false
	}

	apt, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return uuid.Nil, false
	}

	if actor, ok := middleware.ActorFrom(c); ok {
		if !actor.CanManageAppointment(apt.PatientID, apt.DoctorID) {
			c.AbortWithStatusJSON(http.StatusForbidden, httputil.Response{
				Status:  "error",
				Message: "not allowed to manage this appointment",
			})
			return uuid.Nil, false
		}
	}

	return id, true
}
