package appointment

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/scheduling-api/internal/handler"
	"github.com/jwalitptl/scheduling-api/internal/model"
	"github.com/jwalitptl/scheduling-api/internal/service/appointment"
	apperrors "github.com/jwalitptl/scheduling-api/pkg/errors"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.CreateAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/availability", h.CheckAvailability)
		appointments.GET("/:id", h.GetAppointment)
		appointments.DELETE("/:id", h.DeleteAppointment)
		appointments.PUT("/:id/schedule", h.RescheduleAppointment)
		appointments.PUT("/:id/status", h.UpdateStatus)
		appointments.POST("/:id/confirm", h.ConfirmAppointment)
		appointments.POST("/:id/start", h.StartConsultation)
		appointments.POST("/:id/end", h.EndConsultation)
		appointments.POST("/:id/no-show", h.MarkNoShow)
		appointments.POST("/:id/cancel", h.CancelAppointment)
		appointments.POST("/:id/reminder", h.MarkReminderSent)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	apt, err := h.service.CreateAppointment(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": apt})
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, ok := handler.UUIDParam(c, "id", "appointment")
	if !ok {
		return
	}

	apt, err := h.service.GetAppointment(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": apt})
}

func (h *Handler) ListAppointments(c *gin.Context) {
	var filters model.AppointmentFilters
	var ok bool

	if filters.PractitionerID, ok = handler.UUIDQuery(c, "practitioner_id"); !ok {
		return
	}
	if filters.PatientID, ok = handler.UUIDQuery(c, "patient_id"); !ok {
		return
	}
	if filters.From, ok = handler.TimeQuery(c, "from", false); !ok {
		return
	}
	if filters.To, ok = handler.TimeQuery(c, "to", false); !ok {
		return
	}
	filters.Status = model.AppointmentStatus(c.Query("status"))

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			_ = c.Error(apperrors.Validation("limit must be a non-negative integer"))
			return
		}
		filters.Limit = limit
	}

	appointments, err := h.service.ListAppointments(c.Request.Context(), &filters)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": appointments})
}

// CheckAvailability answers whether [start, end) is free for the
// practitioner, optionally ignoring the appointment being rescheduled.
func (h *Handler) CheckAvailability(c *gin.Context) {
	practitionerID, ok := handler.UUIDQuery(c, "practitioner_id")
	if !ok {
		return
	}
	if practitionerID == uuid.Nil {
		_ = c.Error(apperrors.Validation("practitioner_id is required"))
		return
	}
	start, ok := handler.TimeQuery(c, "start", true)
	if !ok {
		return
	}
	end, ok := handler.TimeQuery(c, "end", true)
	if !ok {
		return
	}
	exclude, ok := handler.UUIDQuery(c, "exclude")
	if !ok {
		return
	}

	available, err := h.service.IsSlotAvailable(c.Request.Context(), practitionerID, start, end, exclude)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"available": available}})
}

func (h *Handler) RescheduleAppointment(c *gin.Context) {
	id, ok := handler.UUIDParam(c, "id", "appointment")
	if !ok {
		return
	}
	var req model.RescheduleAppointmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	apt, err := h.service.RescheduleAppointment(c.Request.Context(), id, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": apt})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := handler.UUIDParam(c, "id", "appointment")
	if !ok {
		return
	}
	var req model.UpdateStatusRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	apt, err := h.service.UpdateStatus(c.Request.Context(), id, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": apt})
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	id, ok := handler.UUIDParam(c, "id", "appointment")
	if !ok {
		return
	}
	var req model.CancelAppointmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	apt, err := h.service.CancelAppointment(c.Request.Context(), id, req.Reason)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": apt})
}

func (h *Handler) ConfirmAppointment(c *gin.Context) {
	h.simpleTransition(c, h.service.ConfirmAppointment)
}

func (h *Handler) StartConsultation(c *gin.Context) {
	h.simpleTransition(c, h.service.StartConsultation)
}

func (h *Handler) EndConsultation(c *gin.Context) {
	h.simpleTransition(c, h.service.EndConsultation)
}

func (h *Handler) MarkNoShow(c *gin.Context) {
	h.simpleTransition(c, h.service.MarkNoShow)
}

func (h *Handler) MarkReminderSent(c *gin.Context) {
	h.simpleTransition(c, h.service.MarkReminderSent)
}

func (h *Handler) simpleTransition(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) (*model.Appointment, error)) {
	id, ok := handler.UUIDParam(c, "id", "appointment")
	if !ok {
		return
	}

	apt, err := fn(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": apt})
}

func (h *Handler) DeleteAppointment(c *gin.Context) {
	id, ok := handler.UUIDParam(c, "id", "appointment")
	if !ok {
		return
	}

	if err := h.service.DeleteAppointment(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "appointment deleted"})
}
