package practitioner

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/scheduling-api/internal/handler"
	"github.com/jwalitptl/scheduling-api/internal/model"
	"github.com/jwalitptl/scheduling-api/internal/service/appointment"
	"github.com/jwalitptl/scheduling-api/internal/service/availability"
	"github.com/jwalitptl/scheduling-api/internal/service/practitioner"
	apperrors "github.com/jwalitptl/scheduling-api/pkg/errors"
)

// Handler serves the practitioner scoped routes: availability templates,
// free slots, day planning and the active flag.
type Handler struct {
	practitioners *practitioner.Service
	availability  *availability.Service
	appointments  *appointment.Service
	loc           *time.Location
}

// NewHandler interprets date query parameters in loc.
func NewHandler(practitioners *practitioner.Service, availabilitySvc *availability.Service, appointments *appointment.Service, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		practitioners: practitioners,
		availability:  availabilitySvc,
		appointments:  appointments,
		loc:           loc,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	practitioners := r.Group("/practitioners/:id")
	{
		practitioners.GET("", h.GetPractitioner)
		practitioners.POST("/activate", h.Activate)
		practitioners.POST("/deactivate", h.Deactivate)
		practitioners.GET("/slots", h.FreeSlots)
		practitioners.GET("/planning", h.Planning)
		practitioners.GET("/availability", h.ListTemplates)
		practitioners.POST("/availability", h.AddTemplate)
		practitioners.DELETE("/availability/:templateId", h.RemoveTemplate)
	}
}

func (h *Handler) GetPractitioner(c *gin.Context) {
	id, ok := handler.UUIDParam(c, "id", "practitioner")
	if !ok {
		return
	}
	p, err := h.practitioners.GetPractitioner(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": p})
}

func (h *Handler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

func (h *Handler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *Handler) setActive(c *gin.Context, active bool) {
	id, ok := handler.UUIDParam(c, "id", "practitioner")
	if !ok {
		return
	}

	var (
		p   *model.Practitioner
		err error
	)
	if active {
		p, err = h.practitioners.Activate(c.Request.Context(), id)
	} else {
		p, err = h.practitioners.Deactivate(c.Request.Context(), id)
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": p})
}

// FreeSlots handles GET /practitioners/:id/slots?date=2024-06-03&duration=30&stride=15.
func (h *Handler) FreeSlots(c *gin.Context) {
	id, ok := handler.UUIDParam(c, "id", "practitioner")
	if !ok {
		return
	}
	date, ok := handler.DateQuery(c, "date", h.loc)
	if !ok {
		return
	}
	duration, ok := intQuery(c, "duration")
	if !ok {
		return
	}
	stride, ok := intQuery(c, "stride")
	if !ok {
		return
	}

	slots, err := h.availability.FreeSlots(c.Request.Context(), id, date, duration, stride)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": slots})
}

func (h *Handler) Planning(c *gin.Context) {
	id, ok := handler.UUIDParam(c, "id", "practitioner")
	if !ok {
		return
	}
	date, ok := handler.DateQuery(c, "date", h.loc)
	if !ok {
		return
	}

	appointments, err := h.appointments.PractitionerDay(c.Request.Context(), id, date)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": appointments})
}

func (h *Handler) ListTemplates(c *gin.Context) {
	id, ok := handler.UUIDParam(c, "id", "practitioner")
	if !ok {
		return
	}
	templates, err := h.availability.ListTemplates(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": templates})
}

func (h *Handler) AddTemplate(c *gin.Context) {
	id, ok := handler.UUIDParam(c, "id", "practitioner")
	if !ok {
		return
	}
	var req model.AddAvailabilityTemplateRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	tmpl, err := h.availability.AddAvailabilityTemplate(c.Request.Context(), id, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": tmpl})
}

func (h *Handler) RemoveTemplate(c *gin.Context) {
	id, ok := handler.UUIDParam(c, "id", "practitioner")
	if !ok {
		return
	}
	templateID, ok := handler.UUIDParam(c, "templateId", "availability template")
	if !ok {
		return
	}

	if err := h.availability.RemoveAvailabilityTemplate(c.Request.Context(), id, templateID); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "availability template removed"})
}

func intQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		_ = c.Error(apperrors.Validationf("%s must be an integer number of minutes", name))
		return 0, false
	}
	return n, true
}
