package reminder

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/scheduling-api/internal/handler"
	"github.com/jwalitptl/scheduling-api/internal/service/appointment"
)

type Handler struct {
	service *appointment.Service
	now     func() time.Time
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service, now: time.Now}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/reminders/due", h.DueReminders)
}

// DueReminders lists appointments awaiting a reminder. The optional "at"
// parameter evaluates the window from another instant.
func (h *Handler) DueReminders(c *gin.Context) {
	at, ok := handler.TimeQuery(c, "at", false)
	if !ok {
		return
	}
	if at.IsZero() {
		at = h.now()
	}

	due, err := h.service.DueReminders(c.Request.Context(), at)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": due})
}
