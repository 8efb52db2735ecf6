package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	apperrors "github.com/jwalitptl/scheduling-api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// StatusFor maps err to an HTTP status.
func StatusFor(err error) int {
	var coded interface{ StatusCode() int }
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &coded):
		return coded.StatusCode()
	case errors.As(err, &verrs):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// MessageFor hides internal error details from clients.
func MessageFor(err error) string {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		if appErr.Code == apperrors.ErrStorage {
			return "storage unavailable"
		}
		return appErr.Message
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timeout"
	default:
		return "Internal server error"
	}
}

// BindJSON binds the request body, attaching the failure to c. Validator
// failures are kept as is so the validation middleware can report fields.
func BindJSON(c *gin.Context, obj interface{}) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return false
	}
	_ = c.Error(apperrors.Validationf("invalid request body: %v", err))
	return false
}

// UUIDParam parses the path parameter name.
func UUIDParam(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		_ = c.Error(apperrors.Validationf("invalid %s ID", label))
		return uuid.Nil, false
	}
	return id, true
}

// UUIDQuery parses an optional query parameter; absent means uuid.Nil.
func UUIDQuery(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		_ = c.Error(apperrors.Validationf("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

// TimeQuery parses an RFC 3339 query parameter.
func TimeQuery(c *gin.Context, name string, required bool) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		if required {
			_ = c.Error(apperrors.Validationf("%s is required", name))
			return time.Time{}, false
		}
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		_ = c.Error(apperrors.Validationf("%s must be an RFC 3339 timestamp", name))
		return time.Time{}, false
	}
	return t, true
}

// DateQuery parses a YYYY-MM-DD query parameter in loc.
func DateQuery(c *gin.Context, name string, loc *time.Location) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		_ = c.Error(apperrors.Validationf("%s is required", name))
		return time.Time{}, false
	}
	d, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		_ = c.Error(apperrors.Validationf("%s must be formatted YYYY-MM-DD", name))
		return time.Time{}, false
	}
	return d, true
}
