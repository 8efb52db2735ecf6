package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/scheduling-api/internal/handler"
	"github.com/jwalitptl/scheduling-api/pkg/logger"
)

// ErrorHandler renders the last error a handler attached with c.Error,
// unless a response was already written.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last().Err
		status := handler.StatusFor(lastErr)
		if status >= 500 {
			log.Error(lastErr, "Request error",
				"request_id", c.GetString(ContextRequestID),
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)
		}

		c.JSON(status, handler.NewErrorResponse(handler.MessageFor(lastErr)))
	}
}
