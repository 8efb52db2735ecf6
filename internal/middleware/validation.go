package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/scheduling-api/internal/model"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationConfig represents validation middleware configuration
type ValidationConfig struct {
	CustomValidators    map[string]validator.Func
	CustomErrorMessages map[string]string
}

func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		CustomValidators: map[string]validator.Func{
			"dayofweek": validateDayOfWeek,
			"hhmm":      validateTimeOfDay,
		},
		CustomErrorMessages: map[string]string{
			"required":  "Field is required",
			"max":       "Value is too long",
			"gte":       "Value is too small",
			"dayofweek": "Must be a day of the week, e.g. MONDAY",
			"hhmm":      "Must be a time of day formatted HH:MM",
		},
	}
}

func validateDayOfWeek(fl validator.FieldLevel) bool {
	_, err := model.ParseDayOfWeek(fl.Field().String())
	return err == nil
}

func validateTimeOfDay(fl validator.FieldLevel) bool {
	_, err := model.ParseTimeOfDay(fl.Field().String())
	return err == nil
}

var registerOnce sync.Once

// RegisterValidators installs the custom tags on gin's validator engine.
// It must run before the first request that binds a tagged struct.
func RegisterValidators(config ValidationConfig) {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		for tag, fn := range config.CustomValidators {
			if err := v.RegisterValidation(tag, fn); err != nil {
				panic(err)
			}
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
}

// Validation renders binding failures attached by handlers as a 400 with
// per-field messages.
func Validation(config ValidationConfig) gin.HandlerFunc {
	RegisterValidators(config)

	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		var validationErrors []ValidationError
		for _, err := range c.Errors {
			var errs validator.ValidationErrors
			if !errors.As(err.Err, &errs) {
				continue
			}
			for _, e := range errs {
				msg := config.CustomErrorMessages[e.Tag()]
				if msg == "" {
					msg = e.Error()
				}
				validationErrors = append(validationErrors, ValidationError{
					Field:   e.Field(),
					Message: msg,
				})
			}
		}

		if len(validationErrors) > 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": "validation failed",
				"errors":  validationErrors,
			})
		}
	}
}
