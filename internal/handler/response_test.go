package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/jwalitptl/scheduling-api/pkg/errors"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperrors.Validation("bad"), http.StatusBadRequest},
		{"not found", apperrors.NotFound("appointment", nil), http.StatusNotFound},
		{"conflict", apperrors.Conflict("taken"), http.StatusConflict},
		{"invalid transition", apperrors.InvalidTransition("COMPLETED", "CONFIRMED"), http.StatusUnprocessableEntity},
		{"retryable storage", apperrors.Storage(errors.New("serialization"), true), http.StatusServiceUnavailable},
		{"storage", apperrors.Storage(errors.New("disk"), false), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("outer: %w", apperrors.Conflict("taken")), http.StatusConflict},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestMessageFor(t *testing.T) {
	assert.Equal(t, "taken", MessageFor(apperrors.Conflict("taken")))
	assert.Equal(t, "storage unavailable", MessageFor(apperrors.Storage(errors.New("password=secret"), false)))
	assert.Equal(t, "Internal server error", MessageFor(errors.New("boom")))
}
