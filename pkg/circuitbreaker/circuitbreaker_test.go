package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(Settings{
		Name:        "notifier",
		MaxFailures: 2,
		Timeout:     time.Hour,
		OnStateChange: func(name, from, to string) {
			transitions = append(transitions, from+"->"+to)
		},
	})
	boom := errors.New("smtp down")

	calls := 0
	fail := func() error {
		calls++
		return boom
	}

	assert.ErrorIs(t, cb.Execute(fail), boom)
	assert.ErrorIs(t, cb.Execute(fail), boom)
	assert.Equal(t, "open", cb.State())

	assert.ErrorIs(t, cb.Execute(fail), ErrOpen)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"closed->open"}, transitions)
}

func TestBreakerIgnoresSuccessfulErrors(t *testing.T) {
	permanent := errors.New("bad address")
	cb := NewCircuitBreaker(Settings{
		Name:         "notifier",
		MaxFailures:  1,
		IsSuccessful: func(err error) bool { return err == nil || errors.Is(err, permanent) },
	})

	assert.ErrorIs(t, cb.Execute(func() error { return permanent }), permanent)
	assert.Equal(t, "closed", cb.State())
	assert.NoError(t, cb.Execute(func() error { return nil }))
}
