package practitioner

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/scheduling-api/internal/model"
	"github.com/jwalitptl/scheduling-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/scheduling-api/pkg/errors"
	"github.com/jwalitptl/scheduling-api/pkg/logger"
)

func TestActivateDeactivate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	p := &model.Practitioner{FirstName: "John", LastName: "Watson", Active: true}
	require.NoError(t, store.Practitioners().Create(ctx, p))

	svc := NewService(store, logger.Nop(), CacheConfig{TTL: time.Minute})

	got, err := svc.GetPractitioner(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)

	got, err = svc.Deactivate(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	// the cached copy was invalidated
	got, err = svc.GetPractitioner(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	got, err = svc.Activate(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)

	_, err = svc.Activate(ctx, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCachedLookupReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	p := &model.Practitioner{FirstName: "John", LastName: "Watson", Active: true}
	require.NoError(t, store.Practitioners().Create(ctx, p))
	svc := NewService(store, logger.Nop(), CacheConfig{})

	first, err := svc.GetPractitioner(ctx, p.ID)
	require.NoError(t, err)
	first.FirstName = "Mutated"

	second, err := svc.GetPractitioner(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "John", second.FirstName)
}

func TestDescribe(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	p := &model.Practitioner{FirstName: "John", LastName: "Watson", Active: true}
	require.NoError(t, store.Practitioners().Create(ctx, p))
	patient := &model.Patient{FirstName: "Sherlock", LastName: "Holmes", Email: "sh@example.com"}
	require.NoError(t, store.Patients().Create(ctx, patient))

	svc := NewService(store, logger.Nop(), CacheConfig{})
	evt := &model.ReminderEvent{PractitionerID: p.ID, PatientID: patient.ID}
	svc.Describe(ctx, evt)

	assert.Equal(t, "Dr. John Watson", evt.PractitionerName)
	assert.Equal(t, "Sherlock Holmes", evt.PatientName)
	assert.Equal(t, "sh@example.com", evt.Recipient)

	unknown := &model.ReminderEvent{PractitionerID: uuid.New(), PatientID: uuid.New()}
	svc.Describe(ctx, unknown)
	assert.Empty(t, unknown.PractitionerName)
}
