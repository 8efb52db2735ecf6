package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, 9, tod.Hour())
	assert.Equal(t, 30, tod.Minute())
	assert.Equal(t, "09:30", tod.String())

	tod, err = ParseTimeOfDay("17:45:12")
	require.NoError(t, err)
	assert.Equal(t, NewTimeOfDay(17, 45), tod)

	_, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)
	_, err = ParseTimeOfDay("nine")
	assert.Error(t, err)
}

func TestTimeOfDayScan(t *testing.T) {
	var tod TimeOfDay
	require.NoError(t, tod.Scan([]byte("08:15:00.000000")))
	assert.Equal(t, NewTimeOfDay(8, 15), tod)

	require.NoError(t, tod.Scan(time.Date(0, 1, 1, 13, 5, 0, 0, time.UTC)))
	assert.Equal(t, NewTimeOfDay(13, 5), tod)

	assert.Error(t, tod.Scan(42))
}

func TestTimeOfDayJSON(t *testing.T) {
	tmpl := AvailabilityTemplate{DayOfWeek: Friday, StartTime: NewTimeOfDay(9, 0), EndTime: NewTimeOfDay(12, 30)}
	data, err := json.Marshal(tmpl)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"start_time":"09:00"`)
	assert.Contains(t, string(data), `"end_time":"12:30"`)

	var back AvailabilityTemplate
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, tmpl.EndTime, back.EndTime)
}

func TestDayOf(t *testing.T) {
	assert.Equal(t, Monday, DayOf(time.Date(2024, time.June, 3, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, Sunday, DayOf(time.Date(2024, time.June, 9, 12, 0, 0, 0, time.UTC)))

	d, err := ParseDayOfWeek("wednesday")
	require.NoError(t, err)
	assert.Equal(t, Wednesday, d)

	_, err = ParseDayOfWeek("someday")
	assert.Error(t, err)
}

func TestPractitionerDefaults(t *testing.T) {
	p := &Practitioner{FirstName: "Ada", LastName: "Lovelace"}
	assert.Equal(t, "Dr. Ada Lovelace", p.DisplayName())
	assert.Equal(t, DefaultConsultationMinutes, p.ConsultationMinutes())

	p.DefaultDurationMinutes = 45
	assert.Equal(t, 45, p.ConsultationMinutes())
}
