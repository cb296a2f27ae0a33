package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func appointmentAt(hour, min, durationMinutes int) *Appointment {
	return &Appointment{
		ID:              uuid.New(),
		ScheduledTime:   time.Date(2026, 3, 10, hour, min, 0, 0, time.UTC),
		DurationMinutes: durationMinutes,
		Status:          AppointmentConfirmed,
	}
}

func TestAppointmentEndTime(t *testing.T) {
	appt := appointmentAt(10, 0, 60)
	assert.Equal(t, time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC), appt.EndTime())
}

func TestAppointmentOverlaps(t *testing.T) {
	tests := []struct {
		name    string
		a, b    *Appointment
		overlap bool
	}{
		{
			name:    "mid-interval start conflicts",
			a:       appointmentAt(10, 0, 60),
			b:       appointmentAt(10, 30, 60),
			overlap: true,
		},
		{
			name:    "back-to-back at the boundary does not conflict",
			a:       appointmentAt(10, 0, 60),
			b:       appointmentAt(11, 0, 60),
			overlap: false,
		},
		{
			name:    "contained interval conflicts",
			a:       appointmentAt(10, 0, 120),
			b:       appointmentAt(10, 30, 30),
			overlap: true,
		},
		{
			name:    "disjoint intervals do not conflict",
			a:       appointmentAt(9, 0, 30),
			b:       appointmentAt(14, 0, 30),
			overlap: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.overlap, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.overlap, tt.b.Overlaps(tt.a))
		})
	}
}

func TestAppointmentStatusLive(t *testing.T) {
	assert.True(t, AppointmentPending.Live())
	assert.True(t, AppointmentConfirmed.Live())
	assert.False(t, AppointmentCancelled.Live())
	assert.False(t, AppointmentCompleted.Live())
}

func TestAppointmentStatusValid(t *testing.T) {
	assert.True(t, AppointmentPending.Valid())
	assert.False(t, AppointmentStatus("rescheduled").Valid())
	assert.False(t, AppointmentStatus("").Valid())
}
