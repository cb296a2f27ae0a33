package models

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus is the lifecycle state of an appointment.
// Cancelled and completed are terminal; only pending and confirmed
// occupy a staff member's calendar.
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentCompleted AppointmentStatus = "completed"
)

// Live reports whether an appointment in this status occupies its
// time interval for conflict purposes.
func (s AppointmentStatus) Live() bool {
	return s == AppointmentPending || s == AppointmentConfirmed
}

// Valid reports whether s is one of the known statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentPending, AppointmentConfirmed, AppointmentCancelled, AppointmentCompleted:
		return true
	}
	return false
}

// Appointment is a scheduled interval for a staff member, customer and
// service within a tenant. DurationMinutes is snapshotted from the
// service at write time so the stored row fully determines the
// interval [ScheduledTime, ScheduledTime+Duration). Version implements
// optimistic locking: it starts at 1 and every successful update
// increments it by exactly one.
type Appointment struct {
	ID              uuid.UUID         `json:"id" db:"id"`
	TenantID        uuid.UUID         `json:"tenant_id" db:"tenant_id"`
	UserID          uuid.UUID         `json:"user_id" db:"user_id"`
	StaffID         uuid.UUID         `json:"staff_id" db:"employee_id"`
	ServiceID       uuid.UUID         `json:"service_id" db:"service_id"`
	ScheduledTime   time.Time         `json:"scheduled_time" db:"scheduled_time"`
	DurationMinutes int               `json:"duration_minutes" db:"duration_minutes"`
	Status          AppointmentStatus `json:"status" db:"status"`
	Notes           *string           `json:"notes,omitempty" db:"notes"`
	Version         int               `json:"version" db:"version"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}

// EndTime is the exclusive end of the appointment's interval.
// An appointment ending at T does not conflict with one starting at T.
func (a *Appointment) EndTime() time.Time {
	return a.ScheduledTime.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Overlaps reports whether the half-open intervals of a and b
// intersect.
func (a *Appointment) Overlaps(b *Appointment) bool {
	return a.ScheduledTime.Before(b.EndTime()) && a.EndTime().After(b.ScheduledTime)
}

// AppointmentPatch is the set of mutable fields for a version-checked
// update. Nil fields are left unchanged. Changing ServiceID refreshes
// the duration snapshot; changing ScheduledTime or StaffID triggers a
// fresh overlap check in the booking service.
type AppointmentPatch struct {
	StaffID         *uuid.UUID         `json:"staff_id,omitempty"`
	ServiceID       *uuid.UUID         `json:"service_id,omitempty"`
	ScheduledTime   *time.Time         `json:"scheduled_time,omitempty"`
	DurationMinutes *int               `json:"-"`
	Status          *AppointmentStatus `json:"status,omitempty"`
	Notes           *string            `json:"notes,omitempty"`
}

// AppointmentFilter holds filter criteria for appointment listings.
// TenantID is always required and applied by the repository.
type AppointmentFilter struct {
	CustomerID *uuid.UUID         `json:"customer_id,omitempty"`
	StaffID    *uuid.UUID         `json:"staff_id,omitempty"`
	Status     *AppointmentStatus `json:"status,omitempty"`
	Date       *time.Time         `json:"date,omitempty"` // matches the UTC day containing ScheduledTime
	Limit      int                `json:"limit,omitempty"`
	Offset     int                `json:"offset,omitempty"`
}
