package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies what a notification is about.
type NotificationType string

const (
	NotificationConfirmation NotificationType = "confirmation"
	NotificationReminder     NotificationType = "reminder"
	NotificationCancellation NotificationType = "cancellation"
	NotificationUpdate       NotificationType = "update"
)

// NotificationChannel is the delivery channel.
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
)

// Notification is a fire-and-forget message produced as a side effect
// of booking mutations. Dispatch failure never fails the booking; rows
// stuck in "pending" are retried by a background job.
type Notification struct {
	ID            uuid.UUID           `json:"id" db:"id"`
	TenantID      uuid.UUID           `json:"tenant_id" db:"tenant_id"`
	UserID        uuid.UUID           `json:"user_id" db:"user_id"`
	AppointmentID *uuid.UUID          `json:"appointment_id,omitempty" db:"appointment_id"`
	Type          NotificationType    `json:"type" db:"type"`
	Channel       NotificationChannel `json:"channel" db:"channel"`
	Recipient     string              `json:"recipient" db:"recipient"`
	Message       string              `json:"message" db:"message"`
	Status        string              `json:"status" db:"status"` // pending, sent, failed
	SentAt        *time.Time          `json:"sent_at,omitempty" db:"sent_at"`
	CreatedAt     time.Time           `json:"created_at" db:"created_at"`
}
