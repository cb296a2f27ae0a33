package models

import (
	"time"

	"github.com/google/uuid"
)

// Service is a bookable offering. DurationMinutes is the sole
// determinant of an appointment's interval length; PriceCents is in
// minor currency units.
type Service struct {
	ID              uuid.UUID `json:"id" db:"id"`
	TenantID        uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Name            string    `json:"name" db:"name"`
	Description     *string   `json:"description,omitempty" db:"description"`
	DurationMinutes int       `json:"duration_minutes" db:"duration_minutes"`
	PriceCents      int64     `json:"price_cents" db:"price_cents"`
	ImageURL        *string   `json:"image_url,omitempty" db:"image_url"`
	IsActive        bool      `json:"is_active" db:"is_active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
