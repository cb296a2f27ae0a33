package models

import (
	"time"

	"github.com/google/uuid"
)

// Staff is a bookable resource (an employee) within a tenant.
// Deactivating a staff member keeps their existing appointments.
type Staff struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Name      string    `json:"name" db:"name"`
	Email     *string   `json:"email,omitempty" db:"email"`
	ImageURL  *string   `json:"image_url,omitempty" db:"image_url"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
