package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant represents an isolated salon account. Every other entity is
// scoped by TenantID. The slug is fixed at signup and used for
// subdomain resolution.
type Tenant struct {
	ID            uuid.UUID         `json:"id" db:"id"`
	Slug          string            `json:"slug" db:"slug"`
	Name          string            `json:"name" db:"name"`
	Currency      string            `json:"currency" db:"currency"`
	PaymentConfig map[string]string `json:"payment_config,omitempty" db:"payment_config"`
	IsActive      bool              `json:"is_active" db:"is_active"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" db:"updated_at"`
}
