package services

import (
	"context"
	"errors"

	"salonbook/internal/models"
	"salonbook/internal/repositories"

	"github.com/google/uuid"
)

// StaffService manages a tenant's bookable staff. Deactivation blocks
// new bookings for the staff member but keeps existing appointments.
type StaffService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req *CreateStaffRequest) (*models.Staff, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Staff, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, req *UpdateStaffRequest) (*models.Staff, error)
	Deactivate(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]*models.Staff, error)
}

type staffService struct {
	staffRepo repositories.StaffRepository
}

func NewStaffService(staffRepo repositories.StaffRepository) StaffService {
	return &staffService{staffRepo: staffRepo}
}

type CreateStaffRequest struct {
	Name     string  `json:"name" validate:"required"`
	Email    *string `json:"email"`
	ImageURL *string `json:"image_url"`
}

type UpdateStaffRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	ImageURL *string `json:"image_url"`
	IsActive *bool   `json:"is_active"`
}

func (s *staffService) Create(ctx context.Context, tenantID uuid.UUID, req *CreateStaffRequest) (*models.Staff, error) {
	if req.Name == "" {
		return nil, errors.New("name is required")
	}

	staff := &models.Staff{
		ID:       uuid.New(),
		TenantID: tenantID,
		Name:     req.Name,
		Email:    req.Email,
		ImageURL: req.ImageURL,
		IsActive: true,
	}

	if err := s.staffRepo.Create(ctx, staff); err != nil {
		return nil, err
	}
	return staff, nil
}

func (s *staffService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Staff, error) {
	staff, err := s.staffRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	return staff, nil
}

func (s *staffService) Update(ctx context.Context, tenantID, id uuid.UUID, req *UpdateStaffRequest) (*models.Staff, error) {
	existing, err := s.staffRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, errors.New("name cannot be empty")
		}
		existing.Name = *req.Name
	}
	if req.Email != nil {
		existing.Email = req.Email
	}
	if req.ImageURL != nil {
		existing.ImageURL = req.ImageURL
	}
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}

	if err := s.staffRepo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *staffService) Deactivate(ctx context.Context, tenantID, id uuid.UUID) error {
	inactive := false
	_, err := s.Update(ctx, tenantID, id, &UpdateStaffRequest{IsActive: &inactive})
	return err
}

func (s *staffService) List(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]*models.Staff, error) {
	return s.staffRepo.List(ctx, tenantID, activeOnly)
}
