package services

import (
	"context"
	"errors"
	"log"
	"time"

	"salonbook/internal/caching"
	"salonbook/internal/models"
	"salonbook/internal/repositories"

	"github.com/google/uuid"
)

const catalogCacheTTL = 5 * time.Minute

// CatalogService manages a tenant's bookable services. The active
// catalog is cached since it backs the public booking page.
type CatalogService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req *CreateServiceRequest) (*models.Service, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Service, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, req *UpdateServiceRequest) (*models.Service, error)
	Deactivate(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]*models.Service, error)
}

type catalogService struct {
	serviceRepo repositories.ServiceRepository
	cache       caching.CacheService
}

func NewCatalogService(serviceRepo repositories.ServiceRepository, cache caching.CacheService) CatalogService {
	return &catalogService{serviceRepo: serviceRepo, cache: cache}
}

type CreateServiceRequest struct {
	Name            string  `json:"name" validate:"required"`
	Description     *string `json:"description"`
	DurationMinutes int     `json:"duration_minutes" validate:"required"`
	PriceCents      int64   `json:"price_cents"`
	ImageURL        *string `json:"image_url"`
}

type UpdateServiceRequest struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	DurationMinutes *int    `json:"duration_minutes"`
	PriceCents      *int64  `json:"price_cents"`
	ImageURL        *string `json:"image_url"`
	IsActive        *bool   `json:"is_active"`
}

func (s *catalogService) Create(ctx context.Context, tenantID uuid.UUID, req *CreateServiceRequest) (*models.Service, error) {
	if req.Name == "" {
		return nil, errors.New("name is required")
	}
	if req.DurationMinutes <= 0 {
		return nil, errors.New("duration must be positive")
	}
	if req.PriceCents < 0 {
		return nil, errors.New("price cannot be negative")
	}

	svc := &models.Service{
		ID:              uuid.New(),
		TenantID:        tenantID,
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
		ImageURL:        req.ImageURL,
		IsActive:        true,
	}

	if err := s.serviceRepo.Create(ctx, svc); err != nil {
		return nil, err
	}

	s.evictCatalog(ctx, tenantID)
	return svc, nil
}

func (s *catalogService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Service, error) {
	svc, err := s.serviceRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return svc, nil
}

func (s *catalogService) Update(ctx context.Context, tenantID, id uuid.UUID, req *UpdateServiceRequest) (*models.Service, error) {
	existing, err := s.serviceRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, errors.New("name cannot be empty")
		}
		existing.Name = *req.Name
	}
	if req.Description != nil {
		existing.Description = req.Description
	}
	if req.DurationMinutes != nil {
		if *req.DurationMinutes <= 0 {
			return nil, errors.New("duration must be positive")
		}
		// Existing appointments keep their snapshotted duration; only
		// new bookings pick up the change.
		existing.DurationMinutes = *req.DurationMinutes
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 0 {
			return nil, errors.New("price cannot be negative")
		}
		existing.PriceCents = *req.PriceCents
	}
	if req.ImageURL != nil {
		existing.ImageURL = req.ImageURL
	}
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}

	if err := s.serviceRepo.Update(ctx, existing); err != nil {
		return nil, err
	}

	s.evictCatalog(ctx, tenantID)
	return existing, nil
}

// Deactivate hides the service from the catalog and blocks new
// bookings; existing appointments are untouched.
func (s *catalogService) Deactivate(ctx context.Context, tenantID, id uuid.UUID) error {
	inactive := false
	_, err := s.Update(ctx, tenantID, id, &UpdateServiceRequest{IsActive: &inactive})
	return err
}

func (s *catalogService) List(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]*models.Service, error) {
	// Only the public active catalog is cached; admin listings that
	// include inactive services always hit the database.
	if activeOnly && s.cache != nil {
		cached, err := s.cache.GetServiceCatalog(ctx, tenantID)
		if err != nil {
			log.Printf("Failed to read catalog cache for tenant %s: %v", tenantID, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	services, err := s.serviceRepo.List(ctx, tenantID, activeOnly)
	if err != nil {
		return nil, err
	}

	if activeOnly && s.cache != nil {
		if err := s.cache.SetServiceCatalog(ctx, tenantID, services, catalogCacheTTL); err != nil {
			log.Printf("Failed to cache catalog for tenant %s: %v", tenantID, err)
		}
	}
	return services, nil
}

func (s *catalogService) evictCatalog(ctx context.Context, tenantID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteServiceCatalog(ctx, tenantID); err != nil {
		log.Printf("Failed to evict catalog cache for tenant %s: %v", tenantID, err)
	}
}
