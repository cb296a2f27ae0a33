package services

import (
	"context"
	"errors"
	"log"
	"regexp"
	"time"

	"salonbook/internal/caching"
	"salonbook/internal/models"
	"salonbook/internal/repositories"

	"github.com/google/uuid"
)

const tenantCacheTTL = 10 * time.Minute

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ErrSlugTaken is returned when a signup requests a slug that another
// salon already owns.
var ErrSlugTaken = errors.New("slug is already taken")

type TenantService interface {
	Create(ctx context.Context, req *CreateTenantRequest) (*models.Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	Update(ctx context.Context, req *UpdateTenantRequest) (*models.Tenant, error)
	List(ctx context.Context, limit, offset int) ([]*models.Tenant, error)
}

type tenantService struct {
	tenantRepo repositories.TenantRepository
	cache      caching.CacheService
}

func NewTenantService(tenantRepo repositories.TenantRepository, cache caching.CacheService) TenantService {
	return &tenantService{tenantRepo: tenantRepo, cache: cache}
}

type CreateTenantRequest struct {
	Name     string `json:"name" validate:"required"`
	Slug     string `json:"slug" validate:"required"`
	Currency string `json:"currency"`
}

// UpdateTenantRequest never carries a slug: the slug is immutable after
// signup.
type UpdateTenantRequest struct {
	ID            uuid.UUID
	Name          string            `json:"name" validate:"required"`
	Currency      string            `json:"currency"`
	PaymentConfig map[string]string `json:"payment_config"`
	IsActive      *bool             `json:"is_active"`
}

func (s *tenantService) Create(ctx context.Context, req *CreateTenantRequest) (*models.Tenant, error) {
	if req.Name == "" || req.Slug == "" {
		return nil, errors.New("name and slug are required")
	}
	if !slugPattern.MatchString(req.Slug) {
		return nil, errors.New("slug must be lowercase letters, digits and hyphens")
	}

	currency := req.Currency
	if currency == "" {
		currency = "ZAR"
	}

	tenant := &models.Tenant{
		ID:       uuid.New(),
		Slug:     req.Slug,
		Name:     req.Name,
		Currency: currency,
		IsActive: true,
	}

	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		if errors.Is(err, repositories.ErrSlugTaken) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}

	return tenant, nil
}

func (s *tenantService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return s.tenantRepo.GetByID(ctx, id)
}

// GetBySlug is on the hot path of every request (tenant middleware), so
// it reads through the cache.
func (s *tenantService) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	if slug == "" {
		return nil, errors.New("slug is required")
	}

	if s.cache != nil {
		cached, err := s.cache.GetTenantBySlug(ctx, slug)
		if err != nil {
			log.Printf("Failed to read tenant cache for slug %s: %v", slug, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	tenant, err := s.tenantRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetTenantBySlug(ctx, tenant, tenantCacheTTL); err != nil {
			log.Printf("Failed to cache tenant %s: %v", tenant.ID, err)
		}
	}
	return tenant, nil
}

func (s *tenantService) Update(ctx context.Context, req *UpdateTenantRequest) (*models.Tenant, error) {
	existing, err := s.tenantRepo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		existing.Name = req.Name
	}
	if req.Currency != "" {
		existing.Currency = req.Currency
	}
	if req.PaymentConfig != nil {
		existing.PaymentConfig = req.PaymentConfig
	}
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}

	if err := s.tenantRepo.Update(ctx, existing); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.DeleteTenantBySlug(ctx, existing.Slug); err != nil {
			log.Printf("Failed to evict tenant cache for slug %s: %v", existing.Slug, err)
		}
	}
	return existing, nil
}

func (s *tenantService) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return s.tenantRepo.List(ctx, limit, offset)
}
