package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"salonbook/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CacheService fronts redis for the hot read paths. Cache misses return
// (nil, nil); callers fall through to the database.
type CacheService interface {
	// Tenant lookup by slug (hit on every request via middleware)
	GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	SetTenantBySlug(ctx context.Context, tenant *models.Tenant, ttl time.Duration) error
	DeleteTenantBySlug(ctx context.Context, slug string) error

	// Service catalog caching
	GetServiceCatalog(ctx context.Context, tenantID uuid.UUID) ([]*models.Service, error)
	SetServiceCatalog(ctx context.Context, tenantID uuid.UUID, services []*models.Service, ttl time.Duration) error
	DeleteServiceCatalog(ctx context.Context, tenantID uuid.UUID) error

	// Availability caching, keyed per staff day
	GetAvailability(ctx context.Context, tenantID, staffID uuid.UUID, day string) ([]models.TimeSlot, error)
	SetAvailability(ctx context.Context, tenantID, staffID uuid.UUID, day string, slots []models.TimeSlot, ttl time.Duration) error
	DeleteAvailability(ctx context.Context, tenantID, staffID uuid.UUID, day string) error
	DeleteStaffAvailability(ctx context.Context, tenantID, staffID uuid.UUID) error

	// Cache invalidation
	InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func (r *redisCacheService) GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	key := fmt.Sprintf("salonbook:tenant:slug:%s", slug)
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var tenant models.Tenant
	if err := json.Unmarshal(data, &tenant); err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *redisCacheService) SetTenantBySlug(ctx context.Context, tenant *models.Tenant, ttl time.Duration) error {
	key := fmt.Sprintf("salonbook:tenant:slug:%s", tenant.Slug)
	data, err := json.Marshal(tenant)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteTenantBySlug(ctx context.Context, slug string) error {
	key := fmt.Sprintf("salonbook:tenant:slug:%s", slug)
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) GetServiceCatalog(ctx context.Context, tenantID uuid.UUID) ([]*models.Service, error) {
	key := fmt.Sprintf("salonbook:catalog:%s", tenantID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var services []*models.Service
	if err := json.Unmarshal(data, &services); err != nil {
		return nil, err
	}
	return services, nil
}

func (r *redisCacheService) SetServiceCatalog(ctx context.Context, tenantID uuid.UUID, services []*models.Service, ttl time.Duration) error {
	key := fmt.Sprintf("salonbook:catalog:%s", tenantID.String())
	data, err := json.Marshal(services)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteServiceCatalog(ctx context.Context, tenantID uuid.UUID) error {
	key := fmt.Sprintf("salonbook:catalog:%s", tenantID.String())
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) GetAvailability(ctx context.Context, tenantID, staffID uuid.UUID, day string) ([]models.TimeSlot, error) {
	key := fmt.Sprintf("salonbook:availability:%s:%s:%s", tenantID.String(), staffID.String(), day)
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var slots []models.TimeSlot
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *redisCacheService) SetAvailability(ctx context.Context, tenantID, staffID uuid.UUID, day string, slots []models.TimeSlot, ttl time.Duration) error {
	key := fmt.Sprintf("salonbook:availability:%s:%s:%s", tenantID.String(), staffID.String(), day)
	data, err := json.Marshal(slots)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteAvailability(ctx context.Context, tenantID, staffID uuid.UUID, day string) error {
	key := fmt.Sprintf("salonbook:availability:%s:%s:%s", tenantID.String(), staffID.String(), day)
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) DeleteStaffAvailability(ctx context.Context, tenantID, staffID uuid.UUID) error {
	pattern := fmt.Sprintf("salonbook:availability:%s:%s:*", tenantID.String(), staffID.String())
	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}

func (r *redisCacheService) InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error {
	pattern := fmt.Sprintf("salonbook:*%s*", tenantID.String())
	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := fmt.Sprintf("salonbook:ratelimit:%s", key)
	count, err := r.client.Incr(ctx, cacheKey).Result()
	if err != nil {
		return true, err
	}

	// Set expiry on first request
	if count == 1 {
		r.client.Expire(ctx, cacheKey, window)
	}

	return count > int64(limit), nil
}
