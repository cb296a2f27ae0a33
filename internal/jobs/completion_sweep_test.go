package jobs

import (
	"context"
	"testing"
	"time"

	"salonbook/internal/models"
	"salonbook/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAppointmentRepo struct {
	mock.Mock
}

func (m *mockAppointmentRepo) Insert(ctx context.Context, appt *models.Appointment) error {
	return m.Called(ctx, appt).Error(0)
}

func (m *mockAppointmentRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Appointment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) FindOverlapping(ctx context.Context, tenantID, staffID uuid.UUID, start time.Time, durationMinutes int, excludeID *uuid.UUID) ([]*models.Appointment, error) {
	args := m.Called(ctx, tenantID, staffID, start, durationMinutes, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) UpdateWithVersion(ctx context.Context, tenantID, id uuid.UUID, expectedVersion int, patch *models.AppointmentPatch) (*models.Appointment, error) {
	args := m.Called(ctx, tenantID, id, expectedVersion, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) List(ctx context.Context, tenantID uuid.UUID, filter *models.AppointmentFilter) ([]*models.Appointment, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) ListByStaffDay(ctx context.Context, tenantID, staffID uuid.UUID, day time.Time) ([]*models.Appointment, error) {
	args := m.Called(ctx, tenantID, staffID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) Count(ctx context.Context, tenantID uuid.UUID, filter *models.AppointmentFilter) (int, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Int(0), args.Error(1)
}

func (m *mockAppointmentRepo) FindDue(ctx context.Context, before time.Time, limit int) ([]*models.Appointment, error) {
	args := m.Called(ctx, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Appointment), args.Error(1)
}

func dueAppointment(version int) *models.Appointment {
	return &models.Appointment{
		ID:              uuid.New(),
		TenantID:        uuid.New(),
		StaffID:         uuid.New(),
		ScheduledTime:   time.Now().UTC().Add(-2 * time.Hour),
		DurationMinutes: 60,
		Status:          models.AppointmentConfirmed,
		Version:         version,
	}
}

func TestCompletionSweepCompletesDueRows(t *testing.T) {
	repo := new(mockAppointmentRepo)
	first := dueAppointment(2)
	second := dueAppointment(5)
	repo.On("FindDue", mock.Anything, mock.AnythingOfType("time.Time"), 200).
		Return([]*models.Appointment{first, second}, nil)

	completed := models.AppointmentCompleted
	repo.On("UpdateWithVersion", mock.Anything, first.TenantID, first.ID, 2,
		&models.AppointmentPatch{Status: &completed}).Return(first, nil)
	repo.On("UpdateWithVersion", mock.Anything, second.TenantID, second.ID, 5,
		&models.AppointmentPatch{Status: &completed}).Return(second, nil)

	n, err := NewCompletionSweep(repo, 0).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	repo.AssertExpectations(t)
}

func TestCompletionSweepSkipsStaleRows(t *testing.T) {
	repo := new(mockAppointmentRepo)
	racer := dueAppointment(3)
	repo.On("FindDue", mock.Anything, mock.AnythingOfType("time.Time"), 50).
		Return([]*models.Appointment{racer}, nil)
	repo.On("UpdateWithVersion", mock.Anything, racer.TenantID, racer.ID, 3, mock.Anything).
		Return(nil, repositories.ErrVersionConflict)

	n, err := NewCompletionSweep(repo, 50).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCompletionSweepPropagatesQueryError(t *testing.T) {
	repo := new(mockAppointmentRepo)
	repo.On("FindDue", mock.Anything, mock.AnythingOfType("time.Time"), 200).
		Return(nil, assert.AnError)

	_, err := NewCompletionSweep(repo, 200).Run(context.Background())

	assert.Error(t, err)
}
