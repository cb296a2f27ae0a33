package services

import (
	"context"
	"testing"
	"time"

	"salonbook/internal/models"
	"salonbook/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockAppointmentRepo struct {
	mock.Mock
}

func (m *MockAppointmentRepo) Insert(ctx context.Context, appt *models.Appointment) error {
	args := m.Called(ctx, appt)
	return args.Error(0)
}

func (m *MockAppointmentRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Appointment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepo) FindOverlapping(ctx context.Context, tenantID, staffID uuid.UUID, start time.Time, durationMinutes int, excludeID *uuid.UUID) ([]*models.Appointment, error) {
	args := m.Called(ctx, tenantID, staffID, start, durationMinutes, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepo) UpdateWithVersion(ctx context.Context, tenantID, id uuid.UUID, expectedVersion int, patch *models.AppointmentPatch) (*models.Appointment, error) {
	args := m.Called(ctx, tenantID, id, expectedVersion, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepo) List(ctx context.Context, tenantID uuid.UUID, filter *models.AppointmentFilter) ([]*models.Appointment, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepo) ListByStaffDay(ctx context.Context, tenantID, staffID uuid.UUID, day time.Time) ([]*models.Appointment, error) {
	args := m.Called(ctx, tenantID, staffID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepo) Count(ctx context.Context, tenantID uuid.UUID, filter *models.AppointmentFilter) (int, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockAppointmentRepo) FindDue(ctx context.Context, before time.Time, limit int) ([]*models.Appointment, error) {
	args := m.Called(ctx, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Appointment), args.Error(1)
}

type MockServiceRepo struct {
	mock.Mock
}

func (m *MockServiceRepo) Create(ctx context.Context, svc *models.Service) error {
	args := m.Called(ctx, svc)
	return args.Error(0)
}

func (m *MockServiceRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Service, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}

func (m *MockServiceRepo) Update(ctx context.Context, svc *models.Service) error {
	args := m.Called(ctx, svc)
	return args.Error(0)
}

func (m *MockServiceRepo) List(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]*models.Service, error) {
	args := m.Called(ctx, tenantID, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Service), args.Error(1)
}

type MockStaffRepo struct {
	mock.Mock
}

func (m *MockStaffRepo) Create(ctx context.Context, staff *models.Staff) error {
	args := m.Called(ctx, staff)
	return args.Error(0)
}

func (m *MockStaffRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Staff, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Staff), args.Error(1)
}

func (m *MockStaffRepo) Update(ctx context.Context, staff *models.Staff) error {
	args := m.Called(ctx, staff)
	return args.Error(0)
}

func (m *MockStaffRepo) List(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]*models.Staff, error) {
	args := m.Called(ctx, tenantID, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Staff), args.Error(1)
}

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*models.User, error) {
	args := m.Called(ctx, tenantID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) GetOrCreateByEmail(ctx context.Context, tenantID uuid.UUID, email, name string, phone *string) (*models.User, error) {
	args := m.Called(ctx, tenantID, email, name, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

type MockIdempotencyRepo struct {
	mock.Mock
}

func (m *MockIdempotencyRepo) Claim(ctx context.Context, tenantID uuid.UUID, key string) (*uuid.UUID, bool, error) {
	args := m.Called(ctx, tenantID, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*uuid.UUID), args.Bool(1), args.Error(2)
}

func (m *MockIdempotencyRepo) Bind(ctx context.Context, tenantID uuid.UUID, key string, appointmentID uuid.UUID) error {
	args := m.Called(ctx, tenantID, key, appointmentID)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) AppointmentBooked(ctx context.Context, appt *models.Appointment) error {
	args := m.Called(ctx, appt)
	return args.Error(0)
}

func (m *MockNotifier) AppointmentUpdated(ctx context.Context, appt *models.Appointment) error {
	args := m.Called(ctx, appt)
	return args.Error(0)
}

func (m *MockNotifier) AppointmentCancelled(ctx context.Context, appt *models.Appointment) error {
	args := m.Called(ctx, appt)
	return args.Error(0)
}

func (m *MockNotifier) AppointmentReminder(ctx context.Context, appt *models.Appointment) error {
	args := m.Called(ctx, appt)
	return args.Error(0)
}

func (m *MockNotifier) RetryPending(ctx context.Context, limit int) (int, error) {
	args := m.Called(ctx, limit)
	return args.Int(0), args.Error(1)
}

type BookingServiceTestSuite struct {
	suite.Suite
	appointments *MockAppointmentRepo
	services     *MockServiceRepo
	staff        *MockStaffRepo
	users        *MockUserRepo
	idempotency  *MockIdempotencyRepo
	notifier     *MockNotifier
	svc          BookingService
	ctx          context.Context

	tenantID   uuid.UUID
	customerID uuid.UUID
	staffID    uuid.UUID
	serviceID  uuid.UUID
	start      time.Time
}

func (s *BookingServiceTestSuite) SetupTest() {
	s.appointments = new(MockAppointmentRepo)
	s.services = new(MockServiceRepo)
	s.staff = new(MockStaffRepo)
	s.users = new(MockUserRepo)
	s.idempotency = new(MockIdempotencyRepo)
	s.notifier = new(MockNotifier)
	s.svc = NewBookingService(s.appointments, s.services, s.staff, s.idempotency, s.notifier, nil)
	s.ctx = context.Background()

	s.tenantID = uuid.New()
	s.customerID = uuid.New()
	s.staffID = uuid.New()
	s.serviceID = uuid.New()
	s.start = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
}

func (s *BookingServiceTestSuite) activeService(durationMinutes int) *models.Service {
	return &models.Service{
		ID:              s.serviceID,
		TenantID:        s.tenantID,
		Name:            "Haircut",
		DurationMinutes: durationMinutes,
		PriceCents:      3500,
		IsActive:        true,
	}
}

func (s *BookingServiceTestSuite) activeStaff() *models.Staff {
	return &models.Staff{
		ID:       s.staffID,
		TenantID: s.tenantID,
		Name:     "Alice",
		IsActive: true,
	}
}

func (s *BookingServiceTestSuite) createRequest() *CreateAppointmentRequest {
	return &CreateAppointmentRequest{
		CustomerID:    s.customerID,
		StaffID:       s.staffID,
		ServiceID:     s.serviceID,
		ScheduledTime: s.start,
	}
}

func (s *BookingServiceTestSuite) TestCreateAppointment_Success() {
	s.services.On("GetByID", s.ctx, s.tenantID, s.serviceID).Return(s.activeService(60), nil)
	s.staff.On("GetByID", s.ctx, s.tenantID, s.staffID).Return(s.activeStaff(), nil)
	s.appointments.On("FindOverlapping", s.ctx, s.tenantID, s.staffID, s.start, 60, (*uuid.UUID)(nil)).
		Return([]*models.Appointment{}, nil)
	s.appointments.On("Insert", s.ctx, mock.AnythingOfType("*models.Appointment")).Return(nil)
	s.notifier.On("AppointmentBooked", s.ctx, mock.AnythingOfType("*models.Appointment")).Return(nil)

	appt, err := s.svc.CreateAppointment(s.ctx, s.tenantID, s.createRequest())

	s.NoError(err)
	s.Equal(models.AppointmentPending, appt.Status)
	s.Equal(60, appt.DurationMinutes)
	s.Equal(s.start.Add(60*time.Minute), appt.EndTime())
	s.appointments.AssertExpectations(s.T())
}

func (s *BookingServiceTestSuite) TestCreateAppointment_ConflictOnPrecheck() {
	// 10:00-11:00 is taken; a 10:30 proposal overlaps it.
	s.services.On("GetByID", s.ctx, s.tenantID, s.serviceID).Return(s.activeService(60), nil)
	s.staff.On("GetByID", s.ctx, s.tenantID, s.staffID).Return(s.activeStaff(), nil)
	req := s.createRequest()
	req.ScheduledTime = s.start.Add(30 * time.Minute)
	s.appointments.On("FindOverlapping", s.ctx, s.tenantID, s.staffID, req.ScheduledTime, 60, (*uuid.UUID)(nil)).
		Return([]*models.Appointment{{ID: uuid.New()}}, nil)

	appt, err := s.svc.CreateAppointment(s.ctx, s.tenantID, req)

	s.ErrorIs(err, ErrSchedulingConflict)
	s.Nil(appt)
	s.appointments.AssertNotCalled(s.T(), "Insert", mock.Anything, mock.Anything)
}

func (s *BookingServiceTestSuite) TestCreateAppointment_BackToBackAllowed() {
	// An appointment ending at 11:00 does not block one starting at
	// 11:00; the repository's half-open interval query returns nothing.
	s.services.On("GetByID", s.ctx, s.tenantID, s.serviceID).Return(s.activeService(30), nil)
	s.staff.On("GetByID", s.ctx, s.tenantID, s.staffID).Return(s.activeStaff(), nil)
	req := s.createRequest()
	req.ScheduledTime = s.start.Add(60 * time.Minute)
	s.appointments.On("FindOverlapping", s.ctx, s.tenantID, s.staffID, req.ScheduledTime, 30, (*uuid.UUID)(nil)).
		Return([]*models.Appointment{}, nil)
	s.appointments.On("Insert", s.ctx, mock.AnythingOfType("*models.Appointment")).Return(nil)
	s.notifier.On("AppointmentBooked", s.ctx, mock.AnythingOfType("*models.Appointment")).Return(nil)

	appt, err := s.svc.CreateAppointment(s.ctx, s.tenantID, req)

	s.NoError(err)
	s.NotNil(appt)
}

func (s *BookingServiceTestSuite) TestCreateAppointment_RaceLoserGetsConflict() {
	// Pre-check passes but the exclusion constraint rejects the insert:
	// the caller still gets a scheduling conflict, not a raw DB error.
	s.services.On("GetByID", s.ctx, s.tenantID, s.serviceID).Return(s.activeService(60), nil)
	s.staff.On("GetByID", s.ctx, s.tenantID, s.staffID).Return(s.activeStaff(), nil)
	s.appointments.On("FindOverlapping", s.ctx, s.tenantID, s.staffID, s.start, 60, (*uuid.UUID)(nil)).
		Return([]*models.Appointment{}, nil)
	s.appointments.On("Insert", s.ctx, mock.AnythingOfType("*models.Appointment")).
		Return(repositories.ErrOverlap)

	appt, err := s.svc.CreateAppointment(s.ctx, s.tenantID, s.createRequest())

	s.ErrorIs(err, ErrSchedulingConflict)
	s.Nil(appt)
	s.notifier.AssertNotCalled(s.T(), "AppointmentBooked", mock.Anything, mock.Anything)
}

func (s *BookingServiceTestSuite) TestCreateAppointment_UnknownService() {
	s.services.On("GetByID", s.ctx, s.tenantID, s.serviceID).Return(nil, repositories.ErrNotFound)

	_, err := s.svc.CreateAppointment(s.ctx, s.tenantID, s.createRequest())

	s.ErrorIs(err, ErrServiceNotFound)
}

func (s *BookingServiceTestSuite) TestCreateAppointment_InactiveService() {
	svc := s.activeService(60)
	svc.IsActive = false
	s.services.On("GetByID", s.ctx, s.tenantID, s.serviceID).Return(svc, nil)

	_, err := s.svc.CreateAppointment(s.ctx, s.tenantID, s.createRequest())

	s.ErrorIs(err, ErrServiceNotFound)
}

func (s *BookingServiceTestSuite) TestCreateAppointment_InactiveStaff() {
	staff := s.activeStaff()
	staff.IsActive = false
	s.services.On("GetByID", s.ctx, s.tenantID, s.serviceID).Return(s.activeService(60), nil)
	s.staff.On("GetByID", s.ctx, s.tenantID, s.staffID).Return(staff, nil)

	_, err := s.svc.CreateAppointment(s.ctx, s.tenantID, s.createRequest())

	s.ErrorIs(err, ErrStaffNotFound)
}

func (s *BookingServiceTestSuite) TestCreateAppointment_IdempotentReplay() {
	existingID := uuid.New()
	existing := &models.Appointment{ID: existingID, TenantID: s.tenantID, Status: models.AppointmentPending, Version: 1}
	s.idempotency.On("Claim", s.ctx, s.tenantID, "req-abc").Return(&existingID, false, nil)
	s.appointments.On("GetByID", s.ctx, s.tenantID, existingID).Return(existing, nil)

	req := s.createRequest()
	req.IdempotencyKey = "req-abc"
	appt, err := s.svc.CreateAppointment(s.ctx, s.tenantID, req)

	s.NoError(err)
	s.Equal(existingID, appt.ID)
	s.appointments.AssertNotCalled(s.T(), "Insert", mock.Anything, mock.Anything)
}

func (s *BookingServiceTestSuite) TestCreateAppointment_IdempotencyKeyBound() {
	s.idempotency.On("Claim", s.ctx, s.tenantID, "req-xyz").Return(nil, true, nil)
	s.services.On("GetByID", s.ctx, s.tenantID, s.serviceID).Return(s.activeService(60), nil)
	s.staff.On("GetByID", s.ctx, s.tenantID, s.staffID).Return(s.activeStaff(), nil)
	s.appointments.On("FindOverlapping", s.ctx, s.tenantID, s.staffID, s.start, 60, (*uuid.UUID)(nil)).
		Return([]*models.Appointment{}, nil)
	s.appointments.On("Insert", s.ctx, mock.AnythingOfType("*models.Appointment")).Return(nil)
	s.idempotency.On("Bind", s.ctx, s.tenantID, "req-xyz", mock.AnythingOfType("uuid.UUID")).Return(nil)
	s.notifier.On("AppointmentBooked", s.ctx, mock.AnythingOfType("*models.Appointment")).Return(nil)

	req := s.createRequest()
	req.IdempotencyKey = "req-xyz"
	_, err := s.svc.CreateAppointment(s.ctx, s.tenantID, req)

	s.NoError(err)
	s.idempotency.AssertExpectations(s.T())
}

func (s *BookingServiceTestSuite) TestCreateAppointment_NotificationFailureDoesNotFailBooking() {
	s.services.On("GetByID", s.ctx, s.tenantID, s.serviceID).Return(s.activeService(60), nil)
	s.staff.On("GetByID", s.ctx, s.tenantID, s.staffID).Return(s.activeStaff(), nil)
	s.appointments.On("FindOverlapping", s.ctx, s.tenantID, s.staffID, s.start, 60, (*uuid.UUID)(nil)).
		Return([]*models.Appointment{}, nil)
	s.appointments.On("Insert", s.ctx, mock.AnythingOfType("*models.Appointment")).Return(nil)
	s.notifier.On("AppointmentBooked", s.ctx, mock.AnythingOfType("*models.Appointment")).
		Return(assert.AnError)

	appt, err := s.svc.CreateAppointment(s.ctx, s.tenantID, s.createRequest())

	s.NoError(err)
	s.NotNil(appt)
}

func (s *BookingServiceTestSuite) existingAppointment() *models.Appointment {
	return &models.Appointment{
		ID:              uuid.New(),
		TenantID:        s.tenantID,
		UserID:          s.customerID,
		StaffID:         s.staffID,
		ServiceID:       s.serviceID,
		ScheduledTime:   s.start,
		DurationMinutes: 60,
		Status:          models.AppointmentConfirmed,
		Version:         3,
	}
}

func (s *BookingServiceTestSuite) TestUpdateAppointment_NotesOnlySkipsConflictCheck() {
	current := s.existingAppointment()
	notes := "bring own towel"
	patch := &models.AppointmentPatch{Notes: &notes}
	updated := *current
	updated.Notes = &notes
	updated.Version = 4

	s.appointments.On("GetByID", s.ctx, s.tenantID, current.ID).Return(current, nil)
	s.appointments.On("UpdateWithVersion", s.ctx, s.tenantID, current.ID, 3, patch).Return(&updated, nil)
	s.notifier.On("AppointmentUpdated", s.ctx, &updated).Return(nil)

	got, err := s.svc.UpdateAppointment(s.ctx, s.tenantID, current.ID, 3, patch)

	s.NoError(err)
	s.Equal(4, got.Version)
	s.appointments.AssertNotCalled(s.T(), "FindOverlapping",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *BookingServiceTestSuite) TestUpdateAppointment_CancelledIsTerminal() {
	current := s.existingAppointment()
	current.Status = models.AppointmentCancelled
	confirmed := models.AppointmentConfirmed
	patch := &models.AppointmentPatch{Status: &confirmed}

	s.appointments.On("GetByID", s.ctx, s.tenantID, current.ID).Return(current, nil)

	got, err := s.svc.UpdateAppointment(s.ctx, s.tenantID, current.ID, current.Version, patch)

	s.Nil(got)
	s.ErrorIs(err, ErrAppointmentCancelled)
	s.appointments.AssertNotCalled(s.T(), "UpdateWithVersion",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *BookingServiceTestSuite) TestUpdateAppointment_RescheduledCancelledIsRejected() {
	current := s.existingAppointment()
	current.Status = models.AppointmentCancelled
	newStart := s.start.Add(2 * time.Hour)
	patch := &models.AppointmentPatch{ScheduledTime: &newStart}

	s.appointments.On("GetByID", s.ctx, s.tenantID, current.ID).Return(current, nil)

	_, err := s.svc.UpdateAppointment(s.ctx, s.tenantID, current.ID, current.Version, patch)

	s.ErrorIs(err, ErrAppointmentCancelled)
	s.appointments.AssertNotCalled(s.T(), "FindOverlapping",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *BookingServiceTestSuite) TestUpdateAppointment_RescheduleExcludesSelf() {
	current := s.existingAppointment()
	newStart := s.start.Add(2 * time.Hour)
	patch := &models.AppointmentPatch{ScheduledTime: &newStart}
	updated := *current
	updated.ScheduledTime = newStart
	updated.Version = 4

	s.appointments.On("GetByID", s.ctx, s.tenantID, current.ID).Return(current, nil)
	s.appointments.On("FindOverlapping", s.ctx, s.tenantID, s.staffID, newStart, 60, &current.ID).
		Return([]*models.Appointment{}, nil)
	s.appointments.On("UpdateWithVersion", s.ctx, s.tenantID, current.ID, 3, patch).Return(&updated, nil)
	s.notifier.On("AppointmentUpdated", s.ctx, &updated).Return(nil)

	got, err := s.svc.UpdateAppointment(s.ctx, s.tenantID, current.ID, 3, patch)

	s.NoError(err)
	s.Equal(newStart, got.ScheduledTime)
	s.appointments.AssertExpectations(s.T())
}

func (s *BookingServiceTestSuite) TestUpdateAppointment_RescheduleIntoConflict() {
	current := s.existingAppointment()
	newStart := s.start.Add(2 * time.Hour)
	patch := &models.AppointmentPatch{ScheduledTime: &newStart}

	s.appointments.On("GetByID", s.ctx, s.tenantID, current.ID).Return(current, nil)
	s.appointments.On("FindOverlapping", s.ctx, s.tenantID, s.staffID, newStart, 60, &current.ID).
		Return([]*models.Appointment{{ID: uuid.New()}}, nil)

	_, err := s.svc.UpdateAppointment(s.ctx, s.tenantID, current.ID, 3, patch)

	s.ErrorIs(err, ErrSchedulingConflict)
	s.appointments.AssertNotCalled(s.T(), "UpdateWithVersion",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *BookingServiceTestSuite) TestUpdateAppointment_StaleVersion() {
	current := s.existingAppointment()
	notes := "late arrival"
	patch := &models.AppointmentPatch{Notes: &notes}

	s.appointments.On("GetByID", s.ctx, s.tenantID, current.ID).Return(current, nil)
	s.appointments.On("UpdateWithVersion", s.ctx, s.tenantID, current.ID, 2, patch).
		Return(nil, repositories.ErrVersionConflict)

	_, err := s.svc.UpdateAppointment(s.ctx, s.tenantID, current.ID, 2, patch)

	s.ErrorIs(err, ErrStaleWrite)
}

func (s *BookingServiceTestSuite) TestUpdateAppointment_ServiceChangeRefreshesDuration() {
	current := s.existingAppointment()
	newServiceID := uuid.New()
	patch := &models.AppointmentPatch{ServiceID: &newServiceID}
	newSvc := &models.Service{ID: newServiceID, TenantID: s.tenantID, DurationMinutes: 90, IsActive: true}
	updated := *current
	updated.ServiceID = newServiceID
	updated.DurationMinutes = 90
	updated.Version = 4

	s.appointments.On("GetByID", s.ctx, s.tenantID, current.ID).Return(current, nil)
	s.services.On("GetByID", s.ctx, s.tenantID, newServiceID).Return(newSvc, nil)
	s.appointments.On("FindOverlapping", s.ctx, s.tenantID, s.staffID, s.start, 90, &current.ID).
		Return([]*models.Appointment{}, nil)
	s.appointments.On("UpdateWithVersion", s.ctx, s.tenantID, current.ID, 3, patch).Return(&updated, nil)
	s.notifier.On("AppointmentUpdated", s.ctx, &updated).Return(nil)

	got, err := s.svc.UpdateAppointment(s.ctx, s.tenantID, current.ID, 3, patch)

	s.NoError(err)
	s.Equal(90, got.DurationMinutes)
	s.NotNil(patch.DurationMinutes)
	s.Equal(90, *patch.DurationMinutes)
}

func (s *BookingServiceTestSuite) TestUpdateAppointment_CrossTenantIsNotFound() {
	otherTenant := uuid.New()
	id := uuid.New()
	s.appointments.On("GetByID", s.ctx, otherTenant, id).Return(nil, repositories.ErrNotFound)

	notes := "x"
	_, err := s.svc.UpdateAppointment(s.ctx, otherTenant, id, 1, &models.AppointmentPatch{Notes: &notes})

	s.ErrorIs(err, ErrNotFound)
}

func (s *BookingServiceTestSuite) TestCancelAppointment_Success() {
	current := s.existingAppointment()
	cancelled := *current
	cancelled.Status = models.AppointmentCancelled
	cancelled.Version = 4

	s.appointments.On("GetByID", s.ctx, s.tenantID, current.ID).Return(current, nil)
	s.appointments.On("UpdateWithVersion", s.ctx, s.tenantID, current.ID, 3,
		mock.MatchedBy(func(p *models.AppointmentPatch) bool {
			return p.Status != nil && *p.Status == models.AppointmentCancelled
		})).Return(&cancelled, nil)
	s.notifier.On("AppointmentCancelled", s.ctx, &cancelled).Return(nil)

	got, err := s.svc.CancelAppointment(s.ctx, s.tenantID, current.ID)

	s.NoError(err)
	s.Equal(models.AppointmentCancelled, got.Status)
}

func (s *BookingServiceTestSuite) TestCancelAppointment_RacingCancelIsStale() {
	current := s.existingAppointment()
	s.appointments.On("GetByID", s.ctx, s.tenantID, current.ID).Return(current, nil)
	s.appointments.On("UpdateWithVersion", s.ctx, s.tenantID, current.ID, 3, mock.Anything).
		Return(nil, repositories.ErrVersionConflict)

	_, err := s.svc.CancelAppointment(s.ctx, s.tenantID, current.ID)

	s.ErrorIs(err, ErrStaleWrite)
}

func (s *BookingServiceTestSuite) TestListAppointments() {
	filter := &models.AppointmentFilter{StaffID: &s.staffID}
	appts := []*models.Appointment{s.existingAppointment()}
	s.appointments.On("List", s.ctx, s.tenantID, filter).Return(appts, nil)
	s.appointments.On("Count", s.ctx, s.tenantID, filter).Return(1, nil)

	got, total, err := s.svc.ListAppointments(s.ctx, s.tenantID, filter)

	s.NoError(err)
	s.Len(got, 1)
	s.Equal(1, total)
}

func TestBookingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(BookingServiceTestSuite))
}
