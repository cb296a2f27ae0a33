package repositories

import (
	"context"
	"testing"
	"time"

	"salonbook/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type AppointmentRepoTestSuite struct {
	suite.Suite
	mock      pgxmock.PgxPoolIface
	repo      AppointmentRepository
	tenantID1 uuid.UUID
	tenantID2 uuid.UUID
	staffID   uuid.UUID
	context   context.Context
}

func (suite *AppointmentRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewAppointmentRepo(mock)
	suite.tenantID1 = uuid.New()
	suite.tenantID2 = uuid.New()
	suite.staffID = uuid.New()
	suite.context = context.Background()
}

func (suite *AppointmentRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestAppointmentRepoTestSuite(t *testing.T) {
	suite.Run(t, new(AppointmentRepoTestSuite))
}

func (suite *AppointmentRepoTestSuite) newAppointment() *models.Appointment {
	return &models.Appointment{
		ID:              uuid.New(),
		TenantID:        suite.tenantID1,
		UserID:          uuid.New(),
		StaffID:         suite.staffID,
		ServiceID:       uuid.New(),
		ScheduledTime:   time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Status:          models.AppointmentConfirmed,
		Version:         1,
	}
}

func appointmentRows(appts ...*models.Appointment) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{
		"id", "tenant_id", "user_id", "employee_id", "service_id",
		"scheduled_time", "duration_minutes", "status", "notes",
		"version", "created_at", "updated_at",
	})
	for _, a := range appts {
		rows.AddRow(
			a.ID, a.TenantID, a.UserID, a.StaffID, a.ServiceID,
			a.ScheduledTime, a.DurationMinutes, a.Status, a.Notes,
			a.Version, a.CreatedAt, a.UpdatedAt,
		)
	}
	return rows
}

func (suite *AppointmentRepoTestSuite) TestInsert_Success() {
	appt := suite.newAppointment()
	appt.Version = 0 // repo assigns version 1

	now := time.Now().UTC()
	suite.mock.ExpectQuery(`INSERT INTO appointments`).
		WithArgs(appt.ID, appt.TenantID, appt.UserID, appt.StaffID, appt.ServiceID,
			appt.ScheduledTime.UTC(), appt.DurationMinutes, models.AppointmentConfirmed, (*string)(nil)).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	err := suite.repo.Insert(suite.context, appt)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, appt.Version)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *AppointmentRepoTestSuite) TestInsert_ExclusionViolationIsOverlap() {
	appt := suite.newAppointment()

	suite.mock.ExpectQuery(`INSERT INTO appointments`).
		WithArgs(appt.ID, appt.TenantID, appt.UserID, appt.StaffID, appt.ServiceID,
			appt.ScheduledTime.UTC(), appt.DurationMinutes, appt.Status, (*string)(nil)).
		WillReturnError(&pgconn.PgError{Code: "23P01", ConstraintName: "no_double_booking"})

	err := suite.repo.Insert(suite.context, appt)
	assert.ErrorIs(suite.T(), err, ErrOverlap)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *AppointmentRepoTestSuite) TestGetByID_Success() {
	appt := suite.newAppointment()

	suite.mock.ExpectQuery(`SELECT (.+) FROM appointments`).
		WithArgs(suite.tenantID1, appt.ID).
		WillReturnRows(appointmentRows(appt))

	got, err := suite.repo.GetByID(suite.context, suite.tenantID1, appt.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), appt.ID, got.ID)
	assert.Equal(suite.T(), appt.StaffID, got.StaffID)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *AppointmentRepoTestSuite) TestGetByID_WrongTenantIsNotFound() {
	appt := suite.newAppointment()

	suite.mock.ExpectQuery(`SELECT (.+) FROM appointments`).
		WithArgs(suite.tenantID2, appt.ID).
		WillReturnError(pgx.ErrNoRows)

	got, err := suite.repo.GetByID(suite.context, suite.tenantID2, appt.ID)
	assert.Nil(suite.T(), got)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *AppointmentRepoTestSuite) TestFindOverlapping_HalfOpenBounds() {
	existing := suite.newAppointment()
	start := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)

	// Proposed 10:30 for 60 minutes: the query compares against the
	// exclusive end 11:30.
	suite.mock.ExpectQuery(`SELECT (.+) FROM appointments`).
		WithArgs(suite.tenantID1, suite.staffID, start.Add(60*time.Minute), start).
		WillReturnRows(appointmentRows(existing))

	appts, err := suite.repo.FindOverlapping(suite.context, suite.tenantID1, suite.staffID, start, 60, nil)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), appts, 1)
	assert.Equal(suite.T(), existing.ID, appts[0].ID)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *AppointmentRepoTestSuite) TestFindOverlapping_ExcludesGivenID() {
	excludeID := uuid.New()
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	suite.mock.ExpectQuery(`SELECT (.+) FROM appointments`).
		WithArgs(suite.tenantID1, suite.staffID, start.Add(30*time.Minute), start, excludeID).
		WillReturnRows(appointmentRows())

	appts, err := suite.repo.FindOverlapping(suite.context, suite.tenantID1, suite.staffID, start, 30, &excludeID)
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), appts)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *AppointmentRepoTestSuite) TestUpdateWithVersion_Success() {
	appt := suite.newAppointment()
	updated := *appt
	updated.Status = models.AppointmentCancelled
	updated.Version = 2

	status := models.AppointmentCancelled
	suite.mock.ExpectQuery(`UPDATE appointments`).
		WithArgs(suite.tenantID1, appt.ID, 1, status).
		WillReturnRows(appointmentRows(&updated))

	got, err := suite.repo.UpdateWithVersion(suite.context, suite.tenantID1, appt.ID, 1, &models.AppointmentPatch{Status: &status})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.AppointmentCancelled, got.Status)
	assert.Equal(suite.T(), 2, got.Version)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *AppointmentRepoTestSuite) TestUpdateWithVersion_StaleVersion() {
	id := uuid.New()
	status := models.AppointmentConfirmed

	suite.mock.ExpectQuery(`UPDATE appointments`).
		WithArgs(suite.tenantID1, id, 1, status).
		WillReturnError(pgx.ErrNoRows)
	// Row exists, so the miss was a version mismatch.
	suite.mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(suite.tenantID1, id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	got, err := suite.repo.UpdateWithVersion(suite.context, suite.tenantID1, id, 1, &models.AppointmentPatch{Status: &status})
	assert.Nil(suite.T(), got)
	assert.ErrorIs(suite.T(), err, ErrVersionConflict)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *AppointmentRepoTestSuite) TestUpdateWithVersion_MissingRowIsNotFound() {
	id := uuid.New()
	status := models.AppointmentConfirmed

	suite.mock.ExpectQuery(`UPDATE appointments`).
		WithArgs(suite.tenantID2, id, 3, status).
		WillReturnError(pgx.ErrNoRows)
	suite.mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(suite.tenantID2, id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	got, err := suite.repo.UpdateWithVersion(suite.context, suite.tenantID2, id, 3, &models.AppointmentPatch{Status: &status})
	assert.Nil(suite.T(), got)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *AppointmentRepoTestSuite) TestUpdateWithVersion_RescheduleHitsExclusion() {
	id := uuid.New()
	newTime := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)

	suite.mock.ExpectQuery(`UPDATE appointments`).
		WithArgs(suite.tenantID1, id, 2, newTime.UTC()).
		WillReturnError(&pgconn.PgError{Code: "23P01", ConstraintName: "no_double_booking"})

	got, err := suite.repo.UpdateWithVersion(suite.context, suite.tenantID1, id, 2, &models.AppointmentPatch{ScheduledTime: &newTime})
	assert.Nil(suite.T(), got)
	assert.ErrorIs(suite.T(), err, ErrOverlap)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *AppointmentRepoTestSuite) TestList_AppliesFilter() {
	appt := suite.newAppointment()
	status := models.AppointmentConfirmed

	suite.mock.ExpectQuery(`SELECT (.+) FROM appointments`).
		WithArgs(suite.tenantID1, suite.staffID, status, 20, 0).
		WillReturnRows(appointmentRows(appt))

	appts, err := suite.repo.List(suite.context, suite.tenantID1, &models.AppointmentFilter{
		StaffID: &suite.staffID,
		Status:  &status,
		Limit:   20,
	})
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), appts, 1)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *AppointmentRepoTestSuite) TestListByStaffDay_ReadsWholeDay() {
	first := suite.newAppointment()
	second := suite.newAppointment()
	second.ScheduledTime = first.ScheduledTime.Add(time.Hour)
	dayStart := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	suite.mock.ExpectQuery(`SELECT (.+) FROM appointments`).
		WithArgs(suite.tenantID1, suite.staffID, dayStart, dayStart.Add(24*time.Hour)).
		WillReturnRows(appointmentRows(first, second))

	appts, err := suite.repo.ListByStaffDay(suite.context, suite.tenantID1, suite.staffID, first.ScheduledTime)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), appts, 2)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *AppointmentRepoTestSuite) TestCount() {
	suite.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM appointments`).
		WithArgs(suite.tenantID1).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	count, err := suite.repo.Count(suite.context, suite.tenantID1, nil)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3, count)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *AppointmentRepoTestSuite) TestFindDue() {
	appt := suite.newAppointment()
	before := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	suite.mock.ExpectQuery(`SELECT (.+) FROM appointments`).
		WithArgs(before, 50).
		WillReturnRows(appointmentRows(appt))

	appts, err := suite.repo.FindDue(suite.context, before, 50)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), appts, 1)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}
