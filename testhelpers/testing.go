package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"salonbook/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func() error
}

// SetupTestDB creates a pooled connection for integration tests.
func SetupTestDB(t *testing.T, connString string) *TestDB {
	t.Helper()

	if connString == "" {
		connString = os.Getenv("TEST_DATABASE_URL")
		if connString == "" {
			connString = "host=localhost port=5432 user=postgres password=postgres dbname=salonbook_test sslmode=disable"
		}
	}

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	return &TestDB{
		Pool: pool,
		Cleanup: func() error {
			pool.Close()
			return nil
		},
	}
}

// SetupTestTenant creates a test tenant.
func SetupTestTenant(t *testing.T, db *TestDB) uuid.UUID {
	t.Helper()

	tenantID := uuid.New()
	query := `
		INSERT INTO tenants (id, slug, name, currency, is_active)
		VALUES ($1, $2, $3, 'ZAR', TRUE)
		ON CONFLICT (slug) DO NOTHING
	`
	_, err := db.Pool.Exec(context.Background(), query, tenantID, "test-salon-"+tenantID.String()[:8], "Test Salon")
	if err != nil {
		t.Fatalf("Failed to create test tenant: %v", err)
	}

	return tenantID
}

// SetupTestCustomer creates a customer in the tenant.
func SetupTestCustomer(t *testing.T, db *TestDB, tenantID uuid.UUID) uuid.UUID {
	t.Helper()

	userID := uuid.New()
	query := `
		INSERT INTO users (id, tenant_id, email, name, role)
		VALUES ($1, $2, $3, 'Test Customer', 'customer')
	`
	_, err := db.Pool.Exec(context.Background(), query, userID, tenantID, userID.String()[:8]+"@example.com")
	if err != nil {
		t.Fatalf("Failed to create test customer: %v", err)
	}

	return userID
}

// SetupTestStaff creates an active staff member in the tenant.
func SetupTestStaff(t *testing.T, db *TestDB, tenantID uuid.UUID) uuid.UUID {
	t.Helper()

	staffID := uuid.New()
	query := `
		INSERT INTO employees (id, tenant_id, name, is_active)
		VALUES ($1, $2, 'Test Stylist', TRUE)
	`
	_, err := db.Pool.Exec(context.Background(), query, staffID, tenantID)
	if err != nil {
		t.Fatalf("Failed to create test staff: %v", err)
	}

	return staffID
}

// SetupTestService creates an active service with the given duration.
func SetupTestService(t *testing.T, db *TestDB, tenantID uuid.UUID, durationMinutes int) *models.Service {
	t.Helper()

	svc := &models.Service{
		ID:              uuid.New(),
		TenantID:        tenantID,
		Name:            "Test Haircut",
		DurationMinutes: durationMinutes,
		PriceCents:      3500,
		IsActive:        true,
	}
	query := `
		INSERT INTO services (id, tenant_id, name, duration_minutes, price_cents, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
	`
	_, err := db.Pool.Exec(context.Background(), query, svc.ID, svc.TenantID, svc.Name, svc.DurationMinutes, svc.PriceCents)
	if err != nil {
		t.Fatalf("Failed to create test service: %v", err)
	}

	return svc
}

// SetupTestAppointment inserts a confirmed appointment at the given
// start time.
func SetupTestAppointment(t *testing.T, db *TestDB, tenantID, userID, staffID, serviceID uuid.UUID, start time.Time, durationMinutes int) uuid.UUID {
	t.Helper()

	apptID := uuid.New()
	query := `
		INSERT INTO appointments (id, tenant_id, user_id, employee_id, service_id, scheduled_time, duration_minutes, status, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'confirmed', 1)
	`
	_, err := db.Pool.Exec(context.Background(), query, apptID, tenantID, userID, staffID, serviceID, start, durationMinutes)
	if err != nil {
		t.Fatalf("Failed to create test appointment: %v", err)
	}

	return apptID
}
