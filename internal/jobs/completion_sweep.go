package jobs

import (
	"context"
	"errors"
	"log"
	"time"

	"salonbook/internal/models"
	"salonbook/internal/repositories"
)

// CompletionSweep moves confirmed appointments whose end time has
// passed to "completed". Each row goes through the version-checked
// update path; a concurrent write wins the race and the sweep simply
// skips the row, the next run catches it up.
type CompletionSweep struct {
	appointments repositories.AppointmentRepository
	batchSize    int
}

func NewCompletionSweep(appointments repositories.AppointmentRepository, batchSize int) *CompletionSweep {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &CompletionSweep{appointments: appointments, batchSize: batchSize}
}

// Run completes one sweep pass and returns how many rows it closed.
func (s *CompletionSweep) Run(ctx context.Context) (int, error) {
	due, err := s.appointments.FindDue(ctx, time.Now().UTC(), s.batchSize)
	if err != nil {
		return 0, err
	}

	completed := 0
	status := models.AppointmentCompleted
	for _, appt := range due {
		_, err := s.appointments.UpdateWithVersion(ctx, appt.TenantID, appt.ID, appt.Version,
			&models.AppointmentPatch{Status: &status})
		if err != nil {
			if errors.Is(err, repositories.ErrVersionConflict) || errors.Is(err, repositories.ErrNotFound) {
				// Lost to a concurrent update (likely a cancellation);
				// leave it for the next pass to re-evaluate.
				continue
			}
			log.Printf("Completion sweep failed for appointment %s: %v", appt.ID, err)
			continue
		}
		completed++
	}
	return completed, nil
}
