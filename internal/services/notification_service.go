package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"salonbook/internal/models"
	"salonbook/internal/repositories"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// NotificationService records customer notifications for appointment
// lifecycle events. Every notification is persisted first; publishing
// to the broker is best-effort and the retry job re-drives rows that
// never made it out.
type NotificationService interface {
	AppointmentBooked(ctx context.Context, appt *models.Appointment) error
	AppointmentUpdated(ctx context.Context, appt *models.Appointment) error
	AppointmentCancelled(ctx context.Context, appt *models.Appointment) error
	AppointmentReminder(ctx context.Context, appt *models.Appointment) error
	RetryPending(ctx context.Context, limit int) (int, error)
}

// NotificationPublisher pushes a serialized notification onto the
// outbound broker. kafka.Writer satisfies it; a nil publisher leaves
// rows pending for the retry job.
type NotificationPublisher interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type notificationService struct {
	notifications repositories.NotificationRepository
	users         repositories.UserRepository
	publisher     NotificationPublisher
}

func NewNotificationService(notifications repositories.NotificationRepository, users repositories.UserRepository, publisher NotificationPublisher) NotificationService {
	return &notificationService{notifications: notifications, users: users, publisher: publisher}
}

func (s *notificationService) AppointmentBooked(ctx context.Context, appt *models.Appointment) error {
	msg := fmt.Sprintf("Your appointment on %s is booked.", appt.ScheduledTime.Format("Mon, 2 Jan 2006 at 15:04"))
	return s.record(ctx, appt, models.NotificationConfirmation, msg)
}

func (s *notificationService) AppointmentUpdated(ctx context.Context, appt *models.Appointment) error {
	msg := fmt.Sprintf("Your appointment was updated; it is now on %s.", appt.ScheduledTime.Format("Mon, 2 Jan 2006 at 15:04"))
	return s.record(ctx, appt, models.NotificationUpdate, msg)
}

func (s *notificationService) AppointmentCancelled(ctx context.Context, appt *models.Appointment) error {
	msg := fmt.Sprintf("Your appointment on %s was cancelled.", appt.ScheduledTime.Format("Mon, 2 Jan 2006 at 15:04"))
	return s.record(ctx, appt, models.NotificationCancellation, msg)
}

func (s *notificationService) AppointmentReminder(ctx context.Context, appt *models.Appointment) error {
	msg := fmt.Sprintf("Reminder: your appointment is on %s.", appt.ScheduledTime.Format("Mon, 2 Jan 2006 at 15:04"))
	return s.record(ctx, appt, models.NotificationReminder, msg)
}

func (s *notificationService) record(ctx context.Context, appt *models.Appointment, typ models.NotificationType, message string) error {
	recipient := ""
	if user, err := s.users.GetByID(ctx, appt.TenantID, appt.UserID); err == nil {
		recipient = user.Email
	} else if !errors.Is(err, repositories.ErrNotFound) {
		log.Printf("Failed to resolve notification recipient for user %s: %v", appt.UserID, err)
	}

	apptID := appt.ID
	notif := &models.Notification{
		ID:            uuid.New(),
		TenantID:      appt.TenantID,
		UserID:        appt.UserID,
		AppointmentID: &apptID,
		Type:          typ,
		Channel:       models.ChannelEmail,
		Recipient:     recipient,
		Message:       message,
		Status:        "pending",
	}
	if err := s.notifications.Create(ctx, notif); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	if err := s.publish(ctx, notif); err != nil {
		// Row stays pending; the retry job picks it up.
		log.Printf("Failed to publish notification %s: %v", notif.ID, err)
		return nil
	}
	if err := s.notifications.MarkSent(ctx, notif.TenantID, notif.ID); err != nil {
		log.Printf("Failed to mark notification %s sent: %v", notif.ID, err)
	}
	return nil
}

func (s *notificationService) publish(ctx context.Context, notif *models.Notification) error {
	if s.publisher == nil {
		return fmt.Errorf("no publisher configured")
	}
	payload, err := json.Marshal(notif)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return s.publisher.WriteMessages(ctx, kafka.Message{
		Key:   []byte(notif.TenantID.String()),
		Value: payload,
	})
}

// RetryPending re-publishes notifications that were persisted but
// never delivered. It runs cross-tenant from the background scheduler.
func (s *notificationService) RetryPending(ctx context.Context, limit int) (int, error) {
	pending, err := s.notifications.ListPending(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list pending notifications: %w", err)
	}

	sent := 0
	for _, notif := range pending {
		if err := s.publish(ctx, notif); err != nil {
			if markErr := s.notifications.MarkFailed(ctx, notif.TenantID, notif.ID); markErr != nil {
				log.Printf("Failed to mark notification %s failed: %v", notif.ID, markErr)
			}
			continue
		}
		if err := s.notifications.MarkSent(ctx, notif.TenantID, notif.ID); err != nil {
			log.Printf("Failed to mark notification %s sent: %v", notif.ID, err)
			continue
		}
		sent++
	}
	return sent, nil
}
