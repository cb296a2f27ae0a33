package background

import (
	"context"
	"log"
	"sync"
	"time"

	"salonbook/internal/jobs"
	"salonbook/internal/services"

	"github.com/go-co-op/gocron/v2"
)

const notificationRetryBatch = 100

// JobScheduler owns the recurring background work: closing out past
// appointments and re-driving undelivered notifications.
type JobScheduler struct {
	scheduler gocron.Scheduler
	sweep     *jobs.CompletionSweep
	notifier  services.NotificationService
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
}

func NewJobScheduler(sweep *jobs.CompletionSweep, notifier services.NotificationService) *JobScheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler: scheduler,
		sweep:     sweep,
		notifier:  notifier,
		jobs:      make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js
}

func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	sweepJob, err := js.scheduler.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(js.runCompletionSweep, context.Background()),
		gocron.WithName("appointment-completion-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create completion sweep job: %v", err)
	} else {
		js.registerJob("completion-sweep", sweepJob)
	}

	retryJob, err := js.scheduler.NewJob(
		gocron.DurationJob(2*time.Minute),
		gocron.NewTask(js.retryNotifications, context.Background()),
		gocron.WithName("notification-retry"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create notification retry job: %v", err)
	} else {
		js.registerJob("notification-retry", retryJob)
	}
}

func (js *JobScheduler) registerJob(name string, job gocron.Job) {
	js.mu.Lock()
	defer js.mu.Unlock()
	js.jobs[name] = job
}

func (js *JobScheduler) runCompletionSweep(ctx context.Context) {
	n, err := js.sweep.Run(ctx)
	if err != nil {
		log.Printf("Completion sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Completion sweep closed %d appointments", n)
	}
}

func (js *JobScheduler) retryNotifications(ctx context.Context) {
	if js.notifier == nil {
		return
	}
	n, err := js.notifier.RetryPending(ctx, notificationRetryBatch)
	if err != nil {
		log.Printf("Notification retry failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Notification retry delivered %d notifications", n)
	}
}
