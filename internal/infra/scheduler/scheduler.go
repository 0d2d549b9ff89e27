package scheduler

import (
	"context"
	"time"

	"evaluation_notifier/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// runTimeout bounds one daily pass. Each SMTP call inside the run has
// its own dialer timeout; this is the backstop for the whole batch.
const runTimeout = 10 * time.Minute

// ReminderScheduler invokes the daily reminder run on a cron schedule.
// The schedule runs in UTC to match the engine's day-delta arithmetic.
type ReminderScheduler struct {
	cronEngine    *cron.Cron
	reminders     app.ReminderRunner
	logger        *logrus.Logger
	cronSpecDaily string
}

func NewReminderScheduler(
	reminders app.ReminderRunner,
	logger *logrus.Logger,
	cronSpecDaily string, // e.g. "0 8 * * *" (08:00 UTC daily)
) *ReminderScheduler {
	return &ReminderScheduler{
		cronEngine:    cron.New(cron.WithLocation(time.UTC)),
		reminders:     reminders,
		logger:        logger,
		cronSpecDaily: cronSpecDaily,
	}
}

func (s *ReminderScheduler) Start() {
	s.logger.Info("Starting reminder scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpecDaily, func() {
		s.logger.Info("Cron job triggered for daily reminder run")
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		summary, err := s.reminders.Run(ctx, time.Now().UTC())
		if err != nil {
			s.logger.WithError(err).Error("Daily reminder run failed")
			return
		}
		s.logger.WithFields(logrus.Fields{
			"sent":    summary.Sent,
			"skipped": summary.Skipped,
			"failed":  summary.Failed,
		}).Info("Daily reminder run finished")
	})
	if err != nil {
		s.logger.WithError(err).Fatal("Could not add daily reminder cron job")
	}

	s.cronEngine.Start()
	s.logger.Info("Reminder scheduler started")
}

func (s *ReminderScheduler) Stop() {
	s.logger.Info("Stopping reminder scheduler...")
	ctx := s.cronEngine.Stop() // waits for running jobs
	<-ctx.Done()
	s.logger.Info("Reminder scheduler gracefully stopped")
}
