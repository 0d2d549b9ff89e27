// internal/app/reminder_service.go
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	domainEmail "evaluation_notifier/internal/domain/email"
	"evaluation_notifier/internal/domain/evaluation"
	"evaluation_notifier/internal/domain/reminder"
	idb "evaluation_notifier/internal/infra/database"
	"evaluation_notifier/internal/infra/email"

	"github.com/sirupsen/logrus"
)

const deadlineDateFormat = "January 2, 2006"

// ReminderRunner is the daily entry point of the reminder engine.
type ReminderRunner interface {
	// Run evaluates every pending evaluator in every active evaluation
	// for the given day and sends whatever reminders are due. Safe to
	// invoke more than once per day, including concurrently.
	Run(ctx context.Context, today time.Time) (RunSummary, error)
}

// RunSummary aggregates the outcome of one daily run. It is the run's
// only return value; per-recipient results live in logs and email_log.
type RunSummary struct {
	Sent    int
	Skipped int
	Failed  int
}

// ReminderService implements the daily reminder and escalation run.
type ReminderService struct {
	evalRepo          evaluation.Repository
	logRepo           reminder.LogRepository
	mailer            domainEmail.Client
	baseURL           string
	responseThreshold int
	logger            *logrus.Logger
}

func NewReminderService(
	evalRepo evaluation.Repository,
	logRepo reminder.LogRepository,
	mailer domainEmail.Client,
	baseURL string,
	responseThreshold int,
	logger *logrus.Logger,
) *ReminderService {
	return &ReminderService{
		evalRepo:          evalRepo,
		logRepo:           logRepo,
		mailer:            mailer,
		baseURL:           baseURL,
		responseThreshold: responseThreshold,
		logger:            logger,
	}
}

// Run executes one daily pass. A failure for one evaluator or one
// evaluation never aborts the batch; the run completes its candidate
// set and reports partial results.
func (s *ReminderService) Run(ctx context.Context, today time.Time) (RunSummary, error) {
	summary := RunSummary{}

	evaluations, err := s.evalRepo.ListActiveWithPending(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to list active evaluations: %w", err)
	}
	s.logger.WithField("evaluations", len(evaluations)).Info("Reminder run started")

	for _, ev := range evaluations {
		s.processEvaluation(ctx, ev, today, &summary)
	}

	s.logger.WithFields(logrus.Fields{
		"sent":    summary.Sent,
		"skipped": summary.Skipped,
		"failed":  summary.Failed,
	}).Info("Reminder run complete")
	return summary, nil
}

func (s *ReminderService) processEvaluation(ctx context.Context, ev *evaluation.Evaluation, today time.Time, summary *RunSummary) {
	if !ev.Deadline.Valid {
		// Configuration error: skip this evaluation, keep the batch going.
		s.logger.WithField("evaluation_id", ev.ID).Warn("Evaluation has no deadline; skipping")
		return
	}
	delta := reminder.DaysUntil(ev.Deadline.Time, today)

	// The tally feeds the post-deadline suppression rule and the
	// escalation decision. When it cannot be computed, both fail
	// closed; the other reminder kinds do not depend on it.
	tally, tallyErr := s.evalRepo.Tally(ctx, ev.ID)
	responded := s.responseThreshold
	if tallyErr != nil {
		s.logger.WithError(tallyErr).WithField("evaluation_id", ev.ID).
			Error("Tally query failed; post-deadline reminders and escalation suppressed for this run")
	} else {
		responded = tally.Responded
	}

	for _, er := range ev.Evaluators {
		s.processEvaluator(ctx, ev, er, delta, today, responded, summary)
	}

	// Admin escalation fires only the day after the deadline, and only
	// when responses are short of the invited count.
	if delta == -1 && tallyErr == nil && tally.Responded < tally.Invited {
		s.escalate(ctx, ev, tally)
	}
}

func (s *ReminderService) processEvaluator(ctx context.Context, ev *evaluation.Evaluation, er *evaluation.Evaluator, delta int, today time.Time, responded int, summary *RunSummary) {
	// The loader pre-filters on these, but the loop is the correctness
	// boundary: re-check in case the snapshot or a caller disagrees.
	if er.Status != evaluation.EvaluatorPending || er.ReminderOptOut {
		summary.Skipped++
		return
	}

	sent, err := s.logRepo.SentKinds(ctx, er.ID)
	if err != nil {
		s.logger.WithError(err).WithField("evaluator_id", er.ID).Error("Could not load reminder log; skipping evaluator")
		summary.Failed++
		return
	}

	kind, ok := reminder.Decide(reminder.DecideInput{
		Config:            ev.Reminders,
		Sent:              sent,
		OptOut:            er.ReminderOptOut,
		DaysUntilDeadline: delta,
		Today:             today,
		Responded:         responded,
		ResponseThreshold: s.responseThreshold,
	})
	if !ok {
		summary.Skipped++
		return
	}

	subject := email.ReminderSubject(kind, ev.OrganizationName)
	body, err := email.RenderReminder(kind, email.ReminderData{
		EvaluatorName:    er.Name,
		CEOName:          ev.CEOName,
		OrganizationName: ev.OrganizationName,
		Deadline:         ev.Deadline.Time.Format(deadlineDateFormat),
		EvalLink:         s.evalLink(er.Token),
		UnsubscribeLink:  s.unsubscribeLink(er.Token),
	})
	if err != nil {
		s.logger.WithError(err).WithField("evaluator_id", er.ID).Error("Could not render reminder body")
		summary.Failed++
		return
	}

	messageID, sendErr := s.mailer.Send(ctx, er.Email, subject, body)
	now := time.Now().UTC()
	if sendErr != nil {
		// Transient delivery failure: audit it, leave the reminder log
		// untouched so the trigger is re-evaluated next run, move on.
		s.logger.WithError(sendErr).WithFields(logrus.Fields{
			"evaluator_id": er.ID,
			"trigger":      kind,
		}).Error("Reminder send failed")
		s.recordDispatch(ctx, ev.ID, er, er.Email, string(kind), subject, "", reminder.DispatchFailed)
		summary.Failed++
		return
	}

	if err := s.logRepo.MarkReminderSent(ctx, er.ID, kind, now); err != nil {
		if errors.Is(err, idb.ErrDuplicateReminder) {
			// A concurrent run got there first; the guard held.
			s.logger.WithFields(logrus.Fields{
				"evaluator_id": er.ID,
				"trigger":      kind,
			}).Debug("Reminder already logged by another run")
		} else {
			s.logger.WithError(err).WithField("evaluator_id", er.ID).Error("Could not record reminder log entry")
		}
	}
	s.recordDispatch(ctx, ev.ID, er, er.Email, string(kind), subject, messageID, reminder.DispatchSent)

	s.logger.WithFields(logrus.Fields{
		"evaluator_id": er.ID,
		"trigger":      kind,
	}).Info("Reminder sent")
	summary.Sent++
}

// escalate sends the post-deadline summary to the administrator, at
// most once per evaluation. The guard entry is claimed before sending
// so overlapping runs cannot both mail the admin.
func (s *ReminderService) escalate(ctx context.Context, ev *evaluation.Evaluation, tally evaluation.Tally) {
	now := time.Now().UTC()
	if err := s.logRepo.MarkNoticeSent(ctx, ev.ID, reminder.NoticePostDeadlineSummary, now); err != nil {
		if errors.Is(err, idb.ErrDuplicateNotice) {
			s.logger.WithField("evaluation_id", ev.ID).Debug("Admin summary already sent")
		} else {
			s.logger.WithError(err).WithField("evaluation_id", ev.ID).Error("Could not claim admin summary notice")
		}
		return
	}

	pendingNames := make([]string, 0, len(ev.Evaluators))
	for _, er := range ev.Evaluators {
		pendingNames = append(pendingNames, er.Name)
	}

	subject := email.AdminLateSubject(tally.Responded, tally.Invited)
	body, err := email.RenderAdminLateSummary(email.AdminLateData{
		AdminName:        ev.AdminName,
		CEOName:          ev.CEOName,
		OrganizationName: ev.OrganizationName,
		Responded:        tally.Responded,
		Invited:          tally.Invited,
		PendingNames:     strings.Join(pendingNames, ", "),
		EvaluationID:     ev.ID,
	})
	if err != nil {
		s.logger.WithError(err).WithField("evaluation_id", ev.ID).Error("Could not render admin summary body")
		return
	}

	messageID, sendErr := s.mailer.Send(ctx, ev.AdminEmail, subject, body)
	if sendErr != nil {
		s.logger.WithError(sendErr).WithField("evaluation_id", ev.ID).Error("Admin summary send failed")
		s.recordDispatch(ctx, ev.ID, nil, ev.AdminEmail, string(reminder.NoticePostDeadlineSummary), subject, "", reminder.DispatchFailed)
		return
	}
	s.recordDispatch(ctx, ev.ID, nil, ev.AdminEmail, string(reminder.NoticePostDeadlineSummary), subject, messageID, reminder.DispatchSent)
	s.logger.WithFields(logrus.Fields{
		"evaluation_id": ev.ID,
		"responded":     tally.Responded,
		"invited":       tally.Invited,
	}).Info("Admin post-deadline summary sent")
}

func (s *ReminderService) recordDispatch(ctx context.Context, evaluationID int64, er *evaluation.Evaluator, recipient, kind, subject, messageID string, status reminder.DispatchStatus) {
	rec := &reminder.DispatchRecord{
		EvaluationID: evaluationID,
		Recipient:    recipient,
		Kind:         kind,
		Subject:      subject,
		Status:       status,
	}
	if er != nil {
		rec.EvaluatorID = sql.NullInt64{Int64: er.ID, Valid: true}
	}
	if messageID != "" {
		rec.ProviderMessageID = sql.NullString{String: messageID, Valid: true}
	}
	if err := s.logRepo.RecordDispatch(ctx, rec); err != nil {
		s.logger.WithError(err).WithField("evaluation_id", evaluationID).Error("Could not record email dispatch")
	}
}

func (s *ReminderService) evalLink(token string) string {
	return fmt.Sprintf("%s/eval/%s", s.baseURL, token)
}

func (s *ReminderService) unsubscribeLink(token string) string {
	return fmt.Sprintf("%s/unsubscribe?token=%s", s.baseURL, token)
}
