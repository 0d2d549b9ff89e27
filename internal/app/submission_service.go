// internal/app/submission_service.go
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domainEmail "evaluation_notifier/internal/domain/email"
	"evaluation_notifier/internal/domain/evaluation"
	"evaluation_notifier/internal/domain/reminder"
	idb "evaluation_notifier/internal/infra/database"
	"evaluation_notifier/internal/infra/email"

	"github.com/sirupsen/logrus"
)

// progressThresholds are the responded counts at which the
// administrator receives a progress update.
var progressThresholds = []int{3, 5}

// ResponseInput is one submitted answer.
type ResponseInput struct {
	Dimension    string
	QuestionID   string
	QuestionText string
	Score        *int
	OpenResponse string
}

// SubmissionService processes token-authenticated evaluation
// submissions: it stores the raw responses, flips the evaluator to
// completed exactly once, and sends the follow-up emails. The reminder
// engine only depends on the status transition being visible to its
// next run.
type SubmissionService struct {
	evalRepo evaluation.Repository
	logRepo  reminder.LogRepository
	mailer   domainEmail.Client
	logger   *logrus.Logger
}

func NewSubmissionService(
	evalRepo evaluation.Repository,
	logRepo reminder.LogRepository,
	mailer domainEmail.Client,
	logger *logrus.Logger,
) *SubmissionService {
	return &SubmissionService{
		evalRepo: evalRepo,
		logRepo:  logRepo,
		mailer:   mailer,
		logger:   logger,
	}
}

// Submit records one evaluator's responses. Late submissions are
// accepted but logged. A second submission for the same token returns
// database.ErrAlreadySubmitted and sends nothing.
func (s *SubmissionService) Submit(ctx context.Context, token string, responses []ResponseInput) error {
	if token == "" || len(responses) == 0 {
		return ErrInvalidInput
	}

	er, err := s.evalRepo.GetEvaluatorByToken(ctx, token)
	if err != nil {
		return err
	}
	if er.Status == evaluation.EvaluatorCompleted {
		return idb.ErrAlreadySubmitted
	}

	ev, err := s.evalRepo.GetByID(ctx, er.EvaluationID)
	if err != nil {
		return fmt.Errorf("failed to load evaluation %d: %w", er.EvaluationID, err)
	}

	now := time.Now().UTC()
	if ev.Deadline.Valid && ev.Deadline.Time.Before(now) {
		s.logger.WithFields(logrus.Fields{
			"evaluation_id": ev.ID,
			"evaluator_id":  er.ID,
		}).Warn("Late submission accepted after deadline")
	}

	rows := make([]*evaluation.Response, 0, len(responses))
	for _, r := range responses {
		row := &evaluation.Response{
			EvaluationID: ev.ID,
			EvaluatorID:  er.ID,
			Dimension:    r.Dimension,
			QuestionID:   r.QuestionID,
			QuestionText: r.QuestionText,
		}
		if r.Score != nil {
			row.Score = sql.NullInt32{Int32: int32(*r.Score), Valid: true}
		}
		if r.OpenResponse != "" {
			row.OpenResponse = sql.NullString{String: r.OpenResponse, Valid: true}
		}
		rows = append(rows, row)
	}
	if err := s.evalRepo.AddResponses(ctx, rows); err != nil {
		return fmt.Errorf("failed to store responses: %w", err)
	}

	// Conditional update: if a concurrent submission won the race, stop
	// here and report it the same as an upfront duplicate.
	if err := s.evalRepo.MarkEvaluatorCompleted(ctx, er.ID, now); err != nil {
		if errors.Is(err, idb.ErrAlreadySubmitted) {
			return err
		}
		return fmt.Errorf("failed to mark evaluator %d completed: %w", er.ID, err)
	}
	s.logger.WithFields(logrus.Fields{
		"evaluation_id": ev.ID,
		"evaluator_id":  er.ID,
	}).Info("Evaluation submission recorded")

	s.sendThankYou(ctx, ev, er)
	s.maybeNotifyProgress(ctx, ev)
	return nil
}

func (s *SubmissionService) sendThankYou(ctx context.Context, ev *evaluation.Evaluation, er *evaluation.Evaluator) {
	body, err := email.RenderThankYou(email.ThankYouData{
		EvaluatorName:    er.Name,
		CEOName:          ev.CEOName,
		OrganizationName: ev.OrganizationName,
	})
	if err != nil {
		s.logger.WithError(err).WithField("evaluator_id", er.ID).Error("Could not render thank-you body")
		return
	}
	messageID, sendErr := s.mailer.Send(ctx, er.Email, email.ThankYouSubject, body)
	status := reminder.DispatchSent
	if sendErr != nil {
		s.logger.WithError(sendErr).WithField("evaluator_id", er.ID).Error("Thank-you send failed")
		status = reminder.DispatchFailed
	}
	rec := &reminder.DispatchRecord{
		EvaluationID: ev.ID,
		EvaluatorID:  sql.NullInt64{Int64: er.ID, Valid: true},
		Recipient:    er.Email,
		Kind:         dispatchKindThankYou,
		Subject:      email.ThankYouSubject,
		Status:       status,
	}
	if messageID != "" {
		rec.ProviderMessageID = sql.NullString{String: messageID, Valid: true}
	}
	if err := s.logRepo.RecordDispatch(ctx, rec); err != nil {
		s.logger.WithError(err).WithField("evaluation_id", ev.ID).Error("Could not record thank-you dispatch")
	}
}

func (s *SubmissionService) maybeNotifyProgress(ctx context.Context, ev *evaluation.Evaluation) {
	tally, err := s.evalRepo.Tally(ctx, ev.ID)
	if err != nil {
		s.logger.WithError(err).WithField("evaluation_id", ev.ID).Error("Tally query failed; progress notice skipped")
		return
	}
	hit := false
	for _, threshold := range progressThresholds {
		if tally.Responded == threshold {
			hit = true
			break
		}
	}
	if !hit || tally.Invited == 0 {
		return
	}

	subject := email.ProgressSubject(tally.Responded)
	body, err := email.RenderProgress(email.ProgressData{
		Responded:        tally.Responded,
		Invited:          tally.Invited,
		ResponseRate:     tally.Responded * 100 / tally.Invited,
		Remaining:        tally.Invited - tally.Responded,
		CEOName:          ev.CEOName,
		OrganizationName: ev.OrganizationName,
	})
	if err != nil {
		s.logger.WithError(err).WithField("evaluation_id", ev.ID).Error("Could not render progress body")
		return
	}
	messageID, sendErr := s.mailer.Send(ctx, ev.AdminEmail, subject, body)
	status := reminder.DispatchSent
	if sendErr != nil {
		s.logger.WithError(sendErr).WithField("evaluation_id", ev.ID).Error("Progress notice send failed")
		status = reminder.DispatchFailed
	}
	rec := &reminder.DispatchRecord{
		EvaluationID: ev.ID,
		Recipient:    ev.AdminEmail,
		Kind:         dispatchKindProgress,
		Subject:      subject,
		Status:       status,
	}
	if messageID != "" {
		rec.ProviderMessageID = sql.NullString{String: messageID, Valid: true}
	}
	if err := s.logRepo.RecordDispatch(ctx, rec); err != nil {
		s.logger.WithError(err).WithField("evaluation_id", ev.ID).Error("Could not record progress dispatch")
	}
}
