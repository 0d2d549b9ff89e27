// internal/app/evaluation_service.go
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	domainEmail "evaluation_notifier/internal/domain/email"
	"evaluation_notifier/internal/domain/evaluation"
	"evaluation_notifier/internal/domain/reminder"
	"evaluation_notifier/internal/infra/email"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Lifecycle email kinds recorded in the dispatch audit trail alongside
// the reminder trigger kinds.
const (
	dispatchKindInvite   = "invite"
	dispatchKindLaunch   = "launch_confirmation"
	dispatchKindThankYou = "thank_you"
	dispatchKindProgress = "progress_update"
)

var ErrInvalidInput = fmt.Errorf("missing required fields")

// NewEvaluatorInput describes one reviewer to invite.
type NewEvaluatorInput struct {
	Name  string
	Email string
}

// CreateEvaluationInput carries everything needed to launch a campaign.
type CreateEvaluationInput struct {
	OrganizationName string
	CEOName          string
	Deadline         time.Time
	AdminName        string
	AdminEmail       string
	Reminders        evaluation.ReminderConfig
	Evaluators       []NewEvaluatorInput
}

// InviteResult reports whether one invitation email went out.
type InviteResult struct {
	Email string
	Sent  bool
}

// EvaluationService handles administrator-initiated campaign lifecycle
// operations: launch, deadline extension, status transitions, opt-out.
type EvaluationService struct {
	evalRepo evaluation.Repository
	logRepo  reminder.LogRepository
	mailer   domainEmail.Client
	baseURL  string
	logger   *logrus.Logger
}

func NewEvaluationService(
	evalRepo evaluation.Repository,
	logRepo reminder.LogRepository,
	mailer domainEmail.Client,
	baseURL string,
	logger *logrus.Logger,
) *EvaluationService {
	return &EvaluationService{
		evalRepo: evalRepo,
		logRepo:  logRepo,
		mailer:   mailer,
		baseURL:  baseURL,
		logger:   logger,
	}
}

// Create inserts the campaign and its evaluators, sends one invitation
// per evaluator with per-recipient failure isolation, then confirms the
// launch to the administrator.
func (s *EvaluationService) Create(ctx context.Context, in CreateEvaluationInput) (*evaluation.Evaluation, []InviteResult, error) {
	if in.OrganizationName == "" || in.CEOName == "" || in.AdminEmail == "" ||
		in.Deadline.IsZero() || len(in.Evaluators) == 0 {
		return nil, nil, ErrInvalidInput
	}

	ev := &evaluation.Evaluation{
		OrganizationName: in.OrganizationName,
		CEOName:          in.CEOName,
		Deadline:         sql.NullTime{Time: reminder.StartOfDayUTC(in.Deadline), Valid: true},
		Status:           evaluation.StatusActive,
		Reminders:        in.Reminders,
		AdminName:        in.AdminName,
		AdminEmail:       in.AdminEmail,
	}
	if err := s.evalRepo.Create(ctx, ev); err != nil {
		return nil, nil, fmt.Errorf("failed to create evaluation: %w", err)
	}

	evaluators := make([]*evaluation.Evaluator, 0, len(in.Evaluators))
	for _, e := range in.Evaluators {
		evaluators = append(evaluators, &evaluation.Evaluator{
			EvaluationID: ev.ID,
			Name:         e.Name,
			Email:        e.Email,
			Token:        uuid.NewString(),
			Status:       evaluation.EvaluatorPending,
		})
	}
	if err := s.evalRepo.CreateEvaluators(ctx, evaluators); err != nil {
		return nil, nil, fmt.Errorf("failed to create evaluators: %w", err)
	}
	ev.Evaluators = evaluators
	s.logger.WithFields(logrus.Fields{
		"evaluation_id": ev.ID,
		"evaluators":    len(evaluators),
	}).Info("Evaluation created")

	deadlineFormatted := ev.Deadline.Time.Format(deadlineDateFormat)
	results := make([]InviteResult, 0, len(evaluators))
	for _, er := range evaluators {
		results = append(results, InviteResult{
			Email: er.Email,
			Sent:  s.sendInvitation(ctx, ev, er, deadlineFormatted),
		})
	}

	s.sendLaunchConfirmation(ctx, ev, deadlineFormatted)

	return ev, results, nil
}

func (s *EvaluationService) sendInvitation(ctx context.Context, ev *evaluation.Evaluation, er *evaluation.Evaluator, deadlineFormatted string) bool {
	subject := email.InvitationSubject(ev.OrganizationName)
	body, err := email.RenderInvitation(email.InvitationData{
		EvaluatorName:    er.Name,
		CEOName:          ev.CEOName,
		OrganizationName: ev.OrganizationName,
		AdminName:        ev.AdminName,
		Deadline:         deadlineFormatted,
		EvalLink:         fmt.Sprintf("%s/eval/%s", s.baseURL, er.Token),
		UnsubscribeLink:  fmt.Sprintf("%s/unsubscribe?token=%s", s.baseURL, er.Token),
	})
	if err != nil {
		s.logger.WithError(err).WithField("evaluator_id", er.ID).Error("Could not render invitation body")
		return false
	}

	messageID, sendErr := s.mailer.Send(ctx, er.Email, subject, body)
	status := reminder.DispatchSent
	if sendErr != nil {
		// One undeliverable invitation must not block the rest.
		s.logger.WithError(sendErr).WithField("evaluator_id", er.ID).Error("Invitation send failed")
		status = reminder.DispatchFailed
	}
	rec := &reminder.DispatchRecord{
		EvaluationID: ev.ID,
		EvaluatorID:  sql.NullInt64{Int64: er.ID, Valid: true},
		Recipient:    er.Email,
		Kind:         dispatchKindInvite,
		Subject:      subject,
		Status:       status,
	}
	if messageID != "" {
		rec.ProviderMessageID = sql.NullString{String: messageID, Valid: true}
	}
	if err := s.logRepo.RecordDispatch(ctx, rec); err != nil {
		s.logger.WithError(err).WithField("evaluation_id", ev.ID).Error("Could not record invitation dispatch")
	}
	return sendErr == nil
}

func (s *EvaluationService) sendLaunchConfirmation(ctx context.Context, ev *evaluation.Evaluation, deadlineFormatted string) {
	subject := email.LaunchSubject(ev.OrganizationName)
	body, err := email.RenderLaunchConfirmation(email.LaunchData{
		AdminName:        ev.AdminName,
		CEOName:          ev.CEOName,
		OrganizationName: ev.OrganizationName,
		EvaluatorCount:   len(ev.Evaluators),
		Deadline:         deadlineFormatted,
		EvaluationID:     ev.ID,
	})
	if err != nil {
		s.logger.WithError(err).WithField("evaluation_id", ev.ID).Error("Could not render launch confirmation body")
		return
	}
	messageID, sendErr := s.mailer.Send(ctx, ev.AdminEmail, subject, body)
	status := reminder.DispatchSent
	if sendErr != nil {
		s.logger.WithError(sendErr).WithField("evaluation_id", ev.ID).Error("Launch confirmation send failed")
		status = reminder.DispatchFailed
	}
	rec := &reminder.DispatchRecord{
		EvaluationID: ev.ID,
		Recipient:    ev.AdminEmail,
		Kind:         dispatchKindLaunch,
		Subject:      subject,
		Status:       status,
	}
	if messageID != "" {
		rec.ProviderMessageID = sql.NullString{String: messageID, Valid: true}
	}
	if err := s.logRepo.RecordDispatch(ctx, rec); err != nil {
		s.logger.WithError(err).WithField("evaluation_id", ev.ID).Error("Could not record launch dispatch")
	}
}

// ExtendDeadline moves the deadline of an active evaluation. Reminders
// already logged stay logged; new deadline-relative triggers are
// evaluated against the new date on subsequent runs.
func (s *EvaluationService) ExtendDeadline(ctx context.Context, id int64, newDeadline time.Time) error {
	if newDeadline.IsZero() {
		return ErrInvalidInput
	}
	if err := s.evalRepo.UpdateDeadline(ctx, id, reminder.StartOfDayUTC(newDeadline)); err != nil {
		return fmt.Errorf("failed to extend deadline for evaluation %d: %w", id, err)
	}
	s.logger.WithFields(logrus.Fields{
		"evaluation_id": id,
		"deadline":      newDeadline.Format(deadlineDateFormat),
	}).Info("Evaluation deadline extended")
	return nil
}

// Complete archives an active evaluation as completed.
func (s *EvaluationService) Complete(ctx context.Context, id int64) error {
	return s.transition(ctx, id, evaluation.StatusCompleted)
}

// Cancel archives an active evaluation as cancelled.
func (s *EvaluationService) Cancel(ctx context.Context, id int64) error {
	return s.transition(ctx, id, evaluation.StatusCancelled)
}

func (s *EvaluationService) transition(ctx context.Context, id int64, status evaluation.Status) error {
	if err := s.evalRepo.UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("failed to transition evaluation %d to %s: %w", id, status, err)
	}
	s.logger.WithFields(logrus.Fields{
		"evaluation_id": id,
		"status":        status,
	}).Info("Evaluation status updated")
	return nil
}

// OptOut disables all future reminders for the evaluator holding the
// token. Linked from every reminder email footer. Idempotent.
func (s *EvaluationService) OptOut(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidInput
	}
	if err := s.evalRepo.SetReminderOptOutByToken(ctx, token); err != nil {
		return err
	}
	s.logger.Info("Evaluator opted out of reminders")
	return nil
}
