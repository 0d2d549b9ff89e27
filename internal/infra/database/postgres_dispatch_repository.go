// internal/infra/database/postgres_dispatch_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"evaluation_notifier/internal/domain/reminder"

	"github.com/lib/pq"
)

// Custom errors specific to the dispatch repository. A duplicate is the
// idempotency guard doing its job, not a failure; callers skip on it.
var ErrDuplicateReminder = fmt.Errorf("duplicate reminder (evaluator_id, trigger_kind)")
var ErrDuplicateNotice = fmt.Errorf("duplicate notice (evaluation_id, notice_kind)")

const pqUniqueViolation = "23505"

type PostgresDispatchRepository struct {
	db *sql.DB
}

func NewPostgresDispatchRepository(db *sql.DB) *PostgresDispatchRepository {
	return &PostgresDispatchRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation
}

func (r *PostgresDispatchRepository) SentKinds(ctx context.Context, evaluatorID int64) (map[reminder.TriggerKind]bool, error) {
	query := `SELECT trigger_kind FROM evaluator_reminders WHERE evaluator_id = $1`
	rows, err := r.db.QueryContext(ctx, query, evaluatorID)
	if err != nil {
		return nil, fmt.Errorf("error querying reminder log for evaluator %d: %w", evaluatorID, err)
	}
	defer rows.Close()

	sent := make(map[reminder.TriggerKind]bool)
	for rows.Next() {
		var kind reminder.TriggerKind
		if err := rows.Scan(&kind); err != nil {
			return nil, fmt.Errorf("error scanning reminder log row: %w", err)
		}
		sent[kind] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder log rows: %w", err)
	}
	return sent, nil
}

// MarkReminderSent appends to the evaluator reminder log. The UNIQUE
// (evaluator_id, trigger_kind) constraint is the storage-level guard
// that makes concurrent or repeated runs safe.
func (r *PostgresDispatchRepository) MarkReminderSent(ctx context.Context, evaluatorID int64, kind reminder.TriggerKind, sentAt time.Time) error {
	query := `INSERT INTO evaluator_reminders (evaluator_id, trigger_kind, sent_at) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, evaluatorID, kind, sentAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateReminder
		}
		return fmt.Errorf("error recording reminder for evaluator %d: %w", evaluatorID, err)
	}
	return nil
}

// MarkNoticeSent is the evaluation-level guard for administrator
// notices, enforced by UNIQUE (evaluation_id, notice_kind).
func (r *PostgresDispatchRepository) MarkNoticeSent(ctx context.Context, evaluationID int64, kind reminder.NoticeKind, sentAt time.Time) error {
	query := `INSERT INTO evaluation_notices (evaluation_id, notice_kind, sent_at) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, evaluationID, kind, sentAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateNotice
		}
		return fmt.Errorf("error recording notice for evaluation %d: %w", evaluationID, err)
	}
	return nil
}

func (r *PostgresDispatchRepository) RecordDispatch(ctx context.Context, rec *reminder.DispatchRecord) error {
	query := `INSERT INTO email_log
               (evaluation_id, evaluator_id, recipient, kind, subject, provider_message_id, status)
               VALUES ($1, $2, $3, $4, $5, $6, $7)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		rec.EvaluationID, rec.EvaluatorID, rec.Recipient, rec.Kind, rec.Subject, rec.ProviderMessageID, rec.Status,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("error recording email dispatch: %w", err)
	}
	return nil
}
