package reminder

import (
	"context"
	"database/sql"
	"time"
)

// Entry is one row of an evaluator's durable reminder log. The storage
// layer enforces at most one entry per (evaluator, kind); this is the
// invariant that makes re-running the daily batch safe.
type Entry struct {
	ID          int64
	EvaluatorID int64
	Kind        TriggerKind
	SentAt      time.Time
}

// DispatchStatus is the outcome of one send attempt.
type DispatchStatus string

const (
	DispatchSent   DispatchStatus = "sent"
	DispatchFailed DispatchStatus = "failed"
)

// DispatchRecord is the append-only audit row for one send attempt.
// Never mutated after creation.
type DispatchRecord struct {
	ID                int64
	EvaluationID      int64
	EvaluatorID       sql.NullInt64 // NULL for administrator mail
	Recipient         string
	Kind              string // a TriggerKind, NoticeKind, or lifecycle kind such as "invite"
	Subject           string
	ProviderMessageID sql.NullString
	Status            DispatchStatus
	CreatedAt         time.Time
}

// LogRepository persists the idempotency guards and the audit trail.
type LogRepository interface {
	// SentKinds returns the set of reminder kinds already logged for an
	// evaluator.
	SentKinds(ctx context.Context, evaluatorID int64) (map[TriggerKind]bool, error)
	// MarkReminderSent appends to the evaluator reminder log. When the
	// (evaluator, kind) pair already exists it returns the storage
	// layer's duplicate error; callers treat that as already handled,
	// not as a failure.
	MarkReminderSent(ctx context.Context, evaluatorID int64, kind TriggerKind, sentAt time.Time) error
	// MarkNoticeSent is the evaluation-level guard for administrator
	// notices, with the same duplicate semantics.
	MarkNoticeSent(ctx context.Context, evaluationID int64, kind NoticeKind, sentAt time.Time) error
	// RecordDispatch appends one audit row. Failures here are logged by
	// callers but never abort a run.
	RecordDispatch(ctx context.Context, rec *DispatchRecord) error
}
