package evaluation

import (
	"database/sql"
	"time"
)

// EvaluatorStatus is the completion state of one invited reviewer.
type EvaluatorStatus string

const (
	EvaluatorPending   EvaluatorStatus = "pending"
	EvaluatorCompleted EvaluatorStatus = "completed"
)

// Evaluator is one invited reviewer in a campaign.
// Corresponds to the 'evaluators' table.
type Evaluator struct {
	ID             int64
	EvaluationID   int64
	Name           string
	Email          string
	Token          string // unguessable access token, immutable once issued
	Status         EvaluatorStatus
	ReminderOptOut bool
	CompletedAt    sql.NullTime
	CreatedAt      time.Time
}
