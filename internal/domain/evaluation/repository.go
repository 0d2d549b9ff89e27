package evaluation

import (
	"context"
	"time"
)

// Tally is the live responded/invited count for one evaluation. It is
// always recomputed from evaluator rows, never cached, so the
// escalation and suppression decisions cannot drift from reality.
type Tally struct {
	Invited   int
	Responded int
}

// Repository defines persistence operations for evaluations, their
// evaluators, and submitted responses.
type Repository interface {
	Create(ctx context.Context, ev *Evaluation) error
	GetByID(ctx context.Context, id int64) (*Evaluation, error)
	// UpdateStatus transitions an active evaluation to a terminal status.
	UpdateStatus(ctx context.Context, id int64, status Status) error
	// UpdateDeadline extends the deadline of an active evaluation.
	UpdateDeadline(ctx context.Context, id int64, deadline time.Time) error
	// ListActiveWithPending returns every active evaluation that has at
	// least one pending, non-opted-out evaluator, with those evaluators
	// attached. This is a pre-filter; correctness is enforced again
	// per evaluator by the run orchestrator.
	ListActiveWithPending(ctx context.Context) ([]*Evaluation, error)
	Tally(ctx context.Context, evaluationID int64) (Tally, error)

	CreateEvaluators(ctx context.Context, evaluators []*Evaluator) error
	GetEvaluatorByToken(ctx context.Context, token string) (*Evaluator, error)
	// MarkEvaluatorCompleted flips pending to completed exactly once.
	MarkEvaluatorCompleted(ctx context.Context, id int64, completedAt time.Time) error
	// SetReminderOptOutByToken flips the opt-out flag for the evaluator
	// holding the given access token. Idempotent.
	SetReminderOptOutByToken(ctx context.Context, token string) error

	AddResponses(ctx context.Context, responses []*Response) error
}
