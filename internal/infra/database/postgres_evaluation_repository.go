// internal/infra/database/postgres_evaluation_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"evaluation_notifier/internal/domain/evaluation"
)

// Custom errors specific to the evaluation repository
var ErrEvaluationNotFound = fmt.Errorf("evaluation not found")
var ErrEvaluationNotActive = fmt.Errorf("evaluation is not active")
var ErrEvaluatorNotFound = fmt.Errorf("evaluator not found")
var ErrAlreadySubmitted = fmt.Errorf("evaluator has already submitted")

type PostgresEvaluationRepository struct {
	db *sql.DB
}

func NewPostgresEvaluationRepository(db *sql.DB) *PostgresEvaluationRepository {
	return &PostgresEvaluationRepository{db: db}
}

// --- Evaluation methods ---

func (r *PostgresEvaluationRepository) Create(ctx context.Context, ev *evaluation.Evaluation) error {
	query := `INSERT INTO evaluations
               (organization_name, ceo_name, deadline, status,
                remind_seven_day, remind_three_day, remind_day_of, remind_post_deadline, remind_custom_date,
                admin_name, admin_email)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		ev.OrganizationName, ev.CEOName, ev.Deadline, ev.Status,
		ev.Reminders.SevenDay, ev.Reminders.ThreeDay, ev.Reminders.DayOf, ev.Reminders.PostDeadline, ev.Reminders.CustomDate,
		ev.AdminName, ev.AdminEmail,
	).Scan(&ev.ID, &ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating evaluation: %w", err)
	}
	return nil
}

const evaluationColumns = `id, organization_name, ceo_name, deadline, status,
       remind_seven_day, remind_three_day, remind_day_of, remind_post_deadline, remind_custom_date,
       admin_name, admin_email, created_at`

func scanEvaluation(row *sql.Row) (*evaluation.Evaluation, error) {
	ev := evaluation.Evaluation{}
	err := row.Scan(
		&ev.ID, &ev.OrganizationName, &ev.CEOName, &ev.Deadline, &ev.Status,
		&ev.Reminders.SevenDay, &ev.Reminders.ThreeDay, &ev.Reminders.DayOf, &ev.Reminders.PostDeadline, &ev.Reminders.CustomDate,
		&ev.AdminName, &ev.AdminEmail, &ev.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (r *PostgresEvaluationRepository) GetByID(ctx context.Context, id int64) (*evaluation.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE id = $1`
	ev, err := scanEvaluation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEvaluationNotFound
		}
		return nil, fmt.Errorf("error getting evaluation by ID: %w", err)
	}
	return ev, nil
}

func (r *PostgresEvaluationRepository) UpdateStatus(ctx context.Context, id int64, status evaluation.Status) error {
	query := `UPDATE evaluations SET status = $1 WHERE id = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, status, id, evaluation.StatusActive)
	if err != nil {
		return fmt.Errorf("error updating evaluation status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking evaluation status update: %w", err)
	}
	if affected == 0 {
		return ErrEvaluationNotActive
	}
	return nil
}

func (r *PostgresEvaluationRepository) UpdateDeadline(ctx context.Context, id int64, deadline time.Time) error {
	query := `UPDATE evaluations SET deadline = $1 WHERE id = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, deadline, id, evaluation.StatusActive)
	if err != nil {
		return fmt.Errorf("error updating evaluation deadline: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking evaluation deadline update: %w", err)
	}
	if affected == 0 {
		return ErrEvaluationNotActive
	}
	return nil
}

// ListActiveWithPending loads every active evaluation joined with its
// pending, non-opted-out evaluators in a single query. Evaluations
// whose evaluators have all completed or opted out are not returned.
func (r *PostgresEvaluationRepository) ListActiveWithPending(ctx context.Context) ([]*evaluation.Evaluation, error) {
	query := `SELECT e.id, e.organization_name, e.ceo_name, e.deadline, e.status,
                      e.remind_seven_day, e.remind_three_day, e.remind_day_of, e.remind_post_deadline, e.remind_custom_date,
                      e.admin_name, e.admin_email, e.created_at,
                      v.id, v.evaluation_id, v.name, v.email, v.token, v.status, v.reminder_opt_out, v.completed_at, v.created_at
               FROM evaluations e
               JOIN evaluators v ON v.evaluation_id = e.id
               WHERE e.status = $1 AND v.status = $2 AND v.reminder_opt_out = FALSE
               ORDER BY e.id, v.id`
	rows, err := r.db.QueryContext(ctx, query, evaluation.StatusActive, evaluation.EvaluatorPending)
	if err != nil {
		return nil, fmt.Errorf("error querying active evaluations with pending evaluators: %w", err)
	}
	defer rows.Close()

	evaluations := make([]*evaluation.Evaluation, 0)
	var current *evaluation.Evaluation
	for rows.Next() {
		ev := evaluation.Evaluation{}
		er := evaluation.Evaluator{}
		if err := rows.Scan(
			&ev.ID, &ev.OrganizationName, &ev.CEOName, &ev.Deadline, &ev.Status,
			&ev.Reminders.SevenDay, &ev.Reminders.ThreeDay, &ev.Reminders.DayOf, &ev.Reminders.PostDeadline, &ev.Reminders.CustomDate,
			&ev.AdminName, &ev.AdminEmail, &ev.CreatedAt,
			&er.ID, &er.EvaluationID, &er.Name, &er.Email, &er.Token, &er.Status, &er.ReminderOptOut, &er.CompletedAt, &er.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning evaluation row: %w", err)
		}
		if current == nil || current.ID != ev.ID {
			current = &ev
			evaluations = append(evaluations, current)
		}
		current.Evaluators = append(current.Evaluators, &er)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating evaluation rows: %w", err)
	}
	return evaluations, nil
}

// Tally recomputes the invited/responded counts live from evaluator
// rows. It is intentionally not a stored counter.
func (r *PostgresEvaluationRepository) Tally(ctx context.Context, evaluationID int64) (evaluation.Tally, error) {
	query := `SELECT COUNT(*),
                      COUNT(*) FILTER (WHERE status = $2)
               FROM evaluators WHERE evaluation_id = $1`
	t := evaluation.Tally{}
	err := r.db.QueryRowContext(ctx, query, evaluationID, evaluation.EvaluatorCompleted).Scan(&t.Invited, &t.Responded)
	if err != nil {
		return evaluation.Tally{}, fmt.Errorf("error computing evaluation tally: %w", err)
	}
	return t, nil
}

// --- Evaluator methods ---

func (r *PostgresEvaluationRepository) CreateEvaluators(ctx context.Context, evaluators []*evaluation.Evaluator) error {
	if len(evaluators) == 0 {
		return nil
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for evaluator create: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	stmt, err := txn.PrepareContext(ctx, `INSERT INTO evaluators (evaluation_id, name, email, token, status, reminder_opt_out)
                                         VALUES ($1, $2, $3, $4, $5, $6)
                                         RETURNING id, created_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for evaluator create: %w", err)
	}
	defer stmt.Close()

	for _, er := range evaluators {
		err := stmt.QueryRowContext(ctx, er.EvaluationID, er.Name, er.Email, er.Token, er.Status, er.ReminderOptOut).
			Scan(&er.ID, &er.CreatedAt)
		if err != nil {
			return fmt.Errorf("error creating evaluator %s: %w", er.Email, err)
		}
	}

	return txn.Commit()
}

func (r *PostgresEvaluationRepository) GetEvaluatorByToken(ctx context.Context, token string) (*evaluation.Evaluator, error) {
	query := `SELECT id, evaluation_id, name, email, token, status, reminder_opt_out, completed_at, created_at
               FROM evaluators WHERE token = $1`
	er := evaluation.Evaluator{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&er.ID, &er.EvaluationID, &er.Name, &er.Email, &er.Token, &er.Status, &er.ReminderOptOut, &er.CompletedAt, &er.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEvaluatorNotFound
		}
		return nil, fmt.Errorf("error getting evaluator by token: %w", err)
	}
	return &er, nil
}

// MarkEvaluatorCompleted performs the pending-to-completed transition
// exactly once; a second caller loses the conditional update and gets
// ErrAlreadySubmitted.
func (r *PostgresEvaluationRepository) MarkEvaluatorCompleted(ctx context.Context, id int64, completedAt time.Time) error {
	query := `UPDATE evaluators SET status = $1, completed_at = $2
               WHERE id = $3 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, evaluation.EvaluatorCompleted, completedAt, id, evaluation.EvaluatorPending)
	if err != nil {
		return fmt.Errorf("error marking evaluator completed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking evaluator completion update: %w", err)
	}
	if affected == 0 {
		return ErrAlreadySubmitted
	}
	return nil
}

func (r *PostgresEvaluationRepository) SetReminderOptOutByToken(ctx context.Context, token string) error {
	query := `UPDATE evaluators SET reminder_opt_out = TRUE WHERE token = $1`
	res, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return fmt.Errorf("error setting reminder opt-out: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking reminder opt-out update: %w", err)
	}
	if affected == 0 {
		return ErrEvaluatorNotFound
	}
	return nil
}

// --- Response methods ---

func (r *PostgresEvaluationRepository) AddResponses(ctx context.Context, responses []*evaluation.Response) error {
	if len(responses) == 0 {
		return nil
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for responses: %w", err)
	}
	defer txn.Rollback()

	stmt, err := txn.PrepareContext(ctx, `INSERT INTO evaluator_responses
               (evaluation_id, evaluator_id, dimension, question_id, question_text, score, open_response)
               VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for responses: %w", err)
	}
	defer stmt.Close()

	for _, resp := range responses {
		_, err := stmt.ExecContext(ctx, resp.EvaluationID, resp.EvaluatorID,
			resp.Dimension, resp.QuestionID, resp.QuestionText, resp.Score, resp.OpenResponse)
		if err != nil {
			return fmt.Errorf("error inserting response for evaluator %d: %w", resp.EvaluatorID, err)
		}
	}

	return txn.Commit()
}
