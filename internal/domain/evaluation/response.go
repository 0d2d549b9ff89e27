package evaluation

import (
	"database/sql"
	"time"
)

// Response is one raw answer submitted by an evaluator. Responses are
// stored verbatim; scoring happens elsewhere.
type Response struct {
	ID           int64
	EvaluationID int64
	EvaluatorID  int64
	Dimension    string
	QuestionID   string
	QuestionText string
	Score        sql.NullInt32
	OpenResponse sql.NullString
	CreatedAt    time.Time
}
