package evaluation

import (
	"database/sql"
	"time"
)

// Status is the lifecycle state of an evaluation campaign.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ReminderConfig holds which reminder kinds are enabled for a campaign,
// plus the optional single custom reminder date.
type ReminderConfig struct {
	SevenDay     bool
	ThreeDay     bool
	DayOf        bool
	PostDeadline bool
	CustomDate   sql.NullTime // DATE, interpreted at midnight UTC
}

// Evaluation represents one CEO review campaign.
// Corresponds to the 'evaluations' table.
type Evaluation struct {
	ID               int64
	OrganizationName string
	CEOName          string
	Deadline         sql.NullTime // a NULL deadline is a configuration error, caught at run time
	Status           Status
	Reminders        ReminderConfig
	AdminName        string
	AdminEmail       string
	CreatedAt        time.Time

	// Evaluators is populated only by ListActiveWithPending, holding the
	// pending, non-opted-out evaluators of the campaign.
	Evaluators []*Evaluator
}
