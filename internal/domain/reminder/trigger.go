package reminder

import (
	"time"

	"evaluation_notifier/internal/domain/evaluation"
)

// TriggerKind identifies the category of reminder email sent to an
// evaluator. The set is closed; the dispatch log, the notifier template
// selection, and the trigger decision all share it.
type TriggerKind string

const (
	TriggerSevenDay     TriggerKind = "7day"
	TriggerThreeDay     TriggerKind = "3day"
	TriggerDayOf        TriggerKind = "day_of"
	TriggerPostDeadline TriggerKind = "post_deadline"
	TriggerCustom       TriggerKind = "custom"
)

// NoticeKind identifies an evaluation-level administrator email.
type NoticeKind string

const (
	// NoticePostDeadlineSummary is the escalation sent to the campaign
	// administrator the day after the deadline when responses are short.
	NoticePostDeadlineSummary NoticeKind = "post_deadline_admin_summary"
)

// DecideInput carries everything one trigger decision depends on.
type DecideInput struct {
	Config evaluation.ReminderConfig
	// Sent is the evaluator's reminder log membership: kinds that have
	// already been dispatched.
	Sent   map[TriggerKind]bool
	OptOut bool
	// DaysUntilDeadline is the DaysUntil delta computed once per
	// evaluation for the run.
	DaysUntilDeadline int
	// Today is the run date, used only for the custom-date comparison.
	Today time.Time
	// Responded and ResponseThreshold gate the post-deadline rule:
	// once Responded reaches the threshold, the campaign has enough
	// signal and the final nag is withheld.
	Responded         int
	ResponseThreshold int
}

// Decide returns the single reminder kind that fires for one evaluator
// today, or false when nothing fires. The rules are checked in priority
// order and the first full match wins, so a day never yields more than
// one kind even when several dates coincide. A rule whose guard fails —
// disabled, wrong day, already logged, or threshold met — falls through
// to the later rules.
//
// Pure and deterministic: calling it again with the same inputs always
// re-derives the same decision.
func Decide(in DecideInput) (TriggerKind, bool) {
	if in.OptOut {
		return "", false
	}
	switch {
	case in.DaysUntilDeadline == 7 && in.Config.SevenDay && !in.Sent[TriggerSevenDay]:
		return TriggerSevenDay, true
	case in.DaysUntilDeadline == 3 && in.Config.ThreeDay && !in.Sent[TriggerThreeDay]:
		return TriggerThreeDay, true
	case in.DaysUntilDeadline == 0 && in.Config.DayOf && !in.Sent[TriggerDayOf]:
		return TriggerDayOf, true
	case in.DaysUntilDeadline == -1 && in.Config.PostDeadline && !in.Sent[TriggerPostDeadline] &&
		in.Responded < in.ResponseThreshold:
		return TriggerPostDeadline, true
	case in.Config.CustomDate.Valid && !in.Sent[TriggerCustom] &&
		StartOfDayUTC(in.Config.CustomDate.Time).Equal(StartOfDayUTC(in.Today)):
		return TriggerCustom, true
	}
	return "", false
}
