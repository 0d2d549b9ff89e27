package reminder

import (
	"database/sql"
	"testing"
	"time"

	"evaluation_notifier/internal/domain/evaluation"
)

func allEnabled() evaluation.ReminderConfig {
	return evaluation.ReminderConfig{
		SevenDay:     true,
		ThreeDay:     true,
		DayOf:        true,
		PostDeadline: true,
	}
}

func TestDecide(t *testing.T) {
	today := time.Date(2026, time.June, 2, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		in       DecideInput
		wantKind TriggerKind
		wantOK   bool
	}{
		{
			name: "seven day trigger fires",
			in: DecideInput{
				Config:            evaluation.ReminderConfig{SevenDay: true},
				Sent:              map[TriggerKind]bool{},
				DaysUntilDeadline: 7,
				Today:             today,
				ResponseThreshold: 3,
			},
			wantKind: TriggerSevenDay,
			wantOK:   true,
		},
		{
			name: "seven day already logged yields nothing",
			in: DecideInput{
				Config:            evaluation.ReminderConfig{SevenDay: true},
				Sent:              map[TriggerKind]bool{TriggerSevenDay: true},
				DaysUntilDeadline: 7,
				Today:             today,
				ResponseThreshold: 3,
			},
			wantOK: false,
		},
		{
			name: "opt-out is absolute",
			in: DecideInput{
				Config:            allEnabled(),
				Sent:              map[TriggerKind]bool{},
				OptOut:            true,
				DaysUntilDeadline: 7,
				Today:             today,
				ResponseThreshold: 3,
			},
			wantOK: false,
		},
		{
			name: "three day trigger fires",
			in: DecideInput{
				Config:            allEnabled(),
				Sent:              map[TriggerKind]bool{},
				DaysUntilDeadline: 3,
				Today:             today,
				ResponseThreshold: 3,
			},
			wantKind: TriggerThreeDay,
			wantOK:   true,
		},
		{
			name: "day-of trigger fires on the deadline",
			in: DecideInput{
				Config:            allEnabled(),
				Sent:              map[TriggerKind]bool{},
				DaysUntilDeadline: 0,
				Today:             today,
				ResponseThreshold: 3,
			},
			wantKind: TriggerDayOf,
			wantOK:   true,
		},
		{
			name: "disabled kind does not fire",
			in: DecideInput{
				Config:            evaluation.ReminderConfig{SevenDay: true},
				Sent:              map[TriggerKind]bool{},
				DaysUntilDeadline: 3,
				Today:             today,
				ResponseThreshold: 3,
			},
			wantOK: false,
		},
		{
			name: "post-deadline fires below the response threshold",
			in: DecideInput{
				Config:            allEnabled(),
				Sent:              map[TriggerKind]bool{},
				DaysUntilDeadline: -1,
				Today:             today,
				Responded:         2,
				ResponseThreshold: 3,
			},
			wantKind: TriggerPostDeadline,
			wantOK:   true,
		},
		{
			name: "post-deadline suppressed at the response threshold",
			in: DecideInput{
				Config:            allEnabled(),
				Sent:              map[TriggerKind]bool{},
				DaysUntilDeadline: -1,
				Today:             today,
				Responded:         3,
				ResponseThreshold: 3,
			},
			wantOK: false,
		},
		{
			name: "post-deadline only fires the day after, not later",
			in: DecideInput{
				Config:            allEnabled(),
				Sent:              map[TriggerKind]bool{},
				DaysUntilDeadline: -2,
				Today:             today,
				Responded:         0,
				ResponseThreshold: 3,
			},
			wantOK: false,
		},
		{
			name: "custom date matching today fires",
			in: DecideInput{
				Config: evaluation.ReminderConfig{
					CustomDate: sql.NullTime{Time: time.Date(2026, time.June, 2, 0, 0, 0, 0, time.UTC), Valid: true},
				},
				Sent:              map[TriggerKind]bool{},
				DaysUntilDeadline: 5,
				Today:             today,
				ResponseThreshold: 3,
			},
			wantKind: TriggerCustom,
			wantOK:   true,
		},
		{
			name: "custom date on another day does not fire",
			in: DecideInput{
				Config: evaluation.ReminderConfig{
					CustomDate: sql.NullTime{Time: time.Date(2026, time.June, 9, 0, 0, 0, 0, time.UTC), Valid: true},
				},
				Sent:              map[TriggerKind]bool{},
				DaysUntilDeadline: 5,
				Today:             today,
				ResponseThreshold: 3,
			},
			wantOK: false,
		},
		{
			name: "deadline-relative trigger wins over a coinciding custom date",
			in: DecideInput{
				Config: evaluation.ReminderConfig{
					ThreeDay:   true,
					CustomDate: sql.NullTime{Time: time.Date(2026, time.June, 2, 0, 0, 0, 0, time.UTC), Valid: true},
				},
				Sent:              map[TriggerKind]bool{},
				DaysUntilDeadline: 3,
				Today:             today,
				ResponseThreshold: 3,
			},
			wantKind: TriggerThreeDay,
			wantOK:   true,
		},
		{
			name: "blocked earlier rule falls through to custom",
			in: DecideInput{
				Config: evaluation.ReminderConfig{
					ThreeDay:   true,
					CustomDate: sql.NullTime{Time: time.Date(2026, time.June, 2, 0, 0, 0, 0, time.UTC), Valid: true},
				},
				Sent:              map[TriggerKind]bool{TriggerThreeDay: true},
				DaysUntilDeadline: 3,
				Today:             today,
				ResponseThreshold: 3,
			},
			wantKind: TriggerCustom,
			wantOK:   true,
		},
		{
			name: "nothing configured yields nothing",
			in: DecideInput{
				Config:            evaluation.ReminderConfig{},
				Sent:              map[TriggerKind]bool{},
				DaysUntilDeadline: 7,
				Today:             today,
				ResponseThreshold: 3,
			},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := Decide(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("Decide() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && kind != tt.wantKind {
				t.Errorf("Decide() kind = %q, want %q", kind, tt.wantKind)
			}
		})
	}
}

// Decide must be referentially transparent: identical inputs always
// re-derive the same decision.
func TestDecideIsDeterministic(t *testing.T) {
	in := DecideInput{
		Config:            allEnabled(),
		Sent:              map[TriggerKind]bool{},
		DaysUntilDeadline: 7,
		Today:             time.Date(2026, time.May, 29, 8, 0, 0, 0, time.UTC),
		ResponseThreshold: 3,
	}
	firstKind, firstOK := Decide(in)
	for i := 0; i < 10; i++ {
		kind, ok := Decide(in)
		if kind != firstKind || ok != firstOK {
			t.Fatalf("Decide() not deterministic: got (%q, %v) then (%q, %v)", firstKind, firstOK, kind, ok)
		}
	}
}
