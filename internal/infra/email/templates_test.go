package email

import (
	"strings"
	"testing"

	"evaluation_notifier/internal/domain/reminder"
)

func TestReminderSubjectPerKind(t *testing.T) {
	cases := []struct {
		kind reminder.TriggerKind
		want string
	}{
		{reminder.TriggerSevenDay, "due in 7 days"},
		{reminder.TriggerThreeDay, "due in 3 days"},
		{reminder.TriggerDayOf, "Today is the deadline"},
		{reminder.TriggerPostDeadline, "Final notice"},
		{reminder.TriggerCustom, "Reminder: CEO Evaluation"},
	}
	for _, c := range cases {
		got := ReminderSubject(c.kind, "Riverbend Trust")
		if !strings.Contains(got, c.want) {
			t.Errorf("ReminderSubject(%s) = %q, want it to contain %q", c.kind, got, c.want)
		}
		if !strings.Contains(got, "Riverbend Trust") {
			t.Errorf("ReminderSubject(%s) = %q, missing organization name", c.kind, got)
		}
	}
}

func TestRenderReminder(t *testing.T) {
	body, err := RenderReminder(reminder.TriggerThreeDay, ReminderData{
		EvaluatorName:    "Alice Chen",
		CEOName:          "Dana Whitfield",
		OrganizationName: "Riverbend Trust",
		Deadline:         "June 5, 2026",
		EvalLink:         "https://app.example.org/eval/abc",
		UnsubscribeLink:  "https://app.example.org/unsubscribe?token=abc",
	})
	if err != nil {
		t.Fatalf("RenderReminder returned error: %v", err)
	}
	for _, want := range []string{
		"Alice Chen",
		"Dana Whitfield",
		"June 5, 2026",
		`href="https://app.example.org/eval/abc"`,
		`href="https://app.example.org/unsubscribe?token=abc"`,
		"deadline is in 3 days",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("reminder body missing %q", want)
		}
	}
}

func TestRenderAdminLateSummary(t *testing.T) {
	body, err := RenderAdminLateSummary(AdminLateData{
		AdminName:        "Sam Porter",
		CEOName:          "Dana Whitfield",
		OrganizationName: "Riverbend Trust",
		Responded:        4,
		Invited:          9,
		PendingNames:     "Alice Chen, Bob Reyes",
		EvaluationID:     42,
	})
	if err != nil {
		t.Fatalf("RenderAdminLateSummary returned error: %v", err)
	}
	for _, want := range []string{"4", "9", "Alice Chen, Bob Reyes", "extend the deadline"} {
		if !strings.Contains(body, want) {
			t.Errorf("admin summary missing %q", want)
		}
	}

	// Without pending names the dashboard hint is dropped too.
	body, err = RenderAdminLateSummary(AdminLateData{AdminName: "Sam Porter", Responded: 9, Invited: 9})
	if err != nil {
		t.Fatalf("RenderAdminLateSummary returned error: %v", err)
	}
	if strings.Contains(body, "Still pending") {
		t.Error("admin summary should omit the pending section when no names remain")
	}
}

func TestRenderProgress(t *testing.T) {
	body, err := RenderProgress(ProgressData{
		Responded:        3,
		Invited:          9,
		ResponseRate:     33,
		Remaining:        6,
		CEOName:          "Dana Whitfield",
		OrganizationName: "Riverbend Trust",
	})
	if err != nil {
		t.Fatalf("RenderProgress returned error: %v", err)
	}
	if !strings.Contains(body, "3 responses") || !strings.Contains(body, "33%") {
		t.Errorf("progress body missing counts: %s", body)
	}

	body, _ = RenderProgress(ProgressData{Responded: 9, Invited: 9, ResponseRate: 100})
	if !strings.Contains(body, "All invited board members have responded") {
		t.Error("progress body should note full participation when none remain")
	}
}

func TestRenderInvitationEscapesHTML(t *testing.T) {
	body, err := RenderInvitation(InvitationData{
		EvaluatorName:    "Alice <script>alert(1)</script>",
		CEOName:          "Dana Whitfield",
		OrganizationName: "Riverbend Trust",
		AdminName:        "Sam Porter",
		Deadline:         "June 5, 2026",
		EvalLink:         "https://app.example.org/eval/abc",
	})
	if err != nil {
		t.Fatalf("RenderInvitation returned error: %v", err)
	}
	if strings.Contains(body, "<script>") {
		t.Error("invitation body must escape evaluator-supplied HTML")
	}
}
