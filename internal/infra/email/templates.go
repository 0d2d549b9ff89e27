package email

import (
	"bytes"
	"fmt"
	"html/template"

	"evaluation_notifier/internal/domain/reminder"
)

// Subject lines per reminder kind, suffixed with the organization name
// when composed by ReminderSubject.
var reminderSubjects = map[reminder.TriggerKind]string{
	reminder.TriggerSevenDay:     "Reminder: CEO Evaluation due in 7 days",
	reminder.TriggerThreeDay:     "Reminder: CEO Evaluation due in 3 days",
	reminder.TriggerDayOf:        "Today is the deadline — CEO Evaluation",
	reminder.TriggerPostDeadline: "Final notice: CEO Evaluation still needs your input",
	reminder.TriggerCustom:       "Reminder: CEO Evaluation",
}

var reminderUrgency = map[reminder.TriggerKind]string{
	reminder.TriggerSevenDay:     "You have 7 days to complete this evaluation.",
	reminder.TriggerThreeDay:     "The deadline is in 3 days — please set aside 15 minutes today.",
	reminder.TriggerDayOf:        "Today is the final day to submit your evaluation.",
	reminder.TriggerPostDeadline: "The deadline has passed, but your input is still needed. Please complete this today.",
	reminder.TriggerCustom:       "This is a reminder to complete the CEO evaluation.",
}

func ReminderSubject(kind reminder.TriggerKind, organizationName string) string {
	return fmt.Sprintf("%s — %s", reminderSubjects[kind], organizationName)
}

func InvitationSubject(organizationName string) string {
	return fmt.Sprintf("CEO Evaluation Request — %s", organizationName)
}

func LaunchSubject(organizationName string) string {
	return fmt.Sprintf("CEO Evaluation Launched — %s", organizationName)
}

func AdminLateSubject(responded, invited int) string {
	return fmt.Sprintf("Deadline passed — %d/%d responses received", responded, invited)
}

func ProgressSubject(responded int) string {
	return fmt.Sprintf("%d responses in — CEO Evaluation Update", responded)
}

const ThankYouSubject = "Thank you — CEO Evaluation Complete"

// ReminderData fills the evaluator-facing reminder body.
type ReminderData struct {
	EvaluatorName    string
	CEOName          string
	OrganizationName string
	Deadline         string // pre-formatted, e.g. "June 5, 2026"
	UrgencyMessage   string
	EvalLink         string
	UnsubscribeLink  string
}

// AdminLateData fills the post-deadline administrator summary.
type AdminLateData struct {
	AdminName        string
	CEOName          string
	OrganizationName string
	Responded        int
	Invited          int
	PendingNames     string
	EvaluationID     int64
}

// InvitationData fills the initial evaluator invitation.
type InvitationData struct {
	EvaluatorName    string
	CEOName          string
	OrganizationName string
	AdminName        string
	Deadline         string
	EvalLink         string
	UnsubscribeLink  string
}

// LaunchData fills the admin confirmation sent when a campaign starts.
type LaunchData struct {
	AdminName        string
	CEOName          string
	OrganizationName string
	EvaluatorCount   int
	Deadline         string
	EvaluationID     int64
}

// ThankYouData fills the post-submission receipt.
type ThankYouData struct {
	EvaluatorName    string
	CEOName          string
	OrganizationName string
}

// ProgressData fills the admin progress notice sent when the responded
// count crosses a threshold.
type ProgressData struct {
	Responded        int
	Invited          int
	ResponseRate     int // percent
	Remaining        int
	CEOName          string
	OrganizationName string
}

var reminderTmpl = template.Must(template.New("reminder").Parse(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background:#f0f4f8;font-family:'Helvetica Neue',Arial,sans-serif;">
  <div style="max-width:600px;margin:0 auto;padding:40px 20px;">
    <div style="background:#0D2C54;border-radius:12px 12px 0 0;padding:28px 36px;text-align:center;">
      <div style="color:rgba(255,255,255,.5);font-size:11px;font-weight:700;letter-spacing:.14em;text-transform:uppercase;margin-bottom:6px;">Reminder</div>
      <div style="color:white;font-size:20px;font-weight:600;">CEO Evaluation Still Needs You</div>
    </div>
    <div style="background:white;padding:36px;border:1px solid #e2e8f0;border-top:none;">
      <p style="font-size:16px;color:#1e293b;margin:0 0 16px;">Hi {{.EvaluatorName}},</p>
      <p style="font-size:15px;color:#475569;line-height:1.7;margin:0 0 16px;">
        This is a reminder that your evaluation of <strong style="color:#0D2C54">{{.CEOName}}</strong> at {{.OrganizationName}} is still pending.
      </p>
      <div style="background:#f8fafc;border-left:3px solid #0097A9;padding:12px 16px;margin:0 0 24px;">
        <p style="margin:0;font-size:14px;color:#1e293b;font-weight:600;">{{.UrgencyMessage}}</p>
        <p style="margin:4px 0 0;font-size:13px;color:#64748b;">Deadline: {{.Deadline}}</p>
      </div>
      <div style="text-align:center;margin:28px 0;">
        <a href="{{.EvalLink}}" style="display:inline-block;background:#0097A9;color:white;font-size:15px;font-weight:700;padding:14px 36px;border-radius:8px;text-decoration:none;">
          Complete Evaluation &rarr;
        </a>
      </div>
      <p style="font-size:12px;color:#94a3b8;margin:16px 0 0;">
        <a href="{{.UnsubscribeLink}}" style="color:#0097A9;text-decoration:none;">Opt out of future reminders</a>
      </p>
    </div>
  </div>
</body>
</html>`))

var adminLateTmpl = template.Must(template.New("adminLate").Parse(`<!DOCTYPE html>
<html>
<body style="font-family:sans-serif;max-width:600px;margin:0 auto;padding:32px;color:#475569;">
  <h2 style="color:#0D2C54">Evaluation Deadline Passed</h2>
  <p>Hi {{.AdminName}},</p>
  <p>The deadline for the {{.CEOName}} CEO evaluation at {{.OrganizationName}} has passed.</p>
  <p><strong style="color:#0D2C54">{{.Responded}} of {{.Invited}}</strong> board members have responded.</p>
  {{if .PendingNames}}<p>Still pending: {{.PendingNames}}</p>
  <p>You can extend the deadline or generate the report with current responses from your dashboard.</p>{{end}}
  <p style="font-size:12px;color:#94a3b8;">Evaluation ID: {{.EvaluationID}}</p>
</body>
</html>`))

var invitationTmpl = template.Must(template.New("invitation").Parse(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background:#f0f4f8;font-family:'Helvetica Neue',Arial,sans-serif;">
  <div style="max-width:600px;margin:0 auto;padding:40px 20px;">
    <div style="background:#0D2C54;border-radius:12px 12px 0 0;padding:28px 36px;text-align:center;">
      <div style="color:white;font-size:20px;font-weight:600;">CEO Evaluation &mdash; Board Survey</div>
    </div>
    <div style="background:white;padding:36px;border:1px solid #e2e8f0;border-top:none;">
      <p style="font-size:16px;color:#1e293b;margin:0 0 16px;">Hi {{.EvaluatorName}},</p>
      <p style="font-size:15px;color:#475569;line-height:1.7;margin:0 0 20px;">
        {{.AdminName}} has invited you to participate in the annual performance evaluation for <strong style="color:#0D2C54">{{.CEOName}}</strong>, Executive Director of {{.OrganizationName}}.
      </p>
      <p style="font-size:15px;color:#475569;line-height:1.7;margin:0 0 28px;">
        This evaluation is confidential. Your individual responses will not be shared &mdash; only aggregated results are included in the board report. Please complete this by <strong style="color:#0D2C54">{{.Deadline}}</strong>.
      </p>
      <div style="text-align:center;margin:32px 0;">
        <a href="{{.EvalLink}}" style="display:inline-block;background:#0097A9;color:white;font-size:15px;font-weight:700;padding:14px 36px;border-radius:8px;text-decoration:none;">
          Begin Evaluation &rarr;
        </a>
      </div>
      <p style="font-size:13px;color:#94a3b8;margin:24px 0 0;line-height:1.6;">
        This link is unique to you. The evaluation takes approximately 10&ndash;15 minutes.
        <a href="{{.UnsubscribeLink}}" style="color:#0097A9;text-decoration:none;">Opt out of reminders</a>
      </p>
    </div>
  </div>
</body>
</html>`))

var launchTmpl = template.Must(template.New("launch").Parse(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background:#f0f4f8;font-family:'Helvetica Neue',Arial,sans-serif;">
  <div style="max-width:600px;margin:0 auto;padding:40px 20px;">
    <div style="background:#0D2C54;border-radius:12px 12px 0 0;padding:28px 36px;">
      <div style="color:white;font-size:18px;font-weight:600;">Evaluation Launched Successfully</div>
    </div>
    <div style="background:white;padding:36px;border:1px solid #e2e8f0;border-top:none;border-radius:0 0 12px 12px;">
      <p style="font-size:15px;color:#475569;line-height:1.7;">Hi {{.AdminName}},</p>
      <p style="font-size:15px;color:#475569;line-height:1.7;">
        The CEO evaluation for <strong>{{.CEOName}}</strong> at {{.OrganizationName}} has been launched.
        Invitations have been sent to <strong>{{.EvaluatorCount}} board members</strong>.
        The deadline is <strong>{{.Deadline}}</strong>.
      </p>
      <p style="font-size:13px;color:#94a3b8;">Evaluation ID: {{.EvaluationID}}</p>
    </div>
  </div>
</body>
</html>`))

var thankYouTmpl = template.Must(template.New("thankYou").Parse(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background:#f0f4f8;font-family:'Helvetica Neue',Arial,sans-serif;">
  <div style="max-width:600px;margin:0 auto;padding:40px 20px;">
    <div style="background:#0D2C54;border-radius:12px 12px 0 0;padding:28px 36px;text-align:center;">
      <div style="color:white;font-size:20px;font-weight:600;">Thank You</div>
    </div>
    <div style="background:white;padding:36px;border:1px solid #e2e8f0;border-top:none;border-radius:0 0 12px 12px;">
      <p style="font-size:15px;color:#475569;line-height:1.7;">Hi {{.EvaluatorName}},</p>
      <p style="font-size:15px;color:#475569;line-height:1.7;">
        Your evaluation of <strong>{{.CEOName}}</strong> at {{.OrganizationName}} has been received.
        Your responses are confidential and will only appear as part of the aggregated board report.
      </p>
    </div>
  </div>
</body>
</html>`))

var progressTmpl = template.Must(template.New("progress").Parse(`<!DOCTYPE html>
<html>
<body style="font-family:sans-serif;max-width:600px;margin:0 auto;padding:32px;">
  <h2 style="color:#0D2C54">Evaluation Update</h2>
  <p style="color:#475569;">You've reached <strong>{{.Responded}} responses</strong> ({{.ResponseRate}}% response rate) for the {{.CEOName}} evaluation at {{.OrganizationName}}.</p>
  {{if gt .Remaining 0}}<p style="color:#475569;">{{.Remaining}} board member(s) have not yet responded.</p>
  {{else}}<p style="color:#475569;">All invited board members have responded.</p>{{end}}
</body>
</html>`))

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s template: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

func RenderReminder(kind reminder.TriggerKind, data ReminderData) (string, error) {
	data.UrgencyMessage = reminderUrgency[kind]
	return render(reminderTmpl, data)
}

func RenderAdminLateSummary(data AdminLateData) (string, error) {
	return render(adminLateTmpl, data)
}

func RenderInvitation(data InvitationData) (string, error) {
	return render(invitationTmpl, data)
}

func RenderLaunchConfirmation(data LaunchData) (string, error) {
	return render(launchTmpl, data)
}

func RenderThankYou(data ThankYouData) (string, error) {
	return render(thankYouTmpl, data)
}

func RenderProgress(data ProgressData) (string, error) {
	return render(progressTmpl, data)
}
