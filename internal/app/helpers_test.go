package app

import (
	"context"
	"fmt"
	"time"

	"evaluation_notifier/internal/domain/evaluation"
	"evaluation_notifier/internal/domain/reminder"
	idb "evaluation_notifier/internal/infra/database"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

// --- in-memory evaluation repository ---

type fakeEvaluationRepo struct {
	nextID      int64
	evaluations map[int64]*evaluation.Evaluation
	evaluators  map[int64]*evaluation.Evaluator
	responses   []*evaluation.Response

	tallies  map[int64]evaluation.Tally
	tallyErr error
}

func newFakeEvaluationRepo() *fakeEvaluationRepo {
	return &fakeEvaluationRepo{
		evaluations: make(map[int64]*evaluation.Evaluation),
		evaluators:  make(map[int64]*evaluation.Evaluator),
		tallies:     make(map[int64]evaluation.Tally),
	}
}

func (r *fakeEvaluationRepo) add(ev *evaluation.Evaluation) {
	r.nextID++
	ev.ID = r.nextID
	r.evaluations[ev.ID] = ev
	for _, er := range ev.Evaluators {
		r.nextID++
		er.ID = r.nextID
		er.EvaluationID = ev.ID
		r.evaluators[er.ID] = er
	}
}

func (r *fakeEvaluationRepo) Create(_ context.Context, ev *evaluation.Evaluation) error {
	r.nextID++
	ev.ID = r.nextID
	ev.CreatedAt = time.Now()
	r.evaluations[ev.ID] = ev
	return nil
}

func (r *fakeEvaluationRepo) GetByID(_ context.Context, id int64) (*evaluation.Evaluation, error) {
	ev, ok := r.evaluations[id]
	if !ok {
		return nil, idb.ErrEvaluationNotFound
	}
	return ev, nil
}

func (r *fakeEvaluationRepo) UpdateStatus(_ context.Context, id int64, status evaluation.Status) error {
	ev, ok := r.evaluations[id]
	if !ok || ev.Status != evaluation.StatusActive {
		return idb.ErrEvaluationNotActive
	}
	ev.Status = status
	return nil
}

func (r *fakeEvaluationRepo) UpdateDeadline(_ context.Context, id int64, deadline time.Time) error {
	ev, ok := r.evaluations[id]
	if !ok || ev.Status != evaluation.StatusActive {
		return idb.ErrEvaluationNotActive
	}
	ev.Deadline.Time = deadline
	ev.Deadline.Valid = true
	return nil
}

func (r *fakeEvaluationRepo) ListActiveWithPending(_ context.Context) ([]*evaluation.Evaluation, error) {
	out := make([]*evaluation.Evaluation, 0)
	for _, ev := range r.evaluations {
		if ev.Status != evaluation.StatusActive {
			continue
		}
		pending := make([]*evaluation.Evaluator, 0)
		for _, er := range ev.Evaluators {
			if er.Status == evaluation.EvaluatorPending && !er.ReminderOptOut {
				pending = append(pending, er)
			}
		}
		if len(pending) > 0 {
			copyEv := *ev
			copyEv.Evaluators = pending
			out = append(out, &copyEv)
		}
	}
	return out, nil
}

func (r *fakeEvaluationRepo) Tally(_ context.Context, evaluationID int64) (evaluation.Tally, error) {
	if r.tallyErr != nil {
		return evaluation.Tally{}, r.tallyErr
	}
	if t, ok := r.tallies[evaluationID]; ok {
		return t, nil
	}
	// Fall back to counting the registered evaluators.
	t := evaluation.Tally{}
	for _, er := range r.evaluators {
		if er.EvaluationID != evaluationID {
			continue
		}
		t.Invited++
		if er.Status == evaluation.EvaluatorCompleted {
			t.Responded++
		}
	}
	return t, nil
}

func (r *fakeEvaluationRepo) CreateEvaluators(_ context.Context, evaluators []*evaluation.Evaluator) error {
	for _, er := range evaluators {
		r.nextID++
		er.ID = r.nextID
		er.CreatedAt = time.Now()
		r.evaluators[er.ID] = er
	}
	return nil
}

func (r *fakeEvaluationRepo) GetEvaluatorByToken(_ context.Context, token string) (*evaluation.Evaluator, error) {
	for _, er := range r.evaluators {
		if er.Token == token {
			return er, nil
		}
	}
	return nil, idb.ErrEvaluatorNotFound
}

func (r *fakeEvaluationRepo) MarkEvaluatorCompleted(_ context.Context, id int64, completedAt time.Time) error {
	er, ok := r.evaluators[id]
	if !ok || er.Status != evaluation.EvaluatorPending {
		return idb.ErrAlreadySubmitted
	}
	er.Status = evaluation.EvaluatorCompleted
	er.CompletedAt.Time = completedAt
	er.CompletedAt.Valid = true
	return nil
}

func (r *fakeEvaluationRepo) SetReminderOptOutByToken(_ context.Context, token string) error {
	for _, er := range r.evaluators {
		if er.Token == token {
			er.ReminderOptOut = true
			return nil
		}
	}
	return idb.ErrEvaluatorNotFound
}

func (r *fakeEvaluationRepo) AddResponses(_ context.Context, responses []*evaluation.Response) error {
	r.responses = append(r.responses, responses...)
	return nil
}

// --- in-memory dispatch log ---

type fakeDispatchRepo struct {
	reminders  map[int64]map[reminder.TriggerKind]bool
	notices    map[int64]map[reminder.NoticeKind]bool
	dispatches []*reminder.DispatchRecord
}

func newFakeDispatchRepo() *fakeDispatchRepo {
	return &fakeDispatchRepo{
		reminders: make(map[int64]map[reminder.TriggerKind]bool),
		notices:   make(map[int64]map[reminder.NoticeKind]bool),
	}
}

func (r *fakeDispatchRepo) SentKinds(_ context.Context, evaluatorID int64) (map[reminder.TriggerKind]bool, error) {
	sent := make(map[reminder.TriggerKind]bool, len(r.reminders[evaluatorID]))
	for kind := range r.reminders[evaluatorID] {
		sent[kind] = true
	}
	return sent, nil
}

func (r *fakeDispatchRepo) MarkReminderSent(_ context.Context, evaluatorID int64, kind reminder.TriggerKind, _ time.Time) error {
	if r.reminders[evaluatorID][kind] {
		return idb.ErrDuplicateReminder
	}
	if r.reminders[evaluatorID] == nil {
		r.reminders[evaluatorID] = make(map[reminder.TriggerKind]bool)
	}
	r.reminders[evaluatorID][kind] = true
	return nil
}

func (r *fakeDispatchRepo) MarkNoticeSent(_ context.Context, evaluationID int64, kind reminder.NoticeKind, _ time.Time) error {
	if r.notices[evaluationID][kind] {
		return idb.ErrDuplicateNotice
	}
	if r.notices[evaluationID] == nil {
		r.notices[evaluationID] = make(map[reminder.NoticeKind]bool)
	}
	r.notices[evaluationID][kind] = true
	return nil
}

func (r *fakeDispatchRepo) RecordDispatch(_ context.Context, rec *reminder.DispatchRecord) error {
	r.dispatches = append(r.dispatches, rec)
	return nil
}

func (r *fakeDispatchRepo) dispatchesByStatus(status reminder.DispatchStatus) []*reminder.DispatchRecord {
	out := make([]*reminder.DispatchRecord, 0)
	for _, d := range r.dispatches {
		if d.Status == status {
			out = append(out, d)
		}
	}
	return out
}

// --- fake mailer ---

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	sent    []sentMail
	failFor map[string]bool // recipients whose sends fail
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{failFor: make(map[string]bool)}
}

func (m *fakeMailer) Send(_ context.Context, to, subject, htmlBody string) (string, error) {
	if m.failFor[to] {
		return "", fmt.Errorf("delivery to %s failed", to)
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return fmt.Sprintf("<msg-%d@test>", len(m.sent)), nil
}

func (m *fakeMailer) sentTo(recipient string) int {
	n := 0
	for _, s := range m.sent {
		if s.To == recipient {
			n++
		}
	}
	return n
}
