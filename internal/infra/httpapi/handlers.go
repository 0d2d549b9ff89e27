package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"evaluation_notifier/internal/app"
	"evaluation_notifier/internal/domain/evaluation"
	idb "evaluation_notifier/internal/infra/database"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

type Handler struct {
	reminders   app.ReminderRunner
	evaluations *app.EvaluationService
	submissions *app.SubmissionService
	cronSecret  string
	appBaseURL  string
	logger      *logrus.Logger
}

type reminderConfigRequest struct {
	SevenDay     bool   `json:"seven_day"`
	ThreeDay     bool   `json:"three_day"`
	DayOf        bool   `json:"day_of"`
	PostDeadline bool   `json:"post_deadline"`
	CustomDate   string `json:"custom_date"` // YYYY-MM-DD, optional
}

type evaluatorRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

type createEvaluationRequest struct {
	OrganizationName string                `json:"organization_name" binding:"required"`
	CEOName          string                `json:"ceo_name" binding:"required"`
	Deadline         string                `json:"deadline" binding:"required"`
	AdminName        string                `json:"admin_name"`
	AdminEmail       string                `json:"admin_email" binding:"required,email"`
	ReminderConfig   reminderConfigRequest `json:"reminder_config"`
	Evaluators       []evaluatorRequest    `json:"evaluators" binding:"required,min=1,dive"`
}

// CreateEvaluation launches a campaign: POST /api/evaluations
func (h *Handler) CreateEvaluation(c *gin.Context) {
	var req createEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deadline, err := time.ParseInLocation(dateLayout, req.Deadline, time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deadline must be YYYY-MM-DD"})
		return
	}

	in := app.CreateEvaluationInput{
		OrganizationName: req.OrganizationName,
		CEOName:          req.CEOName,
		Deadline:         deadline,
		AdminName:        req.AdminName,
		AdminEmail:       req.AdminEmail,
		Reminders: evaluation.ReminderConfig{
			SevenDay:     req.ReminderConfig.SevenDay,
			ThreeDay:     req.ReminderConfig.ThreeDay,
			DayOf:        req.ReminderConfig.DayOf,
			PostDeadline: req.ReminderConfig.PostDeadline,
		},
	}
	if req.ReminderConfig.CustomDate != "" {
		customDate, err := time.ParseInLocation(dateLayout, req.ReminderConfig.CustomDate, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "custom_date must be YYYY-MM-DD"})
			return
		}
		in.Reminders.CustomDate.Time = customDate
		in.Reminders.CustomDate.Valid = true
	}
	for _, e := range req.Evaluators {
		in.Evaluators = append(in.Evaluators, app.NewEvaluatorInput{Name: e.Name, Email: e.Email})
	}

	ev, invites, err := h.evaluations.Create(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).Error("Evaluation creation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create evaluation"})
		return
	}

	emails := make([]gin.H, 0, len(invites))
	for _, inv := range invites {
		emails = append(emails, gin.H{"email": inv.Email, "success": inv.Sent})
	}
	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"evaluation_id":      ev.ID,
		"evaluators_invited": len(ev.Evaluators),
		"emails":             emails,
	})
}

type extendDeadlineRequest struct {
	Deadline string `json:"deadline" binding:"required"`
}

// ExtendDeadline: POST /api/evaluations/:id/extend
func (h *Handler) ExtendDeadline(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid evaluation id"})
		return
	}
	var req extendDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	deadline, err := time.ParseInLocation(dateLayout, req.Deadline, time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deadline must be YYYY-MM-DD"})
		return
	}
	if err := h.evaluations.ExtendDeadline(c.Request.Context(), id, deadline); err != nil {
		h.respondTransitionError(c, id, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CompleteEvaluation: POST /api/evaluations/:id/complete
func (h *Handler) CompleteEvaluation(c *gin.Context) {
	h.transition(c, h.evaluations.Complete)
}

// CancelEvaluation: POST /api/evaluations/:id/cancel
func (h *Handler) CancelEvaluation(c *gin.Context) {
	h.transition(c, h.evaluations.Cancel)
}

func (h *Handler) transition(c *gin.Context, fn func(ctx context.Context, id int64) error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid evaluation id"})
		return
	}
	if err := fn(c.Request.Context(), id); err != nil {
		h.respondTransitionError(c, id, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type submitRequest struct {
	Token     string `json:"token" binding:"required"`
	Responses []struct {
		Dimension    string `json:"dimension"`
		QuestionID   string `json:"question_id"`
		QuestionText string `json:"question_text"`
		Score        *int   `json:"score"`
		OpenResponse string `json:"open_response"`
	} `json:"responses" binding:"required,min=1"`
}

// SubmitEvaluation: POST /api/submissions
// Public endpoint, authenticated by the evaluator's access token.
func (h *Handler) SubmitEvaluation(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	responses := make([]app.ResponseInput, 0, len(req.Responses))
	for _, r := range req.Responses {
		responses = append(responses, app.ResponseInput{
			Dimension:    r.Dimension,
			QuestionID:   r.QuestionID,
			QuestionText: r.QuestionText,
			Score:        r.Score,
			OpenResponse: r.OpenResponse,
		})
	}

	err := h.submissions.Submit(c.Request.Context(), req.Token, responses)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, idb.ErrEvaluatorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid or expired link"})
	case errors.Is(err, idb.ErrAlreadySubmitted):
		c.JSON(http.StatusConflict, gin.H{"error": "this evaluation has already been submitted"})
	case errors.Is(err, app.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).Error("Submission failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record submission"})
	}
}

// Unsubscribe: GET /unsubscribe?token=UUID
func (h *Handler) Unsubscribe(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.String(http.StatusBadRequest, "Invalid link")
		return
	}
	if err := h.evaluations.OptOut(c.Request.Context(), token); err != nil {
		if errors.Is(err, idb.ErrEvaluatorNotFound) {
			c.String(http.StatusNotFound, "Invalid link")
			return
		}
		h.logger.WithError(err).Error("Opt-out failed")
		c.String(http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}
	c.Redirect(http.StatusFound, h.appBaseURL+"/eval/unsubscribed")
}

// RunReminders: POST /api/reminders/run
// Manual trigger with the same semantics as the scheduled run; requires
// the shared cron secret. Safe to invoke while a scheduled run is in
// flight: the dispatch guards keep sends at most-once.
func (h *Handler) RunReminders(c *gin.Context) {
	if c.GetHeader("X-Cron-Secret") != h.cronSecret {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	summary, err := h.reminders.Run(c.Request.Context(), time.Now().UTC())
	if err != nil {
		h.logger.WithError(err).Error("Manual reminder run failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"sent":    summary.Sent,
		"skipped": summary.Skipped,
		"failed":  summary.Failed,
	})
}

func (h *Handler) respondTransitionError(c *gin.Context, id int64, err error) {
	if errors.Is(err, idb.ErrEvaluationNotActive) {
		c.JSON(http.StatusConflict, gin.H{"error": "evaluation is not active"})
		return
	}
	h.logger.WithError(err).WithField("evaluation_id", id).Error("Evaluation update failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update evaluation"})
}
