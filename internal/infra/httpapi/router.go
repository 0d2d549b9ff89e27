package httpapi

import (
	"evaluation_notifier/internal/app"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter wires the HTTP surface: campaign lifecycle, the public
// token-authenticated endpoints linked from emails, and the
// secret-protected manual run trigger.
func NewRouter(
	reminders app.ReminderRunner,
	evaluations *app.EvaluationService,
	submissions *app.SubmissionService,
	cronSecret string,
	appBaseURL string,
	logger *logrus.Logger,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	h := &Handler{
		reminders:   reminders,
		evaluations: evaluations,
		submissions: submissions,
		cronSecret:  cronSecret,
		appBaseURL:  appBaseURL,
		logger:      logger,
	}

	api := r.Group("/api")
	api.POST("/evaluations", h.CreateEvaluation)
	api.POST("/evaluations/:id/extend", h.ExtendDeadline)
	api.POST("/evaluations/:id/complete", h.CompleteEvaluation)
	api.POST("/evaluations/:id/cancel", h.CancelEvaluation)
	api.POST("/submissions", h.SubmitEvaluation)
	api.POST("/reminders/run", h.RunReminders)

	// Linked from every reminder email footer.
	r.GET("/unsubscribe", h.Unsubscribe)

	return r
}
