package email

import "context"

// Client defines an interface for sending one rendered HTML email.
// This keeps the application logic decoupled from the SMTP library.
// Implementations apply a bounded timeout per call and return errors
// rather than panicking; the caller decides how a failure affects the
// rest of the batch.
type Client interface {
	Send(ctx context.Context, to, subject, htmlBody string) (messageID string, err error)
}
