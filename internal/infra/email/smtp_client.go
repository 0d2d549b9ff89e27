package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	mail "github.com/go-mail/mail/v2"
	"github.com/google/uuid"
)

const dialTimeout = 15 * time.Second

// SMTPClient sends HTML email over SMTP with mandatory STARTTLS.
// It implements the domain email.Client interface.
type SMTPClient struct {
	dialer *mail.Dialer
	from   string
}

func NewSMTPClient(host string, port int, user, pass, from string, skipTLSVerify bool) *SMTPClient {
	d := mail.NewDialer(host, port, user, pass)
	d.Timeout = dialTimeout
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: skipTLSVerify, // dev only
	}
	return &SMTPClient{dialer: d, from: from}
}

// Send delivers one email and returns the Message-ID assigned to it.
// The dialer timeout bounds how long a single recipient can stall the
// caller; no lock or transaction is held across this call.
func (c *SMTPClient) Send(ctx context.Context, to, subject, htmlBody string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), c.dialer.Host)

	m := mail.NewMessage()
	m.SetHeader("From", c.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetHeader("Message-ID", messageID)
	m.SetBody("text/html", htmlBody)

	if err := c.dialer.DialAndSend(m); err != nil {
		return "", fmt.Errorf("smtp send to %s failed: %w", to, err)
	}
	return messageID, nil
}
