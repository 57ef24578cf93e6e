package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"csi-insights-go/internal/logger"
)

// ErrSendFailed covers delivery failures. The analysis pipeline treats
// it as a secondary warning, never as a reason to drop the report.
var ErrSendFailed = errors.New("notify: send failed")

// Notifier delivers the escalation message to a supervisor.
// At-most-once-per-call is the pipeline's job, not the sender's.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// SendGridNotifier delivers escalation emails via SendGrid.
type SendGridNotifier struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	log       *logger.Logger
}

// SendGridConfig holds SendGrid credentials and sender identity.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridNotifier returns nil when no API key is configured so the
// caller can fall back to the stub.
func NewSendGridNotifier(cfg SendGridConfig, log *logger.Logger) *SendGridNotifier {
	if cfg.APIKey == "" {
		return nil
	}
	if log == nil {
		log = logger.New()
	}
	if cfg.FromName == "" {
		cfg.FromName = "CSI Insights"
	}
	return &SendGridNotifier{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		log:       log.WithComponent("notify"),
	}
}

// Send delivers one plain-text escalation email.
func (n *SendGridNotifier) Send(ctx context.Context, recipient, subject, body string) error {
	if n.client == nil {
		return fmt.Errorf("%w: sendgrid client not configured", ErrSendFailed)
	}

	from := mail.NewEmail(n.fromName, n.fromEmail)
	to := mail.NewEmail("", recipient)
	message := mail.NewSingleEmail(from, subject, to, body, body)

	resp, err := n.client.SendWithContext(ctx, message)
	if err != nil {
		n.log.WithError(err).WithField("to", recipient).Error("sendgrid send failed")
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	if resp.StatusCode >= 400 {
		n.log.WithField("status", resp.StatusCode).WithField("to", recipient).Error("sendgrid returned error status")
		return fmt.Errorf("%w: sendgrid status %d", ErrSendFailed, resp.StatusCode)
	}

	n.log.WithField("to", recipient).WithField("subject", subject).Info("escalation email sent")
	return nil
}

// StubNotifier logs what would be sent. Used in tests and when email
// is disabled.
type StubNotifier struct {
	log *logger.Logger
}

func NewStubNotifier(log *logger.Logger) *StubNotifier {
	if log == nil {
		log = logger.New()
	}
	return &StubNotifier{log: log.WithComponent("notify")}
}

func (n *StubNotifier) Send(_ context.Context, recipient, subject, _ string) error {
	n.log.WithField("to", recipient).WithField("subject", subject).Info("stub notifier: would send email")
	return nil
}

var (
	_ Notifier = (*SendGridNotifier)(nil)
	_ Notifier = (*StubNotifier)(nil)
)
