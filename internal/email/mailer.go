package email

import (
	"context"
	"fmt"
	"time"

	"github.com/pdfvault/pdfvault-backend/internal/conf"
	"github.com/pdfvault/pdfvault-backend/internal/pkg/logger"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

const (
	maxRetries    = 3
	retryInterval = 2 * time.Second
	dialTimeout   = 10 * time.Second
	sendTimeout   = 30 * time.Second
)

// Mailer sends transactional mail over SMTP. It is safe to construct
// with an empty configuration; Enabled reports whether sending works.
type Mailer struct {
	config *conf.EmailConfig
	logger *logger.Logger
}

// NewMailer creates a Mailer from the configuration
func NewMailer(cfg *conf.EmailConfig, log *logger.Logger) *Mailer {
	return &Mailer{
		config: cfg,
		logger: log,
	}
}

// Enabled reports whether the mailer is configured to send
func (m *Mailer) Enabled() bool {
	return m.config != nil && m.config.Enabled &&
		m.config.SMTPHost != "" && m.config.FromEmail != ""
}

// NotifyPasswordReset tells a user their password was reset by an operator
func (m *Mailer) NotifyPasswordReset(ctx context.Context, toEmail string) error {
	subject := "Your password has been reset"
	body := "An administrator has reset the password for your account.\n" +
		"If you did not request this change, contact support immediately.\n"
	return m.Send(ctx, toEmail, subject, body)
}

// Send delivers a plain-text message, retrying transient failures
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if !m.Enabled() {
		return fmt.Errorf("mailer is not configured")
	}

	client, err := m.newClient()
	if err != nil {
		return fmt.Errorf("create mail client: %w", err)
	}
	defer client.Close()

	msg := mail.NewMsg()
	if err := msg.FromFormat(m.config.FromName, m.config.FromEmail); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		err := client.DialAndSendWithContext(sendCtx, msg)
		cancel()

		if err == nil {
			m.logger.WithContext(ctx).Info("email sent",
				zap.String("to", to),
				zap.String("subject", subject))
			return nil
		}

		lastErr = err
		if attempt < maxRetries {
			time.Sleep(retryInterval)
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}

func (m *Mailer) newClient() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(m.config.SMTPPort),
		mail.WithTimeout(dialTimeout),
	}

	if m.config.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.config.Username),
			mail.WithPassword(m.config.Password),
		)
	} else {
		opts = append(opts, mail.WithSMTPAuth(mail.SMTPAuthNoAuth))
	}

	return mail.NewClient(m.config.SMTPHost, opts...)
}
