package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/textproto"
	"path/filepath"
	"time"

	gomail "gopkg.in/mail.v2"

	"github.com/shanehull/mikecast/internal/retry"
)

// EmailConfig holds SMTP configuration for sending emails.
type EmailConfig struct {
	SMTPServer string
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	FromEmail  string
	ToEmails   []string
	Enabled    bool
}

// Attachment is a file added to the briefing email. Exactly one of Data
// and Path is set.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
	Path        string
}

type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailSender delivers messages via SMTP.
type EmailSender struct {
	cfg    EmailConfig
	dialer mailDialer
	policy retry.Policy
	logger *slog.Logger
}

// NewEmailSender creates a sender with the given SMTP configuration. Port
// 465 uses implicit TLS; other ports negotiate STARTTLS. Transient SMTP
// failures are retried according to policy.
func NewEmailSender(cfg EmailConfig, policy retry.Policy, logger *slog.Logger) *EmailSender {
	if logger == nil {
		logger = slog.Default()
	}
	dialer := gomail.NewDialer(cfg.SMTPServer, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	dialer.Timeout = 30 * time.Second
	if cfg.SMTPPort != 465 {
		dialer.StartTLSPolicy = gomail.MandatoryStartTLS
	}
	return &EmailSender{cfg: cfg, dialer: dialer, policy: policy, logger: logger}
}

// BuildMessage assembles the MIME message without sending it.
func (s *EmailSender) BuildMessage(msg *RenderedMessage, attachments ...Attachment) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.FromEmail)
	m.SetHeader("To", s.cfg.ToEmails...)
	m.SetHeader("Subject", msg.Subject)

	if msg.HTML != "" && msg.Text != "" {
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	} else if msg.HTML != "" {
		m.SetBody("text/html", msg.HTML)
	} else {
		m.SetBody("text/plain", msg.Text)
	}

	for _, a := range attachments {
		var settings []gomail.FileSetting
		if a.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}))
		}
		if a.Path != "" {
			name := a.Name
			if name == "" {
				name = filepath.Base(a.Path)
			}
			m.Attach(a.Path, append(settings, gomail.Rename(name))...)
			continue
		}
		m.AttachReader(a.Name, bytes.NewReader(a.Data), settings...)
	}
	return m
}

// Send delivers the briefing. A disabled sender does nothing.
func (s *EmailSender) Send(ctx context.Context, msg *RenderedMessage, attachments ...Attachment) error {
	if !s.cfg.Enabled {
		s.logger.Info("email not configured, skipping delivery")
		return nil
	}

	m := s.BuildMessage(msg, attachments...)
	err := retry.Do(ctx, s.policy, func(attempt int) error {
		err := s.dialer.DialAndSend(m)
		if err != nil {
			s.logger.Warn("smtp delivery failed", "attempt", attempt, "error", err)
			return smtpRetryable(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to send to %v (Subject: %s): %w", s.cfg.ToEmails, msg.Subject, err)
	}

	s.logger.Info("email sent", "subject", msg.Subject, "to", s.cfg.ToEmails, "attachments", len(attachments))
	return nil
}

// smtpRetryable treats 5xx SMTP replies (bad credentials, rejected
// recipients) as permanent. 4xx replies and connection errors are retried.
func smtpRetryable(err error) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) && tpErr.Code >= 500 {
		return retry.Permanent(err)
	}
	return err
}
