package email

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/orris-inc/helpdesk/internal/application/notification"
	"github.com/orris-inc/helpdesk/internal/shared/config"
)

// Dialer is the part of gomail.Dialer the sender needs.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPSender struct {
	fromName string
	dialer   Dialer
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return NewSMTPSenderWithDialer(cfg, gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password))
}

func NewSMTPSenderWithDialer(cfg config.SMTPConfig, dialer Dialer) *SMTPSender {
	return &SMTPSender{
		fromName: cfg.FromName,
		dialer:   dialer,
	}
}

// Send delivers mail. gomail has no context support, so ctx is only checked
// before dialing.
func (s *SMTPSender) Send(ctx context.Context, mail notification.Mail) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.dialer.DialAndSend(s.buildMessage(mail)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *SMTPSender) buildMessage(mail notification.Mail) *gomail.Message {
	m := gomail.NewMessage()
	if s.fromName != "" {
		m.SetAddressHeader("From", mail.From, s.fromName)
	} else {
		m.SetHeader("From", mail.From)
	}
	m.SetHeader("To", mail.To)
	m.SetHeader("Subject", mail.Subject)
	if mail.MessageID != "" {
		m.SetHeader("Message-ID", "<"+mail.MessageID+">")
	}
	if mail.InReplyTo != "" {
		m.SetHeader("In-Reply-To", "<"+mail.InReplyTo+">")
	}
	if len(mail.References) > 0 {
		refs := make([]string, 0, len(mail.References))
		for _, ref := range mail.References {
			refs = append(refs, "<"+ref+">")
		}
		m.SetHeader("References", strings.Join(refs, " "))
	}

	m.SetBody("text/plain", mail.Text)
	if mail.HTML != "" {
		m.AddAlternative("text/html", mail.HTML)
	}
	return m
}
