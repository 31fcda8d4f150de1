// Package notification sends mail about committed ticket events: a
// confirmation to the requester of a new ticket and notices to the assigned
// supporter.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
	"github.com/orris-inc/helpdesk/internal/shared/config"
	"github.com/orris-inc/helpdesk/internal/shared/goroutine"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

// Mail is one outbound message.
type Mail struct {
	MessageID  string
	From       string
	To         string
	Subject    string
	Text       string
	HTML       string
	InReplyTo  string
	References []string
}

type MailSender interface {
	Send(ctx context.Context, mail Mail) error
}

// TemplateData is the set of values a notification template may reference.
type TemplateData struct {
	TicketNumber  string
	Subject       string
	Requester     string
	RecipientName string
}

type Renderer interface {
	Render(kind string, data TemplateData) (text string, html string, err error)
}

type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type DispatcherConfig struct {
	Enabled         bool
	MaxAttempts     int
	InitialBackoff  time.Duration
	FromAddress     string
	MessageIDDomain string
}

func NewDispatcherConfig(n config.NotificationConfig, smtp config.SMTPConfig) DispatcherConfig {
	return DispatcherConfig{
		Enabled:         n.Enabled,
		MaxAttempts:     n.MaxAttempts,
		InitialBackoff:  n.InitialBackoff(),
		FromAddress:     strings.ToLower(smtp.FromAddress),
		MessageIDDomain: smtp.MessageIDDomain,
	}
}

// Dispatcher implements the ingestion notifier. Delivery runs in the
// background; Wait blocks until every started delivery has finished.
type Dispatcher struct {
	sender     MailSender
	renderer   Renderer
	tx         Transactor
	emails     ticket.EmailRepository
	threads    ticket.ThreadRepository
	supporters ticket.SupporterRepository
	cfg        DispatcherConfig
	now        func() time.Time
	logger     logger.Interface

	wg sync.WaitGroup
}

func NewDispatcher(
	sender MailSender,
	renderer Renderer,
	tx Transactor,
	emails ticket.EmailRepository,
	threads ticket.ThreadRepository,
	supporters ticket.SupporterRepository,
	cfg DispatcherConfig,
	log logger.Interface,
) *Dispatcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MessageIDDomain == "" {
		cfg.MessageIDDomain = "helpdesk.local"
	}
	return &Dispatcher{
		sender:     sender,
		renderer:   renderer,
		tx:         tx,
		emails:     emails,
		threads:    threads,
		supporters: supporters,
		cfg:        cfg,
		now:        time.Now,
		logger:     log,
	}
}

func (d *Dispatcher) Notify(ctx context.Context, event ticket.Event) {
	if !d.cfg.Enabled {
		return
	}
	d.wg.Add(1)
	goroutine.SafeGo(d.logger, "notify "+event.TicketNumber, func() {
		defer d.wg.Done()
		if err := d.Dispatch(ctx, event); err != nil {
			d.logger.Errorw("notification failed",
				"event", event.Kind.String(),
				"ticket_number", event.TicketNumber,
				"error", err,
			)
		}
	})
}

// Wait blocks until all background deliveries are done.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Dispatch delivers the notifications of event synchronously.
func (d *Dispatcher) Dispatch(ctx context.Context, event ticket.Event) error {
	switch event.Kind {
	case ticket.EventTicketCreated:
		return d.confirm(ctx, event)
	case ticket.EventCustomerReply, ticket.EventTicketReopened:
		return d.notifySupporter(ctx, event)
	}
	return fmt.Errorf("unknown event kind %q", event.Kind)
}

// confirm tells the requester the ticket number and records the sent mail on
// the ticket, so a reply to it threads back through In-Reply-To.
func (d *Dispatcher) confirm(ctx context.Context, event ticket.Event) error {
	if event.Requester == "" || strings.EqualFold(event.Requester, d.cfg.FromAddress) {
		d.logger.Debugw("no confirmation for mail from own address", "ticket_number", event.TicketNumber)
		return nil
	}

	text, html, err := d.renderer.Render(event.Kind.String(), TemplateData{
		TicketNumber: event.TicketNumber,
		Subject:      event.Subject,
		Requester:    event.Requester,
	})
	if err != nil {
		return err
	}

	mail := Mail{
		MessageID: uuid.NewString() + "@" + d.cfg.MessageIDDomain,
		From:      d.cfg.FromAddress,
		To:        event.Requester,
		Subject:   TaggedSubject(event.TicketNumber, event.Subject),
		Text:      text,
		HTML:      html,
	}
	if event.MessageID != "" {
		mail.InReplyTo = event.MessageID
		mail.References = []string{event.MessageID}
	}

	if err := d.send(ctx, mail); err != nil {
		return err
	}
	return d.record(ctx, event, mail)
}

func (d *Dispatcher) record(ctx context.Context, event ticket.Event, mail Mail) error {
	return d.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		outbound, err := ticket.NewEmail(ticket.EmailParams{
			TicketID:    event.TicketID,
			MessageID:   mail.MessageID,
			Direction:   vo.DirectionOutbound,
			FromAddress: mail.From,
			ToAddress:   mail.To,
			Subject:     mail.Subject,
			Body:        mail.Text,
			ReceivedAt:  d.now().UTC(),
			InReplyTo:   mail.InReplyTo,
			References:  mail.References,
		})
		if err != nil {
			return err
		}
		if err := d.emails.Create(ctx, outbound); err != nil {
			return fmt.Errorf("record confirmation: %w", err)
		}
		if event.EmailID == 0 {
			return nil
		}
		edge, err := ticket.NewThreadEdge(event.EmailID, outbound.ID())
		if err != nil {
			return err
		}
		return d.threads.CreateEdges(ctx, []ticket.ThreadEdge{edge})
	})
}

func (d *Dispatcher) notifySupporter(ctx context.Context, event ticket.Event) error {
	if event.SupporterID == nil {
		return nil
	}
	supporter, err := d.supporters.GetByID(ctx, *event.SupporterID)
	if err != nil {
		if errors.Is(err, ticket.ErrSupporterNotFound) {
			d.logger.Warnw("assigned supporter no longer exists", "supporter_id", *event.SupporterID)
			return nil
		}
		return err
	}
	if !supporter.IsActive() {
		return nil
	}

	text, html, err := d.renderer.Render(event.Kind.String(), TemplateData{
		TicketNumber:  event.TicketNumber,
		Subject:       event.Subject,
		Requester:     event.Requester,
		RecipientName: supporter.Name(),
	})
	if err != nil {
		return err
	}

	prefix := "New reply"
	if event.Kind == ticket.EventTicketReopened {
		prefix = "Reopened"
	}
	return d.send(ctx, Mail{
		MessageID: uuid.NewString() + "@" + d.cfg.MessageIDDomain,
		From:      d.cfg.FromAddress,
		To:        supporter.Email(),
		Subject:   TaggedSubject(event.TicketNumber, prefix+": "+event.Subject),
		Text:      text,
		HTML:      html,
	})
}

func (d *Dispatcher) send(ctx context.Context, mail Mail) error {
	backoff := retry.WithMaxRetries(uint64(d.cfg.MaxAttempts-1), retry.NewExponential(d.cfg.InitialBackoff))
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := d.sender.Send(ctx, mail); err != nil {
			d.logger.Warnw("sending mail failed",
				"to", mail.To,
				"subject", mail.Subject,
				"attempt", attempt,
				"error", err,
			)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("send mail to %s after %d attempts: %w", mail.To, attempt, err)
	}
	d.logger.Infow("mail sent", "to", mail.To, "subject", mail.Subject, "message_id", mail.MessageID)
	return nil
}

// TaggedSubject prefixes subject with the ticket token unless it already
// carries it.
func TaggedSubject(number, subject string) string {
	tag := "[" + number + "]"
	if strings.Contains(strings.ToUpper(subject), strings.ToUpper(tag)) {
		return subject
	}
	if subject == "" {
		return tag
	}
	return tag + " " + subject
}
