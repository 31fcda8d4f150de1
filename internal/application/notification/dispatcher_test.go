package notification_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/helpdesk/internal/application/notification"
	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
	"github.com/orris-inc/helpdesk/internal/infrastructure/database/testutil"
	"github.com/orris-inc/helpdesk/internal/infrastructure/repository"
	"github.com/orris-inc/helpdesk/internal/shared/db"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

type fakeSender struct {
	mu       sync.Mutex
	failures int
	calls    int
	sent     []notification.Mail
}

func (s *fakeSender) Send(ctx context.Context, mail notification.Mail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return errors.New("smtp unavailable")
	}
	s.sent = append(s.sent, mail)
	return nil
}

type stubRenderer struct{}

func (stubRenderer) Render(kind string, data notification.TemplateData) (string, string, error) {
	return kind + " " + data.TicketNumber + " " + data.RecipientName, "<p>" + kind + "</p>", nil
}

type dispatchFixture struct {
	dispatcher *notification.Dispatcher
	sender     *fakeSender
	emails     *repository.EmailRepository
	threads    *repository.ThreadRepository
	supporters *repository.SupporterRepository
	ticketID   uint
	inbound    *ticket.Email
}

func newDispatchFixture(t *testing.T, sender *fakeSender, enabled bool) *dispatchFixture {
	t.Helper()
	ctx := context.Background()
	gdb := testutil.NewDB(t)

	f := &dispatchFixture{
		sender:     sender,
		emails:     repository.NewEmailRepository(gdb),
		threads:    repository.NewThreadRepository(gdb),
		supporters: repository.NewSupporterRepository(gdb),
	}

	tk, err := ticket.NewTicket(1, "Printer broken", "New", time.Now())
	require.NoError(t, err)
	number, err := vo.NewTicketNumber("DEF", 1)
	require.NoError(t, err)
	require.NoError(t, tk.SetNumber(number))
	require.NoError(t, repository.NewTicketRepository(gdb).Create(ctx, tk))
	f.ticketID = tk.ID()

	f.inbound, err = ticket.NewEmail(ticket.EmailParams{
		TicketID:    tk.ID(),
		MessageID:   "m1@example.com",
		Direction:   vo.DirectionInbound,
		FromAddress: "alice@example.com",
		ReceivedAt:  time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, f.emails.Create(ctx, f.inbound))

	f.dispatcher = notification.NewDispatcher(
		sender,
		stubRenderer{},
		db.NewTransactionManager(gdb),
		f.emails,
		f.threads,
		f.supporters,
		notification.DispatcherConfig{
			Enabled:         enabled,
			MaxAttempts:     3,
			InitialBackoff:  time.Millisecond,
			FromAddress:     "support@helpdesk.local",
			MessageIDDomain: "helpdesk.local",
		},
		logger.NewNopLogger(),
	)
	return f
}

func (f *dispatchFixture) createdEvent() ticket.Event {
	return ticket.Event{
		Kind:         ticket.EventTicketCreated,
		TicketID:     f.ticketID,
		TicketNumber: "DEF-1",
		Subject:      "Printer broken",
		EmailID:      f.inbound.ID(),
		MessageID:    "m1@example.com",
		Requester:    "alice@example.com",
	}
}

func TestDispatcher_ConfirmationIsSentAndThreaded(t *testing.T) {
	sender := &fakeSender{failures: 2}
	f := newDispatchFixture(t, sender, true)
	ctx := context.Background()

	f.dispatcher.Notify(ctx, f.createdEvent())
	f.dispatcher.Wait()

	require.Len(t, sender.sent, 1)
	assert.Equal(t, 3, sender.calls)

	mail := sender.sent[0]
	assert.Equal(t, "alice@example.com", mail.To)
	assert.Equal(t, "[DEF-1] Printer broken", mail.Subject)
	assert.Equal(t, "m1@example.com", mail.InReplyTo)
	assert.Equal(t, []string{"m1@example.com"}, mail.References)
	assert.Regexp(t, `^[0-9a-f-]{36}@helpdesk\.local$`, mail.MessageID)

	outbound, err := f.emails.GetByMessageID(ctx, mail.MessageID)
	require.NoError(t, err)
	assert.Equal(t, vo.DirectionOutbound, outbound.Direction())
	assert.Equal(t, f.ticketID, outbound.TicketID())

	edges, err := f.threads.ListByTicket(ctx, f.ticketID)
	require.NoError(t, err)
	assert.Equal(t, []ticket.ThreadEdge{{ParentEmailID: f.inbound.ID(), ChildEmailID: outbound.ID()}}, edges)
}

func TestDispatcher_GivesUpAfterMaxAttempts(t *testing.T) {
	sender := &fakeSender{failures: 10}
	f := newDispatchFixture(t, sender, true)

	err := f.dispatcher.Dispatch(context.Background(), f.createdEvent())
	require.Error(t, err)
	assert.Equal(t, 3, sender.calls)

	emails, err := f.emails.ListByTicket(context.Background(), f.ticketID)
	require.NoError(t, err)
	assert.Len(t, emails, 1)
}

func TestDispatcher_SkipsOwnAddress(t *testing.T) {
	sender := &fakeSender{}
	f := newDispatchFixture(t, sender, true)

	event := f.createdEvent()
	event.Requester = "Support@helpdesk.local"
	require.NoError(t, f.dispatcher.Dispatch(context.Background(), event))
	assert.Empty(t, sender.sent)
}

func TestDispatcher_Disabled(t *testing.T) {
	sender := &fakeSender{}
	f := newDispatchFixture(t, sender, false)

	f.dispatcher.Notify(context.Background(), f.createdEvent())
	f.dispatcher.Wait()
	assert.Zero(t, sender.calls)
}

func TestDispatcher_SupporterNotices(t *testing.T) {
	sender := &fakeSender{}
	f := newDispatchFixture(t, sender, true)
	ctx := context.Background()

	ann, err := ticket.NewSupporter("ann@acme.example", "Ann")
	require.NoError(t, err)
	require.NoError(t, f.supporters.Create(ctx, ann))
	annID := ann.ID()

	reply := ticket.Event{
		Kind:         ticket.EventCustomerReply,
		TicketID:     f.ticketID,
		TicketNumber: "DEF-1",
		Subject:      "Printer broken",
		Requester:    "alice@example.com",
		SupporterID:  &annID,
	}
	require.NoError(t, f.dispatcher.Dispatch(ctx, reply))

	reopened := reply
	reopened.Kind = ticket.EventTicketReopened
	require.NoError(t, f.dispatcher.Dispatch(ctx, reopened))

	unassigned := reply
	unassigned.SupporterID = nil
	require.NoError(t, f.dispatcher.Dispatch(ctx, unassigned))

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "ann@acme.example", sender.sent[0].To)
	assert.Equal(t, "[DEF-1] New reply: Printer broken", sender.sent[0].Subject)
	assert.Equal(t, "customer_reply DEF-1 Ann", sender.sent[0].Text)
	assert.Equal(t, "[DEF-1] Reopened: Printer broken", sender.sent[1].Subject)

	ann.Deactivate()
	require.NoError(t, f.supporters.Update(ctx, ann))
	require.NoError(t, f.dispatcher.Dispatch(ctx, reply))
	assert.Len(t, sender.sent, 2)
}

func TestTaggedSubject(t *testing.T) {
	assert.Equal(t, "[DEF-1] Printer broken", notification.TaggedSubject("DEF-1", "Printer broken"))
	assert.Equal(t, "Re: [def-1] Printer broken", notification.TaggedSubject("DEF-1", "Re: [def-1] Printer broken"))
	assert.Equal(t, "[DEF-1]", notification.TaggedSubject("DEF-1", ""))
}
