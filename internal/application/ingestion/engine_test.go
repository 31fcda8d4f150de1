package ingestion_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/orris-inc/helpdesk/internal/application/ingestion"
	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
	"github.com/orris-inc/helpdesk/internal/infrastructure/database/testutil"
	"github.com/orris-inc/helpdesk/internal/infrastructure/repository"
	"github.com/orris-inc/helpdesk/internal/shared/config"
	"github.com/orris-inc/helpdesk/internal/shared/db"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []ticket.Event
}

func (n *recordingNotifier) Notify(ctx context.Context, event ticket.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) kinds() []ticket.EventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]ticket.EventKind, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Kind)
	}
	return out
}

type recordingReporter struct {
	mu       sync.Mutex
	outcomes []ingestion.Outcome
}

func (r *recordingReporter) Report(ctx context.Context, out ingestion.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, out)
}

type harness struct {
	engine      *ingestion.Engine
	tickets     *repository.TicketRepository
	emails      *repository.EmailRepository
	threads     *repository.ThreadRepository
	supporters  *repository.SupporterRepository
	assignments *repository.AssignmentRepository
	parked      *repository.ParkedMessageRepository
	notifier    *recordingNotifier
	reporter    *recordingReporter
}

type harnessOption func(*harnessSettings)

type harnessSettings struct {
	wrapTx func(ingestion.Transactor) ingestion.Transactor
	openDB func(t *testing.T) *gorm.DB
}

// onSharedDB runs the harness on a file database with several connections
// instead of the single-connection in-memory one.
func onSharedDB(conns int) harnessOption {
	return func(s *harnessSettings) {
		s.openDB = func(t *testing.T) *gorm.DB { return testutil.NewSharedDB(t, conns) }
	}
}

// withTransactor lets a test intercept the transactions of the state updater.
func withTransactor(wrap func(ingestion.Transactor) ingestion.Transactor) harnessOption {
	return func(s *harnessSettings) { s.wrapTx = wrap }
}

func newHarness(t *testing.T, routing config.RoutingConfig, withSupporter bool, opts ...harnessOption) *harness {
	t.Helper()
	ctx := context.Background()

	settings := harnessSettings{
		wrapTx: func(tx ingestion.Transactor) ingestion.Transactor { return tx },
		openDB: func(t *testing.T) *gorm.DB { return testutil.NewDB(t) },
	}
	for _, opt := range opts {
		opt(&settings)
	}
	gdb := settings.openDB(t)

	h := &harness{
		tickets:     repository.NewTicketRepository(gdb),
		emails:      repository.NewEmailRepository(gdb),
		threads:     repository.NewThreadRepository(gdb),
		supporters:  repository.NewSupporterRepository(gdb),
		assignments: repository.NewAssignmentRepository(gdb),
		parked:      repository.NewParkedMessageRepository(gdb),
		notifier:    &recordingNotifier{},
		reporter:    &recordingReporter{},
	}
	queues := repository.NewQueueRepository(gdb)
	statuses := repository.NewStatusRepository(gdb)

	for _, s := range []struct {
		name string
		base vo.BaseStatus
	}{
		{"New", vo.BaseOpen},
		{"In Progress", vo.BaseDoing},
		{"Waiting on Customer", vo.BaseWaiting},
		{"Reopened", vo.BaseOpen},
		{"Closed", vo.BaseClosed},
	} {
		def, err := ticket.NewStatusDefinition(s.name, s.base, "")
		require.NoError(t, err)
		require.NoError(t, statuses.Create(ctx, def))
	}
	for _, q := range []struct{ name, prefix string }{{"Default", "DEF"}, {"Billing", "BILL"}} {
		queue, err := ticket.NewQueue(q.name, q.prefix, "New")
		require.NoError(t, err)
		require.NoError(t, queues.Create(ctx, queue))
	}
	if withSupporter {
		s, err := ticket.NewSupporter("ann@acme.example", "Ann")
		require.NoError(t, err)
		require.NoError(t, h.supporters.Create(ctx, s))
	}

	workflow := config.WorkflowConfig{InitialStatus: "New", ActiveStatus: "In Progress", ReopenStatus: "Reopened"}
	router, err := ingestion.NewRouter(routing)
	require.NoError(t, err)

	log := logger.NewNopLogger()
	updater := ingestion.NewStateUpdater(
		settings.wrapTx(db.NewTransactionManager(gdb)),
		ingestion.UpdaterRepositories{
			Tickets:     h.tickets,
			Emails:      h.emails,
			Threads:     h.threads,
			Assignments: h.assignments,
			Supporters:  h.supporters,
			Statuses:    statuses,
		},
		ticket.NewSequenceNumberGenerator(repository.NewSequenceRepository(gdb)),
		ingestion.NewStatusPolicy(workflow),
		true,
		log,
	)
	clock := &stepClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}

	h.engine = ingestion.NewEngine(
		ingestion.NewNormalizer(0),
		ingestion.NewDedupGuard(nil, h.emails, log),
		ingestion.NewResolver(h.emails, h.tickets, queues, statuses, false, log),
		ingestion.NewAllocator(router, queues, statuses, workflow, log),
		updater,
		h.parked,
		ingestion.EngineConfig{Workers: 4, MaxAttempts: 3, RetryBase: time.Millisecond},
		log,
		ingestion.WithNotifier(h.notifier),
		ingestion.WithOutcomeReporter(h.reporter),
		ingestion.WithClock(clock.Now),
	)
	return h
}

func defaultRouting() config.RoutingConfig {
	return config.RoutingConfig{
		DefaultQueue: "DEF",
		Routes:       []config.RouteConfig{{Pattern: "billing@acme.example", Queue: "BILL"}},
	}
}

type mailSpec struct {
	from, to, subject, id, inReplyTo, references string
}

func (m mailSpec) raw(uid string) ingestion.RawMessage {
	to := m.to
	if to == "" {
		to = "support@acme.example"
	}
	lines := []string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + m.subject,
		"Date: Mon, 02 Mar 2026 08:00:00 +0000",
	}
	if m.id != "" {
		lines = append(lines, "Message-ID: <"+m.id+">")
	}
	if m.inReplyTo != "" {
		lines = append(lines, "In-Reply-To: <"+m.inReplyTo+">")
	}
	if m.references != "" {
		lines = append(lines, "References: "+m.references)
	}
	lines = append(lines, "Content-Type: text/plain; charset=utf-8", "", "body of "+m.subject, "")
	return ingestion.RawMessage{UID: uid, Data: []byte(strings.Join(lines, "\r\n"))}
}

func TestEngine_NewTicketThenReply(t *testing.T) {
	h := newHarness(t, defaultRouting(), false)
	ctx := context.Background()

	first := h.engine.Process(ctx, mailSpec{from: "alice@example.com", subject: "Printer broken", id: "root@example.com"}.raw("1"))
	require.Equal(t, ingestion.OutcomeCreated, first.Kind, first.Reason)
	assert.Equal(t, "DEF-1", first.TicketNumber)
	assert.Equal(t, vo.MatchNone, first.Rule)

	created, err := h.tickets.GetByNumber(ctx, "DEF-1")
	require.NoError(t, err)
	assert.Equal(t, "New", created.StatusName())
	assert.Equal(t, "Printer broken", created.Subject())

	reply := h.engine.Process(ctx, mailSpec{
		from:       "alice@example.com",
		subject:    "Re: Printer broken",
		id:         "reply@example.com",
		inReplyTo:  "root@example.com",
		references: "<root@example.com>",
	}.raw("2"))
	require.Equal(t, ingestion.OutcomeAppended, reply.Kind, reply.Reason)
	assert.Equal(t, vo.MatchInReplyTo, reply.Rule)
	assert.Equal(t, first.TicketID, reply.TicketID)

	updated, err := h.tickets.GetByID(ctx, first.TicketID)
	require.NoError(t, err)
	assert.Equal(t, "In Progress", updated.StatusName())
	assert.True(t, updated.UpdatedAt().After(created.UpdatedAt()))

	emails, err := h.emails.ListByTicket(ctx, first.TicketID)
	require.NoError(t, err)
	require.Len(t, emails, 2)

	edges, err := h.threads.ListByTicket(ctx, first.TicketID)
	require.NoError(t, err)
	assert.Equal(t, []ticket.ThreadEdge{{ParentEmailID: emails[0].ID(), ChildEmailID: emails[1].ID()}}, edges)

	assert.Equal(t, []ticket.EventKind{ticket.EventTicketCreated, ticket.EventCustomerReply}, h.notifier.kinds())
}

func TestEngine_RoutesByRecipient(t *testing.T) {
	h := newHarness(t, defaultRouting(), false)

	out := h.engine.Process(context.Background(), mailSpec{
		from:    "alice@example.com",
		to:      "Billing@acme.example",
		subject: "Invoice question",
		id:      "inv@example.com",
	}.raw("1"))
	require.Equal(t, ingestion.OutcomeCreated, out.Kind, out.Reason)
	assert.Equal(t, "BILL-1", out.TicketNumber)
}

func TestEngine_Idempotent(t *testing.T) {
	h := newHarness(t, defaultRouting(), false)
	ctx := context.Background()
	raw := mailSpec{from: "alice@example.com", subject: "Printer broken", id: "root@example.com"}.raw("1")

	first := h.engine.Process(ctx, raw)
	require.Equal(t, ingestion.OutcomeCreated, first.Kind, first.Reason)

	second := h.engine.Process(ctx, raw)
	assert.Equal(t, ingestion.OutcomeSkipped, second.Kind)
	assert.Equal(t, ingestion.FailureDuplicate, second.Failure)
	assert.True(t, second.Ackable())

	_, total, err := h.tickets.List(ctx, ticket.TicketFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, h.notifier.kinds(), 1)
}

func TestEngine_DuplicateWithinBatch(t *testing.T) {
	h := newHarness(t, defaultRouting(), false)
	raw := mailSpec{from: "alice@example.com", subject: "Printer broken", id: "root@example.com"}.raw("1")

	outcomes := h.engine.ProcessBatch(context.Background(), []ingestion.RawMessage{raw, raw})

	assert.Equal(t, ingestion.OutcomeCreated, outcomes[0].Kind, outcomes[0].Reason)
	assert.Equal(t, ingestion.OutcomeSkipped, outcomes[1].Kind)
	assert.Equal(t, ingestion.FailureDuplicate, outcomes[1].Failure)
}

func TestEngine_BatchKeepsThreadTogether(t *testing.T) {
	root := mailSpec{from: "alice@example.com", subject: "Printer broken", id: "root@example.com"}
	reply := mailSpec{
		from:       "alice@example.com",
		subject:    "Re: Printer broken",
		id:         "reply@example.com",
		inReplyTo:  "root@example.com",
		references: "<root@example.com>",
	}
	followUp := mailSpec{
		from:       "bob@example.com",
		subject:    "Re: Printer broken",
		id:         "follow@example.com",
		references: "<root@example.com> <reply@example.com>",
	}
	unrelated := mailSpec{from: "carol@example.com", subject: "Invoice", id: "inv@example.com"}

	tests := []struct {
		name  string
		batch []mailSpec
	}{
		{"parent first", []mailSpec{root, reply, followUp, unrelated}},
		{"reply first", []mailSpec{followUp, reply, unrelated, root}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Run repeatedly so a scheduling race would show up.
			for run := 0; run < 10; run++ {
				h := newHarness(t, defaultRouting(), false)
				ctx := context.Background()

				msgs := make([]ingestion.RawMessage, len(tt.batch))
				for i, m := range tt.batch {
					msgs[i] = m.raw(fmt.Sprint(i))
				}
				outcomes := h.engine.ProcessBatch(ctx, msgs)

				byID := map[string]ingestion.Outcome{}
				for i, o := range outcomes {
					assert.Equal(t, fmt.Sprint(i), o.SourceUID)
					byID[o.MessageID] = o
				}

				parent := byID["root@example.com"]
				require.Equal(t, ingestion.OutcomeCreated, parent.Kind, parent.Reason)
				for _, id := range []string{"reply@example.com", "follow@example.com"} {
					o := byID[id]
					require.Equal(t, ingestion.OutcomeAppended, o.Kind, "run %d %s: %s", run, id, o.Reason)
					assert.Equal(t, parent.TicketID, o.TicketID)
				}
				assert.Equal(t, ingestion.OutcomeCreated, byID["inv@example.com"].Kind)

				_, total, err := h.tickets.List(ctx, ticket.TicketFilter{})
				require.NoError(t, err)
				assert.EqualValues(t, 2, total)
			}
		})
	}
}

func TestEngine_BatchParksMalformedAlongsideThread(t *testing.T) {
	h := newHarness(t, defaultRouting(), false)
	ctx := context.Background()

	outcomes := h.engine.ProcessBatch(ctx, []ingestion.RawMessage{
		{UID: "bad", Data: []byte("Subject: no sender\r\n\r\nbody")},
		mailSpec{from: "alice@example.com", subject: "Printer broken", id: "root@example.com"}.raw("1"),
	})

	assert.Equal(t, ingestion.FailureNormalization, outcomes[0].Failure)
	assert.NotZero(t, outcomes[0].ParkedID)
	assert.Equal(t, ingestion.OutcomeCreated, outcomes[1].Kind, outcomes[1].Reason)
}

func TestEngine_ReferencesFallback(t *testing.T) {
	h := newHarness(t, defaultRouting(), false)
	ctx := context.Background()

	first := h.engine.Process(ctx, mailSpec{from: "alice@example.com", subject: "Printer broken", id: "root@example.com"}.raw("1"))
	require.Equal(t, ingestion.OutcomeCreated, first.Kind, first.Reason)

	out := h.engine.Process(ctx, mailSpec{
		from:       "bob@example.com",
		subject:    "Re: Printer broken",
		id:         "late@example.com",
		inReplyTo:  "never-seen@example.com",
		references: "<root@example.com> <never-seen@example.com>",
	}.raw("2"))
	require.Equal(t, ingestion.OutcomeAppended, out.Kind, out.Reason)
	assert.Equal(t, vo.MatchReferences, out.Rule)
	assert.Equal(t, first.TicketID, out.TicketID)
}

func TestEngine_SubjectTokenFallback(t *testing.T) {
	h := newHarness(t, defaultRouting(), false)
	ctx := context.Background()

	first := h.engine.Process(ctx, mailSpec{from: "alice@example.com", subject: "Printer broken", id: "root@example.com"}.raw("1"))
	require.Equal(t, ingestion.OutcomeCreated, first.Kind, first.Reason)

	out := h.engine.Process(ctx, mailSpec{from: "alice@example.com", subject: "Re: [DEF-1] Printer broken", id: "fresh@example.com"}.raw("2"))
	require.Equal(t, ingestion.OutcomeAppended, out.Kind, out.Reason)
	assert.Equal(t, vo.MatchSubjectToken, out.Rule)

	edges, err := h.threads.ListByTicket(ctx, first.TicketID)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestEngine_ClosedTicket(t *testing.T) {
	h := newHarness(t, defaultRouting(), false)
	ctx := context.Background()

	first := h.engine.Process(ctx, mailSpec{from: "alice@example.com", subject: "Printer broken", id: "root@example.com"}.raw("1"))
	require.Equal(t, ingestion.OutcomeCreated, first.Kind, first.Reason)

	tk, err := h.tickets.GetByID(ctx, first.TicketID)
	require.NoError(t, err)
	require.NoError(t, tk.ChangeStatus("Closed", time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)))
	require.NoError(t, h.tickets.Update(ctx, tk))

	bySubject := h.engine.Process(ctx, mailSpec{from: "alice@example.com", subject: "Re: [DEF-1] again", id: "s@example.com"}.raw("2"))
	require.Equal(t, ingestion.OutcomeCreated, bySubject.Kind, bySubject.Reason)
	assert.Equal(t, "DEF-2", bySubject.TicketNumber)

	byHeader := h.engine.Process(ctx, mailSpec{
		from:      "alice@example.com",
		subject:   "Re: Printer broken",
		id:        "h@example.com",
		inReplyTo: "root@example.com",
	}.raw("3"))
	require.Equal(t, ingestion.OutcomeAppended, byHeader.Kind, byHeader.Reason)
	assert.True(t, byHeader.Reopened)

	reopened, err := h.tickets.GetByID(ctx, first.TicketID)
	require.NoError(t, err)
	assert.Equal(t, "Reopened", reopened.StatusName())

	kinds := h.notifier.kinds()
	assert.Equal(t, ticket.EventTicketReopened, kinds[len(kinds)-1])
}

func TestEngine_ConcurrentNewTicketsGetDistinctNumbers(t *testing.T) {
	t.Run("single connection", func(t *testing.T) {
		// Transactions serialize on the one connection, so this only checks
		// allocation order.
		assertDistinctNumbers(t, newHarness(t, defaultRouting(), false))
	})
	t.Run("several connections", func(t *testing.T) {
		assertDistinctNumbers(t, newHarness(t, defaultRouting(), false, onSharedDB(4)))
	})
}

func assertDistinctNumbers(t *testing.T, h *harness) {
	t.Helper()
	const n = 12
	msgs := make([]ingestion.RawMessage, n)
	for i := range msgs {
		msgs[i] = mailSpec{
			from:    fmt.Sprintf("user%d@example.com", i),
			subject: fmt.Sprintf("Issue %d", i),
			id:      fmt.Sprintf("issue-%d@example.com", i),
		}.raw(fmt.Sprint(i))
	}

	outcomes := h.engine.ProcessBatch(context.Background(), msgs)

	numbers := map[string]bool{}
	for i, o := range outcomes {
		require.Equal(t, ingestion.OutcomeCreated, o.Kind, o.Reason)
		assert.Equal(t, fmt.Sprint(i), o.SourceUID)
		assert.False(t, numbers[o.TicketNumber], "number %s handed out twice", o.TicketNumber)
		numbers[o.TicketNumber] = true
	}
	for i := 1; i <= n; i++ {
		assert.True(t, numbers[fmt.Sprintf("DEF-%d", i)])
	}
}

func TestEngine_ParksUnparseableMessage(t *testing.T) {
	h := newHarness(t, defaultRouting(), false)
	ctx := context.Background()

	out := h.engine.Process(ctx, ingestion.RawMessage{UID: "bad", Data: []byte("Subject: no sender\r\n\r\nbody")})
	assert.Equal(t, ingestion.OutcomeFailed, out.Kind)
	assert.Equal(t, ingestion.FailureNormalization, out.Failure)
	assert.NotZero(t, out.ParkedID)
	assert.True(t, out.Ackable())

	parked, err := h.parked.GetByID(ctx, out.ParkedID)
	require.NoError(t, err)
	assert.Equal(t, "bad", parked.SourceUID())
	assert.Contains(t, parked.Reason(), "missing From header")
}

func TestEngine_SameMalformedBytesParkedOnce(t *testing.T) {
	h := newHarness(t, defaultRouting(), false)
	ctx := context.Background()
	raw := ingestion.RawMessage{UID: "pop-7", Data: []byte("Subject: no sender\r\n\r\nbody")}

	first := h.engine.Process(ctx, raw)
	require.NotZero(t, first.ParkedID)

	second := h.engine.Process(ctx, raw)
	assert.Equal(t, ingestion.FailureNormalization, second.Failure)
	assert.Equal(t, first.ParkedID, second.ParkedID)
	assert.True(t, second.Ackable())

	raw.UID = "http:retry"
	pushed := h.engine.Process(ctx, raw)
	assert.Equal(t, first.ParkedID, pushed.ParkedID)

	_, total, err := h.parked.List(ctx, ticket.ParkedFilter{IncludeResolved: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestEngine_NoQueueResolved(t *testing.T) {
	h := newHarness(t, config.RoutingConfig{}, false)

	out := h.engine.Process(context.Background(), mailSpec{from: "alice@example.com", subject: "Hello", id: "x@example.com"}.raw("1"))
	assert.Equal(t, ingestion.OutcomeFailed, out.Kind)
	assert.Equal(t, ingestion.FailureNoQueue, out.Failure)
	assert.Equal(t, 1, out.Attempts)
	assert.True(t, out.Ackable())

	exists, err := h.emails.ExistsByMessageID(context.Background(), "x@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestEngine_AutoAssignsLeastLoadedSupporter(t *testing.T) {
	h := newHarness(t, defaultRouting(), true)
	ctx := context.Background()

	out := h.engine.Process(ctx, mailSpec{from: "alice@example.com", subject: "Printer broken", id: "root@example.com"}.raw("1"))
	require.Equal(t, ingestion.OutcomeCreated, out.Kind, out.Reason)

	tk, err := h.tickets.GetByID(ctx, out.TicketID)
	require.NoError(t, err)
	require.NotNil(t, tk.AssignedSupporterID())

	assignments, err := h.assignments.ListByTicket(ctx, out.TicketID)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, *tk.AssignedSupporterID(), assignments[0].SupporterID())

	h.notifier.mu.Lock()
	defer h.notifier.mu.Unlock()
	require.Len(t, h.notifier.events, 1)
	assert.Equal(t, tk.AssignedSupporterID(), h.notifier.events[0].SupporterID)
}

func TestEngine_ReportsEveryOutcome(t *testing.T) {
	h := newHarness(t, defaultRouting(), false)
	ctx := context.Background()
	raw := mailSpec{from: "alice@example.com", subject: "Printer broken", id: "root@example.com"}.raw("1")

	h.engine.Process(ctx, raw)
	h.engine.Process(ctx, raw)
	h.engine.Process(ctx, ingestion.RawMessage{UID: "bad", Data: []byte("garbage")})

	h.reporter.mu.Lock()
	defer h.reporter.mu.Unlock()
	require.Len(t, h.reporter.outcomes, 3)
	assert.Equal(t, ingestion.OutcomeCreated, h.reporter.outcomes[0].Kind)
	assert.Equal(t, ingestion.OutcomeSkipped, h.reporter.outcomes[1].Kind)
	assert.Equal(t, ingestion.OutcomeFailed, h.reporter.outcomes[2].Kind)
}

// flakyTransactor fails the next `failures` transactions with err before
// they start; a negative count fails every one. before runs ahead of each
// transaction that is let through.
type flakyTransactor struct {
	inner ingestion.Transactor

	mu       sync.Mutex
	failures int
	err      error
	calls    int
	before   func()
}

func (f *flakyTransactor) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	f.calls++
	fail := f.failures != 0
	if f.failures > 0 {
		f.failures--
	}
	before := f.before
	f.before = nil
	f.mu.Unlock()

	if fail {
		return f.err
	}
	if before != nil {
		before()
	}
	return f.inner.RunInTransaction(ctx, fn)
}

func newFlakyHarness(t *testing.T, failures int, err error) (*harness, *flakyTransactor) {
	t.Helper()
	flaky := &flakyTransactor{failures: failures, err: err}
	h := newHarness(t, defaultRouting(), false, withTransactor(func(tx ingestion.Transactor) ingestion.Transactor {
		flaky.inner = tx
		return flaky
	}))
	return h, flaky
}

func TestEngine_RetriesTransientFailures(t *testing.T) {
	conflict := fmt.Errorf("lock ticket: %w", ticket.ErrTransactionConflict)
	timeout := fmt.Errorf("insert email: %w", ticket.ErrTimeout)

	tests := []struct {
		name         string
		failures     int
		err          error
		wantKind     ingestion.OutcomeKind
		wantFailure  ingestion.FailureKind
		wantAttempts int
	}{
		{"conflict then success", 2, conflict, ingestion.OutcomeCreated, ingestion.FailureNone, 3},
		{"persistent conflict", -1, conflict, ingestion.OutcomeFailed, ingestion.FailureConflict, 3},
		{"persistent timeout", -1, timeout, ingestion.OutcomeFailed, ingestion.FailureTimeout, 3},
		{"internal error is not retried", -1, errors.New("disk full"), ingestion.OutcomeFailed, ingestion.FailureInternal, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, flaky := newFlakyHarness(t, tt.failures, tt.err)
			ctx := context.Background()

			out := h.engine.Process(ctx, mailSpec{from: "alice@example.com", subject: "Printer broken", id: "root@example.com"}.raw("1"))

			assert.Equal(t, tt.wantKind, out.Kind, out.Reason)
			assert.Equal(t, tt.wantFailure, out.Failure)
			assert.Equal(t, tt.wantAttempts, out.Attempts)
			assert.Equal(t, tt.wantAttempts, flaky.calls)

			exists, err := h.emails.ExistsByMessageID(ctx, "root@example.com")
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind == ingestion.OutcomeCreated, exists)

			if tt.wantKind == ingestion.OutcomeCreated {
				// failed attempts never reached the counter
				assert.Equal(t, "DEF-1", out.TicketNumber)
				return
			}
			assert.True(t, out.Failure.Transient())
			assert.False(t, out.Ackable(), "a transient failure must stay on the server")
		})
	}
}

func TestEngine_FailedMessageSucceedsOnRefetch(t *testing.T) {
	h, flaky := newFlakyHarness(t, -1, ticket.ErrTransactionConflict)
	ctx := context.Background()
	raw := mailSpec{from: "alice@example.com", subject: "Printer broken", id: "root@example.com"}.raw("1")

	first := h.engine.Process(ctx, raw)
	require.Equal(t, ingestion.FailureConflict, first.Failure)
	assert.False(t, first.Ackable())

	flaky.mu.Lock()
	flaky.failures = 0
	flaky.mu.Unlock()

	second := h.engine.Process(ctx, raw)
	require.Equal(t, ingestion.OutcomeCreated, second.Kind, second.Reason)
	assert.Equal(t, "DEF-1", second.TicketNumber)
}

func TestEngine_SubjectMatchClosedInsideTransaction(t *testing.T) {
	h, flaky := newFlakyHarness(t, 0, nil)
	ctx := context.Background()

	first := h.engine.Process(ctx, mailSpec{from: "alice@example.com", subject: "Printer broken", id: "root@example.com"}.raw("1"))
	require.Equal(t, ingestion.OutcomeCreated, first.Kind, first.Reason)

	// The ticket is still open when the reply is resolved and gets closed
	// before the reply's transaction starts.
	flaky.mu.Lock()
	flaky.before = func() {
		tk, err := h.tickets.GetByID(ctx, first.TicketID)
		require.NoError(t, err)
		require.NoError(t, tk.ChangeStatus("Closed", time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)))
		require.NoError(t, h.tickets.Update(ctx, tk))
	}
	flaky.mu.Unlock()

	out := h.engine.Process(ctx, mailSpec{from: "alice@example.com", subject: "Re: [DEF-1] still broken", id: "late@example.com"}.raw("2"))

	require.Equal(t, ingestion.OutcomeCreated, out.Kind, out.Reason)
	assert.Equal(t, "DEF-2", out.TicketNumber)
	assert.Equal(t, 2, out.Attempts)

	closed, err := h.tickets.GetByID(ctx, first.TicketID)
	require.NoError(t, err)
	assert.Equal(t, "Closed", closed.StatusName())
	emails, err := h.emails.ListByTicket(ctx, first.TicketID)
	require.NoError(t, err)
	assert.Len(t, emails, 1)
}
