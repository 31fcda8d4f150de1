package ingestion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
	"github.com/orris-inc/helpdesk/internal/shared/config"
)

var fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

var testWorkflow = config.WorkflowConfig{
	InitialStatus: "New",
	ActiveStatus:  "In Progress",
	ReopenStatus:  "Reopened",
}

func defaultStatuses(t *testing.T) *mockStatusRepository {
	t.Helper()
	var defs []*ticket.StatusDefinition
	for i, s := range []struct {
		name string
		base vo.BaseStatus
	}{
		{"New", vo.BaseOpen},
		{"In Progress", vo.BaseDoing},
		{"Waiting on Customer", vo.BaseWaiting},
		{"Reopened", vo.BaseOpen},
		{"Closed", vo.BaseClosed},
	} {
		d, err := ticket.ReconstructStatusDefinition(uint(i+1), s.name, s.base, "")
		require.NoError(t, err)
		defs = append(defs, d)
	}
	return newMockStatusRepository(defs...)
}

func storedTicket(t *testing.T, id uint, number, status string) *ticket.Ticket {
	t.Helper()
	tk, err := ticket.ReconstructTicket(id, number, 1, "Printer broken", status, nil, fixedNow, fixedNow)
	require.NoError(t, err)
	return tk
}

func storedEmail(t *testing.T, id, ticketID uint, messageID string) *ticket.Email {
	t.Helper()
	e, err := ticket.ReconstructEmail(id, ticket.EmailParams{
		TicketID:    ticketID,
		MessageID:   messageID,
		Direction:   vo.DirectionInbound,
		FromAddress: "alice@example.com",
		ReceivedAt:  fixedNow,
	}, fixedNow)
	require.NoError(t, err)
	return e
}

func storedQueue(t *testing.T, id uint, prefix, defaultStatus string) *ticket.Queue {
	t.Helper()
	q, err := ticket.ReconstructQueue(id, prefix+" queue", prefix, defaultStatus)
	require.NoError(t, err)
	return q
}
