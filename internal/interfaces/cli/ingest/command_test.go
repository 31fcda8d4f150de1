package ingest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/helpdesk/internal/application/ingestion"
)

func TestReadMessages_KeepsArgumentOrder(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.eml")
	second := filepath.Join(dir, "b.eml")
	require.NoError(t, os.WriteFile(first, []byte("first"), 0o600))
	require.NoError(t, os.WriteFile(second, []byte("second"), 0o600))

	msgs, err := readMessages(context.Background(), strings.NewReader("piped"), []string{second, "-", first})
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	assert.Equal(t, second, msgs[0].UID)
	assert.Equal(t, stdinUID, msgs[1].UID)
	assert.Equal(t, "piped", string(msgs[1].Data))
	assert.Equal(t, first, msgs[2].UID)
}

func TestReadMessages_MissingFile(t *testing.T) {
	_, err := readMessages(context.Background(), strings.NewReader(""), []string{filepath.Join(t.TempDir(), "nope.eml")})
	assert.Error(t, err)
}

func TestPrintOutcomes(t *testing.T) {
	outcomes := []ingestion.Outcome{
		{Kind: ingestion.OutcomeCreated, SourceUID: "a.eml", TicketNumber: "DEF-1"},
		{Kind: ingestion.OutcomeFailed, SourceUID: "b.eml", Failure: ingestion.FailureNormalization, Reason: "missing From header", ParkedID: 7},
	}

	var table bytes.Buffer
	require.NoError(t, printOutcomes(&table, outcomes, false))
	assert.Contains(t, table.String(), "DEF-1")
	assert.Contains(t, table.String(), "parked #7: missing From header")

	var lines bytes.Buffer
	require.NoError(t, printOutcomes(&lines, outcomes, true))
	rows := strings.Split(strings.TrimSpace(lines.String()), "\n")
	require.Len(t, rows, 2)
	assert.Contains(t, rows[0], `"kind":"created"`)
	assert.Contains(t, rows[1], `"parked_id":7`)
}
