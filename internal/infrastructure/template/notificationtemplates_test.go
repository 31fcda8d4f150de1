package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/helpdesk/internal/application/notification"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

func TestNotificationTemplates_RenderBuiltIn(t *testing.T) {
	tmpl, err := NewNotificationTemplates(logger.NewNopLogger())
	require.NoError(t, err)

	text, html, err := tmpl.Render("ticket_created", notification.TemplateData{TicketNumber: "DEF-1", Subject: "Printer broken"})
	require.NoError(t, err)

	assert.Contains(t, text, "**DEF-1**")
	assert.Contains(t, text, "[DEF-1]")
	assert.Contains(t, html, "<strong>DEF-1</strong>")
	assert.Contains(t, html, "<blockquote>")

	for _, kind := range []string{"customer_reply", "ticket_reopened"} {
		_, _, err := tmpl.Render(kind, notification.TemplateData{TicketNumber: "DEF-1", Requester: "alice@example.com", RecipientName: "Ann"})
		assert.NoError(t, err, kind)
	}
}

func TestNotificationTemplates_EscapesInjectedMarkup(t *testing.T) {
	tmpl, err := NewNotificationTemplates(logger.NewNopLogger())
	require.NoError(t, err)

	_, html, err := tmpl.Render("ticket_created", notification.TemplateData{TicketNumber: "DEF-1", Subject: `<script>alert(1)</script>`})
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}

func TestNotificationTemplates_LoadDirOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ticket_created.md"), []byte("Custom {{.TicketNumber}}"), 0o644))

	tmpl, err := NewNotificationTemplates(logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, tmpl.LoadDir(dir))
	require.NoError(t, tmpl.LoadDir(filepath.Join(dir, "missing")))

	text, _, err := tmpl.Render("ticket_created", notification.TemplateData{TicketNumber: "DEF-7"})
	require.NoError(t, err)
	assert.Equal(t, "Custom DEF-7", text)

	_, _, err = tmpl.Render("unknown", notification.TemplateData{})
	assert.Error(t, err)
}

func TestNotificationTemplates_LoadDirRejectsBrokenTemplate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ticket_created.md"), []byte("{{.TicketNumber"), 0o644))

	tmpl, err := NewNotificationTemplates(logger.NewNopLogger())
	require.NoError(t, err)
	assert.Error(t, tmpl.LoadDir(dir))
}
