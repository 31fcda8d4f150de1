package mailsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/helpdesk/internal/shared/config"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
}

func TestDirectorySource_FetchInNameOrder(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"002.eml":   "second",
		"001.eml":   "first",
		"003.EML":   "third",
		"notes.txt": "ignored",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.eml"), 0o755))

	src := NewDirectorySource(dir, "", 2, logger.NewNopLogger())
	msgs, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "001.eml", msgs[0].UID)
	assert.Equal(t, "first", string(msgs[0].Data))
	assert.Equal(t, "002.eml", msgs[1].UID)
}

func TestDirectorySource_AckMovesToProcessed(t *testing.T) {
	dir := t.TempDir()
	processed := filepath.Join(t.TempDir(), "done")
	writeFiles(t, dir, map[string]string{"a.eml": "a", "b.eml": "b"})

	src := NewDirectorySource(dir, processed, 10, logger.NewNopLogger())
	ctx := context.Background()
	_, err := src.Fetch(ctx)
	require.NoError(t, err)

	require.NoError(t, src.Ack(ctx, []string{"a.eml", "gone.eml"}))
	assert.FileExists(t, filepath.Join(processed, "a.eml"))
	assert.NoFileExists(t, filepath.Join(dir, "a.eml"))

	msgs, err := src.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "b.eml", msgs[0].UID)
}

func TestDirectorySource_AckRemovesWithoutProcessedDir(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.eml": "a"})

	src := NewDirectorySource(dir, "", 10, logger.NewNopLogger())
	require.NoError(t, src.Ack(context.Background(), []string{"a.eml"}))
	assert.NoFileExists(t, filepath.Join(dir, "a.eml"))
}

func TestDirectorySource_AckRejectsPaths(t *testing.T) {
	dir := t.TempDir()
	src := NewDirectorySource(dir, "", 10, logger.NewNopLogger())
	assert.Error(t, src.Ack(context.Background(), []string{"../etc/passwd"}))
}

func TestDirectorySource_MissingDirectory(t *testing.T) {
	src := NewDirectorySource(filepath.Join(t.TempDir(), "missing"), "", 10, logger.NewNopLogger())
	_, err := src.Fetch(context.Background())
	assert.Error(t, err)
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"x.eml": "x"})
	path := filepath.Join(dir, "x.eml")

	src := NewFileSource([]string{path})
	msgs, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, path, msgs[0].UID)

	require.NoError(t, src.Ack(context.Background(), []string{path}))
	assert.FileExists(t, path)

	_, err = NewFileSource([]string{filepath.Join(dir, "missing.eml")}).Fetch(context.Background())
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	log := logger.NewNopLogger()

	src, err := New(config.MailboxConfig{Source: "pop3", Host: "mail.example", Port: 995}, log)
	require.NoError(t, err)
	assert.IsType(t, &POP3Source{}, src)

	src, err = New(config.MailboxConfig{Source: "directory", Directory: t.TempDir()}, log)
	require.NoError(t, err)
	assert.IsType(t, &DirectorySource{}, src)

	_, err = New(config.MailboxConfig{Source: "pop3"}, log)
	assert.Error(t, err)
	src, err = New(config.MailboxConfig{Source: "imap", Host: "mail.example", Port: 993}, log)
	require.NoError(t, err)
	assert.IsType(t, &IMAPSource{}, src)

	_, err = New(config.MailboxConfig{Source: "imap"}, log)
	assert.Error(t, err)
	_, err = New(config.MailboxConfig{Source: "maildir"}, log)
	assert.Error(t, err)
}
