package mailsource

import (
	"context"
	"errors"
	"testing"

	"github.com/emersion/go-imap/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/helpdesk/internal/shared/config"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

type fakeSession struct {
	validity  uint32
	unseen    []imap.UID
	bodies    map[imap.UID]string
	searchErr error

	fetched  [][]imap.UID
	flagged  map[imap.UID][]imap.Flag
	expunged []imap.UID
	logouts  int
}

func newFakeFolder() *fakeSession {
	return &fakeSession{
		validity: 7,
		unseen:   []imap.UID{3, 5, 9},
		bodies:   map[imap.UID]string{3: "three", 5: "five", 9: "nine"},
		flagged:  make(map[imap.UID][]imap.Flag),
	}
}

func (f *fakeSession) UIDValidity() uint32 { return f.validity }

func (f *fakeSession) SearchUnseen() ([]imap.UID, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []imap.UID
	for _, uid := range f.unseen {
		if !f.hasFlag(uid, imap.FlagSeen) {
			out = append(out, uid)
		}
	}
	return out, nil
}

func (f *fakeSession) FetchRaw(uids []imap.UID) (map[imap.UID][]byte, error) {
	f.fetched = append(f.fetched, uids)
	out := make(map[imap.UID][]byte)
	for _, uid := range uids {
		if body, ok := f.bodies[uid]; ok {
			out[uid] = []byte(body)
		}
	}
	return out, nil
}

func (f *fakeSession) AddFlags(uids []imap.UID, flags ...imap.Flag) error {
	for _, uid := range uids {
		f.flagged[uid] = append(f.flagged[uid], flags...)
	}
	return nil
}

func (f *fakeSession) Expunge(uids []imap.UID) error {
	f.expunged = append(f.expunged, uids...)
	return nil
}

func (f *fakeSession) Logout() error {
	f.logouts++
	return nil
}

func (f *fakeSession) hasFlag(uid imap.UID, flag imap.Flag) bool {
	for _, got := range f.flagged[uid] {
		if got == flag {
			return true
		}
	}
	return false
}

func testIMAPSource(session *fakeSession, cfg config.MailboxConfig) *IMAPSource {
	return newIMAPSource(cfg, func() (imapSession, error) { return session, nil }, logger.NewNopLogger())
}

func TestIMAPSource_FetchAckMarksSeen(t *testing.T) {
	folder := newFakeFolder()
	src := testIMAPSource(folder, config.MailboxConfig{BatchSize: 10})
	ctx := context.Background()

	msgs, err := src.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "7.3", msgs[0].UID)
	assert.Equal(t, "three", string(msgs[0].Data))
	assert.Equal(t, "7.9", msgs[2].UID)
	assert.False(t, msgs[0].FetchedAt.IsZero())

	require.NoError(t, src.Ack(ctx, []string{"7.3", "7.9", "unknown"}))
	assert.Equal(t, []imap.Flag{imap.FlagSeen}, folder.flagged[3])
	assert.Equal(t, []imap.Flag{imap.FlagSeen}, folder.flagged[9])
	assert.Empty(t, folder.flagged[5])
	assert.Empty(t, folder.expunged)

	// Only the unacked message is unseen on the next fetch.
	msgs, err = src.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "7.5", msgs[0].UID)
	assert.Equal(t, 1, folder.logouts)

	require.NoError(t, src.Close())
	assert.Equal(t, 2, folder.logouts)
	require.NoError(t, src.Close())
	assert.Equal(t, 2, folder.logouts)
}

func TestIMAPSource_DeleteAfterFetchExpunges(t *testing.T) {
	folder := newFakeFolder()
	src := testIMAPSource(folder, config.MailboxConfig{BatchSize: 10, DeleteAfterFetch: true})
	ctx := context.Background()

	_, err := src.Fetch(ctx)
	require.NoError(t, err)
	require.NoError(t, src.Ack(ctx, []string{"7.5"}))

	assert.True(t, folder.hasFlag(5, imap.FlagDeleted))
	assert.True(t, folder.hasFlag(5, imap.FlagSeen))
	assert.Equal(t, []imap.UID{5}, folder.expunged)
	assert.False(t, folder.hasFlag(3, imap.FlagDeleted))
}

func TestIMAPSource_BatchSize(t *testing.T) {
	folder := newFakeFolder()
	src := testIMAPSource(folder, config.MailboxConfig{BatchSize: 2})

	msgs, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
	require.Len(t, folder.fetched, 1)
	assert.Equal(t, []imap.UID{3, 5}, folder.fetched[0])
}

func TestIMAPSource_SkipsMessageExpungedBeforeFetch(t *testing.T) {
	folder := newFakeFolder()
	delete(folder.bodies, 5)
	src := testIMAPSource(folder, config.MailboxConfig{BatchSize: 10})

	msgs, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "7.3", msgs[0].UID)
	assert.Equal(t, "7.9", msgs[1].UID)
}

func TestIMAPSource_EmptyFolder(t *testing.T) {
	folder := newFakeFolder()
	folder.unseen = nil
	src := testIMAPSource(folder, config.MailboxConfig{BatchSize: 10})

	msgs, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Empty(t, folder.fetched)
}

func TestIMAPSource_Errors(t *testing.T) {
	t.Run("dial", func(t *testing.T) {
		src := newIMAPSource(config.MailboxConfig{Host: "mail.example", Port: 993},
			func() (imapSession, error) { return nil, errors.New("connection refused") },
			logger.NewNopLogger())

		_, err := src.Fetch(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mail.example:993")
	})

	t.Run("search", func(t *testing.T) {
		folder := newFakeFolder()
		folder.searchErr = errors.New("NO mailbox busy")
		src := testIMAPSource(folder, config.MailboxConfig{Folder: "Support", BatchSize: 10})

		_, err := src.Fetch(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "search unseen in Support")
	})

	t.Run("ack without session", func(t *testing.T) {
		src := testIMAPSource(newFakeFolder(), config.MailboxConfig{})
		assert.Error(t, src.Ack(context.Background(), []string{"7.3"}))
	})
}

func TestIMAPUIDKey(t *testing.T) {
	assert.Equal(t, "7.3", imapUIDKey(7, 3))
	assert.NotEqual(t, imapUIDKey(7, 3), imapUIDKey(8, 3))
}
