package mailsource

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/orris-inc/helpdesk/internal/application/ingestion"
	"github.com/orris-inc/helpdesk/internal/shared/config"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

// imapSession is a logged-in session with the mailbox folder selected.
type imapSession interface {
	UIDValidity() uint32
	SearchUnseen() ([]imap.UID, error)
	FetchRaw(uids []imap.UID) (map[imap.UID][]byte, error)
	AddFlags(uids []imap.UID, flags ...imap.Flag) error
	Expunge(uids []imap.UID) error
	Logout() error
}

type imapDialFunc func() (imapSession, error)

// IMAPSource reads unseen mail from one folder. Bodies are fetched with
// BODY.PEEK so a batch that is never acked stays unseen and comes back on the
// next fetch. Ack sets \Seen, or \Deleted plus an expunge when
// delete_after_fetch is on.
type IMAPSource struct {
	cfg    config.MailboxConfig
	dial   imapDialFunc
	now    func() time.Time
	logger logger.Interface

	mu      sync.Mutex
	session imapSession
	uids    map[string]imap.UID
}

func NewIMAPSource(cfg config.MailboxConfig, log logger.Interface) *IMAPSource {
	if cfg.Folder == "" {
		cfg.Folder = "INBOX"
	}
	return newIMAPSource(cfg, func() (imapSession, error) { return dialIMAP(cfg) }, log)
}

func newIMAPSource(cfg config.MailboxConfig, dial imapDialFunc, log logger.Interface) *IMAPSource {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &IMAPSource{cfg: cfg, dial: dial, now: time.Now, logger: log}
}

func (s *IMAPSource) Fetch(ctx context.Context) ([]ingestion.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		s.logoutLocked()
	}

	session, err := s.dial()
	if err != nil {
		return nil, fmt.Errorf("connect to %s:%d: %w", s.cfg.Host, s.cfg.Port, err)
	}
	s.session = session
	s.uids = make(map[string]imap.UID)

	unseen, err := session.SearchUnseen()
	if err != nil {
		return nil, fmt.Errorf("search unseen in %s: %w", s.cfg.Folder, err)
	}
	if len(unseen) > s.cfg.BatchSize {
		unseen = unseen[:s.cfg.BatchSize]
	}
	if len(unseen) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bodies, err := session.FetchRaw(unseen)
	if err != nil {
		return nil, fmt.Errorf("fetch %d messages: %w", len(unseen), err)
	}

	validity := session.UIDValidity()
	fetchedAt := s.now().UTC()
	msgs := make([]ingestion.RawMessage, 0, len(unseen))
	for _, uid := range unseen {
		data, ok := bodies[uid]
		if !ok {
			// Expunged by another client between SEARCH and FETCH.
			s.logger.Warnw("unseen message vanished before fetch", "imap_uid", uint32(uid))
			continue
		}
		key := imapUIDKey(validity, uid)
		s.uids[key] = uid
		msgs = append(msgs, ingestion.RawMessage{
			UID:       key,
			Data:      data,
			FetchedAt: fetchedAt,
		})
	}

	s.logger.Debugw("fetched messages from mailbox",
		"host", s.cfg.Host,
		"folder", s.cfg.Folder,
		"count", len(msgs),
	)
	return msgs, nil
}

func (s *IMAPSource) Ack(ctx context.Context, uids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(uids) == 0 {
		return nil
	}
	if s.session == nil {
		return errors.New("ack without an open session")
	}

	acked := make([]imap.UID, 0, len(uids))
	for _, key := range uids {
		uid, ok := s.uids[key]
		if !ok {
			s.logger.Warnw("ack for unknown message uid", "uid", key)
			continue
		}
		acked = append(acked, uid)
	}
	if len(acked) == 0 {
		return nil
	}

	if !s.cfg.DeleteAfterFetch {
		if err := s.session.AddFlags(acked, imap.FlagSeen); err != nil {
			return fmt.Errorf("mark messages seen: %w", err)
		}
		return nil
	}
	if err := s.session.AddFlags(acked, imap.FlagSeen, imap.FlagDeleted); err != nil {
		return fmt.Errorf("mark messages deleted: %w", err)
	}
	if err := s.session.Expunge(acked); err != nil {
		return fmt.Errorf("expunge messages: %w", err)
	}
	return nil
}

func (s *IMAPSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logoutLocked()
}

func (s *IMAPSource) logoutLocked() error {
	if s.session == nil {
		return nil
	}
	err := s.session.Logout()
	s.session = nil
	s.uids = nil
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// imapUIDKey scopes a UID to its UIDVALIDITY epoch so a folder rebuilt on
// the server never reuses a source uid.
func imapUIDKey(validity uint32, uid imap.UID) string {
	return strconv.FormatUint(uint64(validity), 10) + "." + strconv.FormatUint(uint64(uid), 10)
}

func dialIMAP(cfg config.MailboxConfig) (imapSession, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dialer := &net.Dialer{Timeout: time.Duration(cfg.DialTimeout) * time.Second}

	var conn net.Conn
	var err error
	if cfg.TLS {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{
			ServerName:         cfg.Host,
			InsecureSkipVerify: cfg.TLSSkipVerify,
		})
	} else {
		conn, err = dialer.Dial("tcp", addr)
	}
	if err != nil {
		return nil, err
	}

	client := imapclient.New(conn, nil)
	if err := client.Login(cfg.Username, cfg.Password).Wait(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("authenticate as %s: %w", cfg.Username, err)
	}
	selected, err := client.Select(cfg.Folder, nil).Wait()
	if err != nil {
		_ = client.Logout().Wait()
		_ = client.Close()
		return nil, fmt.Errorf("select %s: %w", cfg.Folder, err)
	}
	return &clientSession{client: client, validity: selected.UIDValidity}, nil
}

// clientSession adapts *imapclient.Client to imapSession.
type clientSession struct {
	client   *imapclient.Client
	validity uint32
}

func (c *clientSession) UIDValidity() uint32 { return c.validity }

func (c *clientSession) SearchUnseen() ([]imap.UID, error) {
	criteria := &imap.SearchCriteria{NotFlag: []imap.Flag{imap.FlagSeen}}
	data, err := c.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, err
	}
	return data.AllUIDs(), nil
}

func (c *clientSession) FetchRaw(uids []imap.UID) (map[imap.UID][]byte, error) {
	section := &imap.FetchItemBodySection{Peek: true}
	options := &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{section},
	}
	buffers, err := c.client.Fetch(imap.UIDSetNum(uids...), options).Collect()
	if err != nil {
		return nil, err
	}
	out := make(map[imap.UID][]byte, len(buffers))
	for _, buf := range buffers {
		if body := buf.FindBodySection(section); body != nil {
			out[buf.UID] = body
		}
	}
	return out, nil
}

func (c *clientSession) AddFlags(uids []imap.UID, flags ...imap.Flag) error {
	store := &imap.StoreFlags{Op: imap.StoreFlagsAdd, Silent: true, Flags: flags}
	return c.client.Store(imap.UIDSetNum(uids...), store, nil).Close()
}

func (c *clientSession) Expunge(uids []imap.UID) error {
	if c.client.Caps().Has(imap.CapUIDPlus) {
		return c.client.UIDExpunge(imap.UIDSetNum(uids...)).Close()
	}
	return c.client.Expunge().Close()
}

func (c *clientSession) Logout() error {
	err := c.client.Logout().Wait()
	if cerr := c.client.Close(); err == nil {
		err = cerr
	}
	return err
}
