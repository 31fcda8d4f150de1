// Package mailsource provides the mail sources the ingestion poller drains.
package mailsource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/knadh/go-pop3"

	"github.com/orris-inc/helpdesk/internal/application/ingestion"
	"github.com/orris-inc/helpdesk/internal/shared/config"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

// popConn is the subset of *pop3.Conn the source uses.
type popConn interface {
	Auth(user, password string) error
	Uidl(msgID int) ([]pop3.MessageID, error)
	RetrRaw(msgID int) (*bytes.Buffer, error)
	Dele(msgID ...int) error
	Quit() error
}

type dialFunc func() (popConn, error)

// POP3Source reads one batch per session. Deletions issued by Ack are
// committed by the server when Close sends QUIT; a session that drops before
// that leaves every message on the server.
type POP3Source struct {
	cfg    config.MailboxConfig
	dial   dialFunc
	now    func() time.Time
	logger logger.Interface

	mu   sync.Mutex
	conn popConn
	ids  map[string]int
}

func NewPOP3Source(cfg config.MailboxConfig, log logger.Interface) *POP3Source {
	client := pop3.New(pop3.Opt{
		Host:          cfg.Host,
		Port:          cfg.Port,
		DialTimeout:   time.Duration(cfg.DialTimeout) * time.Second,
		TLSEnabled:    cfg.TLS,
		TLSSkipVerify: cfg.TLSSkipVerify,
	})
	dial := func() (popConn, error) {
		conn, err := client.NewConn()
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
	return newPOP3Source(cfg, dial, log)
}

func newPOP3Source(cfg config.MailboxConfig, dial dialFunc, log logger.Interface) *POP3Source {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &POP3Source{cfg: cfg, dial: dial, now: time.Now, logger: log}
}

func (s *POP3Source) Fetch(ctx context.Context) ([]ingestion.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		s.quitLocked()
	}

	conn, err := s.dial()
	if err != nil {
		return nil, fmt.Errorf("connect to %s:%d: %w", s.cfg.Host, s.cfg.Port, err)
	}
	if err := conn.Auth(s.cfg.Username, s.cfg.Password); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("authenticate as %s: %w", s.cfg.Username, err)
	}
	s.conn = conn
	s.ids = make(map[string]int)

	listing, err := conn.Uidl(0)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if len(listing) > s.cfg.BatchSize {
		listing = listing[:s.cfg.BatchSize]
	}

	fetchedAt := s.now().UTC()
	msgs := make([]ingestion.RawMessage, 0, len(listing))
	for _, item := range listing {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		buf, err := conn.RetrRaw(item.ID)
		if err != nil {
			return nil, fmt.Errorf("retrieve message %d: %w", item.ID, err)
		}

		uid := item.UID
		if uid == "" {
			uid = strconv.Itoa(item.ID)
		}
		s.ids[uid] = item.ID
		msgs = append(msgs, ingestion.RawMessage{
			UID:       uid,
			Data:      bytes.Clone(buf.Bytes()),
			FetchedAt: fetchedAt,
		})
	}

	s.logger.Debugw("fetched messages from mailbox",
		"host", s.cfg.Host,
		"count", len(msgs),
	)
	return msgs, nil
}

// Ack marks the messages for deletion. With delete_after_fetch off the
// mailbox is left untouched and dedup keeps repeated deliveries out.
func (s *POP3Source) Ack(ctx context.Context, uids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cfg.DeleteAfterFetch || len(uids) == 0 {
		return nil
	}
	if s.conn == nil {
		return errors.New("ack without an open session")
	}

	ids := make([]int, 0, len(uids))
	for _, uid := range uids {
		id, ok := s.ids[uid]
		if !ok {
			s.logger.Warnw("ack for unknown message uid", "uid", uid)
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := s.conn.Dele(ids...); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return nil
}

func (s *POP3Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quitLocked()
}

func (s *POP3Source) quitLocked() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Quit()
	s.conn = nil
	s.ids = nil
	if err != nil {
		return fmt.Errorf("quit: %w", err)
	}
	return nil
}
