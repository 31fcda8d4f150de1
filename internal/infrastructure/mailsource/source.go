package mailsource

import (
	"fmt"

	"github.com/orris-inc/helpdesk/internal/application/ingestion"
	"github.com/orris-inc/helpdesk/internal/shared/config"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

// New returns the source selected by mailbox.source.
func New(cfg config.MailboxConfig, log logger.Interface) (ingestion.MailSource, error) {
	switch cfg.Source {
	case "", "pop3":
		if cfg.Host == "" {
			return nil, fmt.Errorf("mailbox.host is required for the pop3 source")
		}
		return NewPOP3Source(cfg, log), nil
	case "imap":
		if cfg.Host == "" {
			return nil, fmt.Errorf("mailbox.host is required for the imap source")
		}
		return NewIMAPSource(cfg, log), nil
	case "directory":
		if cfg.Directory == "" {
			return nil, fmt.Errorf("mailbox.directory is required for the directory source")
		}
		return NewDirectorySource(cfg.Directory, cfg.ProcessedDir, cfg.BatchSize, log), nil
	default:
		return nil, fmt.Errorf("unsupported mailbox source %q", cfg.Source)
	}
}
