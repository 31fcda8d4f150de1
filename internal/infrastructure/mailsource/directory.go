package mailsource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/orris-inc/helpdesk/internal/application/ingestion"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

const emlExt = ".eml"

// DirectorySource reads *.eml files from a spool directory in name order.
// Acked files move to the processed directory, or are removed when none is
// configured.
type DirectorySource struct {
	dir          string
	processedDir string
	batchSize    int
	logger       logger.Interface

	mu sync.Mutex
}

func NewDirectorySource(dir, processedDir string, batchSize int, log logger.Interface) *DirectorySource {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &DirectorySource{dir: dir, processedDir: processedDir, batchSize: batchSize, logger: log}
}

func (s *DirectorySource) Fetch(ctx context.Context) ([]ingestion.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read spool directory: %w", err)
	}

	msgs := make([]ingestion.RawMessage, 0, s.batchSize)
	for _, entry := range entries {
		if len(msgs) >= s.batchSize {
			break
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), emlExt) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		msg, err := readFile(filepath.Join(s.dir, entry.Name()), entry.Name())
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		msgs = append(msgs, msg)
	}

	s.logger.Debugw("read spool directory", "dir", s.dir, "count", len(msgs))
	return msgs, nil
}

func (s *DirectorySource) Ack(ctx context.Context, uids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.processedDir != "" {
		if err := os.MkdirAll(s.processedDir, 0o755); err != nil {
			return fmt.Errorf("create processed directory: %w", err)
		}
	}

	var errs []error
	for _, uid := range uids {
		if uid != filepath.Base(uid) {
			errs = append(errs, fmt.Errorf("invalid uid %q", uid))
			continue
		}
		src := filepath.Join(s.dir, uid)
		var err error
		if s.processedDir == "" {
			err = os.Remove(src)
		} else {
			err = os.Rename(src, filepath.Join(s.processedDir, uid))
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *DirectorySource) Close() error {
	return nil
}

// FileSource hands out an explicit list of files once. Ack leaves them in
// place.
type FileSource struct {
	paths []string
}

func NewFileSource(paths []string) *FileSource {
	return &FileSource{paths: paths}
}

func (s *FileSource) Fetch(ctx context.Context) ([]ingestion.RawMessage, error) {
	msgs := make([]ingestion.RawMessage, 0, len(s.paths))
	for _, path := range s.paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msg, err := readFile(path, path)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (s *FileSource) Ack(ctx context.Context, uids []string) error {
	return nil
}

func (s *FileSource) Close() error {
	return nil
}

func readFile(path, uid string) (ingestion.RawMessage, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ingestion.RawMessage{}, fmt.Errorf("stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ingestion.RawMessage{}, fmt.Errorf("read %s: %w", path, err)
	}
	return ingestion.RawMessage{UID: uid, Data: data, FetchedAt: info.ModTime().UTC()}, nil
}
