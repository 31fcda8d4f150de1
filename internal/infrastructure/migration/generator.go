package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

var (
	migrationName = regexp.MustCompile(`^[a-z0-9_]+$`)
	versionPrefix = regexp.MustCompile(`^(\d+)_`)
)

// DefaultScriptsPath is where new PostgreSQL scripts are written during
// development; the files are embedded at build time.
const DefaultScriptsPath = "internal/infrastructure/migration/scripts/postgres"

// Generator handles creation of new migration files
type Generator struct {
	scriptsPath string
	now         func() time.Time
	logger      logger.Interface
}

// NewGenerator creates a new migration generator
func NewGenerator(scriptsPath string, log logger.Interface) *Generator {
	return &Generator{scriptsPath: scriptsPath, now: time.Now, logger: log}
}

// CreateMigration writes the next sequential goose script and returns its path.
func (g *Generator) CreateMigration(name string) (string, error) {
	if !migrationName.MatchString(name) {
		return "", fmt.Errorf("migration name %q must be lower case letters, digits and underscores", name)
	}
	if err := os.MkdirAll(g.scriptsPath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create scripts directory: %w", err)
	}

	next, err := g.nextVersion()
	if err != nil {
		return "", err
	}

	path := filepath.Join(g.scriptsPath, fmt.Sprintf("%05d_%s.sql", next, name))
	content := fmt.Sprintf(`-- Migration: %s
-- Created: %s

-- +goose Up

-- +goose Down

`, name, g.now().Format("2006-01-02 15:04:05"))

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write migration file: %w", err)
	}

	g.logger.Infow("migration file created", "file", path)
	return path, nil
}

func (g *Generator) nextVersion() (int64, error) {
	entries, err := os.ReadDir(g.scriptsPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read scripts directory: %w", err)
	}

	versions := make([]int64, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		m := versionPrefix.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		v, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	if len(versions) == 0 {
		return 1, nil
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions[len(versions)-1] + 1, nil
}
