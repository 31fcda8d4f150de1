package template

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/orris-inc/helpdesk/internal/application/notification"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

//go:embed defaults/*.md
var defaultTemplates embed.FS

// NotificationTemplates renders markdown notification bodies. Built-in
// templates can be overridden per kind by <kind>.md files in a directory.
type NotificationTemplates struct {
	templates map[string]*template.Template
	md        goldmark.Markdown
	policy    *bluemonday.Policy
	logger    logger.Interface
}

func NewNotificationTemplates(log logger.Interface) (*NotificationTemplates, error) {
	t := &NotificationTemplates{
		templates: make(map[string]*template.Template),
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Linkify,
			),
			goldmark.WithRendererOptions(
				html.WithHardWraps(),
				html.WithXHTML(),
			),
		),
		policy: bluemonday.UGCPolicy(),
		logger: log,
	}

	entries, err := defaultTemplates.ReadDir("defaults")
	if err != nil {
		return nil, fmt.Errorf("read built-in templates: %w", err)
	}
	for _, entry := range entries {
		content, err := defaultTemplates.ReadFile("defaults/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read built-in template %s: %w", entry.Name(), err)
		}
		if err := t.set(strings.TrimSuffix(entry.Name(), ".md"), string(content)); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// LoadDir replaces built-in templates with <kind>.md files found in path.
// A missing directory is not an error.
func (t *NotificationTemplates) LoadDir(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.logger.Warnw("templates directory not found, using built-in templates", "path", path)
		return nil
	}

	files, err := filepath.Glob(filepath.Join(path, "*.md"))
	if err != nil {
		return err
	}
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			t.logger.Warnw("failed to read template file", "file", file, "error", err)
			continue
		}
		kind := strings.TrimSuffix(filepath.Base(file), ".md")
		if err := t.set(kind, string(content)); err != nil {
			return err
		}
		t.logger.Infow("loaded notification template", "kind", kind, "file", file, "size", len(content))
	}
	return nil
}

func (t *NotificationTemplates) set(kind, content string) error {
	tmpl, err := template.New(kind).Option("missingkey=error").Parse(content)
	if err != nil {
		return fmt.Errorf("parse template %s: %w", kind, err)
	}
	t.templates[kind] = tmpl
	return nil
}

// Render returns the markdown text and its sanitized HTML rendering.
func (t *NotificationTemplates) Render(kind string, data notification.TemplateData) (string, string, error) {
	tmpl, ok := t.templates[kind]
	if !ok {
		return "", "", fmt.Errorf("no notification template for %q", kind)
	}

	var text bytes.Buffer
	if err := tmpl.Execute(&text, data); err != nil {
		return "", "", fmt.Errorf("execute template %s: %w", kind, err)
	}

	var out bytes.Buffer
	if err := t.md.Convert(text.Bytes(), &out); err != nil {
		return "", "", fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}
	return text.String(), t.policy.Sanitize(out.String()), nil
}
