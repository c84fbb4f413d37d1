// Package integration contains the file-based plumbing between focal
// processes and external helpers: the navigation channel a browser helper
// reports visits through, and the spool carrying the one-shot
// timer-finished signal.
package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/focal-sh/focal/pkg/models"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// NavChannel is a directory-based channel for navigation events. A
// browser helper drops one markdown file per completed navigation into
// inbox/; the guard consumes them and answers blocked navigations with a
// verdict file in outbox/ that the helper applies as a redirect.
type NavChannel struct {
	baseDir   string
	inboxDir  string
	outboxDir string
	events    chan models.NavigationEvent
}

// navFrontmatter is the YAML frontmatter of a channel file.
type navFrontmatter struct {
	ID       string `yaml:"id"`
	URL      string `yaml:"url"`
	Occurred string `yaml:"occurred"`
	Status   string `yaml:"status"`
	Redirect string `yaml:"redirect,omitempty"`
}

// NewNavChannel creates a navigation channel rooted at baseDir, creating
// inbox/ and outbox/ beneath it.
func NewNavChannel(baseDir string) (*NavChannel, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("creating navigation channel: base dir is empty")
	}

	inboxDir := filepath.Join(baseDir, "inbox")
	outboxDir := filepath.Join(baseDir, "outbox")
	for _, dir := range []string{inboxDir, outboxDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating navigation channel directory %s: %w", dir, err)
		}
	}

	return &NavChannel{
		baseDir:   baseDir,
		inboxDir:  inboxDir,
		outboxDir: outboxDir,
		events:    make(chan models.NavigationEvent, 16),
	}, nil
}

// Report writes a completed navigation into the inbox and returns the
// event ID. This is the entry point a browser helper calls.
func (c *NavChannel) Report(rawURL string) (string, error) {
	if rawURL == "" {
		return "", fmt.Errorf("reporting navigation: url is empty")
	}

	fm := navFrontmatter{
		ID:       uuid.NewString(),
		URL:      rawURL,
		Occurred: time.Now().UTC().Format(time.RFC3339),
		Status:   "pending",
	}
	content, err := renderChannelFile(fm, "")
	if err != nil {
		return "", fmt.Errorf("rendering navigation event: %w", err)
	}

	path := filepath.Join(c.inboxDir, fm.ID+".md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing navigation event: %w", err)
	}
	return fm.ID, nil
}

// Fetch returns all pending navigation events from the inbox. Malformed
// files are skipped rather than failing the whole fetch.
func (c *NavChannel) Fetch() ([]models.NavigationEvent, error) {
	entries, err := os.ReadDir(c.inboxDir)
	if err != nil {
		return nil, fmt.Errorf("reading navigation inbox: %w", err)
	}

	var events []models.NavigationEvent
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		ev, status, err := c.parseInboxFile(filepath.Join(c.inboxDir, entry.Name()))
		if err != nil {
			continue
		}
		if status == "pending" {
			events = append(events, ev)
		}
	}
	return events, nil
}

// MarkProcessed flips an inbox event's status so it is not delivered again.
func (c *NavChannel) MarkProcessed(eventID string) error {
	path := filepath.Join(c.inboxDir, eventID+".md")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading navigation event %s: %w", eventID, err)
	}

	fm, body, err := parseChannelFile(string(data))
	if err != nil {
		return fmt.Errorf("parsing navigation event %s: %w", eventID, err)
	}
	fm.Status = "processed"

	content, err := renderChannelFile(fm, body)
	if err != nil {
		return fmt.Errorf("rendering navigation event %s: %w", eventID, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("updating navigation event %s: %w", eventID, err)
	}
	return nil
}

// Redirect writes a verdict file telling the helper to send the tab that
// produced the event to the target URL.
func (c *NavChannel) Redirect(eventID, target string) error {
	if eventID == "" {
		return fmt.Errorf("redirecting navigation: event ID is empty")
	}

	fm := navFrontmatter{
		ID:       eventID,
		Redirect: target,
		Occurred: time.Now().UTC().Format(time.RFC3339),
		Status:   "sent",
	}
	content, err := renderChannelFile(fm, "")
	if err != nil {
		return fmt.Errorf("rendering redirect verdict: %w", err)
	}

	path := filepath.Join(c.outboxDir, eventID+".md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing redirect verdict: %w", err)
	}
	return nil
}

// Events returns the stream fed by Start.
func (c *NavChannel) Events() <-chan models.NavigationEvent {
	return c.events
}

// Start watches the inbox and delivers each pending event exactly once,
// marking it processed on delivery. It blocks until the context is
// cancelled.
func (c *NavChannel) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating inbox watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(c.inboxDir); err != nil {
		return fmt.Errorf("watching navigation inbox: %w", err)
	}

	// Drain anything that arrived while no guard was running.
	c.deliverPending()

	for {
		select {
		case <-ctx.Done():
			close(c.events)
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				close(c.events)
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !strings.HasSuffix(ev.Name, ".md") {
				continue
			}
			c.deliverPending()
		case _, ok := <-watcher.Errors:
			if !ok {
				close(c.events)
				return nil
			}
		}
	}
}

func (c *NavChannel) deliverPending() {
	pending, err := c.Fetch()
	if err != nil {
		return
	}
	for _, ev := range pending {
		if err := c.MarkProcessed(ev.ID); err != nil {
			continue
		}
		c.events <- ev
	}
}

func (c *NavChannel) parseInboxFile(path string) (models.NavigationEvent, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.NavigationEvent{}, "", err
	}

	fm, _, err := parseChannelFile(string(data))
	if err != nil {
		return models.NavigationEvent{}, "", err
	}

	ev := models.NavigationEvent{ID: fm.ID, URL: fm.URL}
	if ev.ID == "" {
		ev.ID = strings.TrimSuffix(filepath.Base(path), ".md")
	}
	if t, err := time.Parse(time.RFC3339, fm.Occurred); err == nil {
		ev.OccurredAt = t
	}
	return ev, fm.Status, nil
}

// renderChannelFile produces a markdown string with YAML frontmatter.
func renderChannelFile(fm navFrontmatter, body string) (string, error) {
	fmBytes, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("marshaling frontmatter: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(fmBytes)
	sb.WriteString("---\n")
	if body != "" {
		sb.WriteString("\n")
		sb.WriteString(body)
	}
	return sb.String(), nil
}

// parseChannelFile splits a channel file into its YAML frontmatter and body.
func parseChannelFile(content string) (navFrontmatter, string, error) {
	var fm navFrontmatter

	if !strings.HasPrefix(content, "---\n") {
		return fm, content, fmt.Errorf("no frontmatter delimiter found")
	}

	rest := content[4:]
	idx := strings.Index(rest, "\n---\n")
	if idx < 0 {
		if strings.HasSuffix(rest, "\n---") {
			idx = len(rest) - 4
		} else {
			return fm, content, fmt.Errorf("no closing frontmatter delimiter found")
		}
	}

	fmStr := rest[:idx]
	body := strings.TrimLeft(rest[idx+4:], "\n")

	if err := yaml.Unmarshal([]byte(fmStr), &fm); err != nil {
		return fm, body, fmt.Errorf("unmarshaling frontmatter: %w", err)
	}
	return fm, body, nil
}
