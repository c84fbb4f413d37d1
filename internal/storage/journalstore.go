package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/focal-sh/focal/pkg/models"
)

var (
	// ErrNotBound means no journal file capability is stored and the
	// caller must surface an explicit binding affordance to the user.
	ErrNotBound = errors.New("journal file not bound")
	// ErrPermission means the journal file could not be accessed with the
	// required permission. Write-permission denial also clears the cached
	// binding so the next attempt re-binds.
	ErrPermission = errors.New("journal file permission denied")
	// ErrEntryNotFound means an Update target does not exist. No fallback
	// insert is performed.
	ErrEntryNotFound = errors.New("journal entry not found")
	// ErrAborted means the user cancelled the binding prompt. Callers
	// treat it as a no-op, not a failure.
	ErrAborted = errors.New("journal binding aborted")
)

// ParseError reports a malformed journal line. A parse fault is fatal for
// the whole read or update that hit it; no best-effort recovery happens
// and no write is attempted.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing journal line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Binder interactively asks the user to choose a journal destination.
// Returning ErrAborted means the user cancelled and nothing is stored.
type Binder interface {
	Bind() (string, error)
}

// JournalStore is the append-only session journal: UTF-8 text, one JSON
// entry per line, joined by newline separators, no header or trailer.
// Unknown fields on entries written by other tools are tolerated on read
// and preserved through an Update rewrite. Concurrent writers from two
// processes are an accepted race, not a guarded case.
type JournalStore interface {
	Append(entry models.JournalEntry) error
	ReadAll() ([]models.JournalEntry, error)
	Update(sessionID, newSummary string) error
	Bound() bool
}

type fileJournalStore struct {
	caps   CapabilityRegistry
	binder Binder
	now    func() time.Time
}

// NewJournalStore creates a JournalStore whose file location comes from
// the capability registry, acquiring a binding through the binder when
// none is stored.
func NewJournalStore(caps CapabilityRegistry, binder Binder) JournalStore {
	return &fileJournalStore{caps: caps, binder: binder, now: time.Now}
}

func (s *fileJournalStore) Bound() bool {
	binding, err := s.caps.Current()
	return err == nil && binding != nil
}

// Append serializes the entry as one JSON line at the end of the journal
// file, binding a destination first if necessary.
func (s *fileJournalStore) Append(entry models.JournalEntry) error {
	binding, err := s.ensureBound()
	if err != nil {
		return err
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding journal entry: %w", err)
	}

	needSep, err := needsSeparator(binding.Path)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(binding.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsPermission(err) {
			_ = s.caps.Clear()
			return fmt.Errorf("opening journal for append: %w", ErrPermission)
		}
		return fmt.Errorf("opening journal for append: %w", err)
	}
	defer f.Close()

	if needSep {
		line = append([]byte{'\n'}, line...)
	}
	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("appending journal entry: %w", err)
	}
	return nil
}

// ReadAll parses every non-empty line and returns the entries ordered
// most-recent end_time first.
func (s *fileJournalStore) ReadAll() ([]models.JournalEntry, error) {
	binding, err := s.caps.Current()
	if err != nil {
		return nil, err
	}
	if binding == nil {
		return nil, ErrNotBound
	}

	data, err := os.ReadFile(binding.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("opening journal for reading: %w", ErrPermission)
		}
		return nil, fmt.Errorf("opening journal for reading: %w", err)
	}

	var entries []models.JournalEntry
	for i, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var entry models.JournalEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, &ParseError{Line: i + 1, Err: err}
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].EndTime.After(entries[j].EndTime)
	})
	return entries, nil
}

// Update replaces summary_text on the first entry whose sessionId matches,
// then rewrites the file in full. Every other entry passes through a
// map-based decode so fields this tool does not know about survive the
// rewrite. The file is only written after every line has parsed.
func (s *fileJournalStore) Update(sessionID, newSummary string) error {
	binding, err := s.caps.Current()
	if err != nil {
		return err
	}
	if binding == nil {
		return ErrNotBound
	}

	data, err := os.ReadFile(binding.Path)
	if err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("opening journal for update: %w", ErrPermission)
		}
		return fmt.Errorf("opening journal for update: %w", err)
	}

	var records []map[string]any
	for i, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		record := make(map[string]any)
		dec := json.NewDecoder(strings.NewReader(line))
		dec.UseNumber()
		if err := dec.Decode(&record); err != nil {
			return &ParseError{Line: i + 1, Err: err}
		}
		// Decode stops at the end of the first value, so a line with
		// trailing bytes after the entry would otherwise slip through and
		// be destroyed by the rewrite. ReadAll rejects such a line; so
		// must Update.
		var trailing json.RawMessage
		if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
			return &ParseError{Line: i + 1, Err: errors.New("trailing data after entry")}
		}
		records = append(records, record)
	}

	found := false
	for _, record := range records {
		if id, _ := record["sessionId"].(string); id == sessionID {
			record["summary_text"] = newSummary
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("updating journal entry %s: %w", sessionID, ErrEntryNotFound)
	}

	lines := make([]string, len(records))
	for i, record := range records {
		out, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encoding journal entry: %w", err)
		}
		lines[i] = string(out)
	}

	if err := os.WriteFile(binding.Path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		if os.IsPermission(err) {
			_ = s.caps.Clear()
			return fmt.Errorf("rewriting journal: %w", ErrPermission)
		}
		return fmt.Errorf("rewriting journal: %w", err)
	}
	return nil
}

// ensureBound returns the current binding, acquiring and persisting one
// through the binder when the journal is unbound.
func (s *fileJournalStore) ensureBound() (*models.JournalBinding, error) {
	binding, err := s.caps.Current()
	if err != nil {
		return nil, err
	}
	if binding != nil {
		return binding, nil
	}

	path, err := s.binder.Bind()
	if err != nil {
		return nil, err
	}

	binding = &models.JournalBinding{
		Path:    path,
		Mode:    models.ModeReadWrite,
		BoundAt: s.now().UTC(),
	}
	if err := s.caps.Store(*binding); err != nil {
		return nil, err
	}
	return binding, nil
}

// needsSeparator reports whether an append must be preceded by a newline,
// which is the case when the file is non-empty and its last byte is not
// already a newline.
func needsSeparator(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		if os.IsPermission(err) {
			return false, nil // The append open reports this properly.
		}
		return false, fmt.Errorf("checking journal tail: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("checking journal tail: %w", err)
	}
	if info.Size() == 0 {
		return false, nil
	}

	buf := make([]byte, 1)
	if _, err := f.ReadAt(buf, info.Size()-1); err != nil {
		return false, fmt.Errorf("checking journal tail: %w", err)
	}
	return buf[0] != '\n', nil
}
