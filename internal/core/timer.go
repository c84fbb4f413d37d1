package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/focal-sh/focal/internal/observability"
	"github.com/focal-sh/focal/internal/storage"
	"github.com/focal-sh/focal/pkg/models"
	"github.com/google/uuid"
)

var (
	// ErrDurationNotAllowed means the requested session length is not in
	// the fixed selectable set.
	ErrDurationNotAllowed = errors.New("duration not in allowed set")
	// ErrSummaryTooShort means the summary has not passed the word-count
	// gate yet.
	ErrSummaryTooShort = errors.New("summary below minimum word count")
	// ErrNoSession means no completed session is awaiting a summary.
	ErrNoSession = errors.New("no completed session awaiting a summary")
)

// EventLogger records lifecycle events. A nil logger disables recording.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}

// FinishSignaler emits the one-shot timerFinished signal consumed by the
// background guard.
type FinishSignaler interface {
	SignalFinished() error
}

// Controller drives the shared timer state machine for one process. Any
// number of controllers may run concurrently against the same store; the
// phase transitions are idempotent under duplicate writes, and the
// visible countdown is always derived from the shared end time rather
// than from when this instance started it.
type Controller struct {
	store    storage.StateStore
	journal  storage.JournalStore
	signaler FinishSignaler
	events   EventLogger
	clock    func() time.Time
}

// NewController creates a timer controller. signaler and events may be nil.
func NewController(store storage.StateStore, journal storage.JournalStore, signaler FinishSignaler, events EventLogger) *Controller {
	return &Controller{
		store:    store,
		journal:  journal,
		signaler: signaler,
		events:   events,
		clock:    time.Now,
	}
}

// Load reads the shared timer state. A missing or unparseable end time
// during a running countdown is recovered by forcing a reset to the
// start phase; the returned ErrCorruptState tells the caller to inform
// the user.
func (c *Controller) Load() (models.TimerState, error) {
	values, err := c.store.Get(timerKeys...)
	if err != nil {
		return models.TimerState{Phase: models.PhaseStart}, err
	}

	state, derr := decodeTimerState(values)
	if derr != nil && state.Phase == models.PhaseRunning {
		if err := c.Reset(); err != nil {
			return state, err
		}
		return models.TimerState{Phase: models.PhaseStart}, derr
	}
	return state, nil
}

// Start begins a session of the given length, moving START to RUNNING.
// All fields of the transition are written as a single batch: the end
// time, the fresh session ID, the duration, and a cleared summary.
func (c *Controller) Start(minutes int) (models.TimerState, error) {
	if !models.DurationAllowed(minutes) {
		return models.TimerState{}, fmt.Errorf("starting session of %d minutes (allowed: %v): %w",
			minutes, models.AllowedDurations, ErrDurationNotAllowed)
	}

	end := c.clock().UTC().Add(time.Duration(minutes) * time.Minute)
	sessionID := uuid.NewString()

	err := c.store.Set(map[string]any{
		models.KeyTimerState:     string(models.PhaseRunning),
		models.KeyEndTime:        end.Format(time.RFC3339),
		models.KeyDuration:       minutes,
		models.KeySessionID:      sessionID,
		models.KeyCurrentSummary: "",
	})
	if err != nil {
		return models.TimerState{}, fmt.Errorf("starting session: %w", err)
	}

	c.logEvent(observability.EventSessionStarted, map[string]any{
		"session_id": sessionID,
		"duration":   minutes,
	})

	return models.TimerState{
		Phase:     models.PhaseRunning,
		EndTime:   &end,
		Duration:  minutes,
		SessionID: sessionID,
	}, nil
}

// Advance is the per-tick step of the countdown. When the remaining time
// reaches zero it moves RUNNING to END and emits the finished signal.
// Multiple instances may detect expiry near-simultaneously; the duplicate
// phase writes target the same value and are safe, and a duplicate
// notification is tolerated.
func (c *Controller) Advance() (models.TimerState, bool, error) {
	state, err := c.Load()
	if err != nil {
		return state, false, err
	}
	if state.Phase != models.PhaseRunning {
		return state, false, nil
	}
	if state.EndTime != nil && state.Remaining(c.clock()) > 0 {
		return state, false, nil
	}

	if err := c.store.Set(map[string]any{
		models.KeyTimerState: string(models.PhaseEnd),
	}); err != nil {
		return state, false, fmt.Errorf("finishing session: %w", err)
	}

	if c.signaler != nil {
		if err := c.signaler.SignalFinished(); err != nil {
			c.logEvent(observability.EventSignalFailed, map[string]any{"error": err.Error()})
		}
	}
	c.logEvent(observability.EventSessionFinished, map[string]any{
		"session_id": state.SessionID,
		"duration":   state.Duration,
	})

	state.Phase = models.PhaseEnd
	return state, true, nil
}

// Reset moves the timer back to START, clearing the end time, duration,
// session ID, and summary. The exclusion list is untouched.
func (c *Controller) Reset() error {
	err := c.store.Set(map[string]any{
		models.KeyTimerState:     string(models.PhaseStart),
		models.KeyEndTime:        nil,
		models.KeyDuration:       0,
		models.KeySessionID:      nil,
		models.KeyCurrentSummary: "",
	})
	if err != nil {
		return fmt.Errorf("resetting timer: %w", err)
	}
	c.logEvent(observability.EventSessionReset, nil)
	return nil
}

// SetSummary mirrors the in-progress summary text so other open
// instances can display it while it is edited.
func (c *Controller) SetSummary(text string) error {
	return c.store.Set(map[string]any{models.KeyCurrentSummary: text})
}

// SetNote mirrors the in-progress note text across instances.
func (c *Controller) SetNote(text string) error {
	return c.store.Set(map[string]any{models.KeyCurrentNote: text})
}

// WordCount counts whitespace-delimited tokens.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// SubmitReady reports whether the summary passes the word-count gate.
// The gate re-runs on every keystroke and on remote summary updates.
func SubmitReady(summary string) bool {
	return WordCount(summary) >= models.MinSummaryWords
}

// SubmitSession appends the completed session to the journal and resets
// the timer to START. The session entry's start time is derived from the
// shared end time and duration.
func (c *Controller) SubmitSession(summary string) error {
	state, err := c.Load()
	if err != nil {
		return err
	}
	if state.Phase != models.PhaseEnd {
		return ErrNoSession
	}
	if !SubmitReady(summary) {
		return fmt.Errorf("summary has %d of %d required words: %w",
			WordCount(summary), models.MinSummaryWords, ErrSummaryTooShort)
	}

	end := c.clock().UTC()
	if state.EndTime != nil {
		end = state.EndTime.UTC()
	}
	start := end.Add(-time.Duration(state.Duration) * time.Minute)

	entry := models.JournalEntry{
		Type:        models.EntrySession,
		SessionID:   state.SessionID,
		StartTime:   &start,
		EndTime:     end,
		Duration:    state.Duration,
		SummaryText: summary,
	}
	if err := c.journal.Append(entry); err != nil {
		return err
	}

	c.logEvent(observability.EventJournalAppended, map[string]any{
		"session_id": state.SessionID,
		"type":       string(models.EntrySession),
	})
	return c.Reset()
}

// AddNote appends a free-standing note entry under a fresh identifier
// and clears the mirrored note text.
func (c *Controller) AddNote(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("adding note: text is empty")
	}

	entry := models.JournalEntry{
		Type:        models.EntryNote,
		SessionID:   uuid.NewString(),
		EndTime:     c.clock().UTC(),
		SummaryText: text,
	}
	if err := c.journal.Append(entry); err != nil {
		return err
	}

	c.logEvent(observability.EventJournalAppended, map[string]any{
		"session_id": entry.SessionID,
		"type":       string(models.EntryNote),
	})
	return c.store.Set(map[string]any{models.KeyCurrentNote: ""})
}

// EditEntry replaces the summary of an existing journal entry.
func (c *Controller) EditEntry(sessionID, newSummary string) error {
	if err := c.journal.Update(sessionID, newSummary); err != nil {
		return err
	}
	c.logEvent(observability.EventJournalUpdated, map[string]any{"session_id": sessionID})
	return nil
}

func (c *Controller) logEvent(eventType string, data map[string]any) {
	if c.events == nil {
		return
	}
	_ = c.events.LogEvent(eventType, data)
}
