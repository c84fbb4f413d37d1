package observability

import (
	"path/filepath"
	"testing"
	"time"
)

func seedEventLog(t *testing.T) EventLog {
	t.Helper()

	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewEventLog(path)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func TestMetricsCalculatorAggregates(t *testing.T) {
	log := seedEventLog(t)
	base := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

	events := []Event{
		{Time: base, Level: LevelInfo, Type: EventSessionStarted, Data: map[string]any{"session_id": "s-1", "duration": 25}},
		{Time: base.Add(25 * time.Minute), Level: LevelInfo, Type: EventSessionFinished, Data: map[string]any{"session_id": "s-1", "duration": 25}},
		{Time: base.Add(26 * time.Minute), Level: LevelInfo, Type: EventJournalAppended, Data: map[string]any{"session_id": "s-1"}},
		{Time: base.Add(30 * time.Minute), Level: LevelInfo, Type: EventSessionStarted, Data: map[string]any{"session_id": "s-2", "duration": 55}},
		{Time: base.Add(40 * time.Minute), Level: LevelInfo, Type: EventSessionReset, Data: nil},
		{Time: base.Add(45 * time.Minute), Level: LevelInfo, Type: EventNavBlocked, Data: map[string]any{"url": "http://example.com"}},
		{Time: base.Add(46 * time.Minute), Level: LevelInfo, Type: EventNavBlocked, Data: map[string]any{"url": "http://example.org"}},
	}
	for _, e := range events {
		if err := log.Write(e); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}

	m, err := NewMetricsCalculator(log).Calculate(base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if m.SessionsStarted != 2 {
		t.Errorf("SessionsStarted = %d, want 2", m.SessionsStarted)
	}
	if m.SessionsCompleted != 1 {
		t.Errorf("SessionsCompleted = %d, want 1", m.SessionsCompleted)
	}
	if m.MinutesFocused != 25 {
		t.Errorf("MinutesFocused = %d, want 25", m.MinutesFocused)
	}
	if m.NavigationsBlocked != 2 {
		t.Errorf("NavigationsBlocked = %d, want 2", m.NavigationsBlocked)
	}
	if m.EntriesJournaled != 1 {
		t.Errorf("EntriesJournaled = %d, want 1", m.EntriesJournaled)
	}
	if m.EventCount != len(events) {
		t.Errorf("EventCount = %d, want %d", m.EventCount, len(events))
	}
	if m.OldestEvent == nil || !m.OldestEvent.Equal(base) {
		t.Errorf("OldestEvent = %v, want %v", m.OldestEvent, base)
	}
	if m.NewestEvent == nil || !m.NewestEvent.Equal(base.Add(46*time.Minute)) {
		t.Errorf("NewestEvent = %v", m.NewestEvent)
	}
}

func TestMetricsCalculatorSinceWindow(t *testing.T) {
	log := seedEventLog(t)
	base := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

	old := Event{Time: base, Level: LevelInfo, Type: EventSessionStarted, Data: map[string]any{"duration": 25}}
	recent := Event{Time: base.Add(48 * time.Hour), Level: LevelInfo, Type: EventSessionStarted, Data: map[string]any{"duration": 35}}
	for _, e := range []Event{old, recent} {
		if err := log.Write(e); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}

	m, err := NewMetricsCalculator(log).Calculate(base.Add(24 * time.Hour))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if m.SessionsStarted != 1 {
		t.Errorf("SessionsStarted = %d, want 1 (old event excluded)", m.SessionsStarted)
	}
}

func TestMetricsCalculatorEmptyLog(t *testing.T) {
	log := seedEventLog(t)

	m, err := NewMetricsCalculator(log).Calculate(time.Now().UTC().AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if m.EventCount != 0 || m.OldestEvent != nil || m.NewestEvent != nil {
		t.Errorf("metrics = %+v, want zero values", m)
	}
}
